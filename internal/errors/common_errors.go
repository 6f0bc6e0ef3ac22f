package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDataIntegrity    ErrorType = "DATA_INTEGRITY"
	ErrTypeModelFit         ErrorType = "MODEL_FIT"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeConfig           ErrorType = "CONFIG"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeStorage          ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is checks, one per type
var (
	ErrDataIntegrity    = &AppError{Type: ErrTypeDataIntegrity}
	ErrModelFit         = &AppError{Type: ErrTypeModelFit}
	ErrInsufficientData = &AppError{Type: ErrTypeInsufficientData}
	ErrConfig           = &AppError{Type: ErrTypeConfig}
	ErrParsing          = &AppError{Type: ErrTypeParsing}
	ErrStorage          = &AppError{Type: ErrTypeStorage}
)

// Helper functions for common error types

// NewDataIntegrityError reports malformed price input: non-positive prices,
// non-monotonic dates or misaligned sector ranges
func NewDataIntegrityError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataIntegrity, message, cause)
}

// NewModelFitError reports a VAR fit that cannot be carried out
func NewModelFitError(message string, cause error) *AppError {
	return NewAppError(ErrTypeModelFit, message, cause)
}

// NewInsufficientDataError reports a window or sweep with nothing to compute
func NewInsufficientDataError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// TypeOf returns the type of the outermost AppError in the chain, or "" if none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether any AppError in the chain has the given type
func IsType(err error, errType ErrorType) bool {
	return errors.Is(err, &AppError{Type: errType})
}

// Exit codes returned by the command line driver
const (
	ExitOK               = 0
	ExitUnknown          = 1
	ExitConfig           = 2
	ExitDataIntegrity    = 3
	ExitModelFit         = 4
	ExitInsufficientData = 5
	ExitParsing          = 6
	ExitStorage          = 7
)

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch TypeOf(err) {
	case ErrTypeConfig:
		return ExitConfig
	case ErrTypeDataIntegrity:
		return ExitDataIntegrity
	case ErrTypeModelFit:
		return ExitModelFit
	case ErrTypeInsufficientData:
		return ExitInsufficientData
	case ErrTypeParsing:
		return ExitParsing
	case ErrTypeStorage:
		return ExitStorage
	default:
		return ExitUnknown
	}
}
