package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "data integrity", errType: ErrTypeDataIntegrity, expected: "DATA_INTEGRITY"},
		{name: "model fit", errType: ErrTypeModelFit, expected: "MODEL_FIT"},
		{name: "insufficient data", errType: ErrTypeInsufficientData, expected: "INSUFFICIENT_DATA"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "parsing", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewInsufficientDataError("window larger than sample"),
			wantMessage: "[INSUFFICIENT_DATA] window larger than sample",
		},
		{
			name:        "error with cause",
			appError:    NewModelFitError("fit VAR(3)", fmt.Errorf("singular design")),
			wantMessage: "[MODEL_FIT] fit VAR(3): singular design",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("low price is zero")
	err := NewDataIntegrityError("Banks 2020-01-02", cause)
	wrapped := fmt.Errorf("compute volatility: %w", err)

	assert.True(t, errors.Is(wrapped, cause))
	assert.True(t, errors.Is(wrapped, ErrDataIntegrity))
	assert.False(t, errors.Is(wrapped, ErrModelFit))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeDataIntegrity, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewModelFitError("fit", nil).
		WithContext("lag", 2).
		WithContext("window_end", "2021-03-04")

	assert.Equal(t, 2, err.Context["lag"])
	assert.Equal(t, "2021-03-04", err.Context["window_end"])

	bare := &AppError{Type: ErrTypeStorage}
	bare.WithContext("path", "out.csv")
	assert.Equal(t, "out.csv", bare.Context["path"])
}

func TestTypeOfAndIsType(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("plain")))

	err := fmt.Errorf("outer: %w", NewParsingError("bad date", nil))
	assert.Equal(t, ErrTypeParsing, TypeOf(err))
	assert.True(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(err, ErrTypeConfig))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain error", err: fmt.Errorf("boom"), want: ExitUnknown},
		{name: "config", err: NewConfigError("bad", nil), want: ExitConfig},
		{name: "data integrity", err: NewDataIntegrityError("bad", nil), want: ExitDataIntegrity},
		{name: "model fit", err: NewModelFitError("bad", nil), want: ExitModelFit},
		{name: "insufficient data", err: NewInsufficientDataError("bad"), want: ExitInsufficientData},
		{name: "parsing", err: NewParsingError("bad", nil), want: ExitParsing},
		{name: "storage", err: NewStorageError("bad", nil), want: ExitStorage},
		{name: "wrapped", err: fmt.Errorf("run: %w", NewModelFitError("bad", nil)), want: ExitModelFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
