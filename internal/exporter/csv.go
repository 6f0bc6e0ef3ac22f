package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes tables as comma-separated files
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to filePath, creating its directory
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory for %s", filePath), err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", filePath), err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to flush %s", filePath), err)
	}
	return file.Close()
}

// Export writes the table to the CSV file dest with a BOM. Empty cells are
// left blank.
func (w *CSVWriter) Export(ctx context.Context, table *domain.Table, dest string) error {
	headers, records := tableRecords(table)
	if err := w.WriteCSV(dest, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	}); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "table exported",
		"table", table.Name,
		"path", dest,
		"rows", len(table.Index))
	return nil
}
