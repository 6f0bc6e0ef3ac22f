package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// maxSheetName is the longest sheet name a workbook accepts
const maxSheetName = 31

// WorkbookWriter collects tables into one workbook, a sheet per table
type WorkbookWriter struct {
	mu     sync.Mutex
	file   *excelize.File
	sheets map[string]bool
	closed bool
	logger *slog.Logger
}

// NewWorkbookWriter creates an empty workbook
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{
		file:   excelize.NewFile(),
		sheets: make(map[string]bool),
		logger: logger,
	}
}

// Export adds the table as sheet dest. Empty cells are left blank.
func (w *WorkbookWriter) Export(ctx context.Context, table *domain.Table, dest string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet := SheetName(dest)
	if w.sheets[sheet] {
		return apperrors.NewStorageError(fmt.Sprintf("sheet %q already exported", sheet), nil)
	}

	// the default sheet is renamed by the first export
	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), sheet); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to name sheet %q", sheet), err)
		}
	} else if _, err := w.file.NewSheet(sheet); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to add sheet %q", sheet), err)
	}
	w.sheets[sheet] = true

	header := make([]interface{}, 0, len(table.Columns)+1)
	header = append(header, table.IndexName)
	for _, c := range table.Columns {
		header = append(header, c)
	}
	if err := w.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write header of %q", sheet), err)
	}

	for i, label := range table.Index {
		row := make([]interface{}, 0, len(table.Columns)+1)
		row = append(row, label)
		for _, v := range table.Cells[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("invalid cell coordinates", err)
		}
		if err := w.file.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d of %q", i, sheet), err)
		}
	}

	w.logger.DebugContext(ctx, "sheet added to workbook",
		"sheet", sheet,
		"rows", len(table.Index))
	return nil
}

// Save writes the workbook to path and releases it
func (w *WorkbookWriter) Save(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return apperrors.NewStorageError(fmt.Sprintf("workbook for %s is already closed", path), nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	if err := w.file.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err)
	}
	w.logger.Info("workbook saved",
		"path", path,
		"sheets", len(w.sheets))
	w.closed = true
	return w.file.Close()
}

// Discard releases the workbook without writing it. It is a no-op once the
// workbook was saved or discarded.
func (w *WorkbookWriter) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// SheetName makes name a valid sheet name: forbidden characters become
// underscores and the result is cut to 31 characters
func SheetName(name string) string {
	r := strings.NewReplacer(
		":", "_", "\\", "_", "/", "_", "?", "_",
		"*", "_", "[", "_", "]", "_",
	)
	s := r.Replace(name)
	if len([]rune(s)) > maxSheetName {
		s = string([]rune(s)[:maxSheetName])
	}
	return s
}
