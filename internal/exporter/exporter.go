package exporter

import (
	"context"
	"log/slog"

	"spillovers/pkg/contracts/domain"
)

// TableExporter serializes a labeled table to a destination
type TableExporter interface {
	Export(ctx context.Context, table *domain.Table, dest string) error
}

// Destination names where one table goes: a CSV file and a workbook sheet.
// An empty field skips that output.
type Destination struct {
	CSV   string
	Sheet string
}

// Exporter writes every table to its CSV file and to one shared workbook
type Exporter struct {
	csv      TableExporter
	workbook *WorkbookWriter
	written  int
	logger   *slog.Logger
}

// New creates an exporter. When withWorkbook is false only CSV files are written.
func New(logger *slog.Logger, withWorkbook bool) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		csv:    NewCSVWriter(logger),
		logger: logger,
	}
	if withWorkbook {
		e.workbook = NewWorkbookWriter(logger)
	}
	return e
}

// Write exports table to each output named by dest
func (e *Exporter) Write(ctx context.Context, table *domain.Table, dest Destination) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dest.CSV != "" {
		if err := e.csv.Export(ctx, table, dest.CSV); err != nil {
			return err
		}
	}
	if dest.Sheet != "" && e.workbook != nil {
		if err := e.workbook.Export(ctx, table, dest.Sheet); err != nil {
			return err
		}
	}
	e.written++
	return nil
}

// Written returns the number of tables exported so far
func (e *Exporter) Written() int {
	return e.written
}

// Close saves the workbook to path. It is a no-op without a workbook.
func (e *Exporter) Close(path string) error {
	if e.workbook == nil {
		return nil
	}
	return e.workbook.Save(path)
}

// Discard drops the unsaved workbook. It is safe to call after Close.
func (e *Exporter) Discard() error {
	if e.workbook == nil {
		return nil
	}
	return e.workbook.Discard()
}
