// Package exporter writes result tables to disk.
//
// Every result (descriptive statistics, correlation, the volatility panel,
// the static spillover table, rolling series and sensitivity envelopes) is
// first laid out as a domain.Table by one of the builders in tables.go and
// then handed to a TableExporter. CSVWriter writes one UTF-8 file per table
// with a BOM for spreadsheet compatibility; WorkbookWriter collects every
// table into a single xlsx workbook, one sheet per table. Empty cells are
// written blank by both.
//
// Example usage:
//
//	exp := exporter.New(logger, true)
//	err := exp.Write(ctx, exporter.StatsTable(stats), exporter.Destination{
//		CSV:   paths.Stats("setStats"),
//		Sheet: "setStats",
//	})
//	...
//	err = exp.Close(paths.Workbook)
package exporter
