// Package dataprocessing loads sector price histories for the spillover engine.
//
// # Sources
//
// Three PriceSource implementations are provided:
//
//  1. CSVSource: one <sector>.csv file per sector with a Date,Open,High,Low,Close header
//  2. WorkbookSource: one workbook holding a sheet per sector
//  3. DirectorySource: <sector>.csv or, failing that, <sector>.xlsx from a directory
//
// Files may list rows oldest or newest first. Any other order, or a repeated
// date, is a data integrity error.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(dataprocessing.NewDirectorySource("data/prices"), 4, logger)
//	series, err := loader.Load(ctx, []string{"Banks", "Industry"}, from, to)
package dataprocessing
