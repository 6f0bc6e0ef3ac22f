package dataprocessing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"spillovers/internal/config"
	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// WorkbookSource reads every sector from one workbook, one sheet per sector
type WorkbookSource struct {
	Path string
}

// NewWorkbookSource creates a workbook price source
func NewWorkbookSource(path string) *WorkbookSource {
	return &WorkbookSource{Path: path}
}

// SectorSeries implements PriceSource
func (s *WorkbookSource) SectorSeries(ctx context.Context, sector string) (domain.SectorSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.SectorSeries{}, err
	}
	bars, err := readWorkbookSheet(s.Path, sector)
	if err != nil {
		return domain.SectorSeries{}, err
	}
	return normalizeSeries(sector, bars)
}

// readWorkbookSheet parses a Date/Open/High/Low/Close sheet. An empty sheet
// name selects the first sheet of the workbook.
func readWorkbookSheet(path, sheet string) ([]domain.PriceBar, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open price workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, apperrors.NewStorageError(fmt.Sprintf("sheet %q not found", sheet), nil).WithContext("path", path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("read sheet", err).WithContext("path", path).WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, apperrors.NewParsingError("read header", err).WithContext("path", path).WithContext("sheet", sheet)
	}

	bars := make([]domain.PriceBar, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		bar, err := parseBar(row, cols)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d", i+2), err).
				WithContext("path", path).
				WithContext("sheet", sheet)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

var priceHeaders = []string{"date", "open", "high", "low", "close"}

// headerColumns maps each price header to its column index
func headerColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(priceHeaders))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range priceHeaders {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func parseBar(row []string, cols map[string]int) (domain.PriceBar, error) {
	cell := func(name string) string {
		if i := cols[name]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	date, err := config.ParseCellDate(cell("date"))
	if err != nil {
		return domain.PriceBar{}, err
	}
	bar := domain.PriceBar{Date: date}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	} {
		raw := cell(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.PriceBar{}, fmt.Errorf("column %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return bar, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
