package dataprocessing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// priceRow is one line of a sector price file
type priceRow struct {
	Date  csvDate `csv:"Date"`
	Open  float64 `csv:"Open"`
	High  float64 `csv:"High"`
	Low   float64 `csv:"Low"`
	Close float64 `csv:"Close"`
}

// csvDate accepts every layout understood by domain.ParseDate
type csvDate struct {
	time.Time
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (d *csvDate) UnmarshalCSV(s string) error {
	t, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// CSVSource reads <Dir>/<sector>.csv files with a Date,Open,High,Low,Close header
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a CSV price source
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// SectorSeries implements PriceSource
func (s *CSVSource) SectorSeries(ctx context.Context, sector string) (domain.SectorSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.SectorSeries{}, err
	}

	path := filepath.Join(s.Dir, sector+".csv")
	file, err := os.Open(path)
	if err != nil {
		return domain.SectorSeries{}, apperrors.NewStorageError("open price file", err).WithContext("path", path)
	}
	defer file.Close()

	var rows []*priceRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return domain.SectorSeries{}, apperrors.NewParsingError(fmt.Sprintf("parse %s", path), err).
			WithContext("sector", sector)
	}

	bars := make([]domain.PriceBar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, domain.PriceBar{
			Date:  r.Date.Time,
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
		})
	}
	return normalizeSeries(sector, bars)
}

// WriteCSV writes a series in the format CSVSource reads
func WriteCSV(path string, series domain.SectorSeries) error {
	rows := make([]*priceRow, 0, series.Len())
	for _, b := range series.Bars {
		rows = append(rows, &priceRow{
			Date:  csvDate{b.Date},
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create price file", err).WithContext("path", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return apperrors.NewStorageError("write price file", err).WithContext("path", path)
	}
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller
func (d csvDate) MarshalCSV() (string, error) {
	return d.Format(domain.DateLayout), nil
}
