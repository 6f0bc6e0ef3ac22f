package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// PriceSource supplies the daily price history of one sector
type PriceSource interface {
	SectorSeries(ctx context.Context, sector string) (domain.SectorSeries, error)
}

// DirectorySource reads <sector>.csv, falling back to <sector>.xlsx, from Dir
type DirectorySource struct {
	Dir string
}

// NewDirectorySource creates a source over a directory of per-sector files
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{Dir: dir}
}

// SectorSeries implements PriceSource
func (s *DirectorySource) SectorSeries(ctx context.Context, sector string) (domain.SectorSeries, error) {
	csvPath := filepath.Join(s.Dir, sector+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return (&CSVSource{Dir: s.Dir}).SectorSeries(ctx, sector)
	}
	xlsxPath := filepath.Join(s.Dir, sector+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		bars, err := readWorkbookSheet(xlsxPath, "")
		if err != nil {
			return domain.SectorSeries{}, err
		}
		return normalizeSeries(sector, bars)
	}
	return domain.SectorSeries{}, apperrors.NewStorageError(
		fmt.Sprintf("no price file for sector %q", sector), os.ErrNotExist).
		WithContext("dir", s.Dir)
}

// normalizeSeries orders bars oldest first. A file listed newest first is
// reversed; any other order is rejected by ValidateSeries.
func normalizeSeries(sector string, bars []domain.PriceBar) (domain.SectorSeries, error) {
	if len(bars) > 1 && bars[0].Date.After(bars[len(bars)-1].Date) {
		slices.Reverse(bars)
	}
	series := domain.SectorSeries{Sector: sector, Bars: bars}
	if err := ValidateSeries(series); err != nil {
		return domain.SectorSeries{}, err
	}
	return series, nil
}

// ValidateSeries checks that dates are strictly increasing
func ValidateSeries(s domain.SectorSeries) error {
	for i := 1; i < len(s.Bars); i++ {
		prev, cur := s.Bars[i-1].Date, s.Bars[i].Date
		if cur.After(prev) {
			continue
		}
		msg := fmt.Sprintf("sector %s dates are not in order at %s", s.Sector, cur.Format(domain.DateLayout))
		if cur.Equal(prev) {
			msg = fmt.Sprintf("sector %s has duplicate date %s", s.Sector, cur.Format(domain.DateLayout))
		}
		return apperrors.NewDataIntegrityError(msg, nil).
			WithContext("sector", s.Sector).
			WithContext("row", i)
	}
	return nil
}

// Loader fetches the configured sectors from a PriceSource
type Loader struct {
	source  PriceSource
	workers int
	logger  *slog.Logger
}

// NewLoader creates a loader reading up to workers sectors at once
func NewLoader(source PriceSource, workers int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Loader{source: source, workers: workers, logger: logger}
}

// Load returns the series of every sector restricted to [from, to], in the
// order given. A zero bound leaves that side of the range open.
func (l *Loader) Load(ctx context.Context, sectors []string, from, to time.Time) ([]domain.SectorSeries, error) {
	out := make([]domain.SectorSeries, len(sectors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, sector := range sectors {
		i, sector := i, sector
		g.Go(func() error {
			series, err := l.source.SectorSeries(gctx, sector)
			if err != nil {
				return fmt.Errorf("load sector %s: %w", sector, err)
			}
			if err := ValidateSeries(series); err != nil {
				return err
			}
			series.Sector = sector
			series = series.Between(from, to)
			if series.Len() == 0 {
				return apperrors.NewInsufficientDataError(
					fmt.Sprintf("sector %s has no observations in the analysis range", sector)).
					WithContext("sector", sector)
			}
			out[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range out {
		l.logger.InfoContext(ctx, "sector loaded",
			"sector", s.Sector,
			"rows", s.Len(),
			"first", s.First().Format(domain.DateLayout),
			"last", s.Last().Format(domain.DateLayout))
	}
	return out, nil
}
