package volatility

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// RangeVarianceFactor scales the squared log range into a daily variance
const RangeVarianceFactor = 0.361

// Column is one sector's derived series before alignment
type Column struct {
	Sector string
	Dates  []time.Time
	Values []float64
}

// LnVariance returns 0.361 * (ln High - ln Low)^2 for every bar.
// Non-positive or non-finite High/Low prices are a data integrity error.
func LnVariance(s domain.SectorSeries) (Column, error) {
	col := Column{
		Sector: s.Sector,
		Dates:  make([]time.Time, len(s.Bars)),
		Values: make([]float64, len(s.Bars)),
	}
	for i, b := range s.Bars {
		if !positive(b.High) || !positive(b.Low) {
			return Column{}, apperrors.NewDataIntegrityError(
				fmt.Sprintf("sector %s has non-positive high/low on %s", s.Sector, b.Date.Format(domain.DateLayout)), nil).
				WithContext("sector", s.Sector).
				WithContext("high", b.High).
				WithContext("low", b.Low)
		}
		r := math.Log(b.High) - math.Log(b.Low)
		col.Dates[i] = b.Date
		col.Values[i] = RangeVarianceFactor * r * r
	}
	return col, nil
}

// annualized returns marketDays * variance for each row, joining on the row's calendar year
func annualized(lnVar Column, md MarketDays) ([]float64, error) {
	out := make([]float64, len(lnVar.Values))
	for i, v := range lnVar.Values {
		days, ok := md.ForYear(lnVar.Dates[i].Year())
		if !ok {
			return nil, apperrors.NewDataIntegrityError(
				fmt.Sprintf("sector %s has no market days for year %d", lnVar.Sector, lnVar.Dates[i].Year()), nil).
				WithContext("sector", lnVar.Sector)
		}
		out[i] = float64(days) * v
	}
	return out, nil
}

// VolatilityDiebold returns 100 * sqrt(marketDays * lnVariance)
func VolatilityDiebold(lnVar Column, md MarketDays) (Column, error) {
	a, err := annualized(lnVar, md)
	if err != nil {
		return Column{}, err
	}
	for i, v := range a {
		a[i] = 100 * math.Sqrt(v)
	}
	return Column{Sector: lnVar.Sector, Dates: lnVar.Dates, Values: a}, nil
}

// VolatilityAslam returns asinh(sqrt(marketDays * lnVariance))
func VolatilityAslam(lnVar Column, md MarketDays) (Column, error) {
	a, err := annualized(lnVar, md)
	if err != nil {
		return Column{}, err
	}
	for i, v := range a {
		a[i] = math.Asinh(math.Sqrt(v))
	}
	return Column{Sector: lnVar.Sector, Dates: lnVar.Dates, Values: a}, nil
}

// LnReturn returns Close[t] / Close[t-1]. Despite the name this is the plain
// price ratio, not its logarithm. The first bar has no prior close and is dropped.
func LnReturn(s domain.SectorSeries) (Column, error) {
	col := Column{Sector: s.Sector}
	if len(s.Bars) < 2 {
		return col, nil
	}
	col.Dates = make([]time.Time, 0, len(s.Bars)-1)
	col.Values = make([]float64, 0, len(s.Bars)-1)
	for i, b := range s.Bars {
		if !positive(b.Close) {
			return Column{}, apperrors.NewDataIntegrityError(
				fmt.Sprintf("sector %s has non-positive close on %s", s.Sector, b.Date.Format(domain.DateLayout)), nil).
				WithContext("sector", s.Sector).
				WithContext("close", b.Close)
		}
		if i == 0 {
			continue
		}
		col.Dates = append(col.Dates, b.Date)
		col.Values = append(col.Values, b.Close/s.Bars[i-1].Close)
	}
	return col, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Engine turns sector price series into the aligned panel fed to the spillover model
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a volatility engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Compute derives one column per sector for mode and aligns them on their
// common dates. marketDays is only consulted by the volatility modes.
func (e *Engine) Compute(ctx context.Context, series []domain.SectorSeries, mode domain.OutputMode, marketDays map[string]MarketDays) (*domain.Panel, error) {
	if len(series) == 0 {
		return nil, apperrors.NewInsufficientDataError("no sectors to compute")
	}

	cols := make([]Column, 0, len(series))
	for _, s := range series {
		col, err := e.column(s, mode, marketDays)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	panel, err := Align(cols)
	if err != nil {
		return nil, err
	}

	for _, c := range cols {
		if dropped := len(c.Dates) - panel.Rows(); dropped > 0 {
			e.logger.DebugContext(ctx, "rows dropped by date alignment",
				"sector", c.Sector,
				"dropped", dropped)
		}
	}
	e.logger.InfoContext(ctx, "volatility panel computed",
		"mode", string(mode),
		"sectors", panel.Cols(),
		"rows", panel.Rows())
	return panel, nil
}

func (e *Engine) column(s domain.SectorSeries, mode domain.OutputMode, marketDays map[string]MarketDays) (Column, error) {
	switch mode {
	case domain.OutputReturn:
		return LnReturn(s)
	case domain.OutputVolatilityDiebold, domain.OutputVolatilityAslam:
		md, ok := marketDays[s.Sector]
		if !ok {
			return Column{}, apperrors.NewConfigError(fmt.Sprintf("no market days for sector %s", s.Sector), nil)
		}
		lnVar, err := LnVariance(s)
		if err != nil {
			return Column{}, err
		}
		if mode == domain.OutputVolatilityAslam {
			return VolatilityAslam(lnVar, md)
		}
		return VolatilityDiebold(lnVar, md)
	default:
		return Column{}, apperrors.NewConfigError(fmt.Sprintf("unrecognized output mode %q", mode), nil)
	}
}
