package volatility

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func series(sector string, dates []time.Time, high, low, closes []float64) domain.SectorSeries {
	s := domain.SectorSeries{Sector: sector}
	for i, d := range dates {
		s.Bars = append(s.Bars, domain.PriceBar{Date: d, Open: closes[i], High: high[i], Low: low[i], Close: closes[i]})
	}
	return s
}

func TestLnVariance(t *testing.T) {
	dates := []time.Time{date(2020, 1, 2), date(2020, 1, 3), date(2020, 1, 6)}
	s := series("Banks", dates,
		[]float64{math.E, 12, 5},
		[]float64{1, 10, 5},
		[]float64{2, 11, 5})

	col, err := LnVariance(s)
	require.NoError(t, err)

	assert.Equal(t, dates, col.Dates)
	assert.InDelta(t, 0.361, col.Values[0], 1e-12)
	assert.InDelta(t, 0.361*math.Pow(math.Log(1.2), 2), col.Values[1], 1e-12)
	assert.Equal(t, 0.0, col.Values[2])
	for _, v := range col.Values {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestLnVariance_NonPositivePrices(t *testing.T) {
	tests := []struct {
		name      string
		high, low float64
	}{
		{name: "zero low", high: 2, low: 0},
		{name: "negative high", high: -1, low: 1},
		{name: "nan high", high: math.NaN(), low: 1},
		{name: "infinite high", high: math.Inf(1), low: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := series("Banks", []time.Time{date(2020, 1, 2)}, []float64{tt.high}, []float64{tt.low}, []float64{1})
			_, err := LnVariance(s)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataIntegrity))
		})
	}
}

func TestVolatilityDieboldAndAslam(t *testing.T) {
	lnVar := Column{
		Sector: "Banks",
		Dates:  []time.Time{date(2020, 12, 30), date(2021, 1, 4)},
		Values: []float64{0.361, 0.0004},
	}

	t.Run("manual factor", func(t *testing.T) {
		d, err := VolatilityDiebold(lnVar, Manual(250))
		require.NoError(t, err)
		assert.InDelta(t, 950.0, d.Values[0], 1e-9)

		a, err := VolatilityAslam(lnVar, Manual(250))
		require.NoError(t, err)
		assert.InDelta(t, math.Asinh(math.Sqrt(250*0.361)), a.Values[0], 1e-12)
	})

	t.Run("joins on calendar year", func(t *testing.T) {
		md := ComputeMarketDays([]time.Time{date(2020, 6, 1), date(2020, 12, 30), date(2021, 1, 4)}, 0)
		d, err := VolatilityDiebold(lnVar, md)
		require.NoError(t, err)
		assert.InDelta(t, 100*math.Sqrt(2*0.361), d.Values[0], 1e-9)
		assert.InDelta(t, 100*math.Sqrt(1*0.0004), d.Values[1], 1e-9)
	})

	t.Run("aslam is asinh of diebold over 100", func(t *testing.T) {
		md := Manual(252)
		d, err := VolatilityDiebold(lnVar, md)
		require.NoError(t, err)
		a, err := VolatilityAslam(lnVar, md)
		require.NoError(t, err)
		for i := range d.Values {
			assert.InDelta(t, math.Asinh(d.Values[i]/100), a.Values[i], 1e-12)
		}
	})

	t.Run("missing year", func(t *testing.T) {
		md := ComputeMarketDays([]time.Time{date(2020, 6, 1)}, 0)
		_, err := VolatilityDiebold(lnVar, md)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataIntegrity))
	})
}

func TestLnReturn_IsPriceRatio(t *testing.T) {
	dates := []time.Time{date(2020, 1, 2), date(2020, 1, 3), date(2020, 1, 6)}
	s := series("Telecom", dates, []float64{1, 1, 1}, []float64{1, 1, 1}, []float64{10, 11, 9.9})

	col, err := LnReturn(s)
	require.NoError(t, err)

	// first row has no prior close and is dropped
	assert.Equal(t, dates[1:], col.Dates)
	// the ratio itself, not its logarithm
	assert.InDelta(t, 1.1, col.Values[0], 1e-12)
	assert.InDelta(t, 0.9, col.Values[1], 1e-12)

	s.Bars[1].Close = 0
	_, err = LnReturn(s)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataIntegrity))

	single, err := LnReturn(series("X", dates[:1], []float64{1}, []float64{1}, []float64{1}))
	require.NoError(t, err)
	assert.Empty(t, single.Values)
}

func TestEngine_Compute(t *testing.T) {
	a := series("A",
		[]time.Time{date(2020, 1, 2), date(2020, 1, 3), date(2020, 1, 6), date(2020, 1, 7)},
		[]float64{11, 12, 13, 14}, []float64{10, 10, 10, 10}, []float64{10, 11, 12, 13})
	b := series("B",
		[]time.Time{date(2020, 1, 3), date(2020, 1, 6), date(2020, 1, 7), date(2020, 1, 8)},
		[]float64{21, 22, 23, 24}, []float64{20, 20, 20, 20}, []float64{20, 21, 22, 23})
	all := []domain.SectorSeries{a, b}
	engine := NewEngine(nil)
	ctx := context.Background()

	t.Run("diebold panel on common dates", func(t *testing.T) {
		md := MarketDaysFor(all, domain.MarketDaysManual, 250, 0)
		panel, err := engine.Compute(ctx, all, domain.OutputVolatilityDiebold, md)
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "B"}, panel.Sectors)
		assert.Equal(t, []time.Time{date(2020, 1, 3), date(2020, 1, 6), date(2020, 1, 7)}, panel.Dates)
		want := 100 * math.Sqrt(250*0.361*math.Pow(math.Log(1.2), 2))
		assert.InDelta(t, want, panel.Values[0][0], 1e-9)
	})

	t.Run("return panel drops the first row of each sector", func(t *testing.T) {
		panel, err := engine.Compute(ctx, all, domain.OutputReturn, nil)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{date(2020, 1, 6), date(2020, 1, 7)}, panel.Dates)
		assert.InDelta(t, 12.0/11.0, panel.Values[0][0], 1e-12)
		assert.InDelta(t, 21.0/20.0, panel.Values[0][1], 1e-12)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := engine.Compute(ctx, all, domain.OutputMode("Garman"), nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("no sectors", func(t *testing.T) {
		_, err := engine.Compute(ctx, nil, domain.OutputReturn, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
	})
}

func TestAlign(t *testing.T) {
	t.Run("disjoint", func(t *testing.T) {
		_, err := Align([]Column{
			{Sector: "A", Dates: []time.Time{date(2020, 1, 2)}, Values: []float64{1}},
			{Sector: "B", Dates: []time.Time{date(2020, 1, 3)}, Values: []float64{1}},
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
	})

	t.Run("non-monotonic", func(t *testing.T) {
		_, err := Align([]Column{
			{Sector: "A", Dates: []time.Time{date(2020, 1, 3), date(2020, 1, 2)}, Values: []float64{1, 2}},
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataIntegrity))
	})

	t.Run("values follow their dates", func(t *testing.T) {
		panel, err := Align([]Column{
			{Sector: "A", Dates: []time.Time{date(2020, 1, 2), date(2020, 1, 3), date(2020, 1, 6)}, Values: []float64{1, 2, 3}},
			{Sector: "B", Dates: []time.Time{date(2020, 1, 3), date(2020, 1, 6)}, Values: []float64{20, 30}},
		})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{2, 20}, {3, 30}}, panel.Values)
	})
}
