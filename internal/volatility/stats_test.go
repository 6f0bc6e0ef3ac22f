package volatility

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spillovers/pkg/contracts/domain"
)

func panelOf(sectors []string, cols ...[]float64) *domain.Panel {
	dates := make([]time.Time, len(cols[0]))
	for i := range dates {
		dates[i] = date(2020, 1, 1).AddDate(0, 0, i)
	}
	p := domain.NewPanel(dates, sectors)
	for j, c := range cols {
		for i, v := range c {
			p.Values[i][j] = v
		}
	}
	return p
}

func TestSetStats(t *testing.T) {
	p := panelOf([]string{"A", "B"},
		[]float64{1, 2, 3, 4, 10},
		[]float64{5, 5, 5, 5, 5})

	stats := SetStats(p)
	require.Len(t, stats, 2)

	a := stats[0]
	assert.Equal(t, "A", a.Sector)
	assert.InDelta(t, 4.0, a.Mean, 1e-12)
	assert.InDelta(t, 3.0, a.Median, 1e-12)
	assert.Equal(t, 10.0, a.Max)
	assert.Equal(t, 1.0, a.Min)
	assert.InDelta(t, 3.5355339059327378, a.StdDev, 1e-12)
	assert.InDelta(t, 1.697056274847714, a.Skew, 1e-9)
	assert.InDelta(t, 3.152, a.Kurtosis, 1e-9)
	assert.Equal(t, 5, a.Count)

	b := stats[1]
	assert.Equal(t, 0.0, b.StdDev)
	assert.True(t, math.IsNaN(b.Skew))
	assert.True(t, math.IsNaN(b.Kurtosis))
}

func TestSetStats_ShortAndMissing(t *testing.T) {
	p := panelOf([]string{"A"}, []float64{2, math.NaN()})
	s := SetStats(p)[0]

	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 2.0, s.Mean)
	assert.Equal(t, 2.0, s.Median)
	assert.True(t, math.IsNaN(s.StdDev))
	assert.True(t, math.IsNaN(s.Skew))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{name: "odd", in: []float64{3, 1, 2}, want: 2},
		{name: "even averages middle pair", in: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "single", in: []float64{7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]float64(nil), tt.in...)
			assert.Equal(t, tt.want, Median(in))
			assert.Equal(t, tt.in, in, "input must not be reordered")
		})
	}
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestCorrelation(t *testing.T) {
	p := panelOf([]string{"A", "B", "C"},
		[]float64{1, 2, 3, 4},
		[]float64{2, 4, 6, 8},
		[]float64{4, 3, 2, 1})

	c := Correlation(p)
	require.Len(t, c, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, c[i][i])
	}
	assert.InDelta(t, 1.0, c[0][1], 1e-12)
	assert.InDelta(t, -1.0, c[0][2], 1e-12)
	assert.Equal(t, c[1][2], c[2][1])
}
