package volatility

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spillovers/pkg/contracts/domain"
)

// SectorStats holds the descriptive moments of one panel column
type SectorStats struct {
	Sector   string  `json:"sector"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
	StdDev   float64 `json:"std_dev"`
	Skew     float64 `json:"skew"`
	Kurtosis float64 `json:"kurtosis"`
	Count    int     `json:"count"`
}

// SetStats computes per-sector mean, median, extremes, sample standard
// deviation, bias-corrected skewness and excess kurtosis, and the non-NaN count.
// Moments that need more observations than are available are NaN.
func SetStats(p *domain.Panel) []SectorStats {
	out := make([]SectorStats, p.Cols())
	for j, sector := range p.Sectors {
		x := dropNaN(p.Column(j))
		s := SectorStats{
			Sector:   sector,
			Mean:     math.NaN(),
			Median:   math.NaN(),
			Max:      math.NaN(),
			Min:      math.NaN(),
			StdDev:   math.NaN(),
			Skew:     math.NaN(),
			Kurtosis: math.NaN(),
			Count:    len(x),
		}
		if n := len(x); n > 0 {
			s.Mean = stat.Mean(x, nil)
			s.Median = Median(x)
			s.Max = floats.Max(x)
			s.Min = floats.Min(x)
			if n > 1 {
				s.StdDev = stat.StdDev(x, nil)
			}
			if n > 2 && s.StdDev > 0 {
				s.Skew = stat.Skew(x, nil)
			}
			if n > 3 && s.StdDev > 0 {
				s.Kurtosis = stat.ExKurtosis(x, nil)
			}
		}
		out[j] = s
	}
	return out
}

// Median returns the middle value, averaging the two middle values of an
// even-length sample. x is not modified.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Correlation returns the Pearson correlation matrix of the panel columns
func Correlation(p *domain.Panel) [][]float64 {
	k := p.Cols()
	cols := make([][]float64, k)
	for j := range cols {
		cols[j] = p.Column(j)
	}
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
	}
	for i := 0; i < k; i++ {
		out[i][i] = 1
		for j := i + 1; j < k; j++ {
			c := stat.Correlation(cols[i], cols[j], nil)
			out[i][j] = c
			out[j][i] = c
		}
	}
	return out
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
