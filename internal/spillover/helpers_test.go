package spillover

import (
	"math/rand"
	"time"

	"spillovers/pkg/contracts/domain"
)

var testSectors = []string{"Banks", "Industry", "Telecom"}

// simulatePanel draws a stationary VAR(1) around 10 with correlated shocks
func simulatePanel(rows int, seed int64) *domain.Panel {
	rng := rand.New(rand.NewSource(seed))
	A := [3][3]float64{
		{0.5, 0.1, 0.0},
		{0.2, 0.4, 0.1},
		{0.0, 0.3, 0.3},
	}

	dates := make([]time.Time, rows)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	p := domain.NewPanel(dates, append([]string(nil), testSectors...))

	prev := [3]float64{}
	for t := 0; t < rows; t++ {
		n1, n2, n3 := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
		shock := [3]float64{n1, 0.5*n1 + n2, n3 + 0.3*n2}
		var cur [3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cur[i] += A[i][j] * prev[j]
			}
			cur[i] += shock[i]
			p.Values[t][i] = 10 + cur[i]
		}
		prev = cur
	}
	return p
}

// reorder returns the panel with its columns in the given sector order
func reorder(p *domain.Panel, sectors []string) *domain.Panel {
	out := domain.NewPanel(p.Dates, sectors)
	for j, s := range sectors {
		src := p.SectorIndex(s)
		for i := range p.Values {
			out.Values[i][j] = p.Values[i][src]
		}
	}
	return out
}
