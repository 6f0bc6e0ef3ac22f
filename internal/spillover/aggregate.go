package spillover

// Snapshot holds the named measures extracted from one spillover table
type Snapshot struct {
	Total       float64
	To          map[string]float64
	From        map[string]float64
	Net         map[string]float64
	PairwiseTo  map[SectorPair]float64
	PairwiseNet map[SectorPair]float64
}

// Aggregate extracts the total index, the directional sums and the pairwise
// measures of every ordered pair of distinct sectors. PairwiseTo[{i, j}] is
// the table cell (i, j) and PairwiseNet[{i, j}] is cell (i, j) less cell (j, i).
func Aggregate(t *Table) Snapshot {
	K := len(t.Sectors)
	s := Snapshot{
		Total:       t.Index,
		To:          make(map[string]float64, K),
		From:        make(map[string]float64, K),
		Net:         make(map[string]float64, K),
		PairwiseTo:  make(map[SectorPair]float64, K*(K-1)),
		PairwiseNet: make(map[SectorPair]float64, K*(K-1)),
	}
	for i, sector := range t.Sectors {
		s.To[sector] = t.To[i]
		s.From[sector] = t.From[i]
		s.Net[sector] = t.Net[i]
	}
	for _, pair := range Pairs(t.Sectors) {
		i, j := indexOf(t.Sectors, pair.To), indexOf(t.Sectors, pair.From)
		s.PairwiseTo[pair] = t.Matrix[i][j]
		s.PairwiseNet[pair] = t.Matrix[i][j] - t.Matrix[j][i]
	}
	return s
}

// Pairs returns every ordered pair of distinct sectors, row-major in the
// given sector order
func Pairs(sectors []string) []SectorPair {
	pairs := make([]SectorPair, 0, len(sectors)*(len(sectors)-1))
	for _, to := range sectors {
		for _, from := range sectors {
			if to != from {
				pairs = append(pairs, SectorPair{To: to, From: from})
			}
		}
	}
	return pairs
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
