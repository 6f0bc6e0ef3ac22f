package exporter

import (
	"time"

	"spillovers/internal/spillover"
	"spillovers/internal/volatility"
	"spillovers/pkg/contracts/domain"
)

// StatsTable lays out descriptive statistics with one row per sector
func StatsTable(stats []volatility.SectorStats) *domain.Table {
	index := make([]string, len(stats))
	for i, s := range stats {
		index[i] = s.Sector
	}
	columns := []string{"Mean", "Median", "Max", "Min", "Std. Dev.", "Skew", "Kurtosis", "Count"}
	t := domain.NewTable("setStats", "Sector", index, columns)
	for i, s := range stats {
		copy(t.Cells[i], []float64{s.Mean, s.Median, s.Max, s.Min, s.StdDev, s.Skew, s.Kurtosis, float64(s.Count)})
	}
	return t
}

// CorrelationTable lays out a square sector correlation matrix
func CorrelationTable(sectors []string, corr [][]float64) *domain.Table {
	t := domain.NewTable("correlation", "Sector", sectors, sectors)
	for i := range corr {
		copy(t.Cells[i], corr[i])
	}
	return t
}

// PanelTable lays out a panel with one row per date and one column per sector
func PanelTable(name string, p *domain.Panel) *domain.Table {
	t := domain.NewTable(name, "Date", dateLabels(p.Dates), p.Sectors)
	for i, row := range p.Values {
		copy(t.Cells[i], row)
	}
	return t
}

// RollingTables splits a rolling series into its total, to, from, net,
// pairwise_to and pairwise_net tables, each indexed by window end date
func RollingTables(r *spillover.RollingSeries) []*domain.Table {
	dates := dateLabels(r.Dates)
	pairs := spillover.Pairs(r.Sectors)
	pairNames := pairLabels(pairs)

	total := domain.NewTable("total", "Date", dates, []string{"Total"})
	for i, v := range r.Total {
		total.Cells[i][0] = v
	}

	return []*domain.Table{
		total,
		seriesTable("to", dates, r.Sectors, func(j int) []float64 { return r.To[r.Sectors[j]] }),
		seriesTable("from", dates, r.Sectors, func(j int) []float64 { return r.From[r.Sectors[j]] }),
		seriesTable("net", dates, r.Sectors, func(j int) []float64 { return r.Net[r.Sectors[j]] }),
		seriesTable("pairwise_to", dates, pairNames, func(j int) []float64 { return r.PairwiseTo[pairs[j]] }),
		seriesTable("pairwise_net", dates, pairNames, func(j int) []float64 { return r.PairwiseNet[pairs[j]] }),
	}
}

// EnvelopeTables lays out a sensitivity envelope the way RollingTables lays
// out a series, with a min, median and max column per measure. Table names
// are prefixed with the swept parameter.
func EnvelopeTables(e *spillover.Envelope) []*domain.Table {
	dates := dateLabels(e.Dates)
	pairs := spillover.Pairs(e.Sectors)
	prefix := string(e.Parameter) + "_"

	sectorBands := func(m map[string]spillover.Band) []spillover.Band {
		out := make([]spillover.Band, len(e.Sectors))
		for j, s := range e.Sectors {
			out[j] = m[s]
		}
		return out
	}
	pairBands := func(m map[spillover.SectorPair]spillover.Band) []spillover.Band {
		out := make([]spillover.Band, len(pairs))
		for j, p := range pairs {
			out[j] = m[p]
		}
		return out
	}

	pairNames := pairLabels(pairs)
	return []*domain.Table{
		bandTable(prefix+"total", dates, []string{"Total"}, []spillover.Band{e.Total}),
		bandTable(prefix+"to", dates, e.Sectors, sectorBands(e.To)),
		bandTable(prefix+"from", dates, e.Sectors, sectorBands(e.From)),
		bandTable(prefix+"net", dates, e.Sectors, sectorBands(e.Net)),
		bandTable(prefix+"pairwise_to", dates, pairNames, pairBands(e.PairwiseTo)),
		bandTable(prefix+"pairwise_net", dates, pairNames, pairBands(e.PairwiseNet)),
	}
}

func seriesTable(name string, dates, columns []string, column func(j int) []float64) *domain.Table {
	t := domain.NewTable(name, "Date", dates, columns)
	for j := range columns {
		for i, v := range column(j) {
			t.Cells[i][j] = v
		}
	}
	return t
}

func bandTable(name string, dates, labels []string, bands []spillover.Band) *domain.Table {
	columns := make([]string, 0, 3*len(labels))
	for _, l := range labels {
		columns = append(columns, l+"/min", l+"/median", l+"/max")
	}
	t := domain.NewTable(name, "Date", dates, columns)
	for j, b := range bands {
		for i := range dates {
			if i < len(b.Min) {
				t.Cells[i][3*j] = b.Min[i]
				t.Cells[i][3*j+1] = b.Median[i]
				t.Cells[i][3*j+2] = b.Max[i]
			}
		}
	}
	return t
}

func dateLabels(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = formatDate(d)
	}
	return out
}

func pairLabels(pairs []spillover.SectorPair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.String()
	}
	return out
}
