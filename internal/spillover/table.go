package spillover

import (
	"gonum.org/v1/gonum/mat"

	"spillovers/pkg/contracts/domain"
)

// Summary row and column labels of an exported spillover table
const (
	LabelContTo   = "Cont_To"
	LabelContIncl = "Cont_Incl"
	LabelContFrom = "Cont_From"
	LabelContNet  = "Cont_Net"
)

// Table is a row-normalized variance decomposition with its directional sums.
// Matrix[i][j] is the percentage of sector i's forecast error variance caused
// by shocks to sector j; each row sums to 100.
type Table struct {
	Sectors []string
	Matrix  [][]float64
	To      []float64 // column sum less own share
	From    []float64 // row sum less own share
	Net     []float64 // To - From
	Incl    []float64 // column sum
	Index   float64   // sum(To) / sum(Incl) * 100
}

// NewTable derives the directional sums of a K×K decomposition
func NewTable(sectors []string, theta mat.Matrix) *Table {
	K := len(sectors)
	t := &Table{
		Sectors: sectors,
		Matrix:  make([][]float64, K),
		To:      make([]float64, K),
		From:    make([]float64, K),
		Net:     make([]float64, K),
		Incl:    make([]float64, K),
	}
	for i := 0; i < K; i++ {
		t.Matrix[i] = make([]float64, K)
		for j := 0; j < K; j++ {
			x := theta.At(i, j)
			t.Matrix[i][j] = x
			t.Incl[j] += x
			if i != j {
				t.From[i] += x
				t.To[j] += x
			}
		}
	}

	var to, incl float64
	for j := 0; j < K; j++ {
		t.Net[j] = t.To[j] - t.From[j]
		to += t.To[j]
		incl += t.Incl[j]
	}
	if incl > 0 {
		t.Index = to / incl * 100
	}
	return t
}

// ToDomain lays the table out for export: the K×K matrix, Cont_To and
// Cont_Incl rows, Cont_From and Cont_Net columns, and the spillover index in
// the Cont_Incl/Cont_Net cell
func (t *Table) ToDomain(name string) *domain.Table {
	K := len(t.Sectors)
	index := make([]string, 0, K+2)
	index = append(index, t.Sectors...)
	index = append(index, LabelContTo, LabelContIncl)
	columns := make([]string, 0, K+2)
	columns = append(columns, t.Sectors...)
	columns = append(columns, LabelContFrom, LabelContNet)

	out := domain.NewTable(name, "Sector", index, columns)
	for i := 0; i < K; i++ {
		copy(out.Cells[i][:K], t.Matrix[i])
		out.Cells[i][K] = t.From[i]
		out.Cells[i][K+1] = t.Net[i]
	}
	copy(out.Cells[K][:K], t.To)
	copy(out.Cells[K+1][:K], t.Incl)
	out.Cells[K+1][K+1] = t.Index
	return out
}
