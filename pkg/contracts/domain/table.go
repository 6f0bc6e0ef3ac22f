package domain

import (
	"math"
)

// Table is a row- and column-labeled numeric table handed to exporters.
// Empty cells hold NaN.
type Table struct {
	Name      string      `json:"name"`
	IndexName string      `json:"index_name"`
	Index     []string    `json:"index"`
	Columns   []string    `json:"columns"`
	Cells     [][]float64 `json:"cells"`
}

// NewTable allocates a table filled with NaN
func NewTable(name, indexName string, index, columns []string) *Table {
	cells := make([][]float64, len(index))
	for i := range cells {
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = math.NaN()
		}
		cells[i] = row
	}
	return &Table{
		Name:      name,
		IndexName: indexName,
		Index:     index,
		Columns:   columns,
		Cells:     cells,
	}
}

// Get returns the cell at (row, column) by label
func (t *Table) Get(row, column string) (float64, bool) {
	i := indexOf(t.Index, row)
	j := indexOf(t.Columns, column)
	if i < 0 || j < 0 {
		return 0, false
	}
	return t.Cells[i][j], true
}

// Set writes the cell at (row, column) by label; unknown labels are ignored
func (t *Table) Set(row, column string, v float64) {
	i := indexOf(t.Index, row)
	j := indexOf(t.Columns, column)
	if i < 0 || j < 0 {
		return
	}
	t.Cells[i][j] = v
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
