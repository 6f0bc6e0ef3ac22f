package domain

import (
	"time"
)

// DateLayout is the date format used in every exported table
const DateLayout = "2006-01-02"

// Panel is a date-aligned matrix with one column per sector.
// Every column shares the same date index.
type Panel struct {
	Dates   []time.Time `json:"dates"`
	Sectors []string    `json:"sectors"`
	Values  [][]float64 `json:"values"` // Values[row][column]
}

// NewPanel allocates a panel of len(dates) rows and len(sectors) columns
func NewPanel(dates []time.Time, sectors []string) *Panel {
	values := make([][]float64, len(dates))
	for i := range values {
		values[i] = make([]float64, len(sectors))
	}
	return &Panel{
		Dates:   dates,
		Sectors: sectors,
		Values:  values,
	}
}

// Rows returns the number of dates
func (p *Panel) Rows() int {
	return len(p.Dates)
}

// Cols returns the number of sectors
func (p *Panel) Cols() int {
	return len(p.Sectors)
}

// Column returns a copy of the values of column j
func (p *Panel) Column(j int) []float64 {
	col := make([]float64, len(p.Values))
	for i, row := range p.Values {
		col[i] = row[j]
	}
	return col
}

// Slice returns the rows [from, to) as a panel sharing the underlying rows
func (p *Panel) Slice(from, to int) *Panel {
	return &Panel{
		Dates:   p.Dates[from:to],
		Sectors: p.Sectors,
		Values:  p.Values[from:to],
	}
}

// SectorIndex returns the column of the named sector, or -1
func (p *Panel) SectorIndex(sector string) int {
	for j, s := range p.Sectors {
		if s == sector {
			return j
		}
	}
	return -1
}
