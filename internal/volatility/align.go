package volatility

import (
	"fmt"
	"time"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// Align builds a panel over the dates present in every column, ascending.
// Column order becomes the panel's sector order.
func Align(cols []Column) (*domain.Panel, error) {
	if len(cols) == 0 {
		return nil, apperrors.NewInsufficientDataError("no columns to align")
	}

	lookups := make([]map[int64]float64, len(cols))
	for j, c := range cols {
		if len(c.Dates) != len(c.Values) {
			return nil, apperrors.NewDataIntegrityError(
				fmt.Sprintf("sector %s has %d dates but %d values", c.Sector, len(c.Dates), len(c.Values)), nil)
		}
		m := make(map[int64]float64, len(c.Dates))
		for i, d := range c.Dates {
			if i > 0 && !d.After(c.Dates[i-1]) {
				return nil, apperrors.NewDataIntegrityError(
					fmt.Sprintf("sector %s dates are not strictly increasing at %s", c.Sector, d.Format(domain.DateLayout)), nil).
					WithContext("sector", c.Sector)
			}
			m[d.Unix()] = c.Values[i]
		}
		lookups[j] = m
	}

	var dates []time.Time
	for _, d := range cols[0].Dates {
		inAll := true
		for _, m := range lookups[1:] {
			if _, ok := m[d.Unix()]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, apperrors.NewInsufficientDataError("sectors share no common dates")
	}

	sectors := make([]string, len(cols))
	for j, c := range cols {
		sectors[j] = c.Sector
	}

	panel := domain.NewPanel(dates, sectors)
	for i, d := range dates {
		key := d.Unix()
		for j := range cols {
			panel.Values[i][j] = lookups[j][key]
		}
	}
	return panel, nil
}
