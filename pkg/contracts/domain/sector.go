package domain

import (
	"time"
)

// PriceBar represents a single trading day for a sector index
type PriceBar struct {
	Date  time.Time `json:"date" validate:"required"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// SectorSeries is the ordered price history of one sector.
// Dates are strictly increasing; missing trading days are simply absent.
type SectorSeries struct {
	Sector string     `json:"sector" validate:"required"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of observations
func (s SectorSeries) Len() int {
	return len(s.Bars)
}

// Dates returns the trading dates of the series in order
func (s SectorSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		dates[i] = b.Date
	}
	return dates
}

// Between returns the bars whose date falls inside [from, to].
// A zero bound leaves that side open.
func (s SectorSeries) Between(from, to time.Time) SectorSeries {
	out := SectorSeries{Sector: s.Sector, Bars: make([]PriceBar, 0, len(s.Bars))}
	for _, b := range s.Bars {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out
}

// First returns the earliest date, or the zero time for an empty series
func (s SectorSeries) First() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// Last returns the latest date, or the zero time for an empty series
func (s SectorSeries) Last() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}
