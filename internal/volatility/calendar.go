package volatility

import (
	"sort"
	"time"

	"spillovers/pkg/contracts/domain"
)

// MarketDays is the annualization factor of one sector: either a count of
// trading days per calendar year or a single manual value for every year
type MarketDays struct {
	manual int
	byYear map[int]int
}

// Manual returns a factor applying days to every year
func Manual(days int) MarketDays {
	return MarketDays{manual: days}
}

// ComputeMarketDays counts the observations of each calendar year. A positive
// yearEndOverride replaces the count of the most recent year only, whose data
// is usually incomplete.
func ComputeMarketDays(dates []time.Time, yearEndOverride int) MarketDays {
	counts := CountByYear(dates)
	if yearEndOverride > 0 && len(counts) > 0 {
		last := 0
		for y := range counts {
			if y > last {
				last = y
			}
		}
		counts[last] = yearEndOverride
	}
	return MarketDays{byYear: counts}
}

// CountByYear groups dates by calendar year and counts them
func CountByYear(dates []time.Time) map[int]int {
	counts := make(map[int]int)
	for _, d := range dates {
		counts[d.Year()]++
	}
	return counts
}

// IsManual reports whether one value is shared by all years
func (m MarketDays) IsManual() bool {
	return m.manual > 0
}

// ForYear returns the trading-day count applying to year
func (m MarketDays) ForYear(year int) (int, bool) {
	if m.manual > 0 {
		return m.manual, true
	}
	n, ok := m.byYear[year]
	return n, ok
}

// Years returns the years with a count, ascending. It is empty in manual mode.
func (m MarketDays) Years() []int {
	years := make([]int, 0, len(m.byYear))
	for y := range m.byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// MarketDaysFor derives the factor of every sector according to mode
func MarketDaysFor(series []domain.SectorSeries, mode domain.MarketDaysMode, manualDays, yearEndOverride int) map[string]MarketDays {
	out := make(map[string]MarketDays, len(series))
	for _, s := range series {
		if mode == domain.MarketDaysManual {
			out[s.Sector] = Manual(manualDays)
			continue
		}
		out[s.Sector] = ComputeMarketDays(s.Dates(), yearEndOverride)
	}
	return out
}
