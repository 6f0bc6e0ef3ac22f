package domain

import (
	"fmt"
	"strings"
	"time"
)

// OutputMode selects which per-sector series feeds the spillover model
type OutputMode string

const (
	OutputVolatilityDiebold OutputMode = "Volatility Diebold"
	OutputVolatilityAslam   OutputMode = "Volatility Aslam"
	OutputReturn            OutputMode = "Return"
)

// IsValid checks if the output mode is recognized
func (m OutputMode) IsValid() bool {
	switch m {
	case OutputVolatilityDiebold, OutputVolatilityAslam, OutputReturn:
		return true
	}
	return false
}

// ParseOutputMode matches the settings value case-insensitively
func ParseOutputMode(s string) (OutputMode, error) {
	for _, m := range []OutputMode{OutputVolatilityDiebold, OutputVolatilityAslam, OutputReturn} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unrecognized output mode %q", s)
}

// MarketDaysMode selects how the annualization factor is obtained
type MarketDaysMode string

const (
	MarketDaysManual   MarketDaysMode = "Manual"
	MarketDaysCalendar MarketDaysMode = "Calendar"
)

// IsValid checks if the market days mode is recognized
func (m MarketDaysMode) IsValid() bool {
	return m == MarketDaysManual || m == MarketDaysCalendar
}

// ParseMarketDaysMode matches the settings value case-insensitively
func ParseMarketDaysMode(s string) (MarketDaysMode, error) {
	for _, m := range []MarketDaysMode{MarketDaysManual, MarketDaysCalendar} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unrecognized market days mode %q", s)
}

var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
}

// ParseDate accepts the date layouts found in exported price files
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
