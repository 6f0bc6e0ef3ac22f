package volatility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spillovers/pkg/contracts/domain"
)

func TestComputeMarketDays(t *testing.T) {
	dates := []time.Time{
		date(2019, 12, 30), date(2019, 12, 31),
		date(2020, 1, 2), date(2020, 1, 3), date(2020, 1, 6),
		date(2021, 1, 4),
	}

	tests := []struct {
		name     string
		override int
		want     map[int]int
	}{
		{name: "plain counts", override: 0, want: map[int]int{2019: 2, 2020: 3, 2021: 1}},
		{name: "override replaces last year only", override: 250, want: map[int]int{2019: 2, 2020: 3, 2021: 250}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := ComputeMarketDays(dates, tt.override)
			assert.False(t, md.IsManual())
			assert.Equal(t, []int{2019, 2020, 2021}, md.Years())
			for year, n := range tt.want {
				got, ok := md.ForYear(year)
				assert.True(t, ok)
				assert.Equal(t, n, got, "year %d", year)
			}
			_, ok := md.ForYear(2018)
			assert.False(t, ok)
		})
	}
}

func TestManualMarketDays(t *testing.T) {
	md := Manual(250)
	assert.True(t, md.IsManual())
	assert.Empty(t, md.Years())
	for _, y := range []int{1990, 2020, 2050} {
		n, ok := md.ForYear(y)
		assert.True(t, ok)
		assert.Equal(t, 250, n)
	}
}

func TestMarketDaysFor(t *testing.T) {
	all := []domain.SectorSeries{
		{Sector: "A", Bars: []domain.PriceBar{{Date: date(2020, 1, 2)}, {Date: date(2020, 1, 3)}}},
		{Sector: "B", Bars: []domain.PriceBar{{Date: date(2020, 1, 2)}}},
	}

	calendar := MarketDaysFor(all, domain.MarketDaysCalendar, 0, 0)
	n, _ := calendar["A"].ForYear(2020)
	assert.Equal(t, 2, n)
	n, _ = calendar["B"].ForYear(2020)
	assert.Equal(t, 1, n)

	manual := MarketDaysFor(all, domain.MarketDaysManual, 245, 0)
	n, _ = manual["B"].ForYear(2020)
	assert.Equal(t, 245, n)
}
