package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = decimal.NewFromInt(250)

func TestRowCount(t *testing.T) {
	assert.Equal(t, 0, RowCount(0))
	assert.Equal(t, 1, RowCount(1))
	assert.Equal(t, 1, RowCount(10))
	assert.Equal(t, 2, RowCount(11))
	assert.Equal(t, 3, RowCount(25))
}

func TestTierForRow_TwentyFiveSeats(t *testing.T) {
	// 25 seats -> 3 rows: Platinum, Platinum, Gold.  Silver never starts.
	totalRows := RowCount(25)

	p0 := TierForRow(0, totalRows, base)
	p1 := TierForRow(1, totalRows, base)
	g2 := TierForRow(2, totalRows, base)

	assert.Equal(t, Platinum, p0.Name)
	assert.Equal(t, Platinum, p1.Name)
	assert.Equal(t, Gold, g2.Name)
	assert.True(t, p0.Price.Equal(decimal.NewFromInt(750)))
	assert.True(t, g2.Price.Equal(decimal.NewFromInt(500)))

	for _, tier := range Layout(25, base) {
		if tier.Name == Silver {
			assert.Zero(t, tier.Rows)
		}
	}
	for _, s := range Seats(25, base) {
		assert.NotEqual(t, Silver, s.Tier, "seat %s", s.Label)
	}
}

func TestTierForRow_LargeVenue(t *testing.T) {
	totalRows := RowCount(100)
	want := []string{Platinum, Platinum, Gold, Gold, Gold, Silver, Silver, Silver, Silver, Silver}
	for row, name := range want {
		assert.Equal(t, name, TierForRow(row, totalRows, base).Name, "row %d", row)
	}
	assert.True(t, TierForRow(9, totalRows, base).Price.Equal(base))
}

func TestTierForRow_FallbackToLastTier(t *testing.T) {
	// Row 7 of a 3-row venue is covered by no span.
	assert.Equal(t, Silver, TierForRow(7, 3, base).Name)
}

func TestLayout_SpansSumToRowCount(t *testing.T) {
	for seats := 1; seats <= 400; seats++ {
		sum := 0
		for _, tier := range Layout(seats, base) {
			require.GreaterOrEqual(t, tier.Rows, 0)
			sum += tier.Rows
		}
		require.Equal(t, RowCount(seats), sum, "seats=%d", seats)
	}
}

func TestSeats_EachSeatInExactlyOneTier(t *testing.T) {
	for _, total := range []int{1, 9, 10, 25, 49, 50, 51, 137} {
		layout := Layout(total, base)
		counts := map[string]int{}
		for _, s := range Seats(total, base) {
			counts[s.Tier]++
			assert.Equal(t, SeatTier(s.Index, total, base).Name, s.Tier)
		}
		seen := 0
		for _, n := range counts {
			seen += n
		}
		assert.Equal(t, total, seen)
		// A tier holding seats must own rows in the clamped layout.
		for _, tier := range layout {
			if counts[tier.Name] > 0 {
				assert.Positive(t, tier.Rows, "total=%d tier=%s", total, tier.Name)
			}
		}
	}
}

func TestSeatTier_Deterministic(t *testing.T) {
	for i := 0; i < 120; i++ {
		a := SeatTier(i, 120, base)
		b := SeatTier(i, 120, base)
		assert.Equal(t, a.Name, b.Name)
		assert.True(t, a.Price.Equal(b.Price))
	}
}

func TestBasePrice(t *testing.T) {
	assert.True(t, BasePrice(decimal.Zero).Equal(DefaultBasePrice))
	assert.True(t, BasePrice(decimal.NewFromInt(-5)).Equal(DefaultBasePrice))
	assert.True(t, BasePrice(decimal.NewFromInt(99)).Equal(decimal.NewFromInt(99)))
}
