// Package pricing maps seats to pricing tiers.  Every function in this
// package is pure: the same seat index, seat count and base price always
// produce the same tier and price.
package pricing

import "github.com/shopspring/decimal"

// Tier names, top rows first.
const (
	Platinum = "Platinum"
	Gold     = "Gold"
	Silver   = "Silver"
)

// SeatsPerRow is the fixed width of every row in the seat grid.
const SeatsPerRow = 10

// DefaultBasePrice is used when an event carries no seat price.
var DefaultBasePrice = decimal.NewFromInt(250)

// Tier is a pricing category covering a contiguous span of rows.
type Tier struct {
	Name  string          `json:"name"`
	Rows  int             `json:"rows"`
	Price decimal.Decimal `json:"price"`
}

type definition struct {
	name       string
	rows       func(totalRows int) int
	multiplier int64
}

// definitions are walked in order; Silver takes whatever rows remain and
// goes to zero or below when the venue has fewer than five rows.
var definitions = []definition{
	{name: Platinum, rows: func(int) int { return 2 }, multiplier: 3},
	{name: Gold, rows: func(int) int { return 3 }, multiplier: 2},
	{name: Silver, rows: func(total int) int { return total - 5 }, multiplier: 1},
}

// RowCount returns the number of rows needed for totalSeats seats.
func RowCount(totalSeats int) int {
	if totalSeats <= 0 {
		return 0
	}
	return (totalSeats + SeatsPerRow - 1) / SeatsPerRow
}

// BasePrice returns price, or DefaultBasePrice when price is not positive.
func BasePrice(price decimal.Decimal) decimal.Decimal {
	if price.IsPositive() {
		return price
	}
	return DefaultBasePrice
}

// Tiers returns the declared tiers for a venue of totalRows rows.  Spans
// are returned unclamped, so Silver may be negative; use Layout for the
// spans actually occupied.
func Tiers(totalRows int, base decimal.Decimal) []Tier {
	out := make([]Tier, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, Tier{
			Name:  d.name,
			Rows:  d.rows(totalRows),
			Price: base.Mul(decimal.NewFromInt(d.multiplier)),
		})
	}
	return out
}

// TierForRow returns the tier owning a zero-based row.  The first tier whose
// cumulative span includes row wins; a row no span covers falls back to the
// last tier.
func TierForRow(row, totalRows int, base decimal.Decimal) Tier {
	tiers := Tiers(totalRows, base)
	covered := 0
	for _, t := range tiers {
		if row < covered+t.Rows {
			return t
		}
		covered += t.Rows
	}
	return tiers[len(tiers)-1]
}

// SeatTier returns the tier of the seat at a zero-based index for a venue
// with totalSeats seats.
func SeatTier(index, totalSeats int, base decimal.Decimal) Tier {
	return TierForRow(index/SeatsPerRow, RowCount(totalSeats), base)
}

// Layout returns the tiers with their spans clamped to the rows the venue
// really has.  The spans always sum to RowCount(totalSeats).
func Layout(totalSeats int, base decimal.Decimal) []Tier {
	totalRows := RowCount(totalSeats)
	remaining := totalRows
	tiers := Tiers(totalRows, base)
	for i := range tiers {
		span := tiers[i].Rows
		if span < 0 {
			span = 0
		}
		if span > remaining {
			span = remaining
		}
		tiers[i].Rows = span
		remaining -= span
	}
	return tiers
}
