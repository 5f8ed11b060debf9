package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Seat is a derived seat: it is never stored, only recomputed from its
// index.
type Seat struct {
	Index  int             `json:"index"`
	Row    int             `json:"row"`
	Column int             `json:"column"`
	Label  string          `json:"label"`
	Tier   string          `json:"tier"`
	Price  decimal.Decimal `json:"price"`
	// TierStart is set on the first row of a tier so seat maps can print a
	// section header.
	TierStart bool `json:"tier_start,omitempty"`
}

// SeatLabel converts a zero-based seat index to its label, e.g. 0 -> A1,
// 12 -> B3.  Rows past Z continue as AA, AB, ...
func SeatLabel(index int) string {
	if index < 0 {
		return ""
	}
	return rowLabel(index/SeatsPerRow) + strconv.Itoa(index%SeatsPerRow+1)
}

// ParseSeatLabel converts a label back to its zero-based index.
func ParseSeatLabel(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	split := 0
	for split < len(s) && s[split] >= 'A' && s[split] <= 'Z' {
		split++
	}
	if split == 0 || split == len(s) {
		return -1, false
	}
	row, ok := rowIndex(s[:split])
	if !ok {
		return -1, false
	}
	col, err := strconv.Atoi(s[split:])
	if err != nil || col < 1 || col > SeatsPerRow || s[split] == '0' {
		return -1, false
	}
	return row*SeatsPerRow + col - 1, true
}

// Seats lists every seat of a venue with its tier and price.
func Seats(totalSeats int, base decimal.Decimal) []Seat {
	if totalSeats <= 0 {
		return nil
	}
	totalRows := RowCount(totalSeats)
	starts := tierStartRows(totalRows)
	out := make([]Seat, 0, totalSeats)
	for i := 0; i < totalSeats; i++ {
		row := i / SeatsPerRow
		tier := TierForRow(row, totalRows, base)
		out = append(out, Seat{
			Index:     i,
			Row:       row,
			Column:    i%SeatsPerRow + 1,
			Label:     SeatLabel(i),
			Tier:      tier.Name,
			Price:     tier.Price,
			TierStart: starts[row] && i%SeatsPerRow == 0,
		})
	}
	return out
}

// tierStartRows marks the rows where a tier begins, using the declared
// spans the same way TierForRow walks them.
func tierStartRows(totalRows int) map[int]bool {
	starts := make(map[int]bool, len(definitions))
	sum := 0
	for _, d := range definitions {
		if sum < totalRows {
			starts[sum] = true
		}
		sum += d.rows(totalRows)
	}
	return starts
}

// rowLabel converts a zero-based row index into A, B, ..., Z, AA, AB, ...
func rowLabel(i int) string {
	res := []byte{}
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// rowIndex is the inverse of rowLabel.
func rowIndex(label string) (int, bool) {
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}
