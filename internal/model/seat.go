package model

// SeatStatus is the availability of a seat as rendered on the seat map.
// Booked and Locked are authoritative and come from the booking ledger;
// Selected is asserted locally and never leaves the process until a
// booking is submitted.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatLocked    SeatStatus = "LOCKED"
	SeatBooked    SeatStatus = "BOOKED"
	SeatSelected  SeatStatus = "SELECTED"
)

// Blocked reports whether the status prevents a user from picking the seat.
func (s SeatStatus) Blocked() bool {
	return s == SeatLocked || s == SeatBooked
}
