package inventory

import (
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/seatflow/internal/model"
)

// Snapshot is an immutable view of the seats the ledger reported as locked
// or booked at RefreshedAt.  A zero Snapshot (never refreshed) reports every
// seat as available.
type Snapshot struct {
	locked      map[string]struct{}
	booked      map[string]struct{}
	RefreshedAt time.Time
}

func newSnapshot(locked, booked []string, at time.Time) Snapshot {
	return Snapshot{locked: toSet(locked), booked: toSet(booked), RefreshedAt: at}
}

// Status returns the authoritative status of a seat.  Booked wins over
// Locked when the ledger reports both.
func (s Snapshot) Status(seatID string) model.SeatStatus {
	if _, ok := s.booked[seatID]; ok {
		return model.SeatBooked
	}
	if _, ok := s.locked[seatID]; ok {
		return model.SeatLocked
	}
	return model.SeatAvailable
}

// Blocked reports whether seatID is currently locked or booked.
func (s Snapshot) Blocked(seatID string) bool {
	return s.Status(seatID).Blocked()
}

// Locked returns the locked seat IDs in sorted order.
func (s Snapshot) Locked() []string { return sortedKeys(s.locked) }

// Booked returns the booked seat IDs in sorted order.
func (s Snapshot) Booked() []string { return sortedKeys(s.booked) }

// Empty reports whether no seat is locked or booked.
func (s Snapshot) Empty() bool { return len(s.locked) == 0 && len(s.booked) == 0 }

// Age is how old the snapshot is at now.  A snapshot that was never
// refreshed has no meaningful age and reports -1.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.RefreshedAt.IsZero() {
		return -1
	}
	return now.Sub(s.RefreshedAt)
}

// NormalizeSeatIDs trims, de-duplicates and drops empty seat IDs while
// keeping first-seen order.
func NormalizeSeatIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	ids = NormalizeSeatIDs(ids)
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
