// Package inventory keeps the best-known view of which seats of one event
// are locked or booked.  The view is reconciled against the booking ledger
// on a fixed interval and on demand; between refreshes it may be stale by up
// to one interval, and the ledger stays the final authority when a booking
// is committed.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/seatflow/internal/model"
)

// DefaultInterval is the refresh cadence of a running tracker.
const DefaultInterval = 5 * time.Second

// Reader is the part of the booking ledger the tracker reads.
type Reader interface {
	LockedSeats(ctx context.Context, eventID string) ([]string, error)
	BookedSeats(ctx context.Context, eventID string) ([]string, error)
}

// Tracker holds the latest Snapshot for one event.  One tracker exists per
// viewed event; it is discarded together with the view that owns it.
type Tracker struct {
	eventID  string
	reader   Reader
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval overrides DefaultInterval.  Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithLogger sets the logger used for refresh failures.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns a tracker for eventID.  It holds an empty snapshot until the
// first refresh.
func New(eventID string, reader Reader, opts ...Option) *Tracker {
	t := &Tracker{
		eventID:  eventID,
		reader:   reader,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(zap.String("event_id", eventID))
	return t
}

// EventID returns the event this tracker follows.
func (t *Tracker) EventID() string { return t.eventID }

// Interval returns the refresh cadence, which is also the staleness window
// of a healthy tracker.
func (t *Tracker) Interval() time.Duration { return t.interval }

// Snapshot returns the latest snapshot.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Stale reports whether the latest snapshot is older than one interval, or
// was never taken.
func (t *Tracker) Stale() bool {
	age := t.Snapshot().Age(t.now())
	return age < 0 || age >= t.interval
}

// Refresh reads the locked and booked seat sets concurrently and replaces
// the snapshot with both of them at once.  When either read fails both sets
// are reset to empty: an unknown seat is shown as available rather than
// blocked, and the ledger rejects the booking if it was not.  The returned
// error wraps model.ErrFetchFailure in that case.
//
// A refresh whose context is cancelled before it completes is discarded and
// leaves the previous snapshot in place.
func (t *Tracker) Refresh(ctx context.Context) (Snapshot, error) {
	var locked, booked []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := t.reader.LockedSeats(gctx, t.eventID)
		if err != nil {
			return fmt.Errorf("locked seats: %w", err)
		}
		locked = ids
		return nil
	})
	g.Go(func() error {
		ids, err := t.reader.BookedSeats(gctx, t.eventID)
		if err != nil {
			return fmt.Errorf("booked seats: %w", err)
		}
		booked = ids
		return nil
	})
	err := g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return t.Snapshot(), ctxErr
	}

	if err != nil {
		snap := newSnapshot(nil, nil, t.now())
		t.store(snap)
		return snap, fmt.Errorf("%w: inventory of event %s: %w", model.ErrFetchFailure, t.eventID, err)
	}
	snap := newSnapshot(locked, booked, t.now())
	t.store(snap)
	return snap, nil
}

func (t *Tracker) store(s Snapshot) {
	t.mu.Lock()
	t.snap = s
	t.mu.Unlock()
}

// Start refreshes immediately and then on every interval until ctx is done
// or Stop is called.  Calling Start on a running tracker does nothing.
func (t *Tracker) Start(ctx context.Context) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	go t.loop(ctx, done)
}

// Stop cancels the recurring refresh and waits for the loop to exit, so no
// refresh runs after Stop returns.  It is safe to call more than once.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}

// Running reports whether the recurring refresh is active.
func (t *Tracker) Running() bool {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t.refreshLogged(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refreshLogged(ctx)
		}
	}
}

func (t *Tracker) refreshLogged(ctx context.Context) {
	snap, err := t.Refresh(ctx)
	switch {
	case err == nil:
		t.logger.Debug("inventory refreshed",
			zap.Int("locked", len(snap.locked)),
			zap.Int("booked", len(snap.booked)))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		t.logger.Warn("inventory refresh failed, showing all seats as available", zap.Error(err))
	}
}
