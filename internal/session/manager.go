// Package session keeps the per-user state of the booking flow: open seat
// views, the booking handed from a view to checkout, and checkouts in
// progress.  Nothing here is shared between users.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/booking"
	"github.com/iliyamo/seatflow/internal/inventory"
	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/payment"
	"github.com/iliyamo/seatflow/internal/pricing"
	"github.com/iliyamo/seatflow/internal/selection"
)

// Events serves event data to views.  *catalog.Cache satisfies it.
type Events interface {
	GetEvent(ctx context.Context, eventID string) (model.Event, error)
	Reload(ctx context.Context, eventID string) (model.Event, error)
}

// Ledger is everything the flow needs from the booking ledger.
type Ledger interface {
	inventory.Reader
	booking.Ledger
	payment.Ledger
}

// Config tunes a Manager.
type Config struct {
	RefreshInterval time.Duration
	IdleTTL         time.Duration
}

// Manager owns every open view and checkout.
type Manager struct {
	events    Events
	ledger    Ledger
	processor payment.Processor
	reporter  payment.Reporter
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	views     map[string]*View
	handoffs  map[string]handoff
	checkouts map[string]*checkout
}

type handoff struct {
	userID  string
	booking model.Booking
	at      time.Time
}

// NewManager returns a Manager.  A nil reporter disables event publishing.
func NewManager(events Events, ledger Ledger, processor payment.Processor, reporter payment.Reporter, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = inventory.DefaultInterval
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		events:    events,
		ledger:    ledger,
		processor: processor,
		reporter:  reporter,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		views:     make(map[string]*View),
		handoffs:  make(map[string]handoff),
		checkouts: make(map[string]*checkout),
	}
}

// Open loads an event and starts tracking its inventory for userID.  A
// failed event load opens nothing.
func (m *Manager) Open(ctx context.Context, userID, eventID string) (SeatMap, error) {
	if userID == "" {
		return SeatMap{}, model.ErrMissingIdentity
	}
	ev, err := m.events.GetEvent(ctx, eventID)
	if err != nil {
		return SeatMap{}, err
	}
	if err := ev.Validate(); err != nil {
		return SeatMap{}, err
	}

	v := &View{
		ID:       uuid.NewString(),
		UserID:   userID,
		event:    ev,
		base:     pricing.BasePrice(ev.PricePerSeat),
		booking:  booking.New(m.ledger, m.logger),
		lastUsed: m.now(),
	}
	v.tracker = inventory.New(ev.ID, m.ledger,
		inventory.WithInterval(m.cfg.RefreshInterval),
		inventory.WithLogger(m.logger.With(zap.String("view_id", v.ID), zap.String("event_id", ev.ID))),
	)
	v.selection = selection.New(ev.ID, v.tracker)

	if _, err := v.tracker.Refresh(ctx); err != nil {
		m.logger.Warn("initial inventory read failed", zap.String("event_id", ev.ID), zap.Error(err))
	}
	v.tracker.Start(m.ctx)

	m.mu.Lock()
	m.views[v.ID] = v
	m.mu.Unlock()

	m.logger.Info("seat view opened",
		zap.String("view_id", v.ID),
		zap.String("event_id", ev.ID),
		zap.String("user_id", userID))

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seatMap(), nil
}

// view returns an open view owned by userID.
func (m *Manager) view(viewID, userID string) (*View, error) {
	m.mu.Lock()
	v, ok := m.views[viewID]
	m.mu.Unlock()
	if !ok || v.UserID != userID {
		return nil, fmt.Errorf("%w: %s", model.ErrViewNotFound, viewID)
	}
	return v, nil
}

// lock acquires a live view.
func (m *Manager) lock(viewID, userID string) (*View, error) {
	v, err := m.view(viewID, userID)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	if v.closed.Load() {
		v.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", model.ErrViewNotFound, viewID)
	}
	v.touch(m.now())
	return v, nil
}

// SeatMap renders a view.
func (m *Manager) SeatMap(viewID, userID string) (SeatMap, error) {
	v, err := m.lock(viewID, userID)
	if err != nil {
		return SeatMap{}, err
	}
	defer v.mu.Unlock()
	return v.seatMap(), nil
}

// Toggle picks or unpicks a seat by label.  Locked and booked seats are
// left alone and reported with Changed false.
func (m *Manager) Toggle(viewID, userID, label string) (ToggleResult, error) {
	v, err := m.lock(viewID, userID)
	if err != nil {
		return ToggleResult{}, err
	}
	defer v.mu.Unlock()

	idx, ok := pricing.ParseSeatLabel(label)
	if !ok || idx >= v.event.TotalSeats {
		return ToggleResult{}, fmt.Errorf("%w: %q", model.ErrInvalidSeat, label)
	}
	seatID := pricing.SeatLabel(idx)
	tier := pricing.SeatTier(idx, v.event.TotalSeats, v.base)
	changed := v.selection.Toggle(seatID, tier)

	status := v.tracker.Snapshot().Status(seatID)
	if status == model.SeatAvailable && v.selection.Contains(seatID) {
		status = model.SeatSelected
	}
	return ToggleResult{
		SeatID:   seatID,
		Changed:  changed,
		Status:   status,
		Selected: v.selection.Seats(),
		Total:    v.selection.TotalPrice(),
	}, nil
}

// Reload re-reads the event of a view and refreshes its inventory.  A
// failed reload clears the selection.  A reload that changes the seat count
// or base price also clears it, since picked prices no longer match the
// map.
func (m *Manager) Reload(ctx context.Context, viewID, userID string) (SeatMap, error) {
	v, err := m.lock(viewID, userID)
	if err != nil {
		return SeatMap{}, err
	}
	defer v.mu.Unlock()

	ev, err := m.events.Reload(ctx, v.event.ID)
	if err == nil {
		err = ev.Validate()
	}
	if err != nil {
		v.selection.Clear()
		return SeatMap{}, err
	}
	if ev.TotalSeats != v.event.TotalSeats || !pricing.BasePrice(ev.PricePerSeat).Equal(v.base) {
		v.selection.Clear()
	}
	v.event = ev
	v.base = pricing.BasePrice(ev.PricePerSeat)

	if _, err := v.tracker.Refresh(ctx); err != nil {
		m.logger.Warn("inventory read failed on reload", zap.String("view_id", v.ID), zap.Error(err))
	}
	return v.seatMap(), nil
}

// Submit books the current selection.  On success the view is closed and
// the booking is parked for the checkout of the same user.  A ledger
// rejection clears the selection and refreshes the inventory so the user
// picks again from current availability.
func (m *Manager) Submit(ctx context.Context, viewID, userID string) (model.Booking, error) {
	v, err := m.lock(viewID, userID)
	if err != nil {
		return model.Booking{}, err
	}
	defer v.mu.Unlock()

	if err := v.selection.CommitGuard(); err != nil {
		return model.Booking{}, err
	}
	b, err := v.booking.Submit(ctx, v.event.ID, userID, v.selection.Snapshot())
	if v.closed.Load() {
		if err == nil {
			m.logger.Warn("booking created for a closed view, result discarded",
				zap.String("view_id", v.ID), zap.String("booking_id", b.ID))
		}
		return model.Booking{}, fmt.Errorf("%w: %s", model.ErrViewNotFound, viewID)
	}
	if err != nil {
		if errors.Is(err, model.ErrBookingRejected) {
			v.selection.Clear()
			if _, rerr := v.tracker.Refresh(ctx); rerr != nil {
				m.logger.Warn("inventory read failed after rejection", zap.String("view_id", v.ID), zap.Error(rerr))
			}
		}
		return model.Booking{}, err
	}

	m.mu.Lock()
	m.handoffs[b.ID] = handoff{userID: userID, booking: b.Clone(), at: m.now()}
	m.mu.Unlock()

	m.close(v)
	return b, nil
}

// Close tears a view down and stops its tracker.  It does not wait for an
// operation in flight on the view; such an operation finds the view closed
// when it returns and its result is discarded.
func (m *Manager) Close(viewID, userID string) error {
	v, err := m.view(viewID, userID)
	if err != nil {
		return err
	}
	m.close(v)
	return nil
}

func (m *Manager) close(v *View) {
	if !v.closed.CompareAndSwap(false, true) {
		return
	}
	v.tracker.Stop()

	m.mu.Lock()
	delete(m.views, v.ID)
	m.mu.Unlock()

	m.logger.Debug("seat view closed", zap.String("view_id", v.ID))
}

// Views returns the number of open views.
func (m *Manager) Views() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Run reaps idle views, handoffs and checkouts until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	every := m.cfg.IdleTTL / 2
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}

// Reap drops everything idle for longer than the configured TTL and
// returns how many views it closed.
func (m *Manager) Reap() int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	idle := make([]*View, 0, len(m.views))
	for _, v := range m.views {
		idle = append(idle, v)
	}
	for id, h := range m.handoffs {
		if h.at.Before(cutoff) {
			delete(m.handoffs, id)
		}
	}
	for id, c := range m.checkouts {
		if c.lastUsed().Before(cutoff) {
			delete(m.checkouts, id)
		}
	}
	m.mu.Unlock()

	closed := 0
	for _, v := range idle {
		// A locked view is in use.
		if !v.mu.TryLock() {
			continue
		}
		expired := v.lastUsed.Before(cutoff)
		v.mu.Unlock()
		if expired && !v.closed.Load() {
			m.close(v)
			closed++
		}
	}
	if closed > 0 {
		m.logger.Info("reaped idle seat views", zap.Int("count", closed))
	}
	return closed
}

// Shutdown stops every tracker.
func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	views := make([]*View, 0, len(m.views))
	for _, v := range m.views {
		views = append(views, v)
	}
	m.mu.Unlock()
	for _, v := range views {
		v.tracker.Stop()
	}
}
