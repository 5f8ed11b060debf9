package payment

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/seatflow/internal/model"
)

type MockLedger struct {
	GetBookingFunc     func(ctx context.Context, id string) (model.Booking, error)
	ConfirmBookingFunc func(ctx context.Context, id string) error
	gets               atomic.Int32
	confirms           atomic.Int32
}

func (m *MockLedger) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	m.gets.Add(1)
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, id)
	}
	return model.Booking{}, model.ErrBookingNotFound
}

func (m *MockLedger) ConfirmBooking(ctx context.Context, id string) error {
	m.confirms.Add(1)
	if m.ConfirmBookingFunc != nil {
		return m.ConfirmBookingFunc(ctx, id)
	}
	return nil
}

type MockProcessor struct {
	ChargeFunc func(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error)
	calls      atomic.Int32
	last       model.ChargeRequest
}

func (m *MockProcessor) Charge(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error) {
	m.calls.Add(1)
	m.last = req
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, req)
	}
	return model.ChargeResult{HTTPStatus: http.StatusOK, Status: "PAID", Reference: "pay_1"}, nil
}

type MockReporter struct {
	mu            sync.Mutex
	confirmed     []string
	inconsistent  []string
	inconsistency error
}

func (m *MockReporter) BookingConfirmed(_ context.Context, b model.Booking, _ model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, b.ID)
	return nil
}

func (m *MockReporter) ConfirmInconsistency(_ context.Context, b model.Booking, _ model.Payment, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inconsistent = append(m.inconsistent, b.ID)
	m.inconsistency = cause
	return nil
}

func handoff() model.Booking {
	return model.Booking{
		ID:      "bk_1",
		EventID: "7",
		UserID:  "42",
		SeatIDs: []string{"A1", "B3"},
		Seats: []model.BookedSeat{
			{SeatID: "A1", Price: decimal.NewFromInt(750)},
			{SeatID: "B3", Price: decimal.NewFromInt(500)},
		},
		TotalCost: decimal.NewFromInt(1250),
		Status:    model.BookingPending,
	}
}

func TestController_ResolveBooking_Handoff(t *testing.T) {
	ledger := &MockLedger{}
	c := New(ledger, &MockProcessor{}, nil, zap.NewNop())

	h := handoff()
	b, err := c.ResolveBooking(context.Background(), "bk_1", &h)
	require.NoError(t, err)
	assert.Equal(t, "bk_1", b.ID)
	assert.True(t, b.TotalCost.Equal(decimal.NewFromInt(1250)))
	assert.Equal(t, []string{"A1", "B3"}, b.SeatIDs)
	assert.Equal(t, int32(0), ledger.gets.Load(), "handoff must not hit the ledger")

	b.SeatIDs[0] = "Z9"
	assert.Equal(t, "A1", h.SeatIDs[0])
}

func TestController_ResolveBooking_ReloadFetchesAndDerivesTotal(t *testing.T) {
	ledger := &MockLedger{GetBookingFunc: func(_ context.Context, id string) (model.Booking, error) {
		b := handoff()
		b.TotalCost = decimal.Zero
		return b, nil
	}}
	c := New(ledger, &MockProcessor{}, nil, nil)

	b, err := c.ResolveBooking(context.Background(), "bk_1", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ledger.gets.Load())
	assert.Equal(t, []string{"A1", "B3"}, b.SeatIDs)
	assert.True(t, b.TotalCost.Equal(decimal.NewFromInt(1250)), "total derived from recorded seat prices, got %s", b.TotalCost)
}

func TestController_ResolveBooking_MismatchedHandoffFetches(t *testing.T) {
	ledger := &MockLedger{GetBookingFunc: func(_ context.Context, id string) (model.Booking, error) {
		b := handoff()
		b.ID = id
		return b, nil
	}}
	c := New(ledger, &MockProcessor{}, nil, nil)

	h := handoff()
	b, err := c.ResolveBooking(context.Background(), "bk_2", &h)
	require.NoError(t, err)
	assert.Equal(t, "bk_2", b.ID)
	assert.Equal(t, int32(1), ledger.gets.Load())
}

func TestController_ResolveBooking_NotFound(t *testing.T) {
	c := New(&MockLedger{}, &MockProcessor{}, nil, nil)

	_, err := c.ResolveBooking(context.Background(), "bk_404", nil)
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	_, err = c.ResolveBooking(context.Background(), "", nil)
	assert.ErrorIs(t, err, model.ErrBookingNotFound)
}

func TestController_Pay_Success(t *testing.T) {
	ledger := &MockLedger{}
	proc := &MockProcessor{}
	rep := &MockReporter{}
	c := New(ledger, proc, rep, zap.NewNop())

	out, err := c.Pay(context.Background(), handoff(), "CARD", "a@b.io")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, out.Payment.Status)
	assert.Equal(t, "pay_1", out.Payment.Reference)
	assert.True(t, out.Booking.Confirmed)
	assert.Equal(t, model.BookingConfirmed, out.Booking.Status)
	assert.Equal(t, Succeeded, c.State())

	assert.Equal(t, model.MethodCard, proc.last.Method)
	assert.Equal(t, "bk_1", proc.last.BookingID)
	assert.Equal(t, "a@b.io", proc.last.PayerEmail)
	assert.Equal(t, int32(1), ledger.confirms.Load())
	assert.Equal(t, []string{"bk_1"}, rep.confirmed)

	_, err = c.Pay(context.Background(), handoff(), model.MethodUPI, "a@b.io")
	assert.ErrorIs(t, err, model.ErrAlreadyPaid)
	assert.Equal(t, int32(1), proc.calls.Load())
}

func TestController_Pay_FailedStatusDoesNotConfirm(t *testing.T) {
	ledger := &MockLedger{}
	proc := &MockProcessor{ChargeFunc: func(context.Context, model.ChargeRequest) (model.ChargeResult, error) {
		return model.ChargeResult{HTTPStatus: http.StatusOK, Status: "FAILED"}, nil
	}}
	rep := &MockReporter{}
	c := New(ledger, proc, rep, nil)

	out, err := c.Pay(context.Background(), handoff(), model.MethodCard, "a@b.io")
	assert.ErrorIs(t, err, model.ErrPaymentDeclined)
	assert.Equal(t, model.PaymentFailed, out.Payment.Status)
	assert.False(t, out.Booking.Confirmed)
	assert.Equal(t, int32(0), ledger.confirms.Load())
	assert.Equal(t, AwaitingInput, c.State())
	assert.Empty(t, rep.confirmed)
}

func TestController_Pay_DeclineCases(t *testing.T) {
	cases := []struct {
		name string
		res  model.ChargeResult
		err  error
	}{
		{"paid on error status", model.ChargeResult{HTTPStatus: http.StatusBadGateway, Status: "PAID"}, nil},
		{"pending", model.ChargeResult{HTTPStatus: http.StatusOK, Status: "PENDING"}, nil},
		{"empty status", model.ChargeResult{HTTPStatus: http.StatusOK}, nil},
		{"transport", model.ChargeResult{}, model.ErrFetchFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &MockLedger{}
			proc := &MockProcessor{ChargeFunc: func(context.Context, model.ChargeRequest) (model.ChargeResult, error) {
				return tc.res, tc.err
			}}
			c := New(ledger, proc, nil, nil)

			_, err := c.Pay(context.Background(), handoff(), model.MethodUPI, "a@b.io")
			assert.ErrorIs(t, err, model.ErrPaymentDeclined)
			assert.Equal(t, int32(0), ledger.confirms.Load())
			assert.Equal(t, AwaitingInput, c.State())
		})
	}
}

func TestController_Pay_RetryAfterDecline(t *testing.T) {
	var attempt atomic.Int32
	proc := &MockProcessor{ChargeFunc: func(context.Context, model.ChargeRequest) (model.ChargeResult, error) {
		if attempt.Add(1) == 1 {
			return model.ChargeResult{HTTPStatus: http.StatusOK, Status: "FAILED"}, nil
		}
		return model.ChargeResult{HTTPStatus: http.StatusCreated, Status: "paid"}, nil
	}}
	c := New(&MockLedger{}, proc, nil, nil)

	_, err := c.Pay(context.Background(), handoff(), model.MethodCard, "a@b.io")
	require.ErrorIs(t, err, model.ErrPaymentDeclined)

	out, err := c.Pay(context.Background(), handoff(), model.MethodUPI, "a@b.io")
	require.NoError(t, err)
	assert.True(t, out.Booking.Confirmed)
}

func TestController_Pay_ValidatesBeforeCharging(t *testing.T) {
	proc := &MockProcessor{}
	c := New(&MockLedger{}, proc, nil, nil)

	_, err := c.Pay(context.Background(), handoff(), "cash", "a@b.io")
	assert.ErrorIs(t, err, model.ErrInvalidMethod)
	assert.True(t, model.IsValidation(err))

	_, err = c.Pay(context.Background(), handoff(), model.MethodCard, "  ")
	assert.ErrorIs(t, err, model.ErrMissingIdentity)

	_, err = c.Pay(context.Background(), model.Booking{}, model.MethodCard, "a@b.io")
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	assert.Equal(t, int32(0), proc.calls.Load())
	assert.Equal(t, AwaitingInput, c.State())
}

func TestController_Pay_InProgress(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	proc := &MockProcessor{ChargeFunc: func(context.Context, model.ChargeRequest) (model.ChargeResult, error) {
		close(entered)
		<-release
		return model.ChargeResult{HTTPStatus: http.StatusOK, Status: "PAID"}, nil
	}}
	c := New(&MockLedger{}, proc, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Pay(context.Background(), handoff(), model.MethodCard, "a@b.io")
		done <- err
	}()
	<-entered
	assert.Equal(t, Submitting, c.State())

	_, err := c.Pay(context.Background(), handoff(), model.MethodCard, "a@b.io")
	assert.ErrorIs(t, err, model.ErrPaymentInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), proc.calls.Load())
}

func TestController_Pay_ConfirmFailureIsReported(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ledger := &MockLedger{ConfirmBookingFunc: func(context.Context, string) error {
		return errors.New("ledger down")
	}}
	rep := &MockReporter{}
	c := New(ledger, &MockProcessor{}, rep, zap.New(core))

	out, err := c.Pay(context.Background(), handoff(), model.MethodCard, "a@b.io")
	require.Error(t, err)
	assert.True(t, IsInconsistency(err))
	assert.NotErrorIs(t, err, model.ErrPaymentDeclined)

	assert.Equal(t, model.PaymentPaid, out.Payment.Status)
	assert.False(t, out.Booking.Confirmed)
	assert.Equal(t, Succeeded, c.State())

	assert.Equal(t, []string{"bk_1"}, rep.inconsistent)
	assert.EqualError(t, rep.inconsistency, "ledger down")
	assert.Empty(t, rep.confirmed)

	entries := logs.FilterMessage("payment captured but booking confirmation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bk_1", entries[0].ContextMap()["booking_id"])
}

func TestTransitions(t *testing.T) {
	assert.True(t, canTransition(AwaitingInput, Submitting))
	assert.True(t, canTransition(Submitting, Failed))
	assert.True(t, canTransition(Failed, AwaitingInput))
	assert.False(t, canTransition(Succeeded, Submitting))
	assert.False(t, canTransition(AwaitingInput, Succeeded))

	err := (&transitionError{from: Succeeded, to: Submitting}).Error()
	assert.Contains(t, err, "SUCCEEDED -> SUBMITTING")
}
