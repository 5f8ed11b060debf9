package queue

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatflow/internal/model"
)

func paidBooking() (model.Booking, model.Payment) {
	return model.Booking{
			ID:        "bk_1",
			EventID:   "7",
			UserID:    "42",
			SeatIDs:   []string{"A1", "B3"},
			TotalCost: decimal.NewFromInt(1250),
		}, model.Payment{
			BookingID: "bk_1",
			Method:    model.MethodCard,
			Status:    model.PaymentPaid,
			Reference: "pay_1",
		}
}

func TestNewBookingConfirmed(t *testing.T) {
	b, p := paidBooking()
	at := time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC)

	ev := NewBookingConfirmed("m1", b, p, at)
	assert.Equal(t, "bk_1", ev.BookingID)
	assert.Equal(t, "1250.00", ev.TotalCost)
	assert.Equal(t, "card", ev.PaymentMethod)
	assert.Equal(t, "2025-03-01T19:30:00Z", ev.ConfirmedAt)

	b.SeatIDs[0] = "Z9"
	assert.Equal(t, "A1", ev.SeatIDs[0])
}

func TestConsumer_HandleMessage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewConsumer("", dir, nil)
	b, p := paidBooking()
	at := time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC)

	body, err := json.Marshal(NewBookingConfirmed("m1", b, p, at))
	require.NoError(t, err)
	require.NoError(t, c.HandleMessage(BookingConfirmedQueue, body))

	body, err = json.Marshal(NewPaymentInconsistency("m2", b, p, errors.New("ledger down"), at))
	require.NoError(t, err)
	require.NoError(t, c.HandleMessage(PaymentInconsistencyQueue, body))

	raw, err := os.ReadFile(filepath.Join(dir, AuditLogName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2025-03-01T19:30:00Z] Booking confirmed | booking_id=bk_1 | user_id=42 | event_id=7 | method=card | ref=pay_1 | total=1250.00 | seats=[A1,B3]", lines[0])
	assert.Contains(t, lines[1], "PAYMENT WITHOUT CONFIRMATION")
	assert.Contains(t, lines[1], `cause="ledger down"`)
}

func TestConsumer_HandleMessage_Rejects(t *testing.T) {
	c := NewConsumer("", t.TempDir(), nil)
	assert.Error(t, c.HandleMessage(BookingConfirmedQueue, []byte("{")))
	assert.Error(t, c.HandleMessage("other", []byte("{}")))
}
