package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditLogName is the file the consumer appends to inside its directory.
const AuditLogName = "booking.log"

// Consumer listens on the booking.confirmed and payment.inconsistency
// queues and appends one line per message to the audit log.
type Consumer struct {
	url    string
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewConsumer returns a consumer for the broker at url writing into dir.
func NewConsumer(url, dir string, logger *zap.Logger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{url: url, dir: dir, logger: logger}
}

// Run connects to the broker and consumes until ctx is done, reconnecting
// with backoff when the connection drops.  It returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("audit consumer: set QoS failed", zap.Error(err))
	}

	type stream struct {
		queue string
		msgs  <-chan amqp.Delivery
	}
	streams := make([]stream, 0, 2)
	for _, name := range []string{BookingConfirmedQueue, PaymentInconsistencyQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		streams = append(streams, stream{queue: name, msgs: msgs})
	}

	confirmed, inconsistent := streams[0].msgs, streams[1].msgs
	for {
		var d amqp.Delivery
		var ok bool
		var queue string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-confirmed:
			queue = BookingConfirmedQueue
		case d, ok = <-inconsistent:
			queue = PaymentInconsistencyQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.HandleMessage(queue, d.Body); err != nil {
			c.logger.Error("audit consumer: handle message failed", zap.String("queue", queue), zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

// HandleMessage appends the message received on queue to the audit log.
func (c *Consumer) HandleMessage(queue string, body []byte) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, AuditLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case BookingConfirmedQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | user_id=%s | event_id=%s | method=%s | ref=%s | total=%s | seats=[%s]\n",
			ev.ConfirmedAt, ev.BookingID, ev.UserID, ev.EventID, ev.PaymentMethod, ev.PaymentReference, ev.TotalCost, strings.Join(ev.SeatIDs, ",")), nil
	case PaymentInconsistencyQueue:
		var ev PaymentInconsistencyEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] PAYMENT WITHOUT CONFIRMATION | booking_id=%s | user_id=%s | event_id=%s | method=%s | ref=%s | total=%s | seats=[%s] | cause=%q\n",
			ev.DetectedAt, ev.BookingID, ev.UserID, ev.EventID, ev.PaymentMethod, ev.PaymentReference, ev.TotalCost, strings.Join(ev.SeatIDs, ","), ev.Cause), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
