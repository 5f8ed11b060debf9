// Package service publishes booking outcomes to RabbitMQ.  Publishing is
// best effort: failures are logged and returned, and callers carry on.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/queue"
)

// Publisher sends booking.confirmed and payment.inconsistency messages.
// It satisfies payment.Reporter.
type Publisher struct {
	url    string
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{url: url, logger: logger, now: time.Now}
}

// BookingConfirmed publishes the confirmation of a paid booking.
func (p *Publisher) BookingConfirmed(ctx context.Context, b model.Booking, pay model.Payment) error {
	ev := queue.NewBookingConfirmed(uuid.NewString(), b, pay, p.now())
	return p.publish(ctx, queue.BookingConfirmedQueue, ev)
}

// ConfirmInconsistency publishes an alert for a charge the ledger did not
// confirm.
func (p *Publisher) ConfirmInconsistency(ctx context.Context, b model.Booking, pay model.Payment, cause error) error {
	ev := queue.NewPaymentInconsistency(uuid.NewString(), b, pay, cause, p.now())
	return p.publish(ctx, queue.PaymentInconsistencyQueue, ev)
}

// publish dials, declares the durable queue and sends one persistent
// message.
func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	msg, err := p.message(event)
	if err != nil {
		p.logger.Error("rabbitmq: marshal event failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq: dial failed", zap.Error(err))
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq: channel open failed", zap.Error(err))
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.logger.Warn("rabbitmq: queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return fmt.Errorf("rabbitmq declare %s: %w", queueName, err)
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, msg); err != nil {
		p.logger.Warn("rabbitmq: publish failed", zap.String("queue", queueName), zap.Error(err))
		return fmt.Errorf("rabbitmq publish %s: %w", queueName, err)
	}
	p.logger.Debug("rabbitmq: published", zap.String("queue", queueName), zap.String("message_id", msg.MessageId))
	return nil
}

func (p *Publisher) message(event any) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	var id string
	switch ev := event.(type) {
	case queue.BookingConfirmedEvent:
		id = ev.MessageID
	case queue.PaymentInconsistencyEvent:
		id = ev.MessageID
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}, nil
}
