package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/notify"
)

// Publisher is the notify.Notifier that hands lifecycle events to
// RabbitMQ.  It dials per publish so a broker restart never leaves a
// stale connection in the process; lifecycle notification volume is a
// handful of messages per daily sweep, not a hot path.  Messages are
// persistent and the queue is durable, so accepted events survive a
// broker restart.
type Publisher struct {
	URL string
	Log *zap.Logger
}

var _ notify.Notifier = (*Publisher)(nil)

// NewPublisher returns a Publisher for the broker URL.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// Notify publishes one NotificationEvent.  Errors are logged and
// returned; callers treat notification failure as non-fatal.
func (p *Publisher) Notify(ctx context.Context, recipient string, kind notify.Kind, data map[string]any) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(NotificationEvent{
		Recipient: recipient,
		Kind:      kind,
		Data:      data,
		QueuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		p.Log.Warn("rabbitmq publish failed", zap.Error(err))
		return err
	}
	return nil
}
