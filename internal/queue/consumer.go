package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/mailer"
)

// Consumer drains the notification queue and delivers each event by
// email.  When no Mailer is configured it appends a single line per
// event to logs/notifications.log instead, which keeps local
// development observable without an SMTP relay.
type Consumer struct {
	URL    string
	Mailer *mailer.Mailer // nil => log-file delivery
	Log    *zap.Logger
}

// NewConsumer returns a Consumer; m may be nil.
func NewConsumer(url string, m *mailer.Mailer, log *zap.Logger) *Consumer {
	return &Consumer{URL: url, Mailer: m, Log: log}
}

// Run connects to RabbitMQ, declares the durable queue, and consumes
// until the process exits.  It reconnects with exponential backoff
// and never returns under normal operation; a failed message is
// rejected without requeue so one poison event cannot wedge the
// queue.
func (c *Consumer) Run() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("notification consumer dial failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(conn); err != nil {
			c.Log.Warn("notification consume loop ended, reconnecting", zap.Error(err))
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *Consumer) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handle(d.Body); err != nil {
			c.Log.Warn("notification delivery failed", zap.Error(err))
			_ = d.Nack(false, false) // reject, no requeue
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handle(body []byte) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	subject, text := Render(ev)

	if c.Mailer != nil {
		if err := c.Mailer.Send(ev.Recipient, subject, text); err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		c.Log.Info("notification mailed",
			zap.String("recipient", ev.Recipient),
			zap.String("kind", string(ev.Kind)))
		return nil
	}
	return appendToLog(ev, subject)
}

func appendToLog(ev NotificationEvent, subject string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s | to=%s | %s\n",
		ev.QueuedAt.Format(time.RFC3339), ev.Kind, ev.Recipient, subject)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
