// Package queue carries lifecycle notifications over RabbitMQ.  The
// engines publish fire-and-forget events after their transactions
// commit; a consumer goroutine in the same process turns them into
// emails (or a local log when SMTP is not configured).
package queue

import (
	"time"

	"github.com/hostelhq/hostel-management/internal/notify"
)

// QueueName is the durable queue lifecycle events flow through.
const QueueName = "notification.lifecycle"

// NotificationEvent is the wire format published to RabbitMQ.
type NotificationEvent struct {
	Recipient string         `json:"recipient"`
	Kind      notify.Kind    `json:"kind"`
	Data      map[string]any `json:"data,omitempty"`
	QueuedAt  time.Time      `json:"queued_at"`
}
