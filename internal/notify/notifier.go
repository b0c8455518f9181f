// Package notify defines the notification dispatcher boundary.  The
// lifecycle engines decide when to notify and with what data; how the
// message is rendered and delivered belongs to the implementation
// behind the Notifier interface.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Kind identifies a notification template.
type Kind string

// Template kinds emitted by the lifecycle engines.
const (
	KindSemesterEnding       Kind = "semester_ending"
	KindSemesterUpcoming     Kind = "semester_upcoming"
	KindSubscriptionExpiring Kind = "subscription_expiring"
	KindSubscriptionExpired  Kind = "subscription_expired"
)

// Notifier delivers one lifecycle notification to one recipient.
// Implementations must not participate in the caller's transaction:
// the engines invoke Notify only after their state change has
// committed, and treat any returned error as log-only.
type Notifier interface {
	Notify(ctx context.Context, recipient string, kind Kind, data map[string]any) error
}

// LogNotifier writes notifications to the structured log instead of
// delivering them.  It is the fallback when no broker is configured
// and the default in tests.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) Notify(_ context.Context, recipient string, kind Kind, data map[string]any) error {
	n.Log.Info("notification",
		zap.String("recipient", recipient),
		zap.String("kind", string(kind)),
		zap.Any("data", data),
	)
	return nil
}
