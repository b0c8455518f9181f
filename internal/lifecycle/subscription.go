package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/notify"
)

// expiryReminderDays are the exact day counts at which hostel staff
// are warned about an expiring subscription.  The match is
// edge-triggered: a sweep that misses day 30 will not renotify until
// day 15.
var expiryReminderDays = map[int]bool{30: true, 15: true, 7: true, 3: true, 1: true}

// superAdminDigestWindowDays is the look-ahead for the super-admin
// digest of expiring subscriptions.
const superAdminDigestWindowDays = 30

// SubscriptionEngine owns the hostel subscription state machine:
// creating billing periods, expiring them once their end date passes,
// and deciding whom to warn and when.
type SubscriptionEngine struct {
	store    Store
	notifier notify.Notifier
	log      *zap.Logger
}

// NewSubscriptionEngine wires the engine to its ledger store and
// notification dispatcher.
func NewSubscriptionEngine(store Store, notifier notify.Notifier, log *zap.Logger) *SubscriptionEngine {
	return &SubscriptionEngine{store: store, notifier: notifier, log: log}
}

// Subscribe opens a new billing period for the hostel against the
// plan.  It always inserts a fresh subscription row and repoints the
// hostel's current_subscription_id at it; renewal is the same
// operation, and old rows are never reactivated.
func (e *SubscriptionEngine) Subscribe(ctx context.Context, hostelID, planID uint64, amountPaidCents uint32, now time.Time) (*model.HostelSubscription, error) {
	var out *model.HostelSubscription
	err := e.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetHostel(ctx, hostelID); err != nil {
			return err
		}
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return fmt.Errorf("%w: plan %q is retired", ErrConflict, plan.Name)
		}
		sub := &model.HostelSubscription{
			HostelID:        hostelID,
			PlanID:          planID,
			StartDate:       now,
			EndDate:         now.AddDate(0, 0, plan.DurationDays),
			AmountPaidCents: amountPaidCents,
			Status:          model.SubscriptionActive,
		}
		if err := tx.InsertSubscription(ctx, sub); err != nil {
			return err
		}
		if err := tx.SetHostelCurrentSubscription(ctx, hostelID, sub.ID); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckAndNotifyExpiring is the daily sweep over active
// subscriptions.  Staff of a hostel are warned when daysLeft lands
// exactly on one of the reminder thresholds; a subscription whose end
// date has passed is transitioned to expired and an expired notice is
// sent instead.  The expiry write commits before any notification is
// attempted, and per-row failures are logged without stopping the
// sweep.
func (e *SubscriptionEngine) CheckAndNotifyExpiring(ctx context.Context, now time.Time) error {
	subs, err := e.store.ActiveSubscriptions(ctx)
	if err != nil {
		return storeErr(err)
	}
	for i := range subs {
		sub := subs[i]
		daysLeft := ceilDays(now, sub.EndDate)
		switch {
		case daysLeft < 0:
			err := e.store.InTx(ctx, func(tx Tx) error {
				return tx.ExpireSubscription(ctx, sub.ID)
			})
			if err != nil {
				e.log.Error("expiring subscription failed, continuing sweep",
					zap.Uint64("subscription_id", sub.ID),
					zap.Error(err))
				continue
			}
			e.log.Info("subscription expired",
				zap.Uint64("subscription_id", sub.ID),
				zap.Uint64("hostel_id", sub.HostelID))
			e.notifyHostelStaff(ctx, sub.HostelID, notify.KindSubscriptionExpired, map[string]any{
				"end_date": sub.EndDate.Format("2006-01-02"),
			})
		case expiryReminderDays[daysLeft]:
			e.notifyHostelStaff(ctx, sub.HostelID, notify.KindSubscriptionExpiring, map[string]any{
				"days_left": daysLeft,
				"end_date":  sub.EndDate.Format("2006-01-02"),
			})
		}
	}
	return nil
}

// NotifySuperAdminAboutExpiringSubscriptions aggregates every active
// subscription expiring within the next thirty days into a single
// digest per super-admin recipient.  It shares no state with the
// per-hostel warnings and may repeat their information.
func (e *SubscriptionEngine) NotifySuperAdminAboutExpiringSubscriptions(ctx context.Context, now time.Time) error {
	until := now.AddDate(0, 0, superAdminDigestWindowDays)
	subs, err := e.store.SubscriptionsExpiringBetween(ctx, now, until)
	if err != nil {
		return storeErr(err)
	}
	if len(subs) == 0 {
		return nil
	}
	entries := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		entry := map[string]any{
			"hostel_id": sub.HostelID,
			"end_date":  sub.EndDate.Format("2006-01-02"),
			"days_left": ceilDays(now, sub.EndDate),
		}
		if hostel, err := e.store.HostelByID(ctx, sub.HostelID); err == nil {
			entry["hostel_name"] = hostel.Name
		}
		entries = append(entries, entry)
	}
	admins, err := e.store.SuperAdmins(ctx)
	if err != nil {
		return storeErr(err)
	}
	for _, admin := range admins {
		err := e.notifier.Notify(ctx, admin.Email, notify.KindSubscriptionExpiring, map[string]any{
			"digest":        true,
			"subscriptions": entries,
		})
		if err != nil {
			e.log.Warn("super admin digest send failed",
				zap.String("recipient", admin.Email),
				zap.Error(err))
		}
	}
	return nil
}

// notifyHostelStaff sends one notification to every hostel admin and
// custodian of the hostel.  Per-recipient failures are logged and do
// not block siblings.
func (e *SubscriptionEngine) notifyHostelStaff(ctx context.Context, hostelID uint64, kind notify.Kind, data map[string]any) {
	staff, err := e.store.HostelStaff(ctx, hostelID)
	if err != nil {
		e.log.Warn("staff lookup for notification failed",
			zap.Uint64("hostel_id", hostelID),
			zap.Error(err))
		return
	}
	for _, u := range staff {
		if err := e.notifier.Notify(ctx, u.Email, kind, data); err != nil {
			e.log.Warn("notification send failed",
				zap.String("recipient", u.Email),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}
}
