package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/notify"
)

func setupSubscriptionEngine() (*SubscriptionEngine, *fakeStore, *recordingNotifier) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	return NewSubscriptionEngine(store, notifier, zap.NewNop()), store, notifier
}

func TestSubscriptionEngine_Subscribe_RepointsCurrent(t *testing.T) {
	eng, store, _ := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	plan := store.addPlan("Term", 120, true)
	now := date(2025, 9, 1)

	sub, err := eng.Subscribe(context.Background(), h.ID, plan.ID, 500000, now)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Status != model.SubscriptionActive {
		t.Errorf("status = %q, want active", sub.Status)
	}
	want := now.AddDate(0, 0, 120)
	if !sub.EndDate.Equal(want) {
		t.Errorf("end_date = %v, want %v", sub.EndDate, want)
	}
	got := store.hostels[h.ID]
	if got.CurrentSubscriptionID == nil || *got.CurrentSubscriptionID != sub.ID {
		t.Errorf("current_subscription_id = %v, want %d", got.CurrentSubscriptionID, sub.ID)
	}
}

func TestSubscriptionEngine_Subscribe_RenewalCreatesFreshRow(t *testing.T) {
	eng, store, _ := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	plan := store.addPlan("Term", 120, true)
	old := store.addSubscription(h.ID, date(2025, 9, 5), model.SubscriptionActive)
	oldID := old.ID
	h.CurrentSubscriptionID = &oldID

	renewed, err := eng.Subscribe(context.Background(), h.ID, plan.ID, 500000, date(2025, 9, 1))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if renewed.ID == oldID {
		t.Fatal("renewal must insert a fresh row, not reuse the old one")
	}
	if store.subs[oldID].Status != model.SubscriptionActive {
		t.Errorf("old subscription status = %q, renewal must not touch it", store.subs[oldID].Status)
	}
	if got := store.hostels[h.ID]; got.CurrentSubscriptionID == nil || *got.CurrentSubscriptionID != renewed.ID {
		t.Errorf("current_subscription_id = %v, want %d", got.CurrentSubscriptionID, renewed.ID)
	}
}

func TestSubscriptionEngine_Subscribe_RejectsRetiredPlan(t *testing.T) {
	eng, store, _ := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	plan := store.addPlan("Legacy", 120, false)

	_, err := eng.Subscribe(context.Background(), h.ID, plan.ID, 500000, date(2025, 9, 1))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if len(store.subs) != 0 {
		t.Errorf("subscriptions = %d, want 0", len(store.subs))
	}
}

func TestSubscriptionEngine_Subscribe_UnknownHostel(t *testing.T) {
	eng, store, _ := setupSubscriptionEngine()
	plan := store.addPlan("Term", 120, true)

	_, err := eng.Subscribe(context.Background(), 999, plan.ID, 500000, date(2025, 9, 1))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionEngine_CheckAndNotifyExpiring_EdgeTriggeredDays(t *testing.T) {
	eng, store, notifier := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	store.addUser("admin@example.com", model.RoleHostelAdmin, &h.ID)
	now := date(2025, 9, 1)

	cases := []struct {
		daysLeft int
		want     bool
	}{
		{30, true}, {15, true}, {7, true}, {3, true}, {1, true},
		{29, false}, {14, false}, {2, false}, {45, false},
	}
	for _, tc := range cases {
		store.subs = map[uint64]*model.HostelSubscription{}
		notifier.sent = nil
		store.addSubscription(h.ID, now.AddDate(0, 0, tc.daysLeft), model.SubscriptionActive)

		if err := eng.CheckAndNotifyExpiring(context.Background(), now); err != nil {
			t.Fatalf("daysLeft=%d: %v", tc.daysLeft, err)
		}
		got := notifier.byKind(notify.KindSubscriptionExpiring)
		if tc.want && len(got) != 1 {
			t.Errorf("daysLeft=%d: reminders = %d, want 1", tc.daysLeft, len(got))
		}
		if !tc.want && len(got) != 0 {
			t.Errorf("daysLeft=%d: reminders = %d, want 0", tc.daysLeft, len(got))
		}
	}
}

func TestSubscriptionEngine_CheckAndNotifyExpiring_ExpiresPastDue(t *testing.T) {
	eng, store, notifier := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	store.addUser("admin@example.com", model.RoleHostelAdmin, &h.ID)
	store.addUser("custodian@example.com", model.RoleCustodian, &h.ID)
	store.addUser("student@example.com", model.RoleStudent, &h.ID)
	sub := store.addSubscription(h.ID, date(2025, 8, 30), model.SubscriptionActive)

	if err := eng.CheckAndNotifyExpiring(context.Background(), date(2025, 9, 1)); err != nil {
		t.Fatalf("CheckAndNotifyExpiring: %v", err)
	}
	if store.subs[sub.ID].Status != model.SubscriptionExpired {
		t.Errorf("status = %q, want expired", store.subs[sub.ID].Status)
	}
	got := notifier.byKind(notify.KindSubscriptionExpired)
	if len(got) != 2 {
		t.Fatalf("expired notices = %d, want 2 (admin and custodian, not the student)", len(got))
	}
	for _, n := range got {
		if n.Recipient == "student@example.com" {
			t.Error("students must not receive subscription notices")
		}
	}
}

func TestSubscriptionEngine_CheckAndNotifyExpiring_EndDateTodayIsNotExpired(t *testing.T) {
	eng, store, notifier := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	store.addUser("admin@example.com", model.RoleHostelAdmin, &h.ID)
	sub := store.addSubscription(h.ID, date(2025, 9, 1), model.SubscriptionActive)

	if err := eng.CheckAndNotifyExpiring(context.Background(), date(2025, 9, 1)); err != nil {
		t.Fatalf("CheckAndNotifyExpiring: %v", err)
	}
	if store.subs[sub.ID].Status != model.SubscriptionActive {
		t.Errorf("subscription expiring today must stay active through the day, got %q", store.subs[sub.ID].Status)
	}
	if got := notifier.byKind(notify.KindSubscriptionExpired); len(got) != 0 {
		t.Errorf("expired notices = %d, want 0", len(got))
	}
}

func TestSubscriptionEngine_CheckAndNotifyExpiring_FailureIsolation(t *testing.T) {
	eng, store, _ := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	first := store.addSubscription(h.ID, date(2025, 8, 20), model.SubscriptionActive)
	second := store.addSubscription(h.ID, date(2025, 8, 25), model.SubscriptionActive)

	store.failOn["ExpireSubscription"] = errors.New("lock wait timeout")
	if err := eng.CheckAndNotifyExpiring(context.Background(), date(2025, 9, 1)); err != nil {
		t.Fatalf("sweep must not surface per-row failures: %v", err)
	}
	if store.subs[first.ID].Status != model.SubscriptionActive {
		t.Errorf("failed row must stay active after rollback, got %q", store.subs[first.ID].Status)
	}

	delete(store.failOn, "ExpireSubscription")
	if err := eng.CheckAndNotifyExpiring(context.Background(), date(2025, 9, 1)); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if store.subs[second.ID].Status != model.SubscriptionExpired {
		t.Errorf("second row status = %q, want expired", store.subs[second.ID].Status)
	}
}

func TestSubscriptionEngine_SuperAdminDigest(t *testing.T) {
	eng, store, notifier := setupSubscriptionEngine()
	a := store.addHostel("Sunrise")
	b := store.addHostel("Hilltop")
	store.addSubscription(a.ID, date(2025, 9, 10), model.SubscriptionActive)
	store.addSubscription(b.ID, date(2025, 9, 25), model.SubscriptionActive)
	store.addSubscription(b.ID, date(2026, 1, 1), model.SubscriptionActive) // outside the 30-day window
	store.addUser("root@example.com", model.RoleSuperAdmin, nil)
	store.addUser("root2@example.com", model.RoleSuperAdmin, nil)

	if err := eng.NotifySuperAdminAboutExpiringSubscriptions(context.Background(), date(2025, 9, 1)); err != nil {
		t.Fatalf("NotifySuperAdminAboutExpiringSubscriptions: %v", err)
	}
	got := notifier.byKind(notify.KindSubscriptionExpiring)
	if len(got) != 2 {
		t.Fatalf("digests = %d, want one per super admin", len(got))
	}
	entries, ok := got[0].Data["subscriptions"].([]map[string]any)
	if !ok {
		t.Fatalf("digest payload missing subscriptions list: %v", got[0].Data)
	}
	if len(entries) != 2 {
		t.Errorf("digest entries = %d, want 2 (window is 30 days)", len(entries))
	}
	for _, entry := range entries {
		if _, ok := entry["hostel_name"]; !ok {
			t.Errorf("digest entry missing hostel_name: %v", entry)
		}
	}
}

func TestSubscriptionEngine_SuperAdminDigest_NoExpiringNoSend(t *testing.T) {
	eng, store, notifier := setupSubscriptionEngine()
	h := store.addHostel("Sunrise")
	store.addSubscription(h.ID, date(2026, 6, 1), model.SubscriptionActive)
	store.addUser("root@example.com", model.RoleSuperAdmin, nil)

	if err := eng.NotifySuperAdminAboutExpiringSubscriptions(context.Background(), date(2025, 9, 1)); err != nil {
		t.Fatalf("NotifySuperAdminAboutExpiringSubscriptions: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("notifications = %d, want 0 when nothing expires soon", len(notifier.sent))
	}
}

// The sweep entry points share a clock; a subscription ending mid-day
// still counts a full day via ceilDays.
func TestCeilDays(t *testing.T) {
	base := date(2025, 9, 1)
	cases := []struct {
		to   time.Time
		want int
	}{
		{base.AddDate(0, 0, 7), 7},
		{base.Add(12 * time.Hour), 1},
		{base, 0},
		{base.Add(-12 * time.Hour), 0},
		{base.AddDate(0, 0, -1), -1},
	}
	for _, tc := range cases {
		if got := ceilDays(base, tc.to); got != tc.want {
			t.Errorf("ceilDays(%v, %v) = %d, want %d", base, tc.to, got, tc.want)
		}
	}
}
