// Package scheduler runs the daily lifecycle sweeps on cron
// schedules.  Sweeps are idempotent, so a missed tick (process down,
// deploy in flight) is simply picked up by the next day's run.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
)

// Scheduler owns the cron runner and the engines it drives.
type Scheduler struct {
	cron          *cron.Cron
	semesters     *lifecycle.SemesterEngine
	subscriptions *lifecycle.SubscriptionEngine
	log           *zap.Logger
}

// New builds a Scheduler over UTC.  All day-boundary comparisons in
// the engines assume UTC, so the cron clock must match.
func New(sem *lifecycle.SemesterEngine, sub *lifecycle.SubscriptionEngine, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		semesters:     sem,
		subscriptions: sub,
		log:           log,
	}
}

// Register adds the sweep jobs under the given five-field cron specs
// and returns the first registration error, if any.
func (s *Scheduler) Register(semesterSpec, subscriptionSpec string) error {
	if _, err := s.cron.AddFunc(semesterSpec, s.runSemesterSweeps); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(subscriptionSpec, s.runSubscriptionSweeps); err != nil {
		return err
	}
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSemesterSweeps() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	now := time.Now().UTC()

	s.log.Info("semester sweep starting")
	if err := s.semesters.CheckAndEndSemesters(ctx, now); err != nil {
		s.log.Error("semester end sweep failed", zap.Error(err))
	}
	if err := s.semesters.SendUpcomingSemesterReminders(ctx, now); err != nil {
		s.log.Error("upcoming semester reminders failed", zap.Error(err))
	}
	s.log.Info("semester sweep finished", zap.Duration("took", time.Since(now)))
}

func (s *Scheduler) runSubscriptionSweeps() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	now := time.Now().UTC()

	s.log.Info("subscription sweep starting")
	if err := s.subscriptions.CheckAndNotifyExpiring(ctx, now); err != nil {
		s.log.Error("subscription expiry sweep failed", zap.Error(err))
	}
	if err := s.subscriptions.NotifySuperAdminAboutExpiringSubscriptions(ctx, now); err != nil {
		s.log.Error("super admin digest failed", zap.Error(err))
	}
	s.log.Info("subscription sweep finished", zap.Duration("took", time.Since(now)))
}
