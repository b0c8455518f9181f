package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
)

// PlanRepo provides access to the subscription_plans table.
type PlanRepo struct{ DB *sql.DB }

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{DB: db} }

const planCols = "id,name,price_cents,duration_days,max_rooms,is_active,created_at"

// Create inserts a plan and returns its ID.
func (r *PlanRepo) Create(ctx context.Context, name string, priceCents uint32, durationDays, maxRooms int) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO subscription_plans (name, price_cents, duration_days, max_rooms) VALUES (?,?,?,?)",
		name, priceCents, durationDays, maxRooms)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a plan; returns ErrPlanNotFound when absent.
func (r *PlanRepo) GetByID(ctx context.Context, id uint64) (model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM subscription_plans WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &p.MaxRooms, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPlanNotFound
	}
	return p, err
}

// GetTx fetches a plan inside a transaction.
func (r *PlanRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	err := tx.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM subscription_plans WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &p.MaxRooms, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPlanNotFound
	}
	return p, err
}

// ListActive returns plans a hostel can currently subscribe to.
func (r *PlanRepo) ListActive(ctx context.Context) ([]model.SubscriptionPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+planCols+" FROM subscription_plans WHERE is_active=1 ORDER BY price_cents")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SubscriptionPlan, 0)
	for rows.Next() {
		var p model.SubscriptionPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &p.MaxRooms, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Retire deactivates a plan without touching running subscriptions.
func (r *PlanRepo) Retire(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE subscription_plans SET is_active=0 WHERE id=?", id)
	return err
}

// SubscriptionRepo provides access to the hostel_subscriptions table.
// Every billing period is its own row; renewals insert a fresh row
// and old rows are never reactivated.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

const subscriptionCols = "id,hostel_id,plan_id,start_date,end_date,amount_paid_cents,status,created_at,updated_at"

func scanSubscription(scan func(dest ...interface{}) error) (model.HostelSubscription, error) {
	var s model.HostelSubscription
	err := scan(&s.ID, &s.HostelID, &s.PlanID, &s.StartDate, &s.EndDate, &s.AmountPaidCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetByID fetches a subscription by id.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id uint64) (model.HostelSubscription, error) {
	return scanSubscription(r.DB.QueryRowContext(ctx,
		"SELECT "+subscriptionCols+" FROM hostel_subscriptions WHERE id=? LIMIT 1", id).Scan)
}

// ListByHostel returns the hostel's billing history, newest first.
func (r *SubscriptionRepo) ListByHostel(ctx context.Context, hostelID uint64) ([]model.HostelSubscription, error) {
	return r.query(ctx,
		"SELECT "+subscriptionCols+" FROM hostel_subscriptions WHERE hostel_id=? ORDER BY id DESC", hostelID)
}

// ListActive returns every active subscription ordered by end_date,
// the working set for the daily expiry sweep.
func (r *SubscriptionRepo) ListActive(ctx context.Context) ([]model.HostelSubscription, error) {
	return r.query(ctx,
		"SELECT "+subscriptionCols+" FROM hostel_subscriptions WHERE status=? ORDER BY end_date",
		model.SubscriptionActive)
}

// ExpiringBetween returns active subscriptions with end_date in
// [from, to], used for the super-admin digest.
func (r *SubscriptionRepo) ExpiringBetween(ctx context.Context, from, to time.Time) ([]model.HostelSubscription, error) {
	return r.query(ctx,
		"SELECT "+subscriptionCols+" FROM hostel_subscriptions WHERE status=? AND end_date>=? AND end_date<=? ORDER BY end_date",
		model.SubscriptionActive, from, to)
}

func (r *SubscriptionRepo) query(ctx context.Context, query string, args ...interface{}) ([]model.HostelSubscription, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.HostelSubscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertTx creates a subscription row and backfills its ID.
func (r *SubscriptionRepo) InsertTx(ctx context.Context, tx *sql.Tx, s *model.HostelSubscription) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO hostel_subscriptions (hostel_id, plan_id, start_date, end_date, amount_paid_cents, status) VALUES (?,?,?,?,?,?)",
		s.HostelID, s.PlanID, s.StartDate, s.EndDate, s.AmountPaidCents, s.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ExpireTx marks the subscription expired.
func (r *SubscriptionRepo) ExpireTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE hostel_subscriptions SET status=? WHERE id=? AND status=?",
		model.SubscriptionExpired, id, model.SubscriptionActive)
	return err
}

// Cancel marks the subscription cancelled outside any sweep, e.g. on
// an explicit admin request.
func (r *SubscriptionRepo) Cancel(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE hostel_subscriptions SET status=? WHERE id=? AND status=?",
		model.SubscriptionCancelled, id, model.SubscriptionActive)
	return err
}
