package model

import "time"

// Subscription statuses stored in hostel_subscriptions.status.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// SubscriptionPlan is a billing plan a hostel subscribes to.
type SubscriptionPlan struct {
	ID           uint64    `json:"id"`            // subscription_plans.id
	Name         string    `json:"name"`          // subscription_plans.name
	PriceCents   uint32    `json:"price_cents"`   // subscription_plans.price_cents
	DurationDays int       `json:"duration_days"` // subscription_plans.duration_days
	MaxRooms     int       `json:"max_rooms"`     // subscription_plans.max_rooms
	IsActive     bool      `json:"is_active"`     // subscription_plans.is_active
	CreatedAt    time.Time `json:"created_at"`    // subscription_plans.created_at
}

// HostelSubscription is one billing period for a hostel against a
// plan.  Renewal always creates a fresh row and repoints the hostel's
// current_subscription_id; expired rows are never reactivated.
//
// Fields:
//  ID              – primary key identifier.
//  HostelID        – hostel being billed.
//  PlanID          – plan subscribed to.
//  StartDate       – start of the billing period.
//  EndDate         – end of the billing period.
//  AmountPaidCents – amount actually paid, in cents.
//  Status          – one of the subscription status constants.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type HostelSubscription struct {
	ID              uint64    `json:"id"`                // hostel_subscriptions.id
	HostelID        uint64    `json:"hostel_id"`         // hostel_subscriptions.hostel_id
	PlanID          uint64    `json:"plan_id"`           // hostel_subscriptions.plan_id
	StartDate       time.Time `json:"start_date"`        // hostel_subscriptions.start_date
	EndDate         time.Time `json:"end_date"`          // hostel_subscriptions.end_date
	AmountPaidCents uint32    `json:"amount_paid_cents"` // hostel_subscriptions.amount_paid_cents
	Status          string    `json:"status"`            // hostel_subscriptions.status
	CreatedAt       time.Time `json:"created_at"`        // hostel_subscriptions.created_at
	UpdatedAt       time.Time `json:"updated_at"`        // hostel_subscriptions.updated_at
}

// Payment records money received from a student, usually alongside an
// enrollment.  Amounts are stored in cents to avoid float drift.
type Payment struct {
	ID          uint64    `json:"id"`           // payments.id
	HostelID    uint64    `json:"hostel_id"`    // payments.hostel_id
	UserID      uint64    `json:"user_id"`      // payments.user_id (the paying student)
	SemesterID  *uint64   `json:"semester_id"`  // payments.semester_id (nullable)
	AmountCents uint32    `json:"amount_cents"` // payments.amount_cents
	Method      string    `json:"method"`       // payments.method (cash, mpesa, bank, card)
	Reference   *string   `json:"reference"`    // payments.reference (nullable external ref)
	PaidAt      time.Time `json:"paid_at"`      // payments.paid_at
	CreatedAt   time.Time `json:"created_at"`   // payments.created_at
}

// Expense records money spent by a hostel.
type Expense struct {
	ID          uint64    `json:"id"`           // expenses.id
	HostelID    uint64    `json:"hostel_id"`    // expenses.hostel_id
	Category    string    `json:"category"`     // expenses.category
	Title       string    `json:"title"`        // expenses.title
	AmountCents uint32    `json:"amount_cents"` // expenses.amount_cents
	SpentOn     time.Time `json:"spent_on"`     // expenses.spent_on (DATE)
	Notes       *string   `json:"notes"`        // expenses.notes (nullable)
	CreatedAt   time.Time `json:"created_at"`   // expenses.created_at
}
