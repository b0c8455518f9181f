package lifecycle

import (
	"context"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
)

// Store is the ledger store contract the engines run against.  Reads
// outside a transaction go through the Store directly; every mutation
// goes through InTx, which must execute fn atomically and roll the
// whole unit back when fn returns an error.  The production
// implementation lives in internal/repository; tests use a map-backed
// fake with snapshot rollback.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	SemesterByID(ctx context.Context, id uint64) (*model.Semester, error)
	// ActiveSemestersEndedBefore returns semesters with status active
	// whose end_date is strictly before day.
	ActiveSemestersEndedBefore(ctx context.Context, day time.Time) ([]model.Semester, error)
	// UpcomingSemestersStartingBetween returns upcoming semesters whose
	// start_date falls in [from, to], both inclusive.
	UpcomingSemestersStartingBetween(ctx context.Context, from, to time.Time) ([]model.Semester, error)
	ActiveEnrollmentsBySemester(ctx context.Context, semesterID uint64) ([]model.SemesterEnrollment, error)

	UserByID(ctx context.Context, id uint64) (*model.User, error)
	// HostelStaff returns the hostel's HOSTEL_ADMIN and CUSTODIAN users.
	HostelStaff(ctx context.Context, hostelID uint64) ([]model.User, error)
	SuperAdmins(ctx context.Context) ([]model.User, error)
	HostelByID(ctx context.Context, id uint64) (*model.Hostel, error)

	// ActiveSubscriptions returns subscriptions with status active,
	// ordered by end_date ascending.
	ActiveSubscriptions(ctx context.Context) ([]model.HostelSubscription, error)
	// SubscriptionsExpiringBetween returns active subscriptions with
	// end_date in [from, to].
	SubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]model.HostelSubscription, error)
}

// Tx is the set of operations available inside one store transaction.
// Lookups return ErrNotFound (possibly wrapped) when the row is
// absent.
type Tx interface {
	GetSemester(ctx context.Context, id uint64) (*model.Semester, error)
	InsertSemester(ctx context.Context, s *model.Semester) error
	// UnsetCurrentSemesters clears is_current on every semester of the
	// hostel.  Paired with SetSemesterCurrent inside one transaction it
	// upholds the at-most-one-current invariant.
	UnsetCurrentSemesters(ctx context.Context, hostelID uint64) error
	// SetSemesterCurrent marks the semester current and active.
	SetSemesterCurrent(ctx context.Context, id uint64) error
	SetSemesterStatus(ctx context.Context, id uint64, status string) error

	GetEnrollment(ctx context.Context, id uint64) (*model.SemesterEnrollment, error)
	// FindEnrollment looks up the unique (semester, user) pair; returns
	// ErrNotFound when absent.
	FindEnrollment(ctx context.Context, semesterID, userID uint64) (*model.SemesterEnrollment, error)
	InsertEnrollment(ctx context.Context, e *model.SemesterEnrollment) error
	// SetEnrollmentStatus updates the status and, when completedAt is
	// non-nil, stamps completed_at.
	SetEnrollmentStatus(ctx context.Context, id uint64, status string, completedAt *time.Time) error
	// ReactivateEnrollment flips an existing row back to active and
	// clears completed_at, updating the room reference.
	ReactivateEnrollment(ctx context.Context, id uint64, roomID *uint64, enrolledAt time.Time) error
	// CompleteActiveEnrollments transitions every active enrollment of
	// the semester to completed, stamping completed_at = now, and
	// returns the rows as they were before the transition.
	CompleteActiveEnrollments(ctx context.Context, semesterID uint64, now time.Time) ([]model.SemesterEnrollment, error)
	ActiveEnrollments(ctx context.Context, semesterID uint64) ([]model.SemesterEnrollment, error)

	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	// CountActiveAssignments recomputes occupancy from the assignment
	// table; the capacity decision and the write that depends on it
	// must share one transaction.
	CountActiveAssignments(ctx context.Context, roomID uint64) (int, error)
	// FindActiveAssignment returns the user's active assignment on the
	// room, or ErrNotFound.  Re-assigning an already-housed student
	// must not create a second row or count them twice.
	FindActiveAssignment(ctx context.Context, roomID, userID uint64) (*model.StudentRoomAssignment, error)
	InsertAssignment(ctx context.Context, a *model.StudentRoomAssignment) error
	// EndAssignments closes the user's active assignments scoped to the
	// semester, stamping ended_at = now; returns how many were closed.
	EndAssignments(ctx context.Context, semesterID, userID uint64, now time.Time) (int, error)
	// EndAssignmentsForRoom closes every active assignment on the room.
	EndAssignmentsForRoom(ctx context.Context, roomID uint64, now time.Time) (int, error)
	SetRoomStatus(ctx context.Context, roomID uint64, status string) error
	DeleteRoom(ctx context.Context, roomID uint64) error

	// InsertPayment records a payment alongside the enrollment it
	// pays for.
	InsertPayment(ctx context.Context, p *model.Payment) error

	GetHostel(ctx context.Context, id uint64) (*model.Hostel, error)
	GetPlan(ctx context.Context, id uint64) (*model.SubscriptionPlan, error)
	InsertSubscription(ctx context.Context, s *model.HostelSubscription) error
	// ExpireSubscription sets the subscription status to expired.
	ExpireSubscription(ctx context.Context, id uint64) error
	SetHostelCurrentSubscription(ctx context.Context, hostelID, subscriptionID uint64) error
}
