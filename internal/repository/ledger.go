package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/model"
)

// Ledger is the production lifecycle.Store: it adapts the raw-SQL
// repositories to the transaction contract the engines run against.
// InTx opens one database transaction, hands the engine a ledgerTx
// bound to it, and commits only when the engine's function returns
// nil.  Row-absent errors from the repositories are rewrapped as
// lifecycle.ErrNotFound so engines never see database/sql directly.
type Ledger struct {
	DB            *sql.DB
	Users         *UserRepo
	Hostels       *HostelRepo
	Rooms         *RoomRepo
	Semesters     *SemesterRepo
	Enrollments   *EnrollmentRepo
	Plans         *PlanRepo
	Subscriptions *SubscriptionRepo
	Payments      *PaymentRepo
}

// NewLedger builds a Ledger over one shared *sql.DB.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		DB:            db,
		Users:         NewUserRepo(db),
		Hostels:       NewHostelRepo(db),
		Rooms:         NewRoomRepo(db),
		Semesters:     NewSemesterRepo(db),
		Enrollments:   NewEnrollmentRepo(db),
		Plans:         NewPlanRepo(db),
		Subscriptions: NewSubscriptionRepo(db),
		Payments:      NewPaymentRepo(db),
	}
}

var _ lifecycle.Store = (*Ledger)(nil)

// notFound rewraps row-absent repository errors into the engines'
// sentinel; everything else passes through unchanged.
func notFound(err error, what string, id uint64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrHostelNotFound) ||
		errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrSemesterNotFound) ||
		errors.Is(err, ErrPlanNotFound) {
		return fmt.Errorf("%w: %s %d", lifecycle.ErrNotFound, what, id)
	}
	return err
}

// InTx runs fn inside one database transaction.
func (l *Ledger) InTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&ledgerTx{l: l, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (l *Ledger) SemesterByID(ctx context.Context, id uint64) (*model.Semester, error) {
	s, err := l.Semesters.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "semester", id)
	}
	return &s, nil
}

func (l *Ledger) ActiveSemestersEndedBefore(ctx context.Context, day time.Time) ([]model.Semester, error) {
	return l.Semesters.ActiveEndedBefore(ctx, day)
}

func (l *Ledger) UpcomingSemestersStartingBetween(ctx context.Context, from, to time.Time) ([]model.Semester, error) {
	return l.Semesters.UpcomingStartingBetween(ctx, from, to)
}

func (l *Ledger) ActiveEnrollmentsBySemester(ctx context.Context, semesterID uint64) ([]model.SemesterEnrollment, error) {
	return l.Enrollments.ActiveBySemester(ctx, semesterID)
}

func (l *Ledger) UserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := l.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (l *Ledger) HostelStaff(ctx context.Context, hostelID uint64) ([]model.User, error) {
	return l.Users.ListByRoles(ctx, hostelID, model.RoleHostelAdmin, model.RoleCustodian)
}

func (l *Ledger) SuperAdmins(ctx context.Context) ([]model.User, error) {
	return l.Users.ListSuperAdmins(ctx)
}

func (l *Ledger) HostelByID(ctx context.Context, id uint64) (*model.Hostel, error) {
	h, err := l.Hostels.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "hostel", id)
	}
	return &h, nil
}

func (l *Ledger) ActiveSubscriptions(ctx context.Context) ([]model.HostelSubscription, error) {
	return l.Subscriptions.ListActive(ctx)
}

func (l *Ledger) SubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]model.HostelSubscription, error) {
	return l.Subscriptions.ExpiringBetween(ctx, from, to)
}

// ledgerTx binds the repositories' *Tx methods to one open
// transaction for the duration of an InTx call.
type ledgerTx struct {
	l  *Ledger
	tx *sql.Tx
}

var _ lifecycle.Tx = (*ledgerTx)(nil)

func (t *ledgerTx) GetSemester(ctx context.Context, id uint64) (*model.Semester, error) {
	s, err := t.l.Semesters.GetTx(ctx, t.tx, id)
	if err != nil {
		return nil, notFound(err, "semester", id)
	}
	return &s, nil
}

func (t *ledgerTx) InsertSemester(ctx context.Context, s *model.Semester) error {
	return t.l.Semesters.InsertTx(ctx, t.tx, s)
}

func (t *ledgerTx) UnsetCurrentSemesters(ctx context.Context, hostelID uint64) error {
	return t.l.Semesters.UnsetCurrentTx(ctx, t.tx, hostelID)
}

func (t *ledgerTx) SetSemesterCurrent(ctx context.Context, id uint64) error {
	return t.l.Semesters.SetCurrentTx(ctx, t.tx, id)
}

func (t *ledgerTx) SetSemesterStatus(ctx context.Context, id uint64, status string) error {
	return t.l.Semesters.SetStatusTx(ctx, t.tx, id, status)
}

func (t *ledgerTx) GetEnrollment(ctx context.Context, id uint64) (*model.SemesterEnrollment, error) {
	e, err := t.l.Enrollments.GetTx(ctx, t.tx, id)
	if err != nil {
		return nil, notFound(err, "enrollment", id)
	}
	return &e, nil
}

func (t *ledgerTx) FindEnrollment(ctx context.Context, semesterID, userID uint64) (*model.SemesterEnrollment, error) {
	e, err := t.l.Enrollments.FindTx(ctx, t.tx, semesterID, userID)
	if err != nil {
		return nil, notFound(err, "enrollment for user", userID)
	}
	return &e, nil
}

func (t *ledgerTx) InsertEnrollment(ctx context.Context, e *model.SemesterEnrollment) error {
	return t.l.Enrollments.InsertTx(ctx, t.tx, e)
}

func (t *ledgerTx) SetEnrollmentStatus(ctx context.Context, id uint64, status string, completedAt *time.Time) error {
	return t.l.Enrollments.SetStatusTx(ctx, t.tx, id, status, completedAt)
}

func (t *ledgerTx) ReactivateEnrollment(ctx context.Context, id uint64, roomID *uint64, enrolledAt time.Time) error {
	return t.l.Enrollments.ReactivateTx(ctx, t.tx, id, roomID, enrolledAt)
}

func (t *ledgerTx) CompleteActiveEnrollments(ctx context.Context, semesterID uint64, now time.Time) ([]model.SemesterEnrollment, error) {
	return t.l.Enrollments.CompleteActiveTx(ctx, t.tx, semesterID, now)
}

func (t *ledgerTx) ActiveEnrollments(ctx context.Context, semesterID uint64) ([]model.SemesterEnrollment, error) {
	return t.l.Enrollments.ActiveTx(ctx, t.tx, semesterID)
}

func (t *ledgerTx) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	rm, err := t.l.Rooms.GetTx(ctx, t.tx, id)
	if err != nil {
		return nil, notFound(err, "room", id)
	}
	return &rm, nil
}

func (t *ledgerTx) CountActiveAssignments(ctx context.Context, roomID uint64) (int, error) {
	return t.l.Rooms.CountActiveTx(ctx, t.tx, roomID)
}

func (t *ledgerTx) FindActiveAssignment(ctx context.Context, roomID, userID uint64) (*model.StudentRoomAssignment, error) {
	a, err := t.l.Rooms.FindActiveAssignmentTx(ctx, t.tx, roomID, userID)
	if err != nil {
		return nil, notFound(err, "assignment in room", roomID)
	}
	return &a, nil
}

func (t *ledgerTx) InsertAssignment(ctx context.Context, a *model.StudentRoomAssignment) error {
	return t.l.Rooms.InsertAssignmentTx(ctx, t.tx, a)
}

func (t *ledgerTx) EndAssignments(ctx context.Context, semesterID, userID uint64, now time.Time) (int, error) {
	return t.l.Rooms.EndAssignmentsTx(ctx, t.tx, semesterID, userID, now)
}

func (t *ledgerTx) EndAssignmentsForRoom(ctx context.Context, roomID uint64, now time.Time) (int, error) {
	return t.l.Rooms.EndAssignmentsForRoomTx(ctx, t.tx, roomID, now)
}

func (t *ledgerTx) SetRoomStatus(ctx context.Context, roomID uint64, status string) error {
	return t.l.Rooms.SetStatusTx(ctx, t.tx, roomID, status)
}

func (t *ledgerTx) DeleteRoom(ctx context.Context, roomID uint64) error {
	return t.l.Rooms.DeleteTx(ctx, t.tx, roomID)
}

func (t *ledgerTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	return t.l.Payments.InsertTx(ctx, t.tx, p)
}

func (t *ledgerTx) GetHostel(ctx context.Context, id uint64) (*model.Hostel, error) {
	h, err := t.l.Hostels.GetTx(ctx, t.tx, id)
	if err != nil {
		return nil, notFound(err, "hostel", id)
	}
	return &h, nil
}

func (t *ledgerTx) GetPlan(ctx context.Context, id uint64) (*model.SubscriptionPlan, error) {
	p, err := t.l.Plans.GetTx(ctx, t.tx, id)
	if err != nil {
		return nil, notFound(err, "plan", id)
	}
	return &p, nil
}

func (t *ledgerTx) InsertSubscription(ctx context.Context, s *model.HostelSubscription) error {
	return t.l.Subscriptions.InsertTx(ctx, t.tx, s)
}

func (t *ledgerTx) ExpireSubscription(ctx context.Context, id uint64) error {
	return t.l.Subscriptions.ExpireTx(ctx, t.tx, id)
}

func (t *ledgerTx) SetHostelCurrentSubscription(ctx context.Context, hostelID, subscriptionID uint64) error {
	return t.l.Hostels.SetCurrentSubscriptionTx(ctx, t.tx, hostelID, subscriptionID)
}
