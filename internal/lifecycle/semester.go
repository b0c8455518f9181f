package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/notify"
)

// SemesterEngine owns the semester state machine: creating terms,
// promoting one to current per hostel, ending expired terms, and
// keeping enrollments and room assignments consistent with those
// transitions.
type SemesterEngine struct {
	store    Store
	notifier notify.Notifier
	log      *zap.Logger
}

// NewSemesterEngine wires the engine to its ledger store and
// notification dispatcher.
func NewSemesterEngine(store Store, notifier notify.Notifier, log *zap.Logger) *SemesterEngine {
	return &SemesterEngine{store: store, notifier: notifier, log: log}
}

// upcomingReminderWindowDays is the inclusive look-ahead window for
// semester start reminders.
const upcomingReminderWindowDays = 7

// CreateSemesterParams carries the caller-validated inputs for a new
// semester.  Dates are calendar dates (midnight UTC).
type CreateSemesterParams struct {
	HostelID         uint64
	GlobalSemesterID *uint64
	Name             string
	AcademicYear     string
	StartDate        time.Time
	EndDate          time.Time
}

// CreateSemester inserts a new semester in status upcoming with
// is_current unset.  It fails with ErrValidation when the end date
// does not come strictly after the start date or the name is empty.
func (e *SemesterEngine) CreateSemester(ctx context.Context, p CreateSemesterParams) (*model.Semester, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !p.EndDate.After(p.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	sem := &model.Semester{
		HostelID:         p.HostelID,
		GlobalSemesterID: p.GlobalSemesterID,
		Name:             p.Name,
		AcademicYear:     p.AcademicYear,
		StartDate:        startOfDay(p.StartDate),
		EndDate:          startOfDay(p.EndDate),
		IsCurrent:        false,
		Status:           model.SemesterUpcoming,
	}
	err := e.store.InTx(ctx, func(tx Tx) error {
		return tx.InsertSemester(ctx, sem)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return sem, nil
}

// SetCurrent promotes the semester to the hostel's current term.
// Inside one transaction it unsets is_current on every sibling, then
// marks the target current and active.  A crash mid-way rolls the
// whole unit back, so a hostel can never end up with two current
// semesters.
func (e *SemesterEngine) SetCurrent(ctx context.Context, semesterID, hostelID uint64) error {
	return e.store.InTx(ctx, func(tx Tx) error {
		sem, err := tx.GetSemester(ctx, semesterID)
		if err != nil {
			return err
		}
		if sem.HostelID != hostelID {
			return fmt.Errorf("%w: semester %d does not belong to hostel %d", ErrNotFound, semesterID, hostelID)
		}
		if err := tx.UnsetCurrentSemesters(ctx, hostelID); err != nil {
			return err
		}
		return tx.SetSemesterCurrent(ctx, semesterID)
	})
}

// Cancel marks a semester cancelled and drops its current flag.  A
// completed semester cannot be cancelled.
func (e *SemesterEngine) Cancel(ctx context.Context, semesterID uint64) error {
	return e.store.InTx(ctx, func(tx Tx) error {
		sem, err := tx.GetSemester(ctx, semesterID)
		if err != nil {
			return err
		}
		if sem.Status == model.SemesterCompleted {
			return fmt.Errorf("%w: semester %q is already completed", ErrConflict, sem.Name)
		}
		return tx.SetSemesterStatus(ctx, semesterID, model.SemesterCancelled)
	})
}

// Enroll upserts the unique (semester, user) pair: a missing row is
// inserted as active, a previously dropped or completed row is
// reactivated.  When roomID is given the student is assigned to the
// room in the same transaction, subject to the capacity rules.
func (e *SemesterEngine) Enroll(ctx context.Context, semesterID, userID uint64, roomID *uint64, now time.Time) (*model.SemesterEnrollment, error) {
	var out *model.SemesterEnrollment
	err := e.store.InTx(ctx, func(tx Tx) error {
		enr, err := enrollInTx(ctx, tx, semesterID, userID, roomID, now)
		if err != nil {
			return err
		}
		out = enr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// enrollInTx is the shared enroll-and-assign body used by Enroll and
// RegisterStudent.
func enrollInTx(ctx context.Context, tx Tx, semesterID, userID uint64, roomID *uint64, now time.Time) (*model.SemesterEnrollment, error) {
	sem, err := tx.GetSemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	if sem.Status == model.SemesterCompleted || sem.Status == model.SemesterCancelled {
		return nil, fmt.Errorf("%w: semester %q is %s", ErrConflict, sem.Name, sem.Status)
	}
	var out *model.SemesterEnrollment
	existing, err := tx.FindEnrollment(ctx, semesterID, userID)
	switch {
	case err == nil:
		if existing.Status != model.EnrollmentActive {
			if err := tx.ReactivateEnrollment(ctx, existing.ID, roomID, now); err != nil {
				return nil, err
			}
			existing.Status = model.EnrollmentActive
			existing.CompletedAt = nil
			existing.EnrollmentDate = now
			existing.RoomID = roomID
		}
		out = existing
	case isNotFound(err):
		enr := &model.SemesterEnrollment{
			SemesterID:     semesterID,
			UserID:         userID,
			RoomID:         roomID,
			Status:         model.EnrollmentActive,
			EnrollmentDate: now,
		}
		if err := tx.InsertEnrollment(ctx, enr); err != nil {
			return nil, err
		}
		out = enr
	default:
		return nil, err
	}
	if roomID != nil {
		semID := semesterID
		if _, err := assignRoom(ctx, tx, *roomID, userID, &semID, now); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PaymentParams carries the optional initial payment recorded during
// student registration.
type PaymentParams struct {
	AmountCents uint32
	Method      string
	Reference   *string
}

// RegisterStudent is the admin registration flow: enroll the student,
// assign the room when given, and record the initial payment, all in
// one transaction.  A capacity rejection therefore also unwinds the
// payment.
func (e *SemesterEngine) RegisterStudent(ctx context.Context, hostelID, semesterID, userID uint64, roomID *uint64, pay *PaymentParams, now time.Time) (*model.SemesterEnrollment, *model.Payment, error) {
	var (
		outEnr *model.SemesterEnrollment
		outPay *model.Payment
	)
	err := e.store.InTx(ctx, func(tx Tx) error {
		enr, err := enrollInTx(ctx, tx, semesterID, userID, roomID, now)
		if err != nil {
			return err
		}
		outEnr = enr
		if pay != nil {
			semID := semesterID
			p := &model.Payment{
				HostelID:    hostelID,
				UserID:      userID,
				SemesterID:  &semID,
				AmountCents: pay.AmountCents,
				Method:      pay.Method,
				Reference:   pay.Reference,
				PaidAt:      now,
			}
			if err := tx.InsertPayment(ctx, p); err != nil {
				return err
			}
			outPay = p
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return outEnr, outPay, nil
}

// UpdateEnrollmentStatus transitions an enrollment directly to the
// given status.  Entering a terminal status stamps completed_at;
// nothing else is cleared.
func (e *SemesterEngine) UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint64, status string, now time.Time) error {
	switch status {
	case model.EnrollmentActive, model.EnrollmentCompleted, model.EnrollmentDropped, model.EnrollmentTransferred:
	default:
		return fmt.Errorf("%w: unknown enrollment status %q", ErrValidation, status)
	}
	return e.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetEnrollment(ctx, enrollmentID); err != nil {
			return err
		}
		var completedAt *time.Time
		if status != model.EnrollmentActive {
			completedAt = &now
		}
		return tx.SetEnrollmentStatus(ctx, enrollmentID, status, completedAt)
	})
}

// Drop marks an enrollment dropped, stamping completed_at.
func (e *SemesterEngine) Drop(ctx context.Context, enrollmentID uint64, now time.Time) error {
	return e.UpdateEnrollmentStatus(ctx, enrollmentID, model.EnrollmentDropped, now)
}

// Transfer moves a student from one semester to another in a single
// transaction: the source enrollment becomes transferred with
// completed_at stamped, its room assignment is closed, and the target
// enrollment is created through the same upsert as Enroll, so a prior
// row for the (semester, user) pair is reactivated rather than
// duplicated and a closed target semester is rejected.
func (e *SemesterEngine) Transfer(ctx context.Context, enrollmentID, newSemesterID uint64, now time.Time) (*model.SemesterEnrollment, error) {
	var out *model.SemesterEnrollment
	err := e.store.InTx(ctx, func(tx Tx) error {
		src, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if err := tx.SetEnrollmentStatus(ctx, enrollmentID, model.EnrollmentTransferred, &now); err != nil {
			return err
		}
		if src.RoomID != nil {
			if _, err := tx.EndAssignments(ctx, src.SemesterID, src.UserID, now); err != nil {
				return err
			}
		}
		enr, err := enrollInTx(ctx, tx, newSemesterID, src.UserID, src.RoomID, now)
		if err != nil {
			return err
		}
		out = enr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Rollover creates a successor semester and carries every active
// enrollment of the old semester forward into it, same user and same
// room.  The carry-forward is unconditional; students opt out by
// dropping afterwards.
func (e *SemesterEngine) Rollover(ctx context.Context, oldSemesterID uint64, name, academicYear string, startDate, endDate time.Time, now time.Time) (*model.Semester, error) {
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	var out *model.Semester
	err := e.store.InTx(ctx, func(tx Tx) error {
		old, err := tx.GetSemester(ctx, oldSemesterID)
		if err != nil {
			return err
		}
		next := &model.Semester{
			HostelID:         old.HostelID,
			GlobalSemesterID: old.GlobalSemesterID,
			Name:             name,
			AcademicYear:     academicYear,
			StartDate:        startOfDay(startDate),
			EndDate:          startOfDay(endDate),
			Status:           model.SemesterUpcoming,
		}
		if err := tx.InsertSemester(ctx, next); err != nil {
			return err
		}
		active, err := tx.ActiveEnrollments(ctx, oldSemesterID)
		if err != nil {
			return err
		}
		for _, enr := range active {
			carried := &model.SemesterEnrollment{
				SemesterID:     next.ID,
				UserID:         enr.UserID,
				RoomID:         enr.RoomID,
				Status:         model.EnrollmentActive,
				EnrollmentDate: now,
			}
			if err := tx.InsertEnrollment(ctx, carried); err != nil {
				return err
			}
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckAndEndSemesters is the daily sweep.  Every active semester
// whose end_date is strictly before today is completed: its active
// enrollments become completed with completed_at stamped, and their
// room assignments are closed, all in one transaction per semester.
// A failing semester is logged and skipped so one bad row cannot
// abort the sweep.  Notifications go out per affected student after
// the commit and never unwind it.
func (e *SemesterEngine) CheckAndEndSemesters(ctx context.Context, now time.Time) error {
	today := startOfDay(now)
	expired, err := e.store.ActiveSemestersEndedBefore(ctx, today)
	if err != nil {
		return storeErr(err)
	}
	for i := range expired {
		sem := expired[i]
		var ended []model.SemesterEnrollment
		err := e.store.InTx(ctx, func(tx Tx) error {
			if err := tx.SetSemesterStatus(ctx, sem.ID, model.SemesterCompleted); err != nil {
				return err
			}
			var err error
			ended, err = tx.CompleteActiveEnrollments(ctx, sem.ID, now)
			if err != nil {
				return err
			}
			for _, enr := range ended {
				if enr.RoomID == nil {
					continue
				}
				if _, err := tx.EndAssignments(ctx, sem.ID, enr.UserID, now); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			e.log.Error("ending semester failed, continuing sweep",
				zap.Uint64("semester_id", sem.ID),
				zap.Error(err))
			continue
		}
		e.log.Info("semester completed",
			zap.Uint64("semester_id", sem.ID),
			zap.Int("enrollments_completed", len(ended)))
		for _, enr := range ended {
			e.notifyStudent(ctx, enr.UserID, notify.KindSemesterEnding, map[string]any{
				"semester_name": sem.Name,
				"academic_year": sem.AcademicYear,
				"end_date":      sem.EndDate.Format("2006-01-02"),
			})
		}
	}
	return nil
}

// SendUpcomingSemesterReminders notifies every enrolled student of a
// semester starting within the next seven days, inclusive.  It is
// read-only with respect to state.
func (e *SemesterEngine) SendUpcomingSemesterReminders(ctx context.Context, now time.Time) error {
	today := startOfDay(now)
	until := today.AddDate(0, 0, upcomingReminderWindowDays)
	upcoming, err := e.store.UpcomingSemestersStartingBetween(ctx, today, until)
	if err != nil {
		return storeErr(err)
	}
	for _, sem := range upcoming {
		days := ceilDays(today, startOfDay(sem.StartDate))
		enrollments, err := e.store.ActiveEnrollmentsBySemester(ctx, sem.ID)
		if err != nil {
			e.log.Error("loading enrollments for reminder failed",
				zap.Uint64("semester_id", sem.ID),
				zap.Error(err))
			continue
		}
		for _, enr := range enrollments {
			e.notifyStudent(ctx, enr.UserID, notify.KindSemesterUpcoming, map[string]any{
				"semester_name":    sem.Name,
				"academic_year":    sem.AcademicYear,
				"start_date":       sem.StartDate.Format("2006-01-02"),
				"days_until_start": days,
			})
		}
	}
	return nil
}

// notifyStudent resolves the student's email and fires one
// notification.  Failures are logged, not retried and never
// propagated.
func (e *SemesterEngine) notifyStudent(ctx context.Context, userID uint64, kind notify.Kind, data map[string]any) {
	user, err := e.store.UserByID(ctx, userID)
	if err != nil {
		e.log.Warn("notification recipient lookup failed",
			zap.Uint64("user_id", userID),
			zap.Error(err))
		return
	}
	if err := e.notifier.Notify(ctx, user.Email, kind, data); err != nil {
		e.log.Warn("notification send failed",
			zap.String("recipient", user.Email),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// isNotFound reports whether err signals an absent row.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
