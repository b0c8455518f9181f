package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
)

// EnrollmentRepo provides access to the semester_enrollments table.
// All mutations run inside lifecycle transactions and therefore take
// a *sql.Tx.
type EnrollmentRepo struct{ DB *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{DB: db} }

const enrollmentCols = "id,semester_id,user_id,room_id,enrollment_status,enrollment_date,completed_at"

func scanEnrollment(scan func(dest ...interface{}) error) (model.SemesterEnrollment, error) {
	var e model.SemesterEnrollment
	var roomID sql.NullInt64
	var completedAt sql.NullTime
	err := scan(&e.ID, &e.SemesterID, &e.UserID, &roomID, &e.Status, &e.EnrollmentDate, &completedAt)
	if err != nil {
		return e, err
	}
	if roomID.Valid {
		rid := uint64(roomID.Int64)
		e.RoomID = &rid
	}
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}
	return e, nil
}

// GetByID fetches an enrollment outside any transaction.
func (r *EnrollmentRepo) GetByID(ctx context.Context, id uint64) (model.SemesterEnrollment, error) {
	return scanEnrollment(r.DB.QueryRowContext(ctx,
		"SELECT "+enrollmentCols+" FROM semester_enrollments WHERE id=? LIMIT 1", id).Scan)
}

// GetTx fetches an enrollment by id.
func (r *EnrollmentRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.SemesterEnrollment, error) {
	return scanEnrollment(tx.QueryRowContext(ctx,
		"SELECT "+enrollmentCols+" FROM semester_enrollments WHERE id=? LIMIT 1", id).Scan)
}

// FindTx looks up the unique (semester, user) pair.
func (r *EnrollmentRepo) FindTx(ctx context.Context, tx *sql.Tx, semesterID, userID uint64) (model.SemesterEnrollment, error) {
	return scanEnrollment(tx.QueryRowContext(ctx,
		"SELECT "+enrollmentCols+" FROM semester_enrollments WHERE semester_id=? AND user_id=? LIMIT 1",
		semesterID, userID).Scan)
}

// InsertTx creates an enrollment row and backfills its ID.
func (r *EnrollmentRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.SemesterEnrollment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO semester_enrollments (semester_id, user_id, room_id, enrollment_status, enrollment_date) VALUES (?,?,?,?,?)",
		e.SemesterID, e.UserID, e.RoomID, e.Status, e.EnrollmentDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// SetStatusTx updates the enrollment status, stamping completed_at
// when the caller supplies it (terminal transitions).
func (r *EnrollmentRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, completedAt *time.Time) error {
	if completedAt != nil {
		_, err := tx.ExecContext(ctx,
			"UPDATE semester_enrollments SET enrollment_status=?, completed_at=? WHERE id=?",
			status, completedAt, id)
		return err
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE semester_enrollments SET enrollment_status=? WHERE id=?", status, id)
	return err
}

// ReactivateTx flips an existing row back to active, clears the
// terminal stamp and refreshes the room reference.  Re-enrolling a
// (semester, user) pair reuses its row instead of duplicating it.
func (r *EnrollmentRepo) ReactivateTx(ctx context.Context, tx *sql.Tx, id uint64, roomID *uint64, enrolledAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE semester_enrollments SET enrollment_status=?, room_id=?, enrollment_date=?, completed_at=NULL WHERE id=?",
		model.EnrollmentActive, roomID, enrolledAt, id)
	return err
}

// ActiveTx returns the semester's active enrollments.
func (r *EnrollmentRepo) ActiveTx(ctx context.Context, tx *sql.Tx, semesterID uint64) ([]model.SemesterEnrollment, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+enrollmentCols+" FROM semester_enrollments WHERE semester_id=? AND enrollment_status=? ORDER BY id",
		semesterID, model.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	return collectEnrollments(rows)
}

// CompleteActiveTx transitions every active enrollment of the
// semester to completed with completed_at = now, returning the rows
// as they were before the transition so the caller can close the
// matching room assignments and notify the students.
func (r *EnrollmentRepo) CompleteActiveTx(ctx context.Context, tx *sql.Tx, semesterID uint64, now time.Time) ([]model.SemesterEnrollment, error) {
	active, err := r.ActiveTx(ctx, tx, semesterID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return active, nil
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE semester_enrollments SET enrollment_status=?, completed_at=? WHERE semester_id=? AND enrollment_status=?",
		model.EnrollmentCompleted, now, semesterID, model.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	return active, nil
}

// ActiveBySemester is the non-transactional listing used by sweeps
// and reporting endpoints.
func (r *EnrollmentRepo) ActiveBySemester(ctx context.Context, semesterID uint64) ([]model.SemesterEnrollment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+enrollmentCols+" FROM semester_enrollments WHERE semester_id=? AND enrollment_status=? ORDER BY id",
		semesterID, model.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	return collectEnrollments(rows)
}

// ListByUser returns a student's enrollment history, newest first.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.SemesterEnrollment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+enrollmentCols+" FROM semester_enrollments WHERE user_id=? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	return collectEnrollments(rows)
}

func collectEnrollments(rows *sql.Rows) ([]model.SemesterEnrollment, error) {
	defer rows.Close()
	out := make([]model.SemesterEnrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
