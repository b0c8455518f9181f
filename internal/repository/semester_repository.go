package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
)

// SemesterRepo provides access to the semesters table.  Mutations
// that participate in lifecycle transitions take a *sql.Tx so the
// engine can group them with enrollment and assignment writes.
type SemesterRepo struct{ DB *sql.DB }

func NewSemesterRepo(db *sql.DB) *SemesterRepo { return &SemesterRepo{DB: db} }

const semesterCols = "id,hostel_id,global_semester_id,name,academic_year,start_date,end_date,is_current,status,created_at,updated_at"

func scanSemester(scan func(dest ...interface{}) error) (model.Semester, error) {
	var s model.Semester
	var globalID sql.NullInt64
	err := scan(&s.ID, &s.HostelID, &globalID, &s.Name, &s.AcademicYear, &s.StartDate, &s.EndDate, &s.IsCurrent, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if globalID.Valid {
		gid := uint64(globalID.Int64)
		s.GlobalSemesterID = &gid
	}
	return s, nil
}

// GetByID fetches a semester; returns ErrSemesterNotFound when absent.
func (r *SemesterRepo) GetByID(ctx context.Context, id uint64) (model.Semester, error) {
	s, err := scanSemester(r.DB.QueryRowContext(ctx,
		"SELECT "+semesterCols+" FROM semesters WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSemesterNotFound
	}
	return s, err
}

// ListByHostel returns the hostel's semesters, newest start first.
func (r *SemesterRepo) ListByHostel(ctx context.Context, hostelID uint64) ([]model.Semester, error) {
	return r.querySemesters(ctx,
		"SELECT "+semesterCols+" FROM semesters WHERE hostel_id=? ORDER BY start_date DESC", hostelID)
}

// ActiveEndedBefore returns active semesters whose end_date is
// strictly before day.  A semester ending today is not picked up
// until tomorrow's sweep.
func (r *SemesterRepo) ActiveEndedBefore(ctx context.Context, day time.Time) ([]model.Semester, error) {
	return r.querySemesters(ctx,
		"SELECT "+semesterCols+" FROM semesters WHERE status=? AND end_date<? ORDER BY end_date",
		model.SemesterActive, day)
}

// UpcomingStartingBetween returns upcoming semesters with start_date
// in [from, to], both inclusive.
func (r *SemesterRepo) UpcomingStartingBetween(ctx context.Context, from, to time.Time) ([]model.Semester, error) {
	return r.querySemesters(ctx,
		"SELECT "+semesterCols+" FROM semesters WHERE status=? AND start_date>=? AND start_date<=? ORDER BY start_date",
		model.SemesterUpcoming, from, to)
}

func (r *SemesterRepo) querySemesters(ctx context.Context, query string, args ...interface{}) ([]model.Semester, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Semester, 0)
	for rows.Next() {
		s, err := scanSemester(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetTx fetches a semester inside a transaction.
func (r *SemesterRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Semester, error) {
	s, err := scanSemester(tx.QueryRowContext(ctx,
		"SELECT "+semesterCols+" FROM semesters WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSemesterNotFound
	}
	return s, err
}

// InsertTx creates a semester row and backfills its ID.
func (r *SemesterRepo) InsertTx(ctx context.Context, tx *sql.Tx, s *model.Semester) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO semesters (hostel_id, global_semester_id, name, academic_year, start_date, end_date, is_current, status) VALUES (?,?,?,?,?,?,?,?)",
		s.HostelID, s.GlobalSemesterID, s.Name, s.AcademicYear, s.StartDate, s.EndDate, s.IsCurrent, s.Status)
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

// UnsetCurrentTx clears is_current on every semester of the hostel.
// Always paired with SetCurrentTx in the same transaction.
func (r *SemesterRepo) UnsetCurrentTx(ctx context.Context, tx *sql.Tx, hostelID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE semesters SET is_current=0 WHERE hostel_id=? AND is_current=1", hostelID)
	return err
}

// SetCurrentTx marks the semester as the hostel's current, active term.
func (r *SemesterRepo) SetCurrentTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE semesters SET is_current=1, status=? WHERE id=?", model.SemesterActive, id)
	return err
}

// SetStatusTx updates the semester status.  Completed and cancelled
// semesters also drop the current flag.
func (r *SemesterRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	if status == model.SemesterCompleted || status == model.SemesterCancelled {
		_, err := tx.ExecContext(ctx,
			"UPDATE semesters SET status=?, is_current=0 WHERE id=?", status, id)
		return err
	}
	_, err := tx.ExecContext(ctx, "UPDATE semesters SET status=? WHERE id=?", status, id)
	return err
}
