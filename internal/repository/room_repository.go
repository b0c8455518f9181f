package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
)

// RoomRepo provides access to the rooms and student_room_assignments
// tables.  The assignment mutations all take a *sql.Tx: occupancy
// checks and the writes that depend on them must share a transaction.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomCols = "id,hostel_id,number,capacity,status,price_per_semester_cents,created_at,updated_at"

func scanRoom(scan func(dest ...interface{}) error) (model.Room, error) {
	var rm model.Room
	err := scan(&rm.ID, &rm.HostelID, &rm.Number, &rm.Capacity, &rm.Status, &rm.PricePerSemesterCents, &rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}

// Create inserts a room and returns its ID.
func (r *RoomRepo) Create(ctx context.Context, hostelID uint64, number string, capacity uint32, priceCents uint32) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rooms (hostel_id, number, capacity, status, price_per_semester_cents) VALUES (?,?,?,?,?)",
		hostelID, number, capacity, model.RoomAvailable, priceCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a room by id; returns ErrRoomNotFound when absent.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.DB.QueryRowContext(ctx,
		"SELECT "+roomCols+" FROM rooms WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return rm, ErrRoomNotFound
	}
	return rm, err
}

// ListByHostel returns the hostel's rooms ordered by number.
func (r *RoomRepo) ListByHostel(ctx context.Context, hostelID uint64) ([]model.Room, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roomCols+" FROM rooms WHERE hostel_id=? ORDER BY number", hostelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Update edits number, capacity and price.
func (r *RoomRepo) Update(ctx context.Context, id uint64, number string, capacity uint32, priceCents uint32) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE rooms SET number=?, capacity=?, price_per_semester_cents=? WHERE id=?",
		number, capacity, priceCents, id)
	return err
}

// GetTx fetches a room inside a transaction, locking the row so a
// concurrent registration against the same room serializes on it.
func (r *RoomRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Room, error) {
	rm, err := scanRoom(tx.QueryRowContext(ctx,
		"SELECT "+roomCols+" FROM rooms WHERE id=? LIMIT 1 FOR UPDATE", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return rm, ErrRoomNotFound
	}
	return rm, err
}

// CountActiveTx recomputes live occupancy from the assignment table.
func (r *RoomRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, roomID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM student_room_assignments WHERE room_id=? AND status=?",
		roomID, model.AssignmentActive).Scan(&n)
	return n, err
}

// InsertAssignmentTx creates an assignment row and backfills its ID.
func (r *RoomRepo) InsertAssignmentTx(ctx context.Context, tx *sql.Tx, a *model.StudentRoomAssignment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO student_room_assignments (room_id, user_id, semester_id, status, assigned_at) VALUES (?,?,?,?,?)",
		a.RoomID, a.UserID, a.SemesterID, a.Status, a.AssignedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// FindActiveAssignmentTx looks up the user's active assignment on the
// room; returns sql.ErrNoRows when there is none.
func (r *RoomRepo) FindActiveAssignmentTx(ctx context.Context, tx *sql.Tx, roomID, userID uint64) (model.StudentRoomAssignment, error) {
	var a model.StudentRoomAssignment
	var semesterID sql.NullInt64
	var endedAt sql.NullTime
	err := tx.QueryRowContext(ctx,
		"SELECT id,room_id,user_id,semester_id,status,assigned_at,ended_at FROM student_room_assignments WHERE room_id=? AND user_id=? AND status=? LIMIT 1",
		roomID, userID, model.AssignmentActive).Scan(&a.ID, &a.RoomID, &a.UserID, &semesterID, &a.Status, &a.AssignedAt, &endedAt)
	if err != nil {
		return a, err
	}
	if semesterID.Valid {
		sid := uint64(semesterID.Int64)
		a.SemesterID = &sid
	}
	if endedAt.Valid {
		t := endedAt.Time
		a.EndedAt = &t
	}
	return a, nil
}

// EndAssignmentsTx closes the user's active assignments scoped to the
// semester and returns how many rows were affected.
func (r *RoomRepo) EndAssignmentsTx(ctx context.Context, tx *sql.Tx, semesterID, userID uint64, now time.Time) (int, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE student_room_assignments SET status=?, ended_at=? WHERE semester_id=? AND user_id=? AND status=?",
		model.AssignmentEnded, now, semesterID, userID, model.AssignmentActive)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// EndAssignmentsForRoomTx closes every active assignment on the room.
func (r *RoomRepo) EndAssignmentsForRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64, now time.Time) (int, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE student_room_assignments SET status=?, ended_at=? WHERE room_id=? AND status=?",
		model.AssignmentEnded, now, roomID, model.AssignmentActive)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SetStatusTx updates the room status inside a transaction.
func (r *RoomRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, roomID uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE rooms SET status=? WHERE id=?", status, roomID)
	return err
}

// DeleteTx removes the room row.  The engine rejects the delete while
// active assignments exist, so no cascade is needed here.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", roomID)
	return err
}

// ListAssignmentsByUser returns the student's assignment history,
// newest first.
func (r *RoomRepo) ListAssignmentsByUser(ctx context.Context, userID uint64) ([]model.StudentRoomAssignment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,room_id,user_id,semester_id,status,assigned_at,ended_at FROM student_room_assignments WHERE user_id=? ORDER BY id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StudentRoomAssignment, 0)
	for rows.Next() {
		var a model.StudentRoomAssignment
		var semesterID sql.NullInt64
		var endedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.RoomID, &a.UserID, &semesterID, &a.Status, &a.AssignedAt, &endedAt); err != nil {
			return nil, err
		}
		if semesterID.Valid {
			sid := uint64(semesterID.Int64)
			a.SemesterID = &sid
		}
		if endedAt.Valid {
			t := endedAt.Time
			a.EndedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
