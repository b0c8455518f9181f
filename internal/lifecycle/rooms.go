package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/model"
)

// RoomEngine applies the room/assignment consistency rules.  The
// rules run inline wherever occupancy changes; there is no standalone
// sweep for them.
type RoomEngine struct {
	store Store
	log   *zap.Logger
}

func NewRoomEngine(store Store, log *zap.Logger) *RoomEngine {
	return &RoomEngine{store: store, log: log}
}

// assignRoom creates an active assignment inside the caller's
// transaction.  Occupancy is recomputed from the assignment table in
// the same transaction as the insert, so a concurrent registration
// cannot slip past the capacity bound under the store's isolation.
// A capacity-1 room flips to occupied automatically on its first
// assignment; multi-bed rooms keep their administrator-set status.
func assignRoom(ctx context.Context, tx Tx, roomID, userID uint64, semesterID *uint64, now time.Time) (*model.StudentRoomAssignment, error) {
	room, err := tx.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	// Already housed here: return the existing row instead of counting
	// the same student against capacity twice.
	existing, err := tx.FindActiveAssignment(ctx, roomID, userID)
	switch {
	case err == nil:
		return existing, nil
	case !isNotFound(err):
		return nil, err
	}
	occupied, err := tx.CountActiveAssignments(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if occupied >= int(room.Capacity) {
		return nil, fmt.Errorf("%w: room %q is full (%d/%d)", ErrCapacityExceeded, room.Number, occupied, room.Capacity)
	}
	a := &model.StudentRoomAssignment{
		RoomID:     roomID,
		UserID:     userID,
		SemesterID: semesterID,
		Status:     model.AssignmentActive,
		AssignedAt: now,
	}
	if err := tx.InsertAssignment(ctx, a); err != nil {
		return nil, err
	}
	if room.Capacity == 1 && room.Status == model.RoomAvailable {
		if err := tx.SetRoomStatus(ctx, roomID, model.RoomOccupied); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// AssignRoom assigns the student to the room in its own transaction.
func (e *RoomEngine) AssignRoom(ctx context.Context, roomID, userID uint64, semesterID *uint64, now time.Time) (*model.StudentRoomAssignment, error) {
	var out *model.StudentRoomAssignment
	err := e.store.InTx(ctx, func(tx Tx) error {
		a, err := assignRoom(ctx, tx, roomID, userID, semesterID, now)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus changes a room's administrative status.  Forcing a full
// room back to available is rejected with ErrConflict because it
// would contradict the active assignments.
func (e *RoomEngine) SetStatus(ctx context.Context, roomID uint64, status string) error {
	switch status {
	case model.RoomAvailable, model.RoomOccupied, model.RoomMaintenance, model.RoomReserved:
	default:
		return fmt.Errorf("%w: unknown room status %q", ErrValidation, status)
	}
	return e.store.InTx(ctx, func(tx Tx) error {
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if status == model.RoomAvailable {
			occupied, err := tx.CountActiveAssignments(ctx, roomID)
			if err != nil {
				return err
			}
			if occupied >= int(room.Capacity) {
				return fmt.Errorf("%w: room %q is at capacity", ErrConflict, room.Number)
			}
		}
		return tx.SetRoomStatus(ctx, roomID, status)
	})
}

// Vacate administratively closes every active assignment on the room
// and returns it to available.
func (e *RoomEngine) Vacate(ctx context.Context, roomID uint64, now time.Time) (int, error) {
	var closed int
	err := e.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetRoom(ctx, roomID); err != nil {
			return err
		}
		n, err := tx.EndAssignmentsForRoom(ctx, roomID, now)
		if err != nil {
			return err
		}
		closed = n
		return tx.SetRoomStatus(ctx, roomID, model.RoomAvailable)
	})
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		e.log.Info("room vacated", zap.Uint64("room_id", roomID), zap.Int("assignments_closed", closed))
	}
	return closed, nil
}

// Delete removes a room.  It is rejected with ErrConflict while any
// active assignment still references the room.
func (e *RoomEngine) Delete(ctx context.Context, roomID uint64) error {
	return e.store.InTx(ctx, func(tx Tx) error {
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		occupied, err := tx.CountActiveAssignments(ctx, roomID)
		if err != nil {
			return err
		}
		if occupied > 0 {
			return fmt.Errorf("%w: room %q still has %d active assignment(s)", ErrConflict, room.Number, occupied)
		}
		return tx.DeleteRoom(ctx, roomID)
	})
}
