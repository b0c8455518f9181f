package lifecycle

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/model"
)

func setupRoomEngine() (*RoomEngine, *fakeStore) {
	store := newFakeStore()
	return NewRoomEngine(store, zap.NewNop()), store
}

func TestRoomEngine_AssignRoom_UpToCapacity(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "B12", 2, model.RoomAvailable)
	first := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	second := store.addUser("b@example.com", model.RoleStudent, &h.ID)
	third := store.addUser("c@example.com", model.RoleStudent, &h.ID)
	now := date(2025, 9, 1)

	for _, u := range []uint64{first.ID, second.ID} {
		if _, err := eng.AssignRoom(context.Background(), room.ID, u, nil, now); err != nil {
			t.Fatalf("AssignRoom(user %d): %v", u, err)
		}
	}

	_, err := eng.AssignRoom(context.Background(), room.ID, third.ID, nil, now)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("capacity errors must also match ErrConflict")
	}

	active := 0
	for _, a := range store.assignments {
		if a.Status == model.AssignmentActive {
			active++
		}
	}
	if active != 2 {
		t.Errorf("active assignments = %d, want 2", active)
	}
}

func TestRoomEngine_AssignRoom_EndedAssignmentsFreeTheBed(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "B12", 1, model.RoomAvailable)
	former := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	store.addAssignment(room.ID, former.ID, nil, model.AssignmentEnded)
	stu := store.addUser("b@example.com", model.RoleStudent, &h.ID)

	if _, err := eng.AssignRoom(context.Background(), room.ID, stu.ID, nil, date(2025, 9, 1)); err != nil {
		t.Fatalf("AssignRoom: %v", err)
	}
}

func TestRoomEngine_AssignRoom_SingleRoomFlipsOccupied(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	single := store.addRoom(h.ID, "S1", 1, model.RoomAvailable)
	double := store.addRoom(h.ID, "D1", 2, model.RoomAvailable)
	a := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	b := store.addUser("b@example.com", model.RoleStudent, &h.ID)
	now := date(2025, 9, 1)

	if _, err := eng.AssignRoom(context.Background(), single.ID, a.ID, nil, now); err != nil {
		t.Fatalf("AssignRoom single: %v", err)
	}
	if store.rooms[single.ID].Status != model.RoomOccupied {
		t.Errorf("capacity-1 room status = %q, want occupied after first assignment", store.rooms[single.ID].Status)
	}

	if _, err := eng.AssignRoom(context.Background(), double.ID, b.ID, nil, now); err != nil {
		t.Fatalf("AssignRoom double: %v", err)
	}
	if store.rooms[double.ID].Status != model.RoomAvailable {
		t.Errorf("multi-bed room status = %q, must keep its administrator-set status", store.rooms[double.ID].Status)
	}
}

func TestRoomEngine_SetStatus_RejectsAvailableAtCapacity(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "S1", 1, model.RoomOccupied)
	stu := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	store.addAssignment(room.ID, stu.ID, nil, model.AssignmentActive)

	err := eng.SetStatus(context.Background(), room.ID, model.RoomAvailable)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if store.rooms[room.ID].Status != model.RoomOccupied {
		t.Errorf("status = %q, must stay occupied", store.rooms[room.ID].Status)
	}

	// Maintenance is always allowed regardless of occupancy.
	if err := eng.SetStatus(context.Background(), room.ID, model.RoomMaintenance); err != nil {
		t.Fatalf("SetStatus maintenance: %v", err)
	}
}

func TestRoomEngine_SetStatus_RejectsUnknownStatus(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "B12", 2, model.RoomAvailable)

	err := eng.SetStatus(context.Background(), room.ID, "closed")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRoomEngine_Vacate(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "B12", 2, model.RoomOccupied)
	a := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	b := store.addUser("b@example.com", model.RoleStudent, &h.ID)
	store.addAssignment(room.ID, a.ID, nil, model.AssignmentActive)
	store.addAssignment(room.ID, b.ID, nil, model.AssignmentActive)
	now := date(2025, 12, 20)

	closed, err := eng.Vacate(context.Background(), room.ID, now)
	if err != nil {
		t.Fatalf("Vacate: %v", err)
	}
	if closed != 2 {
		t.Errorf("closed = %d, want 2", closed)
	}
	if store.rooms[room.ID].Status != model.RoomAvailable {
		t.Errorf("status = %q, want available", store.rooms[room.ID].Status)
	}
	for _, asg := range store.assignments {
		if asg.Status != model.AssignmentEnded {
			t.Errorf("assignment %d status = %q, want ended", asg.ID, asg.Status)
		}
		if asg.EndedAt == nil || !asg.EndedAt.Equal(now) {
			t.Errorf("assignment %d ended_at = %v, want %v", asg.ID, asg.EndedAt, now)
		}
	}
}

func TestRoomEngine_Delete_BlockedByActiveAssignments(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "B12", 2, model.RoomAvailable)
	stu := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	asg := store.addAssignment(room.ID, stu.ID, nil, model.AssignmentActive)

	err := eng.Delete(context.Background(), room.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, ok := store.rooms[room.ID]; !ok {
		t.Fatal("room must survive a rejected delete")
	}

	asg.Status = model.AssignmentEnded
	if err := eng.Delete(context.Background(), room.ID); err != nil {
		t.Fatalf("Delete after vacating: %v", err)
	}
	if _, ok := store.rooms[room.ID]; ok {
		t.Error("room must be gone after delete")
	}
}

func TestRoomEngine_Delete_UnknownRoom(t *testing.T) {
	eng, _ := setupRoomEngine()
	if err := eng.Delete(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRoomEngine_AssignRoom_SameStudentTwice(t *testing.T) {
	eng, store := setupRoomEngine()
	h := store.addHostel("Sunrise")
	room := store.addRoom(h.ID, "B12", 2, model.RoomAvailable)
	stu := store.addUser("a@example.com", model.RoleStudent, &h.ID)
	now := date(2025, 9, 1)

	first, err := eng.AssignRoom(context.Background(), room.ID, stu.ID, nil, now)
	if err != nil {
		t.Fatalf("AssignRoom: %v", err)
	}
	again, err := eng.AssignRoom(context.Background(), room.ID, stu.ID, nil, now)
	if err != nil {
		t.Fatalf("repeated AssignRoom: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("assignment ID = %d, want the existing row %d", again.ID, first.ID)
	}

	active := 0
	for _, a := range store.assignments {
		if a.Status == model.AssignmentActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active assignments = %d, want 1", active)
	}
}
