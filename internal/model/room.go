package model

import "time"

// Room statuses stored in rooms.status.  Occupancy itself is derived
// from active assignments, not from this flag; the flag is an
// administrative state that the consistency rules constrain.
const (
	RoomAvailable   = "available"
	RoomOccupied    = "occupied"
	RoomMaintenance = "maintenance"
	RoomReserved    = "reserved"
)

// Assignment statuses stored in student_room_assignments.status.
const (
	AssignmentActive    = "active"
	AssignmentEnded     = "ended"
	AssignmentCancelled = "cancelled"
)

// Room is a bookable room within a hostel.  Capacity is bounded to
// [1,4]; the count of active assignments must never exceed it.
//
// Fields:
//  ID                    – primary key identifier.
//  HostelID              – owning hostel.
//  Number                – room label, unique per hostel.
//  Capacity              – number of beds (1..4).
//  Status                – one of the room status constants.
//  PricePerSemesterCents – rent for one semester, in cents.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Room struct {
	ID                    uint64    `json:"id"`                       // rooms.id
	HostelID              uint64    `json:"hostel_id"`                // rooms.hostel_id
	Number                string    `json:"number"`                   // rooms.number
	Capacity              uint32    `json:"capacity"`                 // rooms.capacity
	Status                string    `json:"status"`                   // rooms.status
	PricePerSemesterCents uint32    `json:"price_per_semester_cents"` // rooms.price_per_semester_cents
	CreatedAt             time.Time `json:"created_at"`               // rooms.created_at
	UpdatedAt             time.Time `json:"updated_at"`               // rooms.updated_at
}

// StudentRoomAssignment links a student to a room, optionally scoped
// to a semester.  An assignment is the unit of occupancy: a room's
// occupant count is the number of its active assignments.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room being occupied.
//  UserID     – student occupying the room.
//  SemesterID – semester the stay is scoped to (nullable).
//  Status     – one of the assignment status constants.
//  AssignedAt – when the assignment began.
//  EndedAt    – when the assignment was closed (null while active).
type StudentRoomAssignment struct {
	ID         uint64     `json:"id"`          // student_room_assignments.id
	RoomID     uint64     `json:"room_id"`     // student_room_assignments.room_id
	UserID     uint64     `json:"user_id"`     // student_room_assignments.user_id
	SemesterID *uint64    `json:"semester_id"` // student_room_assignments.semester_id (nullable)
	Status     string     `json:"status"`      // student_room_assignments.status
	AssignedAt time.Time  `json:"assigned_at"` // student_room_assignments.assigned_at
	EndedAt    *time.Time `json:"ended_at"`    // student_room_assignments.ended_at (nullable)
}
