package model

import "time"

// Semester statuses stored in semesters.status.
const (
	SemesterUpcoming  = "upcoming"
	SemesterActive    = "active"
	SemesterCompleted = "completed"
	SemesterCancelled = "cancelled"
)

// Enrollment statuses stored in semester_enrollments.enrollment_status.
// completed, dropped and transferred are terminal; entering any of them
// stamps completed_at.
const (
	EnrollmentActive      = "active"
	EnrollmentCompleted   = "completed"
	EnrollmentDropped     = "dropped"
	EnrollmentTransferred = "transferred"
)

// GlobalSemester is a reusable naming template maintained by the super
// admin.  It carries no dates and exists independently of any hostel.
type GlobalSemester struct {
	ID          uint64    `json:"id"`          // global_semesters.id
	Name        string    `json:"name"`        // global_semesters.name (unique)
	Description string    `json:"description"` // global_semesters.description
	IsActive    bool      `json:"is_active"`   // global_semesters.is_active
	CreatedAt   time.Time `json:"created_at"`  // global_semesters.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // global_semesters.updated_at
}

// Semester is one academic term instance scoped to exactly one hostel.
// At most one semester per hostel may have IsCurrent set; the engine
// enforces this transactionally (unset all, then set one).
//
// Fields:
//  ID               – primary key identifier.
//  HostelID         – owning hostel.
//  GlobalSemesterID – optional template reference (nullable).
//  Name             – term name, e.g. "Fall".
//  AcademicYear     – e.g. "2025/2026".
//  StartDate        – first day of term (DATE, midnight UTC).
//  EndDate          – last day of term; must be after StartDate.
//  IsCurrent        – whether this is the hostel's current semester.
//  Status           – one of the semester status constants.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Semester struct {
	ID               uint64    `json:"id"`                 // semesters.id
	HostelID         uint64    `json:"hostel_id"`          // semesters.hostel_id
	GlobalSemesterID *uint64   `json:"global_semester_id"` // semesters.global_semester_id (nullable)
	Name             string    `json:"name"`               // semesters.name
	AcademicYear     string    `json:"academic_year"`      // semesters.academic_year
	StartDate        time.Time `json:"start_date"`         // semesters.start_date
	EndDate          time.Time `json:"end_date"`           // semesters.end_date
	IsCurrent        bool      `json:"is_current"`         // semesters.is_current
	Status           string    `json:"status"`             // semesters.status
	CreatedAt        time.Time `json:"created_at"`         // semesters.created_at
	UpdatedAt        time.Time `json:"updated_at"`         // semesters.updated_at
}

// SemesterEnrollment joins a student to a semester, optionally tied to
// a room.  The (semester_id, user_id) pair is unique; re-enrolling the
// same pair reactivates the existing row instead of duplicating it.
//
// Fields:
//  ID             – primary key identifier.
//  SemesterID     – semester enrolled into.
//  UserID         – enrolled student.
//  RoomID         – room the stay is tied to (nullable).
//  Status         – one of the enrollment status constants.
//  EnrollmentDate – when the enrollment was created or reactivated.
//  CompletedAt    – stamped exactly when the status turns terminal.
type SemesterEnrollment struct {
	ID             uint64     `json:"id"`              // semester_enrollments.id
	SemesterID     uint64     `json:"semester_id"`     // semester_enrollments.semester_id
	UserID         uint64     `json:"user_id"`         // semester_enrollments.user_id
	RoomID         *uint64    `json:"room_id"`         // semester_enrollments.room_id (nullable)
	Status         string     `json:"status"`          // semester_enrollments.enrollment_status
	EnrollmentDate time.Time  `json:"enrollment_date"` // semester_enrollments.enrollment_date
	CompletedAt    *time.Time `json:"completed_at"`    // semester_enrollments.completed_at (nullable)
}
