package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// EnrollmentHandler covers student registration and enrollment
// transitions for hostel staff, plus the student self-service views.
type EnrollmentHandler struct {
	Users       *repository.UserRepo
	Semesters   *repository.SemesterRepo
	Rooms       *repository.RoomRepo
	Enrollments *repository.EnrollmentRepo
	Engine      *lifecycle.SemesterEngine
}

func NewEnrollmentHandler(users *repository.UserRepo, semesters *repository.SemesterRepo, rooms *repository.RoomRepo, enrollments *repository.EnrollmentRepo, engine *lifecycle.SemesterEngine) *EnrollmentHandler {
	return &EnrollmentHandler{Users: users, Semesters: semesters, Rooms: rooms, Enrollments: enrollments, Engine: engine}
}

type registerBody struct {
	UserID     uint64  `json:"user_id"`
	SemesterID uint64  `json:"semester_id"`
	RoomID     *uint64 `json:"room_id"`
	Payment    *struct {
		AmountCents uint32  `json:"amount_cents"`
		Method      string  `json:"method"`
		Reference   *string `json:"reference"`
	} `json:"payment"`
}

// Register handles POST /v1/enrollments: enroll a student into a
// semester of the admin's hostel, optionally assigning a room and
// recording the initial payment.  The whole unit commits or rolls
// back together, so a full room also voids the payment.
func (h *EnrollmentHandler) Register(c echo.Context) error {
	hostelID := middleware.HostelID(c)
	var body registerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.UserID == 0 || body.SemesterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and semester_id are required"})
	}
	ctx := c.Request().Context()

	sem, err := h.Semesters.GetByID(ctx, body.SemesterID)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, sem.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	student, err := h.Users.GetByID(ctx, body.UserID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	if student.Role != model.RoleStudent {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is not a student"})
	}
	if body.RoomID != nil {
		room, err := h.Rooms.GetByID(ctx, *body.RoomID)
		if err != nil {
			return engineError(c, err)
		}
		if room.HostelID != hostelID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}

	var pay *lifecycle.PaymentParams
	if body.Payment != nil {
		method := strings.TrimSpace(body.Payment.Method)
		if method == "" || body.Payment.AmountCents == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment requires method and a non-zero amount"})
		}
		pay = &lifecycle.PaymentParams{
			AmountCents: body.Payment.AmountCents,
			Method:      method,
			Reference:   body.Payment.Reference,
		}
	}

	enr, payment, err := h.Engine.RegisterStudent(ctx, hostelID, body.SemesterID, body.UserID, body.RoomID, pay, timeNow())
	if err != nil {
		return engineError(c, err)
	}
	// Students registered by a hostel get attached to it for scoping.
	if student.HostelID == nil {
		if err := h.Users.SetHostel(ctx, student.ID, hostelID); err != nil {
			c.Logger().Error(err)
		}
	}
	resp := echo.Map{"enrollment": enr}
	if payment != nil {
		resp["payment"] = payment
	}
	return c.JSON(http.StatusCreated, resp)
}

// UpdateStatus handles PUT /v1/enrollments/:id/status.
func (h *EnrollmentHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.authorizeEnrollment(c, id); err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Engine.UpdateEnrollmentStatus(c.Request().Context(), id, body.Status, timeNow()); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Drop handles POST /v1/enrollments/:id/drop.
func (h *EnrollmentHandler) Drop(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.authorizeEnrollment(c, id); err != nil {
		return err
	}
	if err := h.Engine.Drop(c.Request().Context(), id, timeNow()); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Transfer handles POST /v1/enrollments/:id/transfer.
func (h *EnrollmentHandler) Transfer(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.authorizeEnrollment(c, id); err != nil {
		return err
	}
	var body struct {
		SemesterID uint64 `json:"semester_id"`
	}
	if err := c.Bind(&body); err != nil || body.SemesterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "semester_id is required"})
	}
	target, err := h.Semesters.GetByID(c.Request().Context(), body.SemesterID)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, target.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	enr, err := h.Engine.Transfer(c.Request().Context(), id, body.SemesterID, timeNow())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, enr)
}

// ListBySemester handles GET /v1/semesters/:id/enrollments.
func (h *EnrollmentHandler) ListBySemester(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	sem, err := h.Semesters.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, sem.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	items, err := h.Enrollments.ActiveBySemester(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MyEnrollments handles GET /v1/me/enrollments for students.
func (h *EnrollmentHandler) MyEnrollments(c echo.Context) error {
	items, err := h.Enrollments.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MyAssignments handles GET /v1/me/assignments for students.
func (h *EnrollmentHandler) MyAssignments(c echo.Context) error {
	items, err := h.Rooms.ListAssignmentsByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// authorizeEnrollment verifies the enrollment's semester belongs to
// the caller's hostel.  Returns a response error already written, or
// nil when authorized.
func (h *EnrollmentHandler) authorizeEnrollment(c echo.Context, enrollmentID uint64) error {
	enr, err := h.Enrollments.GetByID(c.Request().Context(), enrollmentID)
	if err != nil {
		return engineError(c, err)
	}
	sem, err := h.Semesters.GetByID(c.Request().Context(), enr.SemesterID)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, sem.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return nil
}
