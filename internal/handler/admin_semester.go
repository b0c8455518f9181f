package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// SemesterHandler covers semester management for hostel admins and
// global semester templates for super admins.
type SemesterHandler struct {
	Semesters *repository.SemesterRepo
	Globals   *repository.GlobalSemesterRepo
	Engine    *lifecycle.SemesterEngine
}

func NewSemesterHandler(semesters *repository.SemesterRepo, globals *repository.GlobalSemesterRepo, engine *lifecycle.SemesterEngine) *SemesterHandler {
	return &SemesterHandler{Semesters: semesters, Globals: globals, Engine: engine}
}

const dateLayout = "2006-01-02"

type semesterBody struct {
	GlobalSemesterID *uint64 `json:"global_semester_id"`
	Name             string  `json:"name"`
	AcademicYear     string  `json:"academic_year"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
}

// Create handles POST /v1/semesters.
func (h *SemesterHandler) Create(c echo.Context) error {
	var body semesterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := time.ParseInLocation(dateLayout, body.StartDate, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := time.ParseInLocation(dateLayout, body.EndDate, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}
	if body.GlobalSemesterID != nil {
		ok, err := h.Globals.Exists(c.Request().Context(), *body.GlobalSemesterID)
		if err != nil {
			return engineError(c, err)
		}
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "global_semester_id does not reference an active template"})
		}
	}
	sem, err := h.Engine.CreateSemester(c.Request().Context(), lifecycle.CreateSemesterParams{
		HostelID:         middleware.HostelID(c),
		GlobalSemesterID: body.GlobalSemesterID,
		Name:             strings.TrimSpace(body.Name),
		AcademicYear:     strings.TrimSpace(body.AcademicYear),
		StartDate:        start,
		EndDate:          end,
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, sem)
}

// List handles GET /v1/semesters for the admin's hostel.
func (h *SemesterHandler) List(c echo.Context) error {
	items, err := h.Semesters.ListByHostel(c.Request().Context(), middleware.HostelID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SetCurrent handles PUT /v1/semesters/:id/current.
func (h *SemesterHandler) SetCurrent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Engine.SetCurrent(c.Request().Context(), id, middleware.HostelID(c)); err != nil {
		return engineError(c, err)
	}
	sem, err := h.Semesters.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, sem)
}

// Rollover handles POST /v1/semesters/:id/rollover: create the
// successor term and carry active enrollments forward.
func (h *SemesterHandler) Rollover(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	old, err := h.Semesters.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, old.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var body semesterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := time.ParseInLocation(dateLayout, body.StartDate, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := time.ParseInLocation(dateLayout, body.EndDate, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}
	next, err := h.Engine.Rollover(c.Request().Context(), id, strings.TrimSpace(body.Name), strings.TrimSpace(body.AcademicYear), start, end, timeNow())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, next)
}

// --- global semester templates (super admin) ---

type globalSemesterBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CreateGlobal handles POST /v1/global-semesters.
func (h *SemesterHandler) CreateGlobal(c echo.Context) error {
	var body globalSemesterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.Globals.Create(c.Request().Context(), name, strings.TrimSpace(body.Description))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "template name already exists"})
		}
		return engineError(c, err)
	}
	g, err := h.Globals.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

// ListGlobal handles GET /v1/global-semesters.
func (h *SemesterHandler) ListGlobal(c echo.Context) error {
	items, err := h.Globals.List(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateGlobal handles PUT /v1/global-semesters/:id.
func (h *SemesterHandler) UpdateGlobal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	current, err := h.Globals.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	var body globalSemesterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = current.Name
	}
	isActive := current.IsActive
	if body.IsActive != nil {
		isActive = *body.IsActive
	}
	if err := h.Globals.Update(c.Request().Context(), id, name, strings.TrimSpace(body.Description), isActive); err != nil {
		return engineError(c, err)
	}
	g, err := h.Globals.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

// DeleteGlobal handles DELETE /v1/global-semesters/:id; rejected with
// 409 while hostels still reference the template.
func (h *SemesterHandler) DeleteGlobal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Globals.Delete(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Cancel handles POST /v1/semesters/:id/cancel: an upcoming or active
// semester the hostel will not run after all.
func (h *SemesterHandler) Cancel(c echo.Context) error {
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
	if sem.Status == model.SemesterCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "semester already completed"})
	}
	if err := h.Engine.Cancel(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
