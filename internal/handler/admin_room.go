package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// RoomHandler covers room CRUD for hostel admins.  Status changes,
// vacate and delete run through the RoomEngine so the occupancy rules
// hold.
type RoomHandler struct {
	Rooms  *repository.RoomRepo
	Engine *lifecycle.RoomEngine
}

func NewRoomHandler(rooms *repository.RoomRepo, engine *lifecycle.RoomEngine) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Engine: engine}
}

type roomBody struct {
	Number     string `json:"number"`
	Capacity   uint32 `json:"capacity"`
	PriceCents uint32 `json:"price_per_semester_cents"`
}

func (b *roomBody) validate() string {
	if strings.TrimSpace(b.Number) == "" {
		return "number is required"
	}
	if b.Capacity < 1 || b.Capacity > 4 {
		return "capacity must be between 1 and 4"
	}
	return ""
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	id, err := h.Rooms.Create(c.Request().Context(), middleware.HostelID(c), strings.TrimSpace(body.Number), body.Capacity, body.PriceCents)
	if err != nil {
		return engineError(c, err)
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/rooms for the admin's hostel.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.ListByHostel(c.Request().Context(), middleware.HostelID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// Update handles PUT /v1/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, room.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Rooms.Update(c.Request().Context(), id, strings.TrimSpace(body.Number), body.Capacity, body.PriceCents); err != nil {
		return engineError(c, err)
	}
	updated, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// SetStatus handles PUT /v1/rooms/:id/status.
func (h *RoomHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, room.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Engine.SetStatus(c.Request().Context(), id, body.Status); err != nil {
		return engineError(c, err)
	}
	updated, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Vacate handles POST /v1/rooms/:id/vacate: close every active
// assignment on the room and return it to available.
func (h *RoomHandler) Vacate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, room.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	closed, err := h.Engine.Vacate(c.Request().Context(), id, timeNow())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"assignments_closed": closed})
}

// Delete handles DELETE /v1/rooms/:id.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if !requireOwnHostel(c, room.HostelID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Engine.Delete(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
