package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints.  These
// sit behind the Redis response cache; they change rarely and carry
// no per-user data.
type PublicHandler struct {
	Hostels *repository.HostelRepo
	Rooms   *repository.RoomRepo
	Plans   *repository.PlanRepo
}

func NewPublicHandler(hostels *repository.HostelRepo, rooms *repository.RoomRepo, plans *repository.PlanRepo) *PublicHandler {
	return &PublicHandler{Hostels: hostels, Rooms: rooms, Plans: plans}
}

// ListHostels handles GET /v1/browse/hostels.
func (h *PublicHandler) ListHostels(c echo.Context) error {
	hostels, err := h.Hostels.List(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	items := make([]echo.Map, 0, len(hostels))
	for _, hs := range hostels {
		items = append(items, echo.Map{
			"id":      hs.ID,
			"name":    hs.Name,
			"address": hs.Address,
			"phone":   hs.Phone,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListRooms handles GET /v1/browse/hostels/:id/rooms and shows only
// rooms a student could take.
func (h *PublicHandler) ListRooms(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Hostels.GetByID(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	rooms, err := h.Rooms.ListByHostel(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	items := make([]echo.Map, 0, len(rooms))
	for _, rm := range rooms {
		if rm.Status != model.RoomAvailable {
			continue
		}
		items = append(items, echo.Map{
			"id":                       rm.ID,
			"number":                   rm.Number,
			"capacity":                 rm.Capacity,
			"price_per_semester_cents": rm.PricePerSemesterCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListPlans handles GET /v1/browse/plans.
func (h *PublicHandler) ListPlans(c echo.Context) error {
	items, err := h.Plans.ListActive(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
