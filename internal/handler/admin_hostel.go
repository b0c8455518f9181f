package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/config"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// HostelHandler covers hostel onboarding and profile management plus
// the super-admin overview listing.
type HostelHandler struct {
	Cfg     *config.Config
	Hostels *repository.HostelRepo
	Users   *repository.UserRepo
}

func NewHostelHandler(cfg *config.Config, hostels *repository.HostelRepo, users *repository.UserRepo) *HostelHandler {
	return &HostelHandler{Cfg: cfg, Hostels: hostels, Users: users}
}

type hostelBody struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Create handles POST /v1/hostels: a hostel admin onboards their
// property.  One hostel per admin account; the user row is pointed at
// the new hostel so subsequent tokens carry its id.
func (h *HostelHandler) Create(c echo.Context) error {
	userID := middleware.UserID(c)
	if middleware.HostelID(c) != 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "account already manages a hostel"})
	}
	if _, err := h.Hostels.GetByOwner(c.Request().Context(), userID); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "account already manages a hostel"})
	}
	var body hostelBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.Hostels.Create(c.Request().Context(), name, strings.TrimSpace(body.Address), strings.TrimSpace(body.Phone), userID)
	if err != nil {
		return engineError(c, err)
	}
	if err := h.Users.SetHostel(c.Request().Context(), userID, id); err != nil {
		return engineError(c, err)
	}
	hostel, err := h.Hostels.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, hostel)
}

// Mine handles GET /v1/hostels/me.
func (h *HostelHandler) Mine(c echo.Context) error {
	hostel, err := h.Hostels.GetByOwner(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, hostel)
}

// Update handles PUT /v1/hostels/me.
func (h *HostelHandler) Update(c echo.Context) error {
	hostel, err := h.Hostels.GetByOwner(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return engineError(c, err)
	}
	var body hostelBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Hostels.Update(c.Request().Context(), hostel.ID, name, strings.TrimSpace(body.Address), strings.TrimSpace(body.Phone)); err != nil {
		return engineError(c, err)
	}
	updated, err := h.Hostels.GetByID(c.Request().Context(), hostel.ID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// List handles GET /v1/hostels for the super-admin overview.
func (h *HostelHandler) List(c echo.Context) error {
	hostels, err := h.Hostels.List(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": hostels})
}

// CreateStaff handles POST /v1/staff: the hostel admin creates a
// custodian account attached to their hostel.
func (h *HostelHandler) CreateStaff(c echo.Context) error {
	hostelID := middleware.HostelID(c)
	if hostelID == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "onboard a hostel first"})
	}
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Email) == "" || len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and a password of at least 8 characters are required"})
	}
	id, err := h.Users.Create(c.Request().Context(), body.Email, body.Password, strings.TrimSpace(body.FullName), model.RoleCustodian, &hostelID, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "role": model.RoleCustodian})
}
