// Package handler defines the HTTP handlers.  Handlers validate and
// authorize the request, then delegate lifecycle semantics to the
// engines; they never reach around an engine to mutate lifecycle
// state directly.
package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// timeNow is swapped in tests to pin the clock.
var timeNow = func() time.Time { return time.Now().UTC() }

// pathID parses a numeric :param from the URL.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// engineError maps engine and repository sentinels onto HTTP
// responses.  Unrecognized errors become opaque 500s; the details go
// to the server log, not the client.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, sql.ErrNoRows),
		errors.Is(err, repository.ErrHostelNotFound), errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrSemesterNotFound), errors.Is(err, repository.ErrPlanNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, lifecycle.ErrConflict), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// requireOwnHostel verifies the authenticated admin is attached to
// hostelID; zero claims mean the account has no hostel yet.
func requireOwnHostel(c echo.Context, hostelID uint64) bool {
	return middleware.HostelID(c) == hostelID && hostelID != 0
}
