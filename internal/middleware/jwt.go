// Package middleware provides the HTTP request-processing chain:
// JWT authentication, role checks, the Redis response cache and rate
// limiter, and the subscription gate for hostel admin features.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/utils"
)

// Context keys set by JWTAuth for downstream middleware and handlers.
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxHostelID = "hostel_id"
)

// JWTAuth validates a Bearer access token and injects the user id,
// role and hostel id claims into the request context.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxHostelID, claims.HostelID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or zero when the request
// is unauthenticated.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}

// HostelID returns the hostel the authenticated user is attached to,
// or zero.
func HostelID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxHostelID).(uint64); ok {
		return v
	}
	return 0
}

// Role returns the authenticated user's role, or "" when absent.
func Role(c echo.Context) string {
	if v, ok := c.Get(CtxRole).(string); ok {
		return v
	}
	return ""
}
