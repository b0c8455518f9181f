package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/config"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/repository"
	"github.com/hostelhq/hostel-management/internal/utils"
)

// AuthHandler implements register/login/refresh/logout.
type AuthHandler struct {
	Cfg    *config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg *config.Config, users *repository.UserRepo, tokens *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Register handles POST /v1/auth/register.  Self-registration only
// creates students and hostel admins; super admins are seeded out of
// band and staff accounts are created by their hostel admin.
func (h *AuthHandler) Register(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.TrimSpace(body.Email)
	if email == "" || len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and a password of at least 8 characters are required"})
	}
	role := body.Role
	switch role {
	case "", model.RoleStudent:
		role = model.RoleStudent
	case model.RoleHostelAdmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be STUDENT or HOSTEL_ADMIN"})
	}
	id, err := h.Users.Create(c.Request().Context(), email, body.Password, strings.TrimSpace(body.FullName), role, nil, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": strings.ToLower(email), "role": role})
}

// Login handles POST /v1/auth/login and issues an access/refresh
// token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	user, err := h.Users.GetByEmail(c.Request().Context(), body.Email)
	if err != nil || !utils.CheckPassword(user.PasswordHash, body.Password) {
		// Same answer for unknown email and wrong password.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !user.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	return h.issueTokens(c, user)
}

// Refresh handles POST /v1/auth/refresh: rotates a valid refresh
// token for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	hash := utils.HashToken(body.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(c.Request().Context(), hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	user, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	// Rotate: the old token dies with this exchange.
	if err := h.Tokens.RevokeByHash(c.Request().Context(), hash); err != nil {
		return engineError(c, err)
	}
	return h.issueTokens(c, user)
}

// Logout handles POST /v1/auth/logout and revokes the presented
// refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	if err := h.Tokens.RevokeByHash(c.Request().Context(), utils.HashToken(body.RefreshToken)); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/auth/me and returns the authenticated user's
// profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.Users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(c echo.Context, user model.User) error {
	var hostelID uint64
	if user.HostelID != nil {
		hostelID = *user.HostelID
	}
	access, err := utils.GenerateAccessToken(h.Cfg.JWTSecret, user.ID, user.Role, hostelID, h.Cfg.AccessTokenTTL)
	if err != nil {
		return engineError(c, err)
	}
	refresh, refreshHash, err := utils.NewRefreshToken()
	if err != nil {
		return engineError(c, err)
	}
	exp := timeNow().Add(h.Cfg.RefreshTokenTTL)
	if err := h.Tokens.StoreRefresh(c.Request().Context(), user.ID, refreshHash, exp); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"role":          user.Role,
		"hostel_id":     hostelID,
	})
}
