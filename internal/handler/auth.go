package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/service"
)

// minPasswordLen applies to registration and password changes.
const minPasswordLen = 8

// AuthHandler serves /api/auth.
type AuthHandler struct {
	Auth *service.AuthService
	Log  logging.Logger
}

func NewAuthHandler(auth *service.AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Register creates the account with its default categories and returns
// the first token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.Email = normalizeEmail(req.Email)

	var v validation
	if !validEmail(req.Email) {
		v.add("email", "Invalid email")
	} else if model.TooLong(req.Email, model.MaxEmailLen) {
		v.add("email", model.TooLongMessage(model.MaxEmailLen))
	}
	if len(req.Password) < minPasswordLen {
		v.add("password", "String must contain at least 8 character(s)")
	}
	if model.TooLong(strings.TrimSpace(req.Name), model.MaxNameLen) {
		v.add("name", model.TooLongMessage(model.MaxNameLen))
	}
	if err := v.err(); err != nil {
		return fail(c, h.Log, err, "User")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, req.Email, req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusCreated, res)
}

// Login verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.Email = normalizeEmail(req.Email)

	var v validation
	if !validEmail(req.Email) {
		v.add("email", "Invalid email")
	}
	if req.Password == "" {
		v.add("password", "Required")
	}
	if err := v.err(); err != nil {
		return fail(c, h.Log, err, "User")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh rotates the presented refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		var v validation
		v.add("refreshToken", "Required")
		return fail(c, h.Log, v.err(), "User")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes the presented refresh token. It always answers 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := withTimeout(c)
	defer cancel()

	h.Auth.Logout(ctx, strings.TrimSpace(req.RefreshToken))
	return c.NoContent(http.StatusNoContent)
}
