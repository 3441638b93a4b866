package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/service"
)

// UserHandler serves /api/users/me.
type UserHandler struct {
	Users *service.UserService
	Auth  *service.AuthService
	Log   logging.Logger
}

func NewUserHandler(users *service.UserService, auth *service.AuthService, log logging.Logger) *UserHandler {
	return &UserHandler{Users: users, Auth: auth, Log: log}
}

type profileReq struct {
	Name string `json:"name"`
}

type passwordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type passwordResp struct {
	Message string `json:"message"`
	service.TokenPair
}

func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.Profile(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.Rename(ctx, middleware.UserID(c), req.Name)
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword swaps the password and signs out every other session.
// The response carries the caller's replacement pair.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	var v validation
	if req.CurrentPassword == "" {
		v.add("currentPassword", "Required")
	}
	if len(req.NewPassword) < minPasswordLen {
		v.add("newPassword", "String must contain at least 8 character(s)")
	}
	if err := v.err(); err != nil {
		return fail(c, h.Log, err, "User")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Auth.ChangePassword(ctx, middleware.UserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusOK, passwordResp{Message: "Password updated successfully", TokenPair: pair})
}
