// Package handler holds the echo handlers of the JSON API. Handlers parse
// and validate input, call one service and translate its error.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/service"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

func invalidBody(c echo.Context) error {
	return message(c, http.StatusBadRequest, "Invalid request body")
}

// fail writes the response for err. resource names the entity in 404
// messages, e.g. "Task" gives "Task not found". Errors without a mapping
// are logged and reported as a bare 500.
func fail(c echo.Context, log logging.Logger, err error, resource string) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Validation failed", "errors": verr.Fields})
	case errors.Is(err, service.ErrConflict):
		return message(c, http.StatusConflict, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return message(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return message(c, http.StatusUnauthorized, "Invalid or expired refresh token")
	case errors.Is(err, repository.ErrNotFound):
		return message(c, http.StatusNotFound, resource+" not found")
	case errors.Is(err, repository.ErrForbidden):
		return message(c, http.StatusForbidden, "Default categories cannot be deleted")
	}
	log.Error(c.Request().Context(), "request failed",
		"method", c.Request().Method, "route", c.Path(), "err", err)
	return message(c, http.StatusInternalServerError, "Internal server error")
}

// validation collects field errors of one request body.
type validation []model.FieldError

func (v *validation) add(path, msg string) {
	*v = append(*v, model.FieldError{Path: path, Message: msg})
}

func (v validation) err() error {
	if len(v) == 0 {
		return nil
	}
	return &model.ValidationError{Fields: v}
}
