package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/service"
)

type StatsHandler struct {
	Stats *service.StatsService
	Log   logging.Logger
}

func NewStatsHandler(stats *service.StatsService, log logging.Logger) *StatsHandler {
	return &StatsHandler{Stats: stats, Log: log}
}

func (h *StatsHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Stats.Stats(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, err, "User")
	}
	return c.JSON(http.StatusOK, st)
}
