package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/service"
)

// CategoryHandler serves /api/categories.
type CategoryHandler struct {
	Categories *service.CategoryService
	Log        logging.Logger
}

func NewCategoryHandler(categories *service.CategoryService, log logging.Logger) *CategoryHandler {
	return &CategoryHandler{Categories: categories, Log: log}
}

type createCategoryReq struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type updateCategoryReq struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// List returns every category with its active task count plus the
// aggregate over all of them.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Categories.Counts(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, err, "Category")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req createCategoryReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	cat, err := h.Categories.Create(ctx, middleware.UserID(c), req.Name, req.Color)
	if err != nil {
		return fail(c, h.Log, err, "Category")
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	var req updateCategoryReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	cat, err := h.Categories.Update(ctx, middleware.UserID(c), c.Param("id"), req.Name, req.Color)
	if err != nil {
		return fail(c, h.Log, err, "Category")
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete removes a user-created category; its tasks become uncategorized.
func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Categories.Delete(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		return fail(c, h.Log, err, "Category")
	}
	return c.NoContent(http.StatusNoContent)
}
