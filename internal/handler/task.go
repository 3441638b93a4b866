package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/reorder"
	"github.com/iliyamo/taskboard/internal/service"
)

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	Tasks *service.TaskService
	Log   logging.Logger
}

func NewTaskHandler(tasks *service.TaskService, log logging.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Log: log}
}

// ----- DTOs -----

type createTaskReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	CategoryID  *string `json:"categoryId"`
	DueDate     *string `json:"dueDate"`
	IsCompleted bool    `json:"isCompleted"`
}

type updateTaskReq struct {
	Title       *string          `json:"title"`
	Description nullable[string] `json:"description"`
	Priority    *string          `json:"priority"`
	CategoryID  nullable[string] `json:"categoryId"`
	DueDate     nullable[string] `json:"dueDate"`
	IsCompleted *bool            `json:"isCompleted"`
	SortOrder   *int             `json:"sortOrder"`
}

type reorderReq struct {
	Tasks []reorder.Position `json:"tasks"`
}

type taskList struct {
	Tasks []model.Task `json:"tasks"`
}

// List answers GET /api/tasks?search=&priority=&categoryId=&status=&sortBy=
func (h *TaskHandler) List(c echo.Context) error {
	f, errs := query.Parse(c.QueryParams())
	if len(errs) > 0 {
		return fail(c, h.Log, &model.ValidationError{Fields: errs}, "Task")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	tasks, err := h.Tasks.List(ctx, middleware.UserID(c), f)
	if err != nil {
		return fail(c, h.Log, err, "Task")
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(http.StatusOK, taskList{Tasks: tasks})
}

func (h *TaskHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	t, err := h.Tasks.Get(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err, "Task")
	}
	return c.JSON(http.StatusOK, t)
}

// Create places the new task at the top of the manual order.
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	in := service.NewTask{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	var v validation
	if req.Title == "" {
		v.add("title", "Required")
	} else if model.TooLong(strings.TrimSpace(req.Title), model.MaxTitleLen) {
		v.add("title", model.TooLongMessage(model.MaxTitleLen))
	}
	if req.Priority != "" {
		if p, ok := model.ParsePriority(req.Priority); ok {
			in.Priority = p
		} else {
			v.add("priority", "must be one of HIGH, MEDIUM, LOW")
		}
	}
	if req.CategoryID != nil {
		if validUUID(*req.CategoryID) {
			in.CategoryID = req.CategoryID
		} else {
			v.add("categoryId", "Invalid uuid")
		}
	}
	if req.DueDate != nil {
		if d, ok := parseDueDate(*req.DueDate); ok {
			in.DueDate = &d
		} else {
			v.add("dueDate", "Invalid datetime")
		}
	}
	if err := v.err(); err != nil {
		return fail(c, h.Log, err, "Task")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	t, err := h.Tasks.Create(ctx, middleware.UserID(c), in)
	if err != nil {
		return fail(c, h.Log, err, "Task")
	}
	return c.JSON(http.StatusCreated, t)
}

// Update applies a partial update. Explicit nulls clear description,
// categoryId and dueDate.
func (h *TaskHandler) Update(c echo.Context) error {
	var req updateTaskReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, err := req.patch()
	if err != nil {
		return fail(c, h.Log, err, "Task")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	t, err := h.Tasks.Update(ctx, middleware.UserID(c), c.Param("id"), p)
	if err != nil {
		return fail(c, h.Log, err, "Task")
	}
	return c.JSON(http.StatusOK, t)
}

func (r updateTaskReq) patch() (model.TaskPatch, error) {
	var (
		p model.TaskPatch
		v validation
	)
	p.Title = r.Title
	if r.Title != nil && model.TooLong(strings.TrimSpace(*r.Title), model.MaxTitleLen) {
		v.add("title", model.TooLongMessage(model.MaxTitleLen))
	}
	p.IsCompleted = r.IsCompleted
	p.SortOrder = r.SortOrder
	if r.Priority != nil {
		if pr, ok := model.ParsePriority(*r.Priority); ok {
			p.Priority = &pr
		} else {
			v.add("priority", "must be one of HIGH, MEDIUM, LOW")
		}
	}
	if r.Description.Set {
		d := r.Description.Value
		p.Description = &d
	}
	if r.CategoryID.Set {
		id := r.CategoryID.Value
		if id != nil && !validUUID(*id) {
			v.add("categoryId", "Invalid uuid")
		}
		p.CategoryID = &id
	}
	if r.DueDate.Set {
		var due *time.Time
		if r.DueDate.Value != nil {
			if d, ok := parseDueDate(*r.DueDate.Value); ok {
				due = &d
			} else {
				v.add("dueDate", "Invalid datetime")
			}
		}
		p.DueDate = &due
	}
	return p, v.err()
}

func (h *TaskHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Tasks.Delete(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		return fail(c, h.Log, err, "Task")
	}
	return c.NoContent(http.StatusNoContent)
}

// Reorder writes a batch of manual positions. An id the user does not
// own rolls back the whole batch.
func (h *TaskHandler) Reorder(c echo.Context) error {
	var req reorderReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Tasks == nil {
		var v validation
		v.add("tasks", "Required")
		return fail(c, h.Log, v.err(), "Task")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Tasks.Reorder(ctx, middleware.UserID(c), req.Tasks); err != nil {
		return fail(c, h.Log, err, "Task")
	}
	return message(c, http.StatusOK, "Tasks reordered successfully")
}
