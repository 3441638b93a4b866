package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/reorder"
)

// NewTask is the input of TaskService.Create.
type NewTask struct {
	Title       string
	Description *string
	Priority    model.Priority // empty means MEDIUM
	CategoryID  *string
	DueDate     *time.Time
	IsCompleted bool
}

// TaskService holds the task rules that sit above storage: category
// ownership, defaults and event publishing.
type TaskService struct {
	store  TaskStore
	events EventPublisher
	now    func() time.Time
}

func NewTaskService(store TaskStore, events EventPublisher) *TaskService {
	if events == nil {
		events = NopPublisher
	}
	return &TaskService{store: store, events: events, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the user's tasks matching f, in f's order.
func (s *TaskService) List(ctx context.Context, userID string, f query.Filter) ([]model.Task, error) {
	return s.store.List(ctx, userID, f)
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (model.Task, error) {
	return s.store.GetByID(ctx, userID, id)
}

// Create inserts the task at the top of the user's manual order.
func (s *TaskService) Create(ctx context.Context, userID string, in NewTask) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, model.Invalid("title", "is required")
	}
	if model.TooLong(title, model.MaxTitleLen) {
		return model.Task{}, model.Invalid("title", model.TooLongMessage(model.MaxTitleLen))
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
		return model.Task{}, err
	}

	now := s.now()
	t, err := s.store.Create(ctx, model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Title:       title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		IsCompleted: in.IsCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Task{}, err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.TaskCreated, UserID: userID, TaskID: t.ID, Title: t.Title})
	return t, nil
}

// Update applies a partial update. An empty patch returns the task as is.
func (s *TaskService) Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return model.Task{}, model.Invalid("title", "must not be empty")
		}
		if model.TooLong(title, model.MaxTitleLen) {
			return model.Task{}, model.Invalid("title", model.TooLongMessage(model.MaxTitleLen))
		}
		p.Title = &title
	}
	if p.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *p.CategoryID); err != nil {
			return model.Task{}, err
		}
	}
	if p.Empty() {
		return s.store.GetByID(ctx, userID, id)
	}

	t, err := s.store.Update(ctx, userID, id, p, s.now())
	if err != nil {
		return model.Task{}, err
	}
	typ := queue.TaskUpdated
	if p.IsCompleted != nil && *p.IsCompleted {
		typ = queue.TaskCompleted
	}
	s.publish(ctx, queue.TaskEvent{Type: typ, UserID: userID, TaskID: t.ID, Title: t.Title})
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.TaskDeleted, UserID: userID, TaskID: id})
	return nil
}

// Reorder writes a batch of manual positions atomically.
func (s *TaskService) Reorder(ctx context.Context, userID string, batch []reorder.Position) error {
	if errs := reorder.Validate(batch); len(errs) > 0 {
		return &model.ValidationError{Fields: errs}
	}
	if err := s.store.Reorder(ctx, userID, batch); err != nil {
		return err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.TasksReordered, UserID: userID, Count: len(batch)})
	return nil
}

// checkCategory rejects a category id the user does not own. A nil id
// means uncategorized and is always allowed.
func (s *TaskService) checkCategory(ctx context.Context, userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	ok, err := s.store.CategoryOwned(ctx, userID, *categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return model.Invalid("categoryId", "unknown category")
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, ev queue.TaskEvent) {
	ev.OccurredAt = s.now()
	_ = s.events.Publish(ctx, ev)
}
