package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/queue"
)

// CategoryList is the GET /api/categories body. AllCount is the sum of
// the per-category active counts, not the total number of tasks.
type CategoryList struct {
	Categories []model.CategoryWithCount `json:"categories"`
	AllCount   int                       `json:"allCount"`
}

// CategoryService manages a user's categories.
type CategoryService struct {
	store  CategoryStore
	events EventPublisher
	now    func() time.Time
}

func NewCategoryService(store CategoryStore, events EventPublisher) *CategoryService {
	if events == nil {
		events = NopPublisher
	}
	return &CategoryService{store: store, events: events, now: func() time.Time { return time.Now().UTC() }}
}

// Counts lists the user's categories with their active task counts.
func (s *CategoryService) Counts(ctx context.Context, userID string) (CategoryList, error) {
	cats, err := s.store.ListWithCounts(ctx, userID)
	if err != nil {
		return CategoryList{}, err
	}
	out := CategoryList{Categories: cats}
	for _, c := range cats {
		out.AllCount += c.TaskCount
	}
	return out, nil
}

// Create adds a user category. An empty color falls back to the default.
func (s *CategoryService) Create(ctx context.Context, userID, name, color string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, model.Invalid("name", "is required")
	}
	if model.TooLong(name, model.MaxNameLen) {
		return model.Category{}, model.Invalid("name", model.TooLongMessage(model.MaxNameLen))
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = model.DefaultCategoryColor
	}
	if model.TooLong(color, model.MaxColorLen) {
		return model.Category{}, model.Invalid("color", model.TooLongMessage(model.MaxColorLen))
	}
	c := model.Category{ID: uuid.NewString(), UserID: userID, Name: name, Color: color, CreatedAt: s.now()}
	if err := s.store.Create(ctx, c); err != nil {
		return model.Category{}, err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.CategoryCreated, UserID: userID, CategoryID: c.ID, Title: c.Name})
	return c, nil
}

// Update renames and/or recolors a category.
func (s *CategoryService) Update(ctx context.Context, userID, id string, name, color *string) (model.Category, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return model.Category{}, model.Invalid("name", "must not be empty")
		}
		if model.TooLong(trimmed, model.MaxNameLen) {
			return model.Category{}, model.Invalid("name", model.TooLongMessage(model.MaxNameLen))
		}
		name = &trimmed
	}
	if color != nil && model.TooLong(*color, model.MaxColorLen) {
		return model.Category{}, model.Invalid("color", model.TooLongMessage(model.MaxColorLen))
	}
	c, err := s.store.Update(ctx, userID, id, name, color)
	if err != nil {
		return model.Category{}, err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.CategoryUpdated, UserID: userID, CategoryID: c.ID, Title: c.Name})
	return c, nil
}

// Delete removes a user-created category; its tasks become uncategorized.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.CategoryDeleted, UserID: userID, CategoryID: id})
	return nil
}

func (s *CategoryService) publish(ctx context.Context, ev queue.TaskEvent) {
	ev.OccurredAt = s.now()
	_ = s.events.Publish(ctx, ev)
}
