package service

import (
	"context"
	"time"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/reorder"
)

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	CreateWithCategories(ctx context.Context, u *model.User, cats []model.Category) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateName(ctx context.Context, id, name string, now time.Time) (model.User, error)
	ReplacePassword(ctx context.Context, id, hash string, now time.Time, keep model.RefreshToken) error
}

// SessionStore is implemented by repository.TokenRepo.
type SessionStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	Consume(ctx context.Context, tokenHash, userID string, now time.Time) (bool, error)
	DeleteByHash(ctx context.Context, tokenHash string) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// CategoryStore is implemented by repository.CategoryRepo.
type CategoryStore interface {
	ListWithCounts(ctx context.Context, userID string) ([]model.CategoryWithCount, error)
	Create(ctx context.Context, c model.Category) error
	GetByID(ctx context.Context, userID, id string) (model.Category, error)
	Update(ctx context.Context, userID, id string, name, color *string) (model.Category, error)
	Delete(ctx context.Context, userID, id string) error
}

// TaskStore is implemented by repository.TaskRepo.
type TaskStore interface {
	List(ctx context.Context, userID string, f query.Filter) ([]model.Task, error)
	GetByID(ctx context.Context, userID, id string) (model.Task, error)
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Update(ctx context.Context, userID, id string, p model.TaskPatch, now time.Time) (model.Task, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, batch []reorder.Position) error
	Stats(ctx context.Context, userID string) (model.Stats, error)
	CategoryOwned(ctx context.Context, userID, categoryID string) (bool, error)
}

// EventPublisher is implemented by queue.Publisher. Publishing must not
// block the caller.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TaskEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.TaskEvent) error { return nil }

// NopPublisher discards events; used when no broker is configured.
var NopPublisher EventPublisher = nopPublisher{}
