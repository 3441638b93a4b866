package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/taskboard/internal/model"
)

// UserService reads and edits the signed-in user's profile.
type UserService struct {
	users UserStore
	now   func() time.Time
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: func() time.Time { return time.Now().UTC() }}
}

// Profile returns the user without its password hash.
func (s *UserService) Profile(ctx context.Context, userID string) (model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Rename sets a new display name.
func (s *UserService) Rename(ctx context.Context, userID, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, model.Invalid("name", "is required")
	}
	if model.TooLong(name, model.MaxNameLen) {
		return model.User{}, model.Invalid("name", model.TooLongMessage(model.MaxNameLen))
	}
	return s.users.UpdateName(ctx, userID, name, s.now())
}
