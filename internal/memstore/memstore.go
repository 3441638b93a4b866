// Package memstore is an in-memory implementation of the storage
// interfaces consumed by the services. It mirrors the MySQL repositories'
// observable behavior (ownership scoping, insert-at-top, atomic batches,
// single-use refresh tokens) and backs the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/reorder"
	"github.com/iliyamo/taskboard/internal/repository"
)

// DB holds every table. Use its views to obtain the per-entity stores.
type DB struct {
	mu         sync.Mutex
	users      map[string]model.User
	categories map[string]model.Category
	tasks      map[string]model.Task
	tokens     map[string]model.RefreshToken // by hash
}

func New() *DB {
	return &DB{
		users:      map[string]model.User{},
		categories: map[string]model.Category{},
		tasks:      map[string]model.Task{},
		tokens:     map[string]model.RefreshToken{},
	}
}

func (db *DB) Users() *Users           { return &Users{db} }
func (db *DB) Sessions() *Sessions     { return &Sessions{db} }
func (db *DB) Categories() *Categories { return &Categories{db} }
func (db *DB) Tasks() *Tasks           { return &Tasks{db} }

// SessionCount reports how many refresh tokens the user holds.
func (db *DB) SessionCount(userID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, t := range db.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// ---- users ----

type Users struct{ db *DB }

func (u *Users) CreateWithCategories(_ context.Context, user *model.User, cats []model.Category) error {
	db := u.db
	db.mu.Lock()
	defer db.mu.Unlock()
	user.Email = repository.NormalizeEmail(user.Email)
	for _, existing := range db.users {
		if existing.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	db.users[user.ID] = *user
	for _, c := range cats {
		c.UserID = user.ID
		db.categories[c.ID] = c
	}
	return nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	db := u.db
	db.mu.Lock()
	defer db.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, user := range db.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (u *Users) GetByID(_ context.Context, id string) (model.User, error) {
	db := u.db
	db.mu.Lock()
	defer db.mu.Unlock()
	user, ok := db.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (u *Users) UpdateName(_ context.Context, id, name string, now time.Time) (model.User, error) {
	db := u.db
	db.mu.Lock()
	defer db.mu.Unlock()
	user, ok := db.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	user.Name = name
	user.UpdatedAt = now
	db.users[id] = user
	return user, nil
}

func (u *Users) ReplacePassword(_ context.Context, id, hash string, now time.Time, keep model.RefreshToken) error {
	db := u.db
	db.mu.Lock()
	defer db.mu.Unlock()
	user, ok := db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = now
	db.users[id] = user
	for h, t := range db.tokens {
		if t.UserID == id {
			delete(db.tokens, h)
		}
	}
	db.tokens[keep.TokenHash] = keep
	return nil
}

// ---- sessions ----

type Sessions struct{ db *DB }

func (s *Sessions) Store(_ context.Context, t model.RefreshToken) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tokens[t.TokenHash] = t
	return nil
}

func (s *Sessions) Consume(_ context.Context, tokenHash, userID string, now time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[tokenHash]
	if !ok || t.UserID != userID || !t.ExpiresAt.After(now) {
		return false, nil
	}
	delete(s.db.tokens, tokenHash)
	return true, nil
}

func (s *Sessions) DeleteByHash(_ context.Context, tokenHash string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tokens[tokenHash]; !ok {
		return 0, nil
	}
	delete(s.db.tokens, tokenHash)
	return 1, nil
}

func (s *Sessions) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for h, t := range s.db.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.db.tokens, h)
			n++
		}
	}
	return n, nil
}

// ---- categories ----

type Categories struct{ db *DB }

func (c *Categories) ListWithCounts(_ context.Context, userID string) ([]model.CategoryWithCount, error) {
	db := c.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.CategoryWithCount{}
	for _, cat := range db.categories {
		if cat.UserID != userID {
			continue
		}
		n := 0
		for _, t := range db.tasks {
			if t.UserID == userID && !t.IsCompleted && t.CategoryID != nil && *t.CategoryID == cat.ID {
				n++
			}
		}
		out = append(out, model.CategoryWithCount{Category: cat, TaskCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Categories) Create(_ context.Context, cat model.Category) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.categories[cat.ID] = cat
	return nil
}

func (c *Categories) GetByID(_ context.Context, userID, id string) (model.Category, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return c.db.category(userID, id)
}

func (c *Categories) Update(_ context.Context, userID, id string, name, color *string) (model.Category, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	cat, err := c.db.category(userID, id)
	if err != nil {
		return model.Category{}, err
	}
	if name != nil {
		cat.Name = *name
	}
	if color != nil {
		cat.Color = *color
	}
	c.db.categories[id] = cat
	return cat, nil
}

func (c *Categories) Delete(_ context.Context, userID, id string) error {
	db := c.db
	db.mu.Lock()
	defer db.mu.Unlock()
	cat, err := db.category(userID, id)
	if err != nil {
		return err
	}
	if cat.IsDefault {
		return repository.ErrForbidden
	}
	for tid, t := range db.tasks {
		if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			db.tasks[tid] = t
		}
	}
	delete(db.categories, id)
	return nil
}

func (db *DB) category(userID, id string) (model.Category, error) {
	cat, ok := db.categories[id]
	if !ok || cat.UserID != userID {
		return model.Category{}, repository.ErrNotFound
	}
	return cat, nil
}

// ---- tasks ----

type Tasks struct{ db *DB }

func (t *Tasks) List(_ context.Context, userID string, f query.Filter) ([]model.Task, error) {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()
	var mine []model.Task
	for _, task := range db.tasks {
		if task.UserID == userID {
			mine = append(mine, db.withCategory(task))
		}
	}
	// map iteration is random; Apply relies on a deterministic input for ties
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID < mine[j].ID })
	return f.Apply(mine), nil
}

func (t *Tasks) GetByID(_ context.Context, userID, id string) (model.Task, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return t.db.task(userID, id)
}

func (t *Tasks) Create(_ context.Context, task model.Task) (model.Task, error) {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for id, other := range db.tasks {
		if other.UserID == task.UserID {
			other.SortOrder++
			db.tasks[id] = other
		}
	}
	task.SortOrder = 0
	task.Category = nil
	db.tasks[task.ID] = task
	return db.withCategory(task), nil
}

func (t *Tasks) Update(_ context.Context, userID, id string, p model.TaskPatch, now time.Time) (model.Task, error) {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()
	task, ok := db.tasks[id]
	if !ok || task.UserID != userID {
		return model.Task{}, repository.ErrNotFound
	}
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.CategoryID != nil {
		task.CategoryID = *p.CategoryID
	}
	if p.DueDate != nil {
		task.DueDate = *p.DueDate
	}
	if p.IsCompleted != nil {
		task.IsCompleted = *p.IsCompleted
	}
	if p.SortOrder != nil {
		task.SortOrder = *p.SortOrder
	}
	task.UpdatedAt = now
	db.tasks[id] = task
	return db.withCategory(task), nil
}

func (t *Tasks) Delete(_ context.Context, userID, id string) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if _, err := t.db.task(userID, id); err != nil {
		return err
	}
	delete(t.db.tasks, id)
	return nil
}

func (t *Tasks) Reorder(_ context.Context, userID string, batch []reorder.Position) error {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range batch {
		if task, ok := db.tasks[p.ID]; !ok || task.UserID != userID {
			return repository.ErrNotFound
		}
	}
	for _, p := range batch {
		task := db.tasks[p.ID]
		task.SortOrder = p.SortOrder
		db.tasks[p.ID] = task
	}
	return nil
}

func (t *Tasks) Stats(_ context.Context, userID string) (model.Stats, error) {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()
	var s model.Stats
	for _, task := range db.tasks {
		if task.UserID != userID {
			continue
		}
		s.TotalTasks++
		if task.IsCompleted {
			s.CompletedTasks++
		}
		if task.Priority == model.PriorityHigh {
			s.HighPriorityTasks++
		}
	}
	for _, c := range db.categories {
		if c.UserID == userID {
			s.CategoryCount++
		}
	}
	s.ActiveTasks = s.TotalTasks - s.CompletedTasks
	if s.TotalTasks > 0 {
		s.CompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}
	return s, nil
}

func (t *Tasks) CategoryOwned(_ context.Context, userID, categoryID string) (bool, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	_, err := t.db.category(userID, categoryID)
	return err == nil, nil
}

func (db *DB) task(userID, id string) (model.Task, error) {
	task, ok := db.tasks[id]
	if !ok || task.UserID != userID {
		return model.Task{}, repository.ErrNotFound
	}
	return db.withCategory(task), nil
}

func (db *DB) withCategory(task model.Task) model.Task {
	task.Category = nil
	if task.CategoryID != nil {
		if c, ok := db.categories[*task.CategoryID]; ok {
			task.Category = &c
		}
	}
	return task
}
