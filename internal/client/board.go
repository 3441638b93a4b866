package client

import (
	"context"
	"sync"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/reorder"
)

// Board is the local view of one filtered task list. Moves apply locally
// first and are rolled back when the server rejects them.
type Board struct {
	api    *Client
	filter query.Filter

	mu    sync.Mutex
	tasks []model.Task
}

func NewBoard(api *Client, f query.Filter) *Board {
	return &Board{api: api, filter: f}
}

// Load replaces the local list with the server's.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.api.Tasks(ctx, b.filter)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
	return nil
}

// Tasks returns a copy of the local list.
func (b *Board) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Task(nil), b.tasks...)
}

// Reorder installs next as the local order and persists it. On failure
// the previous order is restored and the error returned.
func (b *Board) Reorder(ctx context.Context, next []model.Task) error {
	b.mu.Lock()
	prev := b.tasks
	b.tasks = append([]model.Task(nil), next...)
	b.mu.Unlock()

	if err := b.api.Reorder(ctx, reorder.Positions(next)); err != nil {
		b.mu.Lock()
		b.tasks = prev
		b.mu.Unlock()
		return err
	}
	return nil
}

// Move drags taskID to index within its own pane (the active or completed
// subset of the list).
func (b *Board) Move(ctx context.Context, taskID string, index int) error {
	all := b.Tasks()
	var dest []model.Task
	for _, t := range all {
		if t.ID == taskID {
			dest = pane(all, t.IsCompleted)
			break
		}
	}
	next, err := reorder.Splice(all, dest, taskID, index)
	if err != nil {
		return err
	}
	return b.Reorder(ctx, next)
}

// MoveAcross drags taskID into the other pane at index, flipping its
// completion. The completion change is persisted before the new order and
// survives a rejected reorder.
func (b *Board) MoveAcross(ctx context.Context, taskID string, index int) error {
	all := b.Tasks()
	var dest []model.Task
	found := false
	for _, t := range all {
		if t.ID == taskID {
			dest = pane(all, !t.IsCompleted)
			found = true
			break
		}
	}
	if !found {
		return reorder.ErrUnknownTask
	}
	next, err := reorder.MoveAcross(all, dest, taskID, index)
	if err != nil {
		return err
	}

	var moved model.Task
	for _, t := range next {
		if t.ID == taskID {
			moved = t
		}
	}
	updated, err := b.api.UpdateTask(ctx, taskID, map[string]any{"isCompleted": moved.IsCompleted})
	if err != nil {
		return err
	}
	// The flip is persisted; a failed reorder rolls back to the old order
	// with the new completion state.
	b.mu.Lock()
	b.tasks = replaceTask(b.tasks, updated)
	b.mu.Unlock()
	next = replaceTask(next, updated)
	return b.Reorder(ctx, next)
}

func replaceTask(tasks []model.Task, t model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	for i := range out {
		if out[i].ID == t.ID {
			out[i] = t
		}
	}
	return out
}

func pane(all []model.Task, completed bool) []model.Task {
	var out []model.Task
	for _, t := range all {
		if t.IsCompleted == completed {
			out = append(out, t)
		}
	}
	return out
}
