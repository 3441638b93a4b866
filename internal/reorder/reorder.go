// Package reorder computes manual task positions: index-based batches for
// the reorder endpoint and splices for drag moves between panes.
package reorder

import (
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/taskboard/internal/model"
)

// ErrUnknownTask is returned when the moved task is not in the list.
var ErrUnknownTask = errors.New("task not in list")

// Position is one entry of a reorder batch.
type Position struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sortOrder"`
}

// Positions assigns each task its index in the given order.
func Positions(tasks []model.Task) []Position {
	out := make([]Position, len(tasks))
	for i, t := range tasks {
		out[i] = Position{ID: t.ID, SortOrder: i}
	}
	return out
}

// Validate checks a batch: ids must be UUIDs and appear at most once.
func Validate(batch []Position) []model.FieldError {
	var errs []model.FieldError
	seen := make(map[string]bool, len(batch))
	for _, p := range batch {
		if _, err := uuid.Parse(p.ID); err != nil {
			errs = append(errs, model.FieldError{Path: "tasks.id", Message: "must be a uuid"})
			continue
		}
		if seen[p.ID] {
			errs = append(errs, model.FieldError{Path: "tasks.id", Message: "duplicate id " + p.ID})
			continue
		}
		seen[p.ID] = true
	}
	return errs
}

// Splice moves taskID inside the global order so that it lands at index
// of the destination pane. dest is the visible destination list, which may
// be a filtered subset of all; its neighbours decide the global slot.
// An empty destination appends the task to the end of all.
func Splice(all, dest []model.Task, taskID string, index int) ([]model.Task, error) {
	at := indexOf(all, taskID)
	if at < 0 {
		return nil, ErrUnknownTask
	}
	moved := all[at]

	rest := make([]model.Task, 0, len(all))
	rest = append(rest, all[:at]...)
	rest = append(rest, all[at+1:]...)

	pane := make([]model.Task, 0, len(dest))
	for _, t := range dest {
		if t.ID != taskID {
			pane = append(pane, t)
		}
	}

	slot := len(rest)
	switch {
	case len(pane) == 0:
	case index < 0:
		slot = indexOf(rest, pane[0].ID)
	case index < len(pane):
		slot = indexOf(rest, pane[index].ID)
	default:
		if i := indexOf(rest, pane[len(pane)-1].ID); i >= 0 {
			slot = i + 1
		}
	}
	if slot < 0 {
		// neighbour not part of the global list; fall back to the end
		slot = len(rest)
	}

	out := make([]model.Task, 0, len(all))
	out = append(out, rest[:slot]...)
	out = append(out, moved)
	out = append(out, rest[slot:]...)
	return out, nil
}

// MoveAcross handles a drag between the active and completed panes: the
// task's completion flag flips and it is spliced into the global order
// next to its new neighbours.
func MoveAcross(all, dest []model.Task, taskID string, index int) ([]model.Task, error) {
	out, err := Splice(all, dest, taskID, index)
	if err != nil {
		return nil, err
	}
	i := indexOf(out, taskID)
	out[i].IsCompleted = !out[i].IsCompleted
	return out, nil
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
