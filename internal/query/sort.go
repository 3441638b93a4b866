package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iliyamo/taskboard/internal/model"
)

// priorityWeight ranks priorities for the priority sort. Higher sorts first.
var priorityWeight = map[model.Priority]int{
	model.PriorityHigh:   3,
	model.PriorityMedium: 2,
	model.PriorityLow:    1,
}

// SortByPriority stably orders tasks by descending priority weight,
// optionally keeping incomplete tasks ahead of completed ones.
func SortByPriority(tasks []model.Task, completedLast bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if completedLast && a.IsCompleted != b.IsCompleted {
			return !a.IsCompleted
		}
		return priorityWeight[a.Priority] > priorityWeight[b.Priority]
	})
}

// SortByTitle stably orders tasks by title using English collation,
// optionally keeping incomplete tasks ahead of completed ones.
func SortByTitle(tasks []model.Task, completedLast bool) {
	col := collate.New(language.English)
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if completedLast && a.IsCompleted != b.IsCompleted {
			return !a.IsCompleted
		}
		return col.CompareString(a.Title, b.Title) < 0
	})
}

// Finish applies the in-memory passes that follow storage ordering.
func (f Filter) Finish(tasks []model.Task) {
	switch f.sortBy() {
	case SortPriority:
		SortByPriority(tasks, f.CompletedLast())
	case SortAlphabetical:
		SortByTitle(tasks, f.CompletedLast())
	}
}

// Match reports whether a task satisfies every predicate of the filter.
func (f Filter) Match(t model.Task) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		desc := ""
		if t.Description != nil {
			desc = *t.Description
		}
		if !strings.Contains(strings.ToLower(t.Title), needle) && !strings.Contains(strings.ToLower(desc), needle) {
			return false
		}
	}
	if len(f.Priorities) > 0 {
		found := false
		for _, p := range f.Priorities {
			if t.Priority == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch f.CategoryID {
	case "":
	case Uncategorized:
		if t.CategoryID != nil {
			return false
		}
	default:
		if t.CategoryID == nil || *t.CategoryID != f.CategoryID {
			return false
		}
	}
	switch f.status() {
	case StatusActive:
		return !t.IsCompleted
	case StatusCompleted:
		return t.IsCompleted
	}
	return true
}

// Apply filters and orders tasks entirely in memory, producing the same
// result the storage path produces. The input slice is not modified.
func (f Filter) Apply(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}

	completedLast := f.CompletedLast()
	switch f.sortBy() {
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		SortByPriority(out, completedLast)
		return out
	case SortAlphabetical:
		SortByTitle(out, completedLast)
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if completedLast && a.IsCompleted != b.IsCompleted {
			return !a.IsCompleted
		}
		switch f.sortBy() {
		case SortCreatedAt:
			return a.CreatedAt.After(b.CreatedAt)
		case SortDueDate:
			if a.DueDate == nil || b.DueDate == nil {
				return a.DueDate != nil && b.DueDate == nil
			}
			return a.DueDate.Before(*b.DueDate)
		default:
			return a.SortOrder < b.SortOrder
		}
	})
	return out
}
