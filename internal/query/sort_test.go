package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/taskboard/internal/model"
)

func strp(s string) *string { return &s }

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestApply_PriorityTieBreakCompletedLast(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "low", Priority: model.PriorityLow, CreatedAt: base},
		{ID: "high-a", Priority: model.PriorityHigh, CreatedAt: base.Add(time.Minute)},
		{ID: "medium", Priority: model.PriorityMedium, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "high-b", Priority: model.PriorityHigh, CreatedAt: base.Add(3 * time.Minute)},
		{ID: "done-high", Priority: model.PriorityHigh, IsCompleted: true, CreatedAt: base.Add(4 * time.Minute)},
		{ID: "done-low", Priority: model.PriorityLow, IsCompleted: true, CreatedAt: base.Add(5 * time.Minute)},
	}

	got := ids(Filter{Status: StatusAll, SortBy: SortPriority}.Apply(tasks))

	assert.ElementsMatch(t, []string{"high-a", "high-b"}, got[:2])
	assert.Equal(t, "medium", got[2])
	assert.Equal(t, "low", got[3])
	assert.ElementsMatch(t, []string{"done-high", "done-low"}, got[4:])
}

func TestSortByPriority_WithoutCompletedLast(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Priority: model.PriorityLow},
		{ID: "b", Priority: model.PriorityHigh, IsCompleted: true},
		{ID: "c", Priority: model.PriorityMedium},
	}
	SortByPriority(tasks, false)
	assert.Equal(t, []string{"b", "c", "a"}, ids(tasks))
}

func TestApply_ManualKeepsCompletedInPlace(t *testing.T) {
	tasks := []model.Task{
		{ID: "b", SortOrder: 1},
		{ID: "a", SortOrder: 0, IsCompleted: true},
		{ID: "c", SortOrder: 2},
	}
	got := Filter{Status: StatusAll, SortBy: SortManual}.Apply(tasks)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestApply_DueDateNullsLast(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "none"},
		{ID: "march", DueDate: &d1},
		{ID: "feb", DueDate: &d2},
		{ID: "done-feb", DueDate: &d2, IsCompleted: true},
	}
	got := Filter{Status: StatusAll, SortBy: SortDueDate}.Apply(tasks)
	assert.Equal(t, []string{"feb", "march", "none", "done-feb"}, ids(got))
}

func TestApply_CreatedAtNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
	}
	got := Filter{Status: StatusActive, SortBy: SortCreatedAt}.Apply(tasks)
	assert.Equal(t, []string{"new", "old"}, ids(got))
}

func TestSortByTitle_IgnoresCase(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "banana"},
		{ID: "2", Title: "Apple"},
		{ID: "3", Title: "cherry"},
		{ID: "4", Title: "apricot", IsCompleted: true},
	}
	SortByTitle(tasks, true)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(tasks))
}

func TestMatch(t *testing.T) {
	cat := "c1"
	task := model.Task{
		Title:       "Write Report",
		Description: strp("quarterly numbers"),
		Priority:    model.PriorityHigh,
		CategoryID:  &cat,
	}

	assert.True(t, Filter{Search: "REPORT"}.Match(task))
	assert.True(t, Filter{Search: "quarter"}.Match(task))
	assert.False(t, Filter{Search: "invoice"}.Match(task))
	assert.True(t, Filter{Priorities: []model.Priority{model.PriorityLow, model.PriorityHigh}}.Match(task))
	assert.False(t, Filter{Priorities: []model.Priority{model.PriorityLow}}.Match(task))
	assert.True(t, Filter{CategoryID: "c1"}.Match(task))
	assert.False(t, Filter{CategoryID: Uncategorized}.Match(task))
	assert.False(t, Filter{Status: StatusCompleted}.Match(task))
	assert.True(t, Filter{Status: StatusActive}.Match(task))
}
