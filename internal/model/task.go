package model

import (
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority accepts any letter case and reports whether s names a
// known priority.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

// Task mirrors a row of the `tasks` table with its category attached for
// display. CategoryID and Category are nil for uncategorized tasks.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	CategoryID  *string    `json:"categoryId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
	SortOrder   int        `json:"sortOrder"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Category    *Category  `json:"category"`
}

// TaskPatch carries a partial task update. A nil field is left untouched.
// For the nullable columns the outer pointer says "present" and the
// inner value may be nil to clear the column.
type TaskPatch struct {
	Title       *string
	Description **string
	Priority    *Priority
	CategoryID  **string
	DueDate     **time.Time
	IsCompleted *bool
	SortOrder   *int
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.CategoryID == nil && p.DueDate == nil && p.IsCompleted == nil && p.SortOrder == nil
}

// Stats aggregates a user's task counters.
type Stats struct {
	TotalTasks        int     `json:"totalTasks"`
	CompletedTasks    int     `json:"completedTasks"`
	ActiveTasks       int     `json:"activeTasks"`
	CompletionRate    float64 `json:"completionRate"`
	HighPriorityTasks int     `json:"highPriorityTasks"`
	CategoryCount     int     `json:"categoryCount"`
}
