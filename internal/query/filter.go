// Package query turns a task filter into storage predicates and ordering,
// and carries the in-memory passes the storage layer cannot express.
package query

import (
	"net/url"
	"strings"

	"github.com/iliyamo/taskboard/internal/model"
)

// Status narrows tasks by completion.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// SortBy selects the ordering dimension.
type SortBy string

const (
	SortManual       SortBy = "manual"
	SortCreatedAt    SortBy = "createdAt"
	SortDueDate      SortBy = "dueDate"
	SortPriority     SortBy = "priority"
	SortAlphabetical SortBy = "alphabetical"
)

// Uncategorized is the categoryId value that selects tasks without a category.
const Uncategorized = "null"

// Filter is the per-request task query. Zero values mean "no constraint",
// except Status and SortBy which default to all and manual.
type Filter struct {
	Search     string
	Priorities []model.Priority
	CategoryID string // "" = all categories, Uncategorized, or a category id
	Status     Status
	SortBy     SortBy
}

// Parse reads a filter from query parameters: search, priority (csv),
// categoryId, status and sortBy.
func Parse(v url.Values) (Filter, []model.FieldError) {
	var errs []model.FieldError
	f := Filter{
		Search:     strings.TrimSpace(v.Get("search")),
		CategoryID: strings.TrimSpace(v.Get("categoryId")),
		Status:     StatusAll,
		SortBy:     SortManual,
	}

	if raw := strings.TrimSpace(v.Get("priority")); raw != "" {
		seen := map[model.Priority]bool{}
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			p, ok := model.ParsePriority(part)
			if !ok {
				errs = append(errs, model.FieldError{Path: "priority", Message: "must be HIGH, MEDIUM or LOW"})
				continue
			}
			if !seen[p] {
				seen[p] = true
				f.Priorities = append(f.Priorities, p)
			}
		}
	}

	if raw := v.Get("status"); raw != "" {
		switch s := Status(raw); s {
		case StatusAll, StatusActive, StatusCompleted:
			f.Status = s
		default:
			errs = append(errs, model.FieldError{Path: "status", Message: "must be all, active or completed"})
		}
	}

	if raw := v.Get("sortBy"); raw != "" {
		switch s := SortBy(raw); s {
		case SortManual, SortCreatedAt, SortDueDate, SortPriority, SortAlphabetical:
			f.SortBy = s
		default:
			errs = append(errs, model.FieldError{Path: "sortBy", Message: "must be manual, createdAt, dueDate, priority or alphabetical"})
		}
	}
	return f, errs
}

// Values is the inverse of Parse: it encodes f as query parameters,
// omitting defaults.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if len(f.Priorities) > 0 {
		ps := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			ps[i] = string(p)
		}
		v.Set("priority", strings.Join(ps, ","))
	}
	if f.CategoryID != "" {
		v.Set("categoryId", f.CategoryID)
	}
	if s := f.status(); s != StatusAll {
		v.Set("status", string(s))
	}
	if s := f.sortBy(); s != SortManual {
		v.Set("sortBy", string(s))
	}
	return v
}

// CompletedLast reports whether completed tasks sink below incomplete
// ones ahead of every other criterion. Manual mode keeps the user's
// placement even for completed tasks.
func (f Filter) CompletedLast() bool {
	return f.status() == StatusAll && f.sortBy() != SortManual
}

func (f Filter) status() Status {
	if f.Status == "" {
		return StatusAll
	}
	return f.Status
}

func (f Filter) sortBy() SortBy {
	if f.SortBy == "" {
		return SortManual
	}
	return f.SortBy
}

// Where returns the AND-combined predicate over the tasks table aliased
// as "t", scoped to userID, together with its positional arguments.
func (f Filter) Where(userID string) (string, []any) {
	where := []string{"t.user_id = ?"}
	args := []any{userID}

	if f.Search != "" {
		like := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		where = append(where, "(LOWER(t.title) LIKE ? OR LOWER(COALESCE(t.description, '')) LIKE ?)")
		args = append(args, like, like)
	}
	if len(f.Priorities) > 0 {
		marks := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			marks[i] = "?"
			args = append(args, string(p))
		}
		where = append(where, "t.priority IN ("+strings.Join(marks, ",")+")")
	}
	switch f.CategoryID {
	case "":
	case Uncategorized:
		where = append(where, "t.category_id IS NULL")
	default:
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	switch f.status() {
	case StatusActive:
		where = append(where, "t.is_completed = ?")
		args = append(args, false)
	case StatusCompleted:
		where = append(where, "t.is_completed = ?")
		args = append(args, true)
	}
	return strings.Join(where, " AND "), args
}

// OrderBy returns the storage-level ORDER BY list (without the keyword).
// Priority ordering is finished in memory by SortByPriority.
func (f Filter) OrderBy() string {
	var parts []string
	if f.CompletedLast() {
		parts = append(parts, "t.is_completed ASC")
	}
	switch f.sortBy() {
	case SortCreatedAt:
		parts = append(parts, "t.created_at DESC")
	case SortDueDate:
		// MySQL sorts NULL first on ASC; push them last explicitly.
		parts = append(parts, "t.due_date IS NULL ASC", "t.due_date ASC")
	case SortPriority:
		parts = append(parts, "t.created_at DESC")
	case SortAlphabetical:
		parts = append(parts, "t.title ASC")
	default:
		parts = append(parts, "t.sort_order ASC")
	}
	parts = append(parts, "t.id ASC")
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
