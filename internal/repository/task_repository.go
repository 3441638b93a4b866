package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/taskboard/internal/database"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/reorder"
)

// TaskRepo provides user-scoped task storage. Every statement carries the
// owner id so a foreign id behaves exactly like a missing one.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskSelect = `SELECT t.id, t.user_id, t.category_id, t.title, t.description, t.priority,
                      t.due_date, t.is_completed, t.sort_order, t.created_at, t.updated_at,
                      c.id, c.name, c.color, c.is_default, c.created_at
               FROM tasks t
               LEFT JOIN categories c ON c.id = t.category_id`

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(s rowScanner) (model.Task, error) {
	var (
		t                     model.Task
		categoryID, desc      sql.NullString
		dueDate               sql.NullTime
		catID, catName, color sql.NullString
		catDefault            sql.NullBool
		catCreated            sql.NullTime
	)
	err := s.Scan(&t.ID, &t.UserID, &categoryID, &t.Title, &desc, &t.Priority,
		&dueDate, &t.IsCompleted, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
		&catID, &catName, &color, &catDefault, &catCreated)
	if err != nil {
		return model.Task{}, err
	}
	if categoryID.Valid {
		id := categoryID.String
		t.CategoryID = &id
	}
	if desc.Valid {
		d := desc.String
		t.Description = &d
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if catID.Valid {
		t.Category = &model.Category{
			ID:        catID.String,
			UserID:    t.UserID,
			Name:      catName.String,
			Color:     color.String,
			IsDefault: catDefault.Bool,
			CreatedAt: catCreated.Time,
		}
	}
	return t, nil
}

// List returns the user's tasks matching f in f's order. Storage handles
// filtering and the orderings SQL can express; f.Finish runs the
// remaining in-memory pass.
func (r *TaskRepo) List(ctx context.Context, userID string, f query.Filter) ([]model.Task, error) {
	where, args := f.Where(userID)
	q := taskSelect + " WHERE " + where + " ORDER BY " + f.OrderBy()

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	f.Finish(out)
	return out, nil
}

// GetByID returns one task owned by userID.
func (r *TaskRepo) GetByID(ctx context.Context, userID, id string) (model.Task, error) {
	return getTask(ctx, r.DB, userID, id)
}

func getTask(ctx context.Context, db database.DBTX, userID, id string) (model.Task, error) {
	t, err := scanTask(db.QueryRowContext(ctx, taskSelect+" WHERE t.id = ? AND t.user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

// Create shifts every existing task of the owner down by one and inserts
// t at position 0, in one transaction. This costs one UPDATE over all of
// the user's tasks per insert.
func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	var created model.Task
	err := database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET sort_order = sort_order + 1 WHERE user_id = ?", t.UserID); err != nil {
			return fmt.Errorf("shift tasks: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, user_id, category_id, title, description, priority, due_date,
                                is_completed, sort_order, created_at, updated_at)
             VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			t.ID, t.UserID, t.CategoryID, t.Title, t.Description, string(t.Priority), t.DueDate,
			t.IsCompleted, 0, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		created, err = getTask(ctx, tx, t.UserID, t.ID)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return created, nil
}

// Update applies a partial update and returns the stored task.
func (r *TaskRepo) Update(ctx context.Context, userID, id string, p model.TaskPatch, now time.Time) (model.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*p.Priority))
	}
	if p.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *p.CategoryID)
	}
	if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *p.DueDate)
	}
	if p.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, *p.IsCompleted)
	}
	if p.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *p.SortOrder)
	}
	args = append(args, id, userID)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Task{}, ErrNotFound
	}
	return r.GetByID(ctx, userID, id)
}

// Delete removes one task owned by userID.
func (r *TaskRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder writes every position of the batch in one transaction. A task
// id the user does not own aborts the whole batch with ErrNotFound.
func (r *TaskRepo) Reorder(ctx context.Context, userID string, batch []reorder.Position) error {
	if len(batch) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		for _, p := range batch {
			res, err := tx.ExecContext(ctx,
				"UPDATE tasks SET sort_order = ? WHERE id = ? AND user_id = ?", p.SortOrder, p.ID, userID)
			if err != nil {
				return fmt.Errorf("reorder task %s: %w", p.ID, err)
			}
			// matched rows (clientFoundRows), so a position that did not change still counts
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

// Stats computes the user's task counters in a single query.
func (r *TaskRepo) Stats(ctx context.Context, userID string) (model.Stats, error) {
	const q = `SELECT COUNT(*),
                      COALESCE(SUM(is_completed), 0),
                      COALESCE(SUM(priority = 'HIGH'), 0),
                      (SELECT COUNT(*) FROM categories WHERE user_id = ?)
               FROM tasks WHERE user_id = ?`
	var s model.Stats
	if err := r.DB.QueryRowContext(ctx, q, userID, userID).Scan(
		&s.TotalTasks, &s.CompletedTasks, &s.HighPriorityTasks, &s.CategoryCount); err != nil {
		return model.Stats{}, fmt.Errorf("task stats: %w", err)
	}
	s.ActiveTasks = s.TotalTasks - s.CompletedTasks
	if s.TotalTasks > 0 {
		s.CompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}
	return s, nil
}

// CategoryOwned reports whether categoryID exists and belongs to userID.
func (r *TaskRepo) CategoryOwned(ctx context.Context, userID, categoryID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM categories WHERE id = ? AND user_id = ? LIMIT 1", categoryID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return true, nil
}
