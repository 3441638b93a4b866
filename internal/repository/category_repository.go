package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/taskboard/internal/database"
	"github.com/iliyamo/taskboard/internal/model"
)

// CategoryRepo provides user-scoped CRUD for categories and the active
// task counts shown next to them.
type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

// ListWithCounts returns the user's categories, oldest first, each with
// the number of its non-completed tasks. Completed tasks never count.
func (r *CategoryRepo) ListWithCounts(ctx context.Context, userID string) ([]model.CategoryWithCount, error) {
	const q = `SELECT c.id, c.user_id, c.name, c.color, c.is_default, c.created_at, COUNT(t.id)
               FROM categories c
               LEFT JOIN tasks t ON t.category_id = c.id AND t.user_id = c.user_id AND t.is_completed = FALSE
               WHERE c.user_id = ?
               GROUP BY c.id, c.user_id, c.name, c.color, c.is_default, c.created_at
               ORDER BY c.created_at ASC, c.id ASC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []model.CategoryWithCount{}
	for rows.Next() {
		var c model.CategoryWithCount
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.IsDefault, &c.CreatedAt, &c.TaskCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Create inserts a category owned by c.UserID.
func (r *CategoryRepo) Create(ctx context.Context, c model.Category) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (id, user_id, name, color, is_default, created_at) VALUES (?,?,?,?,?,?)",
		c.ID, c.UserID, c.Name, c.Color, c.IsDefault, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID returns the category when it exists and belongs to userID.
func (r *CategoryRepo) GetByID(ctx context.Context, userID, id string) (model.Category, error) {
	var c model.Category
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, name, color, is_default, created_at FROM categories WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.IsDefault, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("select category: %w", err)
	}
	return c, nil
}

// Update changes name and/or color. Nil arguments keep the stored value.
func (r *CategoryRepo) Update(ctx context.Context, userID, id string, name, color *string) (model.Category, error) {
	c, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return model.Category{}, err
	}
	if name == nil && color == nil {
		return c, nil
	}
	if name != nil {
		c.Name = *name
	}
	if color != nil {
		c.Color = *color
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET name=?, color=? WHERE id=? AND user_id=?",
		c.Name, c.Color, id, userID); err != nil {
		return model.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes a non-default category and detaches its tasks. Default
// categories yield ErrForbidden; unknown or foreign ids ErrNotFound.
func (r *CategoryRepo) Delete(ctx context.Context, userID, id string) error {
	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		var isDefault bool
		err := tx.QueryRowContext(ctx,
			"SELECT is_default FROM categories WHERE id=? AND user_id=? FOR UPDATE",
			id, userID).Scan(&isDefault)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select category: %w", err)
		}
		if isDefault {
			return ErrForbidden
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET category_id = NULL WHERE category_id=? AND user_id=?", id, userID); err != nil {
			return fmt.Errorf("detach tasks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id=? AND user_id=?", id, userID); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
