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
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// CreateWithCategories inserts the user and its seeded categories in one
// transaction. Either all rows are written or none.
func (r *UserRepo) CreateWithCategories(ctx context.Context, u *model.User, cats []model.Category) error {
	u.Email = NormalizeEmail(u.Email)
	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (id, email, name, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)",
			u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			if database.IsDuplicateKey(err) {
				return ErrEmailExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if len(cats) == 0 {
			return nil
		}
		query := "INSERT INTO categories (id, user_id, name, color, is_default, created_at) VALUES "
		args := make([]any, 0, len(cats)*6)
		for i, c := range cats {
			if i > 0 {
				query += ","
			}
			query += "(?,?,?,?,?,?)"
			args = append(args, c.ID, u.ID, c.Name, c.Color, c.IsDefault, c.CreatedAt)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		return nil
	})
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepo) getOne(ctx context.Context, column, value string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,name,password_hash,created_at,updated_at FROM users WHERE "+column+"=? LIMIT 1",
		value).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// UpdateName sets the display name and returns the updated user.
func (r *UserRepo) UpdateName(ctx context.Context, id, name string, now time.Time) (model.User, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET name=?, updated_at=? WHERE id=?", name, now, id)
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ReplacePassword stores a new password hash, revokes every refresh token
// of the user and stores keep as the only live session, atomically.
func (r *UserRepo) ReplacePassword(ctx context.Context, id, hash string, now time.Time, keep model.RefreshToken) error {
	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, "UPDATE users SET password_hash=?, updated_at=? WHERE id=?", hash, now, id)
		if err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", id); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return insertRefresh(ctx, tx, keep)
	})
}
