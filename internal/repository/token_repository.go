package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/taskboard/internal/database"
	"github.com/iliyamo/taskboard/internal/model"
)

// TokenRepo persists refresh tokens keyed by the SHA-256 hash of the
// signed token string.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	return insertRefresh(ctx, r.DB, t)
}

func insertRefresh(ctx context.Context, db database.DBTX, t model.RefreshToken) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)",
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// Consume deletes the live token matching hash and userID and reports
// whether this call removed it. The check and the delete are one
// statement, so of two concurrent callers exactly one gets true.
func (r *TokenRepo) Consume(ctx context.Context, tokenHash, userID string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=? AND user_id=? AND expires_at > ?",
		tokenHash, userID, now)
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	return n == 1, nil
}

// DeleteByHash removes the token row with the given hash, expired or not.
func (r *TokenRepo) DeleteByHash(ctx context.Context, tokenHash string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	return res.RowsAffected()
}

// PurgeExpired removes tokens that expired before now.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
