package model

import "time"

// User represents an application user record as stored in the `users`
// table. PasswordHash is never serialized; handlers may still build
// narrower response types when they need to.
//
// Fields:
//  ID           – UUID primary key.
//  Email        – unique, lower-cased email address.
//  Name         – display name (defaults to the email local part).
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken models an entry in the `refresh_tokens` table. ID equals
// the `jti` claim of the signed token; only the SHA-256 hash of the
// signed string is stored.
type RefreshToken struct {
	ID        string    // refresh_tokens.id (jti)
	UserID    string    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
