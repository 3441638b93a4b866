// Package service holds the business rules of the task board: the
// authentication session lifecycle, profile changes and user-scoped task
// and category operations. Storage and transport are injected.
package service

import "errors"

var (
	// ErrConflict is returned when registering an email that already exists.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredToken is returned for any refresh failure.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)
