// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish failure scenarios without
// looking at driver errors.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist or is not owned by
// the caller. Both cases share one value so callers cannot probe for
// other users' ids. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller owns the resource but the
// operation is not allowed on it, e.g. deleting a default category.
// Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")
