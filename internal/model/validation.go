package model

import (
	"fmt"
	"unicode/utf8"
)

// Column limits of the schema, counted in characters.
const (
	MaxTitleLen = 500
	MaxNameLen  = 255
	MaxEmailLen = 255
	MaxColorLen = 64
)

// TooLong reports whether s has more than limit characters.
func TooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// TooLongMessage is the field message for input longer than limit.
func TooLongMessage(limit int) string {
	return fmt.Sprintf("String must contain at most %d character(s)", limit)
}

// FieldError describes one rejected input field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every rejected field of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Fields[0].Path + " " + e.Fields[0].Message
}

// Invalid builds a ValidationError for a single field.
func Invalid(path, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Path: path, Message: message}}}
}
