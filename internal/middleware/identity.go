package middleware

import "github.com/labstack/echo/v4"

// Context keys populated by JWTAuth.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// UserID returns the authenticated user id, or "" outside JWTAuth.
func UserID(c echo.Context) string {
	s, _ := c.Get(ContextUserID).(string)
	return s
}

// Email returns the authenticated user's email claim.
func Email(c echo.Context) string {
	s, _ := c.Get(ContextEmail).(string)
	return s
}
