// Package router binds the handlers to their paths and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/handler"
	"github.com/iliyamo/taskboard/internal/middleware"
)

// Deps is everything RegisterRoutes mounts. The middleware fields are
// optional; nil skips that layer.
type Deps struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Categories *handler.CategoryHandler
	Tasks      *handler.TaskHandler
	Stats      *handler.StatsHandler
	Health     echo.HandlerFunc

	Tokens     middleware.AccessVerifier
	RateLimit  echo.MiddlewareFunc // in front of /api/auth
	Cache      echo.MiddlewareFunc // per-user response cache on read-heavy GETs
	Invalidate echo.MiddlewareFunc // bumps the per-user cache version on writes
}

// RegisterRoutes mounts /healthz and the whole /api tree on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	if d.Health != nil {
		e.GET("/healthz", d.Health)
	}

	// Unauthenticated: register, login, refresh, logout.
	a := e.Group("/api/auth", optional(d.RateLimit)...)
	a.POST("/register", d.Auth.Register)
	a.POST("/login", d.Auth.Login)
	a.POST("/refresh", d.Auth.Refresh)
	a.POST("/logout", d.Auth.Logout)

	// Everything else needs a valid access token.
	api := e.Group("/api", append([]echo.MiddlewareFunc{middleware.JWTAuth(d.Tokens)}, optional(d.Invalidate)...)...)
	cached := optional(d.Cache)

	api.GET("/users/me", d.Users.Me)
	api.PATCH("/users/me", d.Users.UpdateMe)
	api.PUT("/users/me/password", d.Users.ChangePassword)

	api.GET("/categories", d.Categories.List, cached...)
	api.POST("/categories", d.Categories.Create)
	api.PATCH("/categories/:id", d.Categories.Update)
	api.DELETE("/categories/:id", d.Categories.Delete)

	api.GET("/tasks", d.Tasks.List)
	api.POST("/tasks", d.Tasks.Create)
	api.PUT("/tasks/reorder", d.Tasks.Reorder)
	api.GET("/tasks/:id", d.Tasks.Get)
	api.PATCH("/tasks/:id", d.Tasks.Update)
	api.DELETE("/tasks/:id", d.Tasks.Delete)

	api.GET("/stats", d.Stats.Get, cached...)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
