package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/taskboard/internal/config"
	"github.com/iliyamo/taskboard/internal/handler"
	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/memstore"
	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/utils"
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T, rdb *redis.Client) *api {
	t.Helper()
	tokens, err := utils.NewTokenService("access-secret-0123456789", "refresh-secret-0123456789", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	log := logging.Nop()
	db := memstore.New()

	auth := service.NewAuthService(db.Users(), db.Sessions(), tokens, bcrypt.MinCost, nil, log)
	d := Deps{
		Auth:       handler.NewAuthHandler(auth, log),
		Users:      handler.NewUserHandler(service.NewUserService(db.Users()), auth, log),
		Categories: handler.NewCategoryHandler(service.NewCategoryService(db.Categories(), nil), log),
		Tasks:      handler.NewTaskHandler(service.NewTaskService(db.Tasks(), nil), log),
		Stats:      handler.NewStatsHandler(service.NewStatsService(db.Tasks()), log),
		Health:     handler.Health(nil),
		Tokens:     tokens,
	}
	if rdb != nil {
		cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
		d.Cache = middleware.NewUserCache(cfg, rdb)
		d.Invalidate = middleware.InvalidateUserCache(cfg, rdb)
	}
	e := echo.New()
	RegisterRoutes(e, d)
	return &api{t: t, e: e}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

type errorBody struct {
	Message string             `json:"message"`
	Errors  []model.FieldError `json:"errors"`
}

func (a *api) register(email string) authBody {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{"email": email, "password": "password123"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec)
}

func (a *api) createTask(token string, body echo.Map) model.Task {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/tasks", token, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Task](a.t, rec)
}

func TestHealth(t *testing.T) {
	a := newAPI(t, nil)
	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t, nil)

	reg := a.register(" Ada@Example.com ")
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, "ada", reg.User.Name)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)
	assert.NotContains(t, a.do(http.MethodGet, "/api/users/me", reg.AccessToken, nil).Body.String(), "password")

	t.Run("duplicate email", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{"email": "ada@example.com", "password": "password123"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("register validation", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{"email": "nope", "password": "short"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "Validation failed", body.Message)
		require.Len(t, body.Errors, 2)
		assert.Equal(t, "email", body.Errors[0].Path)
		assert.Equal(t, "password", body.Errors[1].Path)
	})

	t.Run("login failures are indistinguishable", func(t *testing.T) {
		wrong := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "ada@example.com", "password": "wrong-password"})
		unknown := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "bob@example.com", "password": "password123"})
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, wrong.Code, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("login then refresh rotates", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "ADA@example.com", "password": "password123"})
		require.Equal(t, http.StatusOK, rec.Code)
		login := decode[authBody](t, rec)

		rec = a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": login.RefreshToken})
		require.Equal(t, http.StatusOK, rec.Code)
		rotated := decode[service.TokenPair](t, rec)
		assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

		rec = a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": login.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid or expired refresh token"}`, rec.Body.String())

		rec = a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": rotated.RefreshToken})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("refresh requires a token", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("logout always succeeds", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/api/auth/logout", "", echo.Map{"refreshToken": "garbage"}).Code)
		assert.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/api/auth/logout", "", nil).Code)

		assert.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/api/auth/logout", "", echo.Map{"refreshToken": reg.RefreshToken}).Code)
		rec := a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": reg.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newAPI(t, nil)
	for _, path := range []string{"/api/users/me", "/api/tasks", "/api/categories", "/api/stats"} {
		rec := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
	}
	rec := a.do(http.MethodGet, "/api/tasks", "bogus", nil)
	assert.JSONEq(t, `{"message":"Invalid or expired token"}`, rec.Body.String())
}

func TestProfile(t *testing.T) {
	a := newAPI(t, nil)
	reg := a.register("ada@example.com")

	rec := a.do(http.MethodPatch, "/api/users/me", reg.AccessToken, echo.Map{"name": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada Lovelace", decode[model.User](t, rec).Name)

	rec = a.do(http.MethodPatch, "/api/users/me", reg.AccessToken, echo.Map{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("password change revokes other sessions", func(t *testing.T) {
		other := decode[authBody](t, a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "ada@example.com", "password": "password123"}))

		rec := a.do(http.MethodPut, "/api/users/me/password", reg.AccessToken, echo.Map{"currentPassword": "wrong-one", "newPassword": "new-password"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = a.do(http.MethodPut, "/api/users/me/password", reg.AccessToken, echo.Map{"currentPassword": "password123", "newPassword": "short"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = a.do(http.MethodPut, "/api/users/me/password", reg.AccessToken, echo.Map{"currentPassword": "password123", "newPassword": "new-password"})
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Message string `json:"message"`
			service.TokenPair
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Password updated successfully", body.Message)

		assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": other.RefreshToken}).Code)
		assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": body.RefreshToken}).Code)
		assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "ada@example.com", "password": "new-password"}).Code)
	})
}

func TestTasks(t *testing.T) {
	a := newAPI(t, nil)
	ada := a.register("ada@example.com").AccessToken
	bob := a.register("bob@example.com").AccessToken

	first := a.createTask(ada, echo.Map{"title": "A"})
	second := a.createTask(ada, echo.Map{"title": "B", "priority": "HIGH", "description": "notes", "dueDate": "2026-06-01T10:00:00Z"})
	assert.Equal(t, model.PriorityMedium, first.Priority)
	require.NotNil(t, second.DueDate)

	list := func(token, q string) []model.Task {
		rec := a.do(http.MethodGet, "/api/tasks"+q, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[struct {
			Tasks []model.Task `json:"tasks"`
		}](t, rec).Tasks
	}
	ids := func(ts []model.Task) []string {
		out := make([]string, len(ts))
		for i, tk := range ts {
			out[i] = tk.ID
		}
		return out
	}

	assert.Equal(t, []string{second.ID, first.ID}, ids(list(ada, "")))
	assert.Empty(t, list(bob, ""))
	assert.Equal(t, []string{second.ID}, ids(list(ada, "?priority=high")))

	t.Run("invalid query", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/api/tasks?status=done", ada, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create validation", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/tasks", ada, echo.Map{"title": "", "priority": "URGENT", "categoryId": "x", "dueDate": "tomorrow"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, decode[errorBody](t, rec).Errors, 4)
	})

	t.Run("foreign category is a validation error", func(t *testing.T) {
		cats := decode[service.CategoryList](t, a.do(http.MethodGet, "/api/categories", bob, nil))
		rec := a.do(http.MethodPost, "/api/tasks", ada, echo.Map{"title": "C", "categoryId": cats.Categories[0].ID})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "categoryId", decode[errorBody](t, rec).Errors[0].Path)
	})

	t.Run("other users see 404", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/api/tasks/"+first.ID, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"Task not found"}`, rec.Body.String())
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/tasks/"+first.ID, bob, nil).Code)
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodPatch, "/api/tasks/"+first.ID, bob, echo.Map{"title": "x"}).Code)
	})

	t.Run("patch clears nullable fields", func(t *testing.T) {
		rec := a.do(http.MethodPatch, "/api/tasks/"+second.ID, ada, echo.Map{"description": nil, "dueDate": nil, "isCompleted": true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[model.Task](t, rec)
		assert.Nil(t, got.Description)
		assert.Nil(t, got.DueDate)
		assert.True(t, got.IsCompleted)
		assert.Equal(t, "B", got.Title)
	})

	t.Run("reorder", func(t *testing.T) {
		batch := echo.Map{"tasks": []echo.Map{{"id": first.ID, "sortOrder": 0}, {"id": second.ID, "sortOrder": 1}}}
		rec := a.do(http.MethodPut, "/api/tasks/reorder", ada, batch)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Tasks reordered successfully"}`, rec.Body.String())
		assert.Equal(t, []string{first.ID, second.ID}, ids(list(ada, "?sortBy=manual")))

		rec = a.do(http.MethodPut, "/api/tasks/reorder", bob, batch)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(http.MethodPut, "/api/tasks/reorder", ada, echo.Map{"tasks": []echo.Map{{"id": "nope", "sortOrder": 0}}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/tasks/"+first.ID, ada, nil).Code)
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tasks/"+first.ID, ada, nil).Code)
	})
}

func TestCategoriesAndStats(t *testing.T) {
	a := newAPI(t, nil)
	token := a.register("ada@example.com").AccessToken

	cats := decode[service.CategoryList](t, a.do(http.MethodGet, "/api/categories", token, nil))
	require.Len(t, cats.Categories, 3)
	assert.Equal(t, "Work", cats.Categories[0].Name)
	work := cats.Categories[0].ID

	rec := a.do(http.MethodDelete, "/api/categories/"+work, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Default categories cannot be deleted"}`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/categories", token, echo.Map{"name": "Errands"})
	require.Equal(t, http.StatusCreated, rec.Code)
	errands := decode[model.Category](t, rec)
	assert.Equal(t, model.DefaultCategoryColor, errands.Color)

	for i := 0; i < 3; i++ {
		a.createTask(token, echo.Map{"title": "t", "categoryId": errands.ID, "priority": "HIGH"})
	}
	done := a.createTask(token, echo.Map{"title": "done", "categoryId": errands.ID})
	rec = a.do(http.MethodPatch, "/api/tasks/"+done.ID, token, echo.Map{"isCompleted": true})
	require.Equal(t, http.StatusOK, rec.Code)

	cats = decode[service.CategoryList](t, a.do(http.MethodGet, "/api/categories", token, nil))
	assert.Equal(t, 3, cats.AllCount)

	stats := decode[model.Stats](t, a.do(http.MethodGet, "/api/stats", token, nil))
	assert.Equal(t, model.Stats{TotalTasks: 4, CompletedTasks: 1, ActiveTasks: 3, CompletionRate: 25, HighPriorityTasks: 3, CategoryCount: 4}, stats)

	rec = a.do(http.MethodPatch, "/api/categories/"+errands.ID, token, echo.Map{"color": "bg-red-500"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Errands", decode[model.Category](t, rec).Name)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/categories/"+errands.ID, token, nil).Code)
	got := decode[model.Task](t, a.do(http.MethodGet, "/api/tasks/"+done.ID, token, nil))
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/categories/"+errands.ID, token, nil).Code)
}

func TestCachedReadsFollowWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := newAPI(t, rdb)
	token := a.register("ada@example.com").AccessToken

	rec := a.do(http.MethodGet, "/api/stats", token, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = a.do(http.MethodGet, "/api/stats", token, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 0, decode[model.Stats](t, rec).TotalTasks)

	a.createTask(token, echo.Map{"title": "A"})

	rec = a.do(http.MethodGet, "/api/stats", token, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, decode[model.Stats](t, rec).TotalTasks)

	assert.Empty(t, a.do(http.MethodGet, "/api/tasks", token, nil).Header().Get("X-Cache"))
}
