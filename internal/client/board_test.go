package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/taskboard/internal/handler"
	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/memstore"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/router"
	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/utils"
)

// newServer runs the real API over an in-memory store.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	tokens, err := utils.NewTokenService("access-secret-0123456789", "refresh-secret-0123456789", 15*time.Minute, time.Hour)
	require.NoError(t, err)
	log := logging.Nop()
	db := memstore.New()
	auth := service.NewAuthService(db.Users(), db.Sessions(), tokens, bcrypt.MinCost, nil, log)

	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Auth:       handler.NewAuthHandler(auth, log),
		Users:      handler.NewUserHandler(service.NewUserService(db.Users()), auth, log),
		Categories: handler.NewCategoryHandler(service.NewCategoryService(db.Categories(), nil), log),
		Tasks:      handler.NewTaskHandler(service.NewTaskService(db.Tasks(), nil), log),
		Stats:      handler.NewStatsHandler(service.NewStatsService(db.Tasks()), log),
		Tokens:     tokens,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func titles(ts []model.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestClientAgainstServer(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	store := &MemoryStore{}
	c := New(srv.URL, store)

	u, err := c.Register(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Name)
	sess, _ := store.Load()
	require.NotNil(t, sess.User)
	assert.Equal(t, u.ID, sess.User.ID)

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats.Categories, 3)

	for _, title := range []string{"A", "B", "C"} {
		_, err := c.CreateTask(ctx, NewTask{Title: title, CategoryID: &cats.Categories[0].ID})
		require.NoError(t, err)
	}

	b := NewBoard(c, query.Filter{})
	require.NoError(t, b.Load(ctx))
	assert.Equal(t, []string{"C", "B", "A"}, titles(b.Tasks()))

	t.Run("move within pane persists", func(t *testing.T) {
		c3 := b.Tasks()[0]
		require.NoError(t, b.Move(ctx, c3.ID, 2))
		assert.Equal(t, []string{"B", "A", "C"}, titles(b.Tasks()))

		require.NoError(t, b.Load(ctx))
		assert.Equal(t, []string{"B", "A", "C"}, titles(b.Tasks()))
	})

	t.Run("move across panes completes the task", func(t *testing.T) {
		a := b.Tasks()[1]
		require.NoError(t, b.MoveAcross(ctx, a.ID, 0))
		got, err := c.Task(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.IsCompleted)

		cats, err := c.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, cats.AllCount)
	})

	t.Run("rejected reorder rolls back", func(t *testing.T) {
		require.NoError(t, b.Load(ctx))
		before := b.Tasks()
		require.NoError(t, c.DeleteTask(ctx, before[0].ID))

		reversed := []model.Task{before[2], before[1], before[0]}
		err := b.Reorder(ctx, reversed)
		assert.Equal(t, http.StatusNotFound, StatusOf(err))
		assert.Equal(t, titles(before), titles(b.Tasks()))
	})

	t.Run("stats", func(t *testing.T) {
		st, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, st.TotalTasks)
	})

	t.Run("password change keeps this session", func(t *testing.T) {
		require.NoError(t, c.ChangePassword(ctx, "password123", "new-password"))
		_, err := c.Me(ctx)
		assert.NoError(t, err)
	})

	t.Run("logout clears the store", func(t *testing.T) {
		require.NoError(t, c.Logout(ctx))
		sess, _ := store.Load()
		assert.Equal(t, Session{}, sess)
		_, err := c.Me(ctx)
		assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	})
}
