package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/memstore"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/utils"
)

type eventLog struct {
	mu  sync.Mutex
	evs []queue.TaskEvent
}

func (l *eventLog) Publish(_ context.Context, ev queue.TaskEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evs = append(l.evs, ev)
	return nil
}

func (l *eventLog) types() []queue.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]queue.EventType, len(l.evs))
	for i, ev := range l.evs {
		out[i] = ev.Type
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db         *memstore.DB
	clock      *clock
	events     *eventLog
	auth       *AuthService
	users      *UserService
	categories *CategoryService
	tasks      *TaskService
	stats      *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := utils.NewTokenService("access-secret-0123456789", "refresh-secret-0123456789", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	clk := &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	db := memstore.New()
	events := &eventLog{}

	auth := NewAuthService(db.Users(), db.Sessions(), tokens.WithClock(clk.Now), bcrypt.MinCost, events, logging.Nop())
	auth.now = clk.Now
	users := NewUserService(db.Users())
	users.now = clk.Now
	cats := NewCategoryService(db.Categories(), events)
	cats.now = clk.Now
	tasks := NewTaskService(db.Tasks(), events)
	tasks.now = func() time.Time {
		// distinct timestamps keep createdAt ordering deterministic
		clk.Advance(time.Millisecond)
		return clk.Now()
	}

	return &fixture{
		db:         db,
		clock:      clk,
		events:     events,
		auth:       auth,
		users:      users,
		categories: cats,
		tasks:      tasks,
		stats:      NewStatsService(db.Tasks()),
	}
}

func (f *fixture) register(t *testing.T, email string) AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), email, "password123", "")
	require.NoError(t, err)
	return res
}
