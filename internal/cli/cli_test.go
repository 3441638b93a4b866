package cli

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
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
	"github.com/iliyamo/taskboard/internal/router"
	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/utils"
)

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

type runner struct {
	t       *testing.T
	server  string
	session string
}

func (r runner) run(stdin string, args ...string) (string, error) {
	r.t.Helper()
	resetFlags()
	var buf bytes.Buffer
	rootCmd.SetArgs(append([]string{"--server", r.server, "--session", r.session}, args...))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags clears values left behind by an earlier Execute.
func resetFlags() {
	authEmail, authName = "", ""
	listSearch, listPriority, listCategory, listStatus, listSort = "", "", "", "", ""
	addDesc, addPriority, addCategory, addDue = "", "", "", ""
	doneUndo, moveAcross = false, false
	categoryColor = ""
}

func TestTaskctl(t *testing.T) {
	r := runner{t: t, server: newServer(t).URL, session: filepath.Join(t.TempDir(), "session.yaml")}

	outp, err := r.run("password123\npassword123\n", "register", "--email", "ada@example.com")
	require.NoError(t, err, outp)
	assert.Contains(t, outp, "Registered and signed in as ada (ada@example.com)")

	outp, err = r.run("", "add", "write", "report", "--priority", "high", "--category", "work", "--due", "2026-06-01")
	require.NoError(t, err, outp)
	assert.Contains(t, outp, "write report")

	_, err = r.run("", "add", "buy milk")
	require.NoError(t, err)

	outp, err = r.run("", "tasks")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(outp), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "buy milk")
	assert.Contains(t, lines[2], "Work")
	assert.Contains(t, lines[2], "2026-06-01")

	id := strings.Fields(lines[2])[0]
	outp, err = r.run("", "done", id)
	require.NoError(t, err)
	assert.Contains(t, outp, "completed write report")

	outp, err = r.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, outp, "Completed:     1 (50%)")

	outp, err = r.run("", "categories")
	require.NoError(t, err)
	assert.Contains(t, outp, "Work")

	_, err = r.run("", "categories", "rm", "work")
	assert.Error(t, err)

	_, err = r.run("", "tasks", "--status", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")

	_, err = r.run("", "logout")
	require.NoError(t, err)
	_, err = r.run("", "whoami")
	assert.Error(t, err)

	outp, err = r.run("password123\n", "login", "--email", "ada@example.com")
	require.NoError(t, err, outp)
	assert.Contains(t, outp, "Signed in as ada")
}

func TestMatchID(t *testing.T) {
	tasks := []model.Task{{ID: "abc-1"}, {ID: "abd-2"}, {ID: "xyz-3"}}

	id, err := matchID(tasks, "x")
	require.NoError(t, err)
	assert.Equal(t, "xyz-3", id)

	_, err = matchID(tasks, "ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = matchID(tasks, "q")
	assert.Error(t, err)

	id, err = matchID(tasks, "abd-2")
	require.NoError(t, err)
	assert.Equal(t, "abd-2", id)
}

func TestParseDue(t *testing.T) {
	got, err := parseDue("2026-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01T00:00:00Z", got)

	got, err = parseDue("2026-06-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01T08:00:00Z", got)

	_, err = parseDue("soon")
	assert.Error(t, err)
}
