package cli

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/gateway"
	"taskdeck/internal/logging"
	"taskdeck/internal/server"
	"taskdeck/internal/task"
)

type harness struct {
	t      *testing.T
	config string
	repo   *server.Repository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	repo, err := server.OpenRepository(filepath.Join(dir, "todos.db"))
	require.NoError(t, err)
	srv := server.New(repo, logging.Discard())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.App().Listener(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		_ = repo.Close()
	})

	t.Setenv("TASKDECK_API_BASE_URL", "http://"+ln.Addr().String()+"/")
	t.Setenv("TASKDECK_ENV", "local")
	return &harness{t: t, config: filepath.Join(dir, "config.toml"), repo: repo}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) seed(title, deadline string) task.Task {
	h.t.Helper()
	var d *string
	if deadline != "" {
		d = &deadline
	}
	created, err := h.repo.Create(context.Background(), title, d)
	require.NoError(h.t, err)
	return created
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "list")
	require.NoError(t, err)
	assert.Equal(t, "No tasks.\n", out)
}

func TestAddThenList(t *testing.T) {
	h := newHarness(t)
	future := time.Now().Add(49 * time.Hour).Format(task.EditLayout)

	out, err := h.run("", "add", "Buy", "milk", "--deadline", future)
	require.NoError(t, err)
	assert.Contains(t, out, "Added [ ] Buy milk")

	out, err = h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "2d 0h")
	assert.Contains(t, out, "1 active • 0 expired • 0 done")
}

func TestAddRejectsBlankAndBadDeadline(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "add", "  ")
	var verr *gateway.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = h.run("", "add", "x", "--deadline", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid deadline")

	tasks, err := h.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestListShowsExpired(t *testing.T) {
	h := newHarness(t)
	h.seed("Old", "2001-01-01T00:00")
	h.seed("Someday", "")

	out, err := h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "expired")
	assert.Contains(t, out, "1 active • 1 expired • 0 done")
}

func TestDoneTogglesEveryID(t *testing.T) {
	h := newHarness(t)
	a := h.seed("A", "2099-01-01T10:00")
	b := h.seed("B", "")

	out, err := h.run("", "done", a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Toggled [x]"))

	got, err := h.repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "2099-01-01T10:00", got.Deadline.Raw())
}

func TestDoneUnknownID(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "done", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestEditKeepsCompletion(t *testing.T) {
	h := newHarness(t)
	a := h.seed("Draft", "2099-01-01T10:00")
	_, err := h.run("", "done", a.ID)
	require.NoError(t, err)

	out, err := h.run("", "edit", a.ID, "--title", "  Final ", "--deadline", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated [x] Final")

	got, err := h.repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.True(t, got.Completed)
	assert.False(t, got.Deadline.IsSet())
}

func TestEditBlankTitleDiscards(t *testing.T) {
	h := newHarness(t)
	a := h.seed("Keep me", "")

	out, err := h.run("", "edit", a.ID, "--title", " ")
	require.NoError(t, err)
	assert.Contains(t, out, "edit discarded")

	got, err := h.repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", got.Title)
}

func TestRemoveAsksFirst(t *testing.T) {
	h := newHarness(t)
	a := h.seed("A", "")
	b := h.seed("B", "")

	out, err := h.run("n\ny\n", "rm", a.ID, b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `Delete "A"? [y/N]`)
	assert.Contains(t, out, "Kept "+a.ID)
	assert.Contains(t, out, "Deleted "+b.ID)

	tasks, err := h.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, a.ID, tasks[0].ID)
}

func TestRemoveYes(t *testing.T) {
	h := newHarness(t)
	a := h.seed("A", "")
	b := h.seed("B", "")

	_, err := h.run("", "rm", "--yes", a.ID, b.ID)
	require.NoError(t, err)
	tasks, err := h.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeployedWithoutURLFails(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TASKDECK_API_BASE_URL", "")
	t.Setenv("TASKDECK_ENV", "production")

	_, err := h.run("", "list")
	require.ErrorIs(t, err, gateway.ErrNotConfigured)
}
