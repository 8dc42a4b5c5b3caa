package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/config"
	"taskdeck/internal/gateway"
	"taskdeck/internal/logging"
	"taskdeck/internal/store"
	"taskdeck/internal/task"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := OpenRepository(filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return New(repo, logging.Discard())
}

func call(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeTask(t *testing.T, data []byte) task.Task {
	t.Helper()
	var tk task.Task
	require.NoError(t, json.Unmarshal(data, &tk))
	return tk
}

func TestListEmptyIsArray(t *testing.T) {
	s := newTestServer(t)
	status, body := call(t, s, "GET", "/todos", "")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestCreateAndListNewestFirst(t *testing.T) {
	s := newTestServer(t)
	status, body := call(t, s, "POST", "/todos", `{"title":"  first "}`)
	require.Equal(t, 201, status)
	first := decodeTask(t, body)
	assert.Equal(t, "first", first.Title)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Completed)

	status, _ = call(t, s, "POST", "/todos", `{"title":"second","deadline":"2099-01-01T10:00"}`)
	require.Equal(t, 201, status)

	_, body = call(t, s, "GET", "/todos", "")
	var list []task.Task
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "2099-01-01T10:00", list[0].Deadline.Raw())
	assert.Equal(t, first.ID, list[1].ID)
}

func TestCreateRequiresTitle(t *testing.T) {
	s := newTestServer(t)
	status, body := call(t, s, "POST", "/todos", `{"title":"   "}`)
	assert.Equal(t, 400, status)
	assert.JSONEq(t, `{"error":"title is required"}`, string(body))
}

func TestUpdateKeepsCompletedWhenOmitted(t *testing.T) {
	s := newTestServer(t)
	_, body := call(t, s, "POST", "/todos", `{"title":"a"}`)
	created := decodeTask(t, body)

	status, body := call(t, s, "PUT", "/todos/"+created.ID, `{"title":"a","completed":true}`)
	require.Equal(t, 200, status)
	assert.True(t, decodeTask(t, body).Completed)

	status, body = call(t, s, "PUT", "/todos/"+created.ID, `{"title":"renamed","deadline":"2099-02-02T09:30"}`)
	require.Equal(t, 200, status)
	got := decodeTask(t, body)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, "2099-02-02T09:30", got.Deadline.Raw())
}

func TestUpdateUnknown(t *testing.T) {
	s := newTestServer(t)
	status, body := call(t, s, "PUT", "/todos/nope", `{"title":"a"}`)
	assert.Equal(t, 404, status)
	assert.JSONEq(t, `{"error":"todo not found"}`, string(body))
}

func TestDelete(t *testing.T) {
	s := newTestServer(t)
	_, body := call(t, s, "POST", "/todos", `{"title":"a"}`)
	created := decodeTask(t, body)

	status, _ := call(t, s, "DELETE", "/todos/"+created.ID, "")
	assert.Equal(t, 200, status)
	status, body = call(t, s, "DELETE", "/todos/"+created.ID, "")
	assert.Equal(t, 404, status)
	assert.Contains(t, string(body), "todo not found")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := call(t, s, "GET", "/health", "")
	assert.Equal(t, 200, status)
	assert.Contains(t, string(body), "healthy")
}

func TestRequestsAreLogged(t *testing.T) {
	repo, err := OpenRepository(filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	var buf bytes.Buffer
	s := New(repo, logging.New(&buf, "info"))
	status, _ := call(t, s, "GET", "/todos", "")
	require.Equal(t, 200, status)

	assert.Contains(t, buf.String(), "200")
	assert.Contains(t, buf.String(), "GET /todos")
}

// TestClientAgainstServer drives the store through the real gateway and
// this server over a socket.
func TestClientAgainstServer(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.App().Listener(ln) }()
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	gw, err := gateway.New(gateway.Config{BaseURL: config.NormalizeEndpoint("http://" + ln.Addr().String())})
	require.NoError(t, err)
	st := store.New(gw)
	ctx := context.Background()

	require.NoError(t, st.Refresh(ctx))
	assert.Empty(t, st.Tasks())

	created, err := st.Add(ctx, "Buy milk", task.ParseDeadline("2099-01-01T10:00"))
	require.NoError(t, err)
	require.NoError(t, st.Refresh(ctx))
	require.Len(t, st.Tasks(), 1)
	assert.Equal(t, "2099-01-01 10:00", st.Tasks()[0].Deadline.Display())

	toggled, err := st.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Equal(t, "2099-01-01T10:00", toggled.Deadline.Raw())

	_, err = st.Rename(ctx, created.ID, "Buy oat milk", toggled.Deadline)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", st.Tasks()[0].Title)
	assert.True(t, st.Tasks()[0].Completed)

	require.NoError(t, st.Remove(ctx, created.ID, store.ConfirmFunc(func(task.Task) bool { return true })))
	assert.Empty(t, st.Tasks())

	resp, err := http.Get("http://" + ln.Addr().String() + "/todos/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
