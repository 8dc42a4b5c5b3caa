// Package gateway is the typed client for the remote task collection.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskdeck/internal/task"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20

	defaultCreateMessage = "failed to add task"
	defaultUpdateMessage = "failed to update task"
	defaultToggleMessage = "failed to change task completion"
	defaultDeleteMessage = "failed to delete task"
)

// Config configures a Client; BaseURL is the full collection URL.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs single-shot requests; it never retries.
type Client struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// UpdateRequest is the body of a PUT. Title is always required by the
// remote contract; Deadline is sent only when set.
type UpdateRequest struct {
	Title     string
	Deadline  task.Deadline
	Completed *bool
}

type writeBody struct {
	Title     string         `json:"title"`
	Deadline  *task.Deadline `json:"deadline,omitempty"`
	Completed *bool          `json:"completed,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{baseURL: base, client: hc, log: logger}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches every task in server order.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	status, body, err := c.do(ctx, "list", http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &FetchError{Status: status}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedResponseError{Op: "list", Preview: preview(body), Err: err}
	}
	if raw == nil {
		// JSON null decodes without error but is not a sequence.
		return nil, &MalformedResponseError{Op: "list", Preview: preview(body)}
	}
	tasks := make([]task.Task, 0, len(raw))
	for _, item := range raw {
		var t task.Task
		if err := json.Unmarshal(item, &t); err != nil {
			return nil, &MalformedResponseError{Op: "list", Preview: preview(item), Err: err}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (c *Client) Create(ctx context.Context, title string, deadline task.Deadline) (task.Task, error) {
	title, err := task.CleanTitle(title)
	if err != nil {
		return task.Task{}, &ValidationError{Field: "title", Err: err}
	}
	body := writeBody{Title: title, Deadline: deadlinePtr(deadline)}
	return c.write(ctx, "create", http.MethodPost, c.baseURL, body, defaultCreateMessage)
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (task.Task, error) {
	title, err := task.CleanTitle(req.Title)
	if err != nil {
		return task.Task{}, &ValidationError{Field: "title", Err: err}
	}
	body := writeBody{Title: title, Deadline: deadlinePtr(req.Deadline), Completed: req.Completed}
	fallback := defaultUpdateMessage
	if req.Completed != nil {
		fallback = defaultToggleMessage
	}
	return c.write(ctx, "update", http.MethodPut, c.itemURL(id), body, fallback)
}

// Toggle flips Completed on the server.
func (c *Client) Toggle(ctx context.Context, t task.Task) (task.Task, error) {
	return c.Update(ctx, t.ID, ToggleRequest(t))
}

// ToggleRequest builds the update that flips Completed. The remote contract
// requires the title on every update, so the unmodified title and raw
// deadline are resent alongside the flag.
func ToggleRequest(t task.Task) UpdateRequest {
	completed := !t.Completed
	return UpdateRequest{Title: t.Title, Deadline: t.Deadline, Completed: &completed}
}

func (c *Client) Delete(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, "delete", http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return err
	}
	if !success(status) {
		return remoteError("delete", status, body, defaultDeleteMessage)
	}
	return nil
}

func (c *Client) write(ctx context.Context, op, method, target string, payload writeBody, fallback string) (task.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return task.Task{}, fmt.Errorf("%s: encode request: %w", op, err)
	}
	status, body, err := c.do(ctx, op, method, target, data)
	if err != nil {
		return task.Task{}, err
	}
	if !success(status) {
		return task.Task{}, remoteError(op, status, body, fallback)
	}
	var t task.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return task.Task{}, &MalformedResponseError{Op: op, Preview: preview(body), Err: err}
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, op, method, target string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "method", method, "url", target, "error", err)
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.log.Debug("request done", "op", op, "method", method, "url", target,
		"status", resp.StatusCode, "elapsed", time.Since(started))
	if !success(resp.StatusCode) {
		c.log.Warn("request rejected", "op", op, "status", resp.StatusCode, "body", preview(body))
	}
	return resp.StatusCode, body, nil
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

func remoteError(op string, status int, body []byte, fallback string) *RemoteError {
	msg := fallback
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Error) != "" {
		msg = eb.Error
	}
	return &RemoteError{Op: op, Status: status, Message: msg}
}

func deadlinePtr(d task.Deadline) *task.Deadline {
	if !d.IsSet() {
		return nil
	}
	return &d
}

func success(status int) bool {
	return status >= 200 && status < 300
}
