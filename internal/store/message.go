package store

import (
	"context"
	"errors"

	"taskdeck/internal/gateway"
	"taskdeck/internal/task"
)

// Message converts an operation error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		transport *gateway.TransportError
		fetch     *gateway.FetchError
		remote    *gateway.RemoteError
		malformed *gateway.MalformedResponseError
	)
	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		return "Task service URL is not configured. Set api_base_url in the config file or TASKDECK_API_BASE_URL."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The task service did not answer in time."
	case errors.As(err, &transport):
		return "Cannot connect to the task service. Check that the server is running."
	case errors.As(err, &fetch):
		return fetch.Error()
	case errors.As(err, &remote):
		return remote.Message
	case errors.As(err, &malformed):
		return malformed.Error()
	case errors.Is(err, task.ErrEmptyTitle):
		return "Title cannot be empty."
	case errors.Is(err, ErrNotFound):
		return "Task not found."
	case errors.Is(err, ErrCancelled):
		return "Delete cancelled."
	default:
		return err.Error()
	}
}
