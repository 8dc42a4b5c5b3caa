package gateway

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means no base endpoint is available; every operation
// fails with it until the configuration is fixed.
var ErrNotConfigured = errors.New("task service URL is not configured")

// TransportError wraps a failure to reach the remote store at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: cannot reach task service: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FetchError is a non-success status from list.
type FetchError struct {
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load tasks (%d)", e.Status)
}

// RemoteError is a non-success status from a write, carrying the server's
// message or a default one.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// MalformedResponseError is a success status whose body has the wrong shape.
type MalformedResponseError struct {
	Op      string
	Preview string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("unexpected response format from task service (received: %s)", e.Preview)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ValidationError is a client-side guard that stopped a request before it
// was sent.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

const previewLimit = 100

func preview(body []byte) string {
	r := []rune(string(body))
	if len(r) > previewLimit {
		r = r[:previewLimit]
	}
	return string(r)
}
