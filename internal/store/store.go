// Package store holds the local copy of the remote task collection and
// applies gateway results to it.
//
// The collection only ever changes in response to a completed gateway call:
// there are no optimistic updates. Every response applies exactly one
// transition under the store lock, in whatever order responses arrive.
package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"taskdeck/internal/gateway"
	"taskdeck/internal/task"
)

var (
	// ErrNotFound is returned when an operation names a task that is not in
	// the local collection.
	ErrNotFound = errors.New("task not found")
	// ErrCancelled is returned by Remove when the confirmation gate says no.
	ErrCancelled = errors.New("delete cancelled")
)

// Gateway is the remote side of the store.
type Gateway interface {
	List(ctx context.Context) ([]task.Task, error)
	Create(ctx context.Context, title string, deadline task.Deadline) (task.Task, error)
	Update(ctx context.Context, id string, req gateway.UpdateRequest) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

// Confirmer is the blocking yes/no gate in front of Remove.
type Confirmer interface {
	Confirm(t task.Task) bool
}

type ConfirmFunc func(task.Task) bool

func (f ConfirmFunc) Confirm(t task.Task) bool { return f(t) }

// Snapshot is what the rendering layer sees: never raw errors, only the
// latest message.
type Snapshot struct {
	Tasks   []task.Task
	Message string
	Pending int
}

func (s Snapshot) Loading() bool { return s.Pending > 0 }

type Store struct {
	gw  Gateway
	log *slog.Logger

	mu        sync.Mutex
	tasks     []task.Task
	message   string
	pending   int
	observers []func(Snapshot)
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithTasks seeds the collection, mainly for tests.
func WithTasks(tasks []task.Task) Option {
	return func(s *Store) { s.tasks = task.Clone(tasks) }
}

func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:    gw,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tasks: []task.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state transition.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Tasks returns a copy of the collection.
func (s *Store) Tasks() []task.Task {
	return s.Snapshot().Tasks
}

// Find returns the task with the given id from the local collection.
func (s *Store) Find(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := task.IndexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return task.Task{}, false
}

// Refresh replaces the collection with the remote one. On any failure the
// collection is emptied rather than kept stale.
func (s *Store) Refresh(ctx context.Context) error {
	s.begin()
	tasks, err := s.gw.List(ctx)
	s.finish(func() {
		if err != nil {
			s.tasks = []task.Task{}
			s.fail("refresh", err)
			return
		}
		s.tasks = task.Clone(tasks)
	})
	return err
}

// Add creates a task and prepends it. A blank title is rejected before any
// request and leaves the state untouched.
func (s *Store) Add(ctx context.Context, title string, deadline task.Deadline) (task.Task, error) {
	if _, err := task.CleanTitle(title); err != nil {
		return task.Task{}, &gateway.ValidationError{Field: "title", Err: err}
	}
	s.begin()
	created, err := s.gw.Create(ctx, title, deadline)
	s.finish(func() {
		if err != nil {
			s.fail("add", err)
			return
		}
		s.tasks = append([]task.Task{created}, s.tasks...)
	})
	return created, err
}

// Rename updates title and deadline, keeping the completion flag as is.
func (s *Store) Rename(ctx context.Context, id, title string, deadline task.Deadline) (task.Task, error) {
	if _, err := task.CleanTitle(title); err != nil {
		return task.Task{}, &gateway.ValidationError{Field: "title", Err: err}
	}
	s.begin()
	updated, err := s.gw.Update(ctx, id, gateway.UpdateRequest{Title: title, Deadline: deadline})
	s.applyUpdate("rename", id, updated, err)
	return updated, err
}

// Toggle flips the completion flag of a task in the collection.
func (s *Store) Toggle(ctx context.Context, id string) (task.Task, error) {
	current, ok := s.Find(id)
	if !ok {
		s.apply(func() { s.fail("toggle", ErrNotFound) })
		return task.Task{}, ErrNotFound
	}
	s.begin()
	updated, err := s.gw.Update(ctx, id, gateway.ToggleRequest(current))
	s.applyUpdate("toggle", id, updated, err)
	return updated, err
}

// Remove deletes a task after confirm says yes. A "no" makes no request and
// changes nothing.
func (s *Store) Remove(ctx context.Context, id string, confirm Confirmer) error {
	current, ok := s.Find(id)
	if !ok {
		s.apply(func() { s.fail("remove", ErrNotFound) })
		return ErrNotFound
	}
	if confirm == nil || !confirm.Confirm(current) {
		return ErrCancelled
	}
	s.begin()
	err := s.gw.Delete(ctx, id)
	s.finish(func() {
		if err != nil {
			s.fail("remove", err)
			return
		}
		if i := task.IndexOf(s.tasks, id); i >= 0 {
			s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
		}
	})
	return err
}

func (s *Store) applyUpdate(op, id string, updated task.Task, err error) {
	s.finish(func() {
		if err != nil {
			s.fail(op, err)
			return
		}
		if i := task.IndexOf(s.tasks, id); i >= 0 {
			s.tasks[i] = updated
		}
	})
}

// begin clears the previous message and marks a request in flight.
func (s *Store) begin() {
	s.apply(func() {
		s.message = ""
		s.pending++
	})
}

func (s *Store) fail(op string, err error) {
	s.message = Message(err)
	s.log.Warn("task operation failed", "op", op, "error", err)
}

// finish applies the transition for one completed request.
func (s *Store) finish(fn func()) {
	s.apply(func() {
		if s.pending > 0 {
			s.pending--
		}
		fn()
	})
}

// apply runs one transition under the lock and then notifies observers.
func (s *Store) apply(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Tasks: task.Clone(s.tasks), Message: s.message, Pending: s.pending}
}
