// Package edit tracks the single in-progress edit of a task.
package edit

import (
	"context"
	"strings"

	"taskdeck/internal/task"
)

// Renamer applies a committed draft.
type Renamer interface {
	Rename(ctx context.Context, id, title string, deadline task.Deadline) (task.Task, error)
}

// Draft is the editable copy of one task. Deadline is kept in the local
// editable form (2006-01-02T15:04).
type Draft struct {
	TaskID   string
	Title    string
	Deadline string
}

// Session holds at most one draft. Beginning a new edit discards the
// previous draft without warning.
type Session struct {
	renamer Renamer
	draft   *Draft
}

func NewSession(r Renamer) *Session {
	return &Session{renamer: r}
}

func (s *Session) Begin(t task.Task) {
	s.BeginWith(t.ID, t.Title, t.Deadline)
}

func (s *Session) BeginWith(id, title string, deadline task.Deadline) {
	s.draft = &Draft{
		TaskID:   id,
		Title:    title,
		Deadline: deadline.Editable(),
	}
}

func (s *Session) Active() bool {
	return s.draft != nil
}

// Editing reports whether the session holds a draft for id.
func (s *Session) Editing(id string) bool {
	return s.draft != nil && s.draft.TaskID == id
}

// Draft returns a copy of the current draft; ok is false when idle.
func (s *Session) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

func (s *Session) SetTitle(title string) {
	if s.draft != nil {
		s.draft.Title = title
	}
}

func (s *Session) SetDeadline(deadline string) {
	if s.draft != nil {
		s.draft.Deadline = deadline
	}
}

func (s *Session) Cancel() {
	s.draft = nil
}

// Commit sends the draft through the Renamer. A blank title discards the
// draft silently. On failure the draft stays open so the user can retry.
// committed is true only when a rename was applied.
func (s *Session) Commit(ctx context.Context) (committed bool, err error) {
	d, ok := s.Submit()
	if !ok {
		return false, nil
	}
	_, err = s.renamer.Rename(ctx, d.TaskID, d.Title, task.ParseDeadline(d.Deadline))
	s.Complete(d, err)
	return err == nil, err
}

// Submit is the first half of Commit for callers that run the rename
// elsewhere, such as in a UI command. It returns the trimmed draft to send;
// ok is false when there is nothing to send, in which case a blank-title
// draft has already been discarded.
func (s *Session) Submit() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	d := *s.draft
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		s.Cancel()
		return Draft{}, false
	}
	return d, true
}

// Complete closes the session after a successful rename of d. A failure, or
// a newer Begin for another task made while the request was in flight,
// leaves the session open.
func (s *Session) Complete(d Draft, err error) {
	if err != nil || s.draft == nil {
		return
	}
	if s.draft.TaskID == d.TaskID {
		s.draft = nil
	}
}
