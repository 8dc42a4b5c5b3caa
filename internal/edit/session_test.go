package edit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/task"
)

type renameCall struct {
	id, title string
	deadline  task.Deadline
}

type fakeRenamer struct {
	calls []renameCall
	err   error
}

func (f *fakeRenamer) Rename(_ context.Context, id, title string, d task.Deadline) (task.Task, error) {
	f.calls = append(f.calls, renameCall{id, title, d})
	if f.err != nil {
		return task.Task{}, f.err
	}
	return task.Task{ID: id, Title: title, Deadline: d}, nil
}

func TestBeginConvertsDeadlineToLocalEditable(t *testing.T) {
	s := NewSession(&fakeRenamer{})
	at := time.Date(2031, 2, 3, 4, 5, 0, 0, time.Local)
	s.Begin(task.Task{ID: "1", Title: "a", Deadline: task.ParseDeadline(at.UTC().Format(time.RFC3339))})

	d, ok := s.Draft()
	require.True(t, ok)
	assert.Equal(t, "2031-02-03T04:05", d.Deadline)
	assert.True(t, s.Editing("1"))
}

func TestBeginWithoutDeadline(t *testing.T) {
	s := NewSession(&fakeRenamer{})
	s.BeginWith("1", "a", task.Deadline{})
	d, _ := s.Draft()
	assert.Empty(t, d.Deadline)
}

func TestBeginDiscardsPreviousDraft(t *testing.T) {
	s := NewSession(&fakeRenamer{})
	s.BeginWith("1", "first", task.Deadline{})
	s.SetTitle("unsaved")
	s.BeginWith("2", "second", task.Deadline{})

	d, _ := s.Draft()
	assert.Equal(t, "2", d.TaskID)
	assert.Equal(t, "second", d.Title)
	assert.False(t, s.Editing("1"))
}

func TestCancelMakesNoCall(t *testing.T) {
	r := &fakeRenamer{}
	s := NewSession(r)
	s.BeginWith("1", "a", task.Deadline{})
	s.Cancel()

	assert.False(t, s.Active())
	assert.Empty(t, r.calls)
}

func TestCommitBlankTitleBehavesAsCancel(t *testing.T) {
	r := &fakeRenamer{}
	s := NewSession(r)
	s.BeginWith("1", "a", task.Deadline{})
	s.SetTitle("   ")

	committed, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.False(t, committed)
	assert.False(t, s.Active())
	assert.Empty(t, r.calls)
}

func TestCommitRenamesAndCloses(t *testing.T) {
	r := &fakeRenamer{}
	s := NewSession(r)
	s.BeginWith("1", "a", task.Deadline{})
	s.SetTitle("  renamed ")
	s.SetDeadline("2099-01-01T10:00")

	committed, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.True(t, committed)
	assert.False(t, s.Active())
	require.Len(t, r.calls, 1)
	assert.Equal(t, "1", r.calls[0].id)
	assert.Equal(t, "renamed", r.calls[0].title)
	assert.Equal(t, "2099-01-01T10:00", r.calls[0].deadline.Raw())
}

func TestCommitFailureKeepsDraft(t *testing.T) {
	r := &fakeRenamer{err: errors.New("server down")}
	s := NewSession(r)
	s.BeginWith("1", "a", task.Deadline{})
	s.SetTitle("b")

	committed, err := s.Commit(context.Background())
	require.Error(t, err)
	assert.False(t, committed)
	d, ok := s.Draft()
	require.True(t, ok)
	assert.Equal(t, "b", d.Title)

	r.err = nil
	committed, err = s.Commit(context.Background())
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Len(t, r.calls, 2)
}

func TestCommitIdle(t *testing.T) {
	s := NewSession(&fakeRenamer{})
	committed, err := s.Commit(context.Background())
	assert.NoError(t, err)
	assert.False(t, committed)
}

func TestSubmitAndComplete(t *testing.T) {
	s := NewSession(&fakeRenamer{})
	s.BeginWith("1", "a", task.Deadline{})
	s.SetTitle(" b ")

	d, ok := s.Submit()
	require.True(t, ok)
	assert.Equal(t, "b", d.Title)
	assert.True(t, s.Active())

	s.Complete(d, errors.New("nope"))
	assert.True(t, s.Active())

	s.Complete(d, nil)
	assert.False(t, s.Active())
}

func TestCompleteIgnoresDraftForOtherTask(t *testing.T) {
	s := NewSession(&fakeRenamer{})
	s.BeginWith("1", "a", task.Deadline{})
	d, _ := s.Submit()
	s.BeginWith("2", "other", task.Deadline{})

	s.Complete(d, nil)
	assert.True(t, s.Editing("2"))
}
