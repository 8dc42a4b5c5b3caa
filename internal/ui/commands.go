package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/clock"
	"taskdeck/internal/edit"
	"taskdeck/internal/store"
	"taskdeck/internal/task"
)

type tickMsg struct{ now time.Time }

// opDoneMsg carries the store state after one request completed.
type opDoneMsg struct {
	op   string
	err  error
	snap store.Snapshot
}

type renameDoneMsg struct {
	draft edit.Draft
	err   error
	snap  store.Snapshot
}

// waitForTick blocks on the clock; once the clock is stopped the channel is
// closed and no further tick is scheduled.
func waitForTick(c *clock.Clock) tea.Cmd {
	return func() tea.Msg {
		now, ok := <-c.Ticks()
		if !ok {
			return nil
		}
		return tickMsg{now: now}
	}
}

func refreshCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		err := s.Refresh(ctx)
		return opDoneMsg{op: "refresh", err: err, snap: s.Snapshot()}
	}
}

func addCmd(ctx context.Context, s *store.Store, title string, d task.Deadline) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Add(ctx, title, d)
		return opDoneMsg{op: "add", err: err, snap: s.Snapshot()}
	}
}

func toggleCmd(ctx context.Context, s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Toggle(ctx, id)
		return opDoneMsg{op: "toggle", err: err, snap: s.Snapshot()}
	}
}

// removeCmd runs after the user already answered yes at the prompt.
func removeCmd(ctx context.Context, s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		err := s.Remove(ctx, id, answer(true))
		return opDoneMsg{op: "delete", err: err, snap: s.Snapshot()}
	}
}

func renameCmd(ctx context.Context, s *store.Store, d edit.Draft) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Rename(ctx, d.TaskID, d.Title, task.ParseDeadline(d.Deadline))
		return renameDoneMsg{draft: d, err: err, snap: s.Snapshot()}
	}
}

func answer(yes bool) store.Confirmer {
	return store.ConfirmFunc(func(task.Task) bool { return yes })
}
