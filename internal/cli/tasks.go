package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskdeck/internal/deadline"
	"taskdeck/internal/edit"
	"taskdeck/internal/store"
	"taskdeck/internal/task"
)

// maxParallel bounds concurrent requests for multi-ID commands.
const maxParallel = 4

func listCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every task with its deadline status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), st.Tasks(), time.Now())
		},
	}
}

func printTasks(w io.Writer, tasks []task.Task, now time.Time) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tasks {
		ev := deadline.EvaluateTask(t, now)
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		due := ""
		if t.Deadline.IsSet() {
			due = "due " + t.Deadline.Display()
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", t.ID, check, t.Title, due, ev.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, deadline.Summarize(tasks, now))
	return err
}

func addCmd(e *env) *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDeadlineFlag(due)
			if err != nil {
				return err
			}
			st, err := e.newStore(e.log)
			if err != nil {
				return err
			}
			created, err := st.Add(cmd.Context(), strings.Join(args, " "), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", created)
			return nil
		},
	}
	cmd.Flags().StringVarP(&due, "deadline", "d", "", "deadline, YYYY-MM-DDTHH:MM or RFC 3339")
	return cmd
}

func editCmd(e *env) *cobra.Command {
	var (
		title string
		due   string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the title and deadline of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := st.Find(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], store.ErrNotFound)
			}

			session := edit.NewSession(st)
			session.Begin(current)
			if cmd.Flags().Changed("title") {
				session.SetTitle(title)
			}
			if cmd.Flags().Changed("deadline") {
				d, err := parseDeadlineFlag(due)
				if err != nil {
					return err
				}
				session.SetDeadline(d.Editable())
			}
			committed, err := session.Commit(cmd.Context())
			if err != nil {
				return err
			}
			if !committed {
				fmt.Fprintln(cmd.OutOrStdout(), "Title is blank, edit discarded.")
				return nil
			}
			updated, _ := st.Find(current.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&due, "deadline", "d", "", "new deadline; empty clears it")
	return cmd
}

func doneCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID...",
		Short: "Toggle the completion of one or more tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			out := &syncWriter{w: cmd.OutOrStdout()}
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxParallel)
			for _, id := range args {
				g.Go(func() error {
					t, err := st.Toggle(ctx, id)
					if err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					out.printf("Toggled %s\n", t)
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func rmCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm ID...",
		Short: "Delete one or more tasks after confirmation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			out := &syncWriter{w: cmd.OutOrStdout()}
			var confirm store.Confirmer = store.ConfirmFunc(func(task.Task) bool { return true })
			limit := maxParallel
			if !yes {
				// Prompts are answered one at a time.
				confirm = newPrompt(cmd.InOrStdin(), out)
				limit = 1
			}

			var g errgroup.Group
			g.SetLimit(limit)
			for _, id := range args {
				g.Go(func() error {
					err := st.Remove(cmd.Context(), id, confirm)
					switch {
					case errors.Is(err, store.ErrCancelled):
						out.printf("Kept %s\n", id)
						return nil
					case err != nil:
						return fmt.Errorf("%s: %w", id, err)
					}
					out.printf("Deleted %s\n", id)
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// prompt asks on out and reads y/n answers from in. Anything but y or yes
// keeps the task.
type prompt struct {
	in  *bufio.Reader
	out *syncWriter
}

func newPrompt(in io.Reader, out *syncWriter) *prompt {
	return &prompt{in: bufio.NewReader(in), out: out}
}

func (p *prompt) Confirm(t task.Task) bool {
	p.out.printf("Delete %q? [y/N] ", t.Title)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

func parseDeadlineFlag(v string) (task.Deadline, error) {
	d := task.ParseDeadline(v)
	if d.IsSet() && !d.Valid() {
		return task.Deadline{}, fmt.Errorf("invalid deadline %q: use YYYY-MM-DDTHH:MM or RFC 3339", v)
	}
	return d, nil
}
