// Package deadline derives a task's lifecycle status and remaining-time label
// from its deadline, its completion flag and the current time.
package deadline

import (
	"fmt"
	"time"

	"taskdeck/internal/task"
)

type Status int

const (
	Active Status = iota
	Expired
	Completed
	Invalid
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	case Completed:
		return "completed"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

const (
	ExpiredLabel = "expired"
	InvalidLabel = "invalid deadline"

	day = 24 * time.Hour
)

// Evaluation is the derived temporal state of one task at one instant.
type Evaluation struct {
	Status    Status
	Remaining time.Duration
	Label     string
}

// Evaluate is pure: the same inputs always produce the same Evaluation.
func Evaluate(d task.Deadline, completed bool, now time.Time) Evaluation {
	if !d.IsSet() {
		return Evaluation{Status: Active}
	}
	if completed {
		return Evaluation{Status: Completed}
	}
	if !d.Valid() {
		return Evaluation{Status: Invalid, Label: InvalidLabel}
	}
	if !d.Time().After(now) {
		return Evaluation{Status: Expired, Label: ExpiredLabel}
	}
	remaining := d.Time().Sub(now)
	return Evaluation{Status: Active, Remaining: remaining, Label: FormatRemaining(remaining)}
}

// EvaluateTask is Evaluate applied to a task.
func EvaluateTask(t task.Task, now time.Time) Evaluation {
	return Evaluate(t.Deadline, t.Completed, now)
}

// FormatRemaining renders the two coarsest units starting at the largest
// non-zero one: "1d 1h", "2h 5m", "3m 9s" or "42s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d / day
	hours := (d % day) / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Inactive reports whether a row should be shown as finished: completed or
// past its deadline.
func (e Evaluation) Inactive() bool {
	return e.Status == Completed || e.Status == Expired
}

// Summary counts tasks per status.
type Summary map[Status]int

func Summarize(tasks []task.Task, now time.Time) Summary {
	s := Summary{}
	for _, t := range tasks {
		s[EvaluateTask(t, now).Status]++
	}
	return s
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d active • %d expired • %d done", s[Active], s[Expired], s[Completed])
	if n := s[Invalid]; n > 0 {
		out += fmt.Sprintf(" • %d invalid", n)
	}
	return out
}
