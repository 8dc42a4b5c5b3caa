package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskdeck/internal/deadline"
	"taskdeck/internal/task"
)

func TestRowStyle(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		task   task.Task
		struck bool
		faint  bool
	}{
		{"done without deadline", task.Task{Title: "a", Completed: true}, true, true},
		{"done with deadline", task.Task{Title: "b", Completed: true, Deadline: task.ParseDeadline("2031-01-01T10:00Z")}, true, true},
		{"expired", task.Task{Title: "c", Deadline: task.ParseDeadline("2029-01-01T10:00Z")}, false, true},
		{"open", task.Task{Title: "d"}, false, false},
		{"invalid", task.Task{Title: "e", Deadline: task.ParseDeadline("soon")}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rowStyle(tt.task, deadline.EvaluateTask(tt.task, now))
			assert.Equal(t, tt.struck, s.GetStrikethrough())
			assert.Equal(t, tt.faint, s.GetFaint())
		})
	}
}
