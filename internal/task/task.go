// Package task holds the task model shared by the client, the terminal UI
// and the development remote store, together with its JSON wire codec.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTitle is returned when a title is empty after trimming.
var ErrEmptyTitle = errors.New("title is empty")

// Task is one item of the remote collection.
type Task struct {
	ID        string
	Title     string
	Deadline  Deadline
	Completed bool
}

type wireTask struct {
	ID        string    `json:"id,omitempty"`
	MongoID   string    `json:"_id,omitempty"`
	Title     string    `json:"title"`
	Deadline  *Deadline `json:"deadline,omitempty"`
	Completed bool      `json:"completed"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	w := wireTask{ID: t.ID, Title: t.Title, Completed: t.Completed}
	if t.Deadline.IsSet() {
		d := t.Deadline
		w.Deadline = &d
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts both "id" and "_id" as the identifier.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id := w.ID
	if id == "" {
		id = w.MongoID
	}
	*t = Task{ID: id, Title: w.Title, Completed: w.Completed}
	if w.Deadline != nil {
		t.Deadline = *w.Deadline
	}
	return nil
}

func (t Task) String() string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s (%s)", mark, t.Title, t.ID)
}

// CleanTitle trims the title and rejects blank input.
func CleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// IndexOf returns the position of the task with the given id, or -1.
func IndexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of tasks that shares no backing array with it.
func Clone(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
