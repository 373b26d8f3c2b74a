package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the completion state of a task.
type Status string

const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
)

const (
	PriorityHighest = 1
	PriorityLowest  = 5
	DefaultPriority = PriorityHighest
)

// Task is an individual todo item.
// Only Status (via Toggle) and Timeframe change after creation.
type Task struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Notes     *string `json:"notes"`
	Priority  int     `json:"priority"`
	Status    Status  `json:"status"`
	CreatedAt int64   `json:"created_at"`
	Timeframe *string `json:"timeframe"`
}

var now = time.Now

// NewTask builds a pending task with a fresh id.
// The caller is responsible for rejecting empty titles and clamping priority.
func NewTask(title string, priority int, notes *string) Task {
	return Task{
		ID:        uuid.NewString(),
		Title:     title,
		Notes:     notes,
		Priority:  priority,
		Status:    StatusPending,
		CreatedAt: now().Unix(),
	}
}

// Toggle flips the task between Pending and Done.
func (t *Task) Toggle() {
	if t.Status == StatusDone {
		t.Status = StatusPending
		return
	}
	t.Status = StatusDone
}

func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// NotesText returns the notes or "" when unset.
func (t Task) NotesText() string {
	if t.Notes == nil {
		return ""
	}
	return *t.Notes
}

// TimeframeText returns the timeframe or "" when unset.
func (t Task) TimeframeText() string {
	if t.Timeframe == nil {
		return ""
	}
	return *t.Timeframe
}

// ClampPriority pulls p into [PriorityHighest, PriorityLowest] for display.
func ClampPriority(p int) int {
	if p < PriorityHighest {
		return PriorityHighest
	}
	if p > PriorityLowest {
		return PriorityLowest
	}
	return p
}

// OptionalText returns nil for blank input and a pointer to the trimmed value otherwise.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
