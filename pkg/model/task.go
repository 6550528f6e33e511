package model

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// ParseTaskStatus validates a raw status string.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	switch TaskStatus(raw) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return TaskStatus(raw), nil
	}
	return "", fmt.Errorf("invalid status %q (expected pending, in-progress or completed)", raw)
}

// TaskPriority is the urgency bucket of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority validates a raw priority string.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	switch TaskPriority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TaskPriority(raw), nil
	}
	return "", fmt.Errorf("invalid priority %q (expected low, medium or high)", raw)
}

// Task is a unit of work scoped to exactly one event. EventID is a
// non-owning back-reference; the owning Event's TaskIDs list carries the
// forward edge, and every cascade must keep the two in agreement.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	EventID     string       `json:"event_id"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
	CreatedBy   string       `json:"created_by"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     time.Time    `json:"due_date,omitzero"`
	CreatedAt   time.Time    `json:"created_at"`
}
