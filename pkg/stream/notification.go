// Package stream is the live-sync layer: typed change notifications, the
// connection registry, and the SSE transport that pushes committed
// mutations to every connected client.
package stream

import "github.com/syncboard/syncboard/pkg/model"

// Kind discriminates change notifications.
type Kind string

const (
	KindEventDeleted Kind = "eventDeleted"
	KindTaskCreated  Kind = "taskCreated"
	KindTaskUpdated  Kind = "taskUpdated"
	KindTaskDeleted  Kind = "taskDeleted"
)

// Notification is an ephemeral description of one committed mutation. It is
// never persisted and is delivered at most once per connected client.
type Notification struct {
	Kind    Kind `json:"kind"`
	Payload any  `json:"payload"`
}

// EventDeletedPayload prunes a whole event (and, implicitly, its tasks)
// from client views.
type EventDeletedPayload struct {
	EventID string `json:"eventId"`
}

// TaskDeletedPayload carries both ids so clients can prune the task from
// the owning event's view without a re-fetch.
type TaskDeletedPayload struct {
	EventID string `json:"eventId"`
	TaskID  string `json:"taskId"`
}

// EventDeleted builds the notification for a committed event deletion.
func EventDeleted(eventID string) Notification {
	return Notification{Kind: KindEventDeleted, Payload: EventDeletedPayload{EventID: eventID}}
}

// TaskCreated carries the full task so clients can render it directly.
func TaskCreated(t *model.Task) Notification {
	return Notification{Kind: KindTaskCreated, Payload: t}
}

// TaskUpdated carries the task's new state.
func TaskUpdated(t *model.Task) Notification {
	return Notification{Kind: KindTaskUpdated, Payload: t}
}

// TaskDeleted builds the notification for a committed task deletion.
func TaskDeleted(eventID, taskID string) Notification {
	return Notification{Kind: KindTaskDeleted, Payload: TaskDeletedPayload{EventID: eventID, TaskID: taskID}}
}
