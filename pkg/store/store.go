// Package store defines the document-store boundary the planner core
// consumes, plus the two shipped implementations (in-memory and SQLite).
//
// The core imposes no locking of its own: per-resource mutation ordering is
// whatever the implementation serializes. Deletes are atomic
// check-and-delete so a raced double delete loses cleanly with ErrNotFound.
package store

import (
	"context"
	"errors"

	"github.com/syncboard/syncboard/pkg/model"
)

// ErrNotFound is returned when a document id does not exist. ErrConflict is
// returned on unique-key violations (duplicate user email).
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// EventStore persists events and the task-id sequence each event owns.
type EventStore interface {
	Insert(ctx context.Context, ev *model.Event) error
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	ListByCreator(ctx context.Context, userID string) ([]*model.Event, error)
	// Delete removes the event; ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	// AppendTask adds taskID to the event's task sequence exactly once.
	// ErrNotFound if the event is absent.
	AppendTask(ctx context.Context, eventID, taskID string) error
	// RemoveTask removes taskID from the event's task sequence. A missing
	// event is a no-op: task deletion must survive racing event deletion.
	RemoveTask(ctx context.Context, eventID, taskID string) error
	// CountByParticipant counts events whose participant set contains the
	// user (the admin dashboard aggregate).
	CountByParticipant(ctx context.Context, userID string) (int, error)
}

// TaskStore persists tasks, each holding a back-reference to its event.
type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	// Delete removes the task; ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	// ListByEvent is the authoritative read of an event's tasks; the
	// event's own task-id list is reconciled against it.
	ListByEvent(ctx context.Context, eventID string) ([]*model.Task, error)
	// DeleteByEvent removes every task referencing the event and reports
	// how many were removed.
	DeleteByEvent(ctx context.Context, eventID string) (int, error)
	// CountByUser counts tasks the user created or is assigned to.
	CountByUser(ctx context.Context, userID string) (int, error)
}

// UserStore persists accounts.
type UserStore interface {
	Insert(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
	Delete(ctx context.Context, id string) error
}
