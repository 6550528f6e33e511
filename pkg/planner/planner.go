// Package planner is the mutation core: it authorizes each operation
// against the permission evaluator, applies exactly one logical state
// change plus its cascades, and publishes one change notification per
// committed mutation. Collaborators are explicit; nothing here reaches for
// globals.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syncboard/syncboard/pkg/authz"
	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/store"
	"github.com/syncboard/syncboard/pkg/stream"
)

// Failure taxonomy. NotFound is store.ErrNotFound; Unauthenticated is
// identity.ErrUnauthenticated; everything maps to a stable HTTP status at
// the server boundary.
var (
	// ErrForbidden: authenticated but denied by the permission evaluator.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput: enum or required-field violation, rejected before
	// any mutation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCascadeFailure: a multi-step mutation partially completed. There
	// is no automatic rollback; the partial state is surfaced, never
	// masked as success.
	ErrCascadeFailure = errors.New("cascade partially completed")
)

func forbidden(d authz.Decision) error {
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

// Service orchestrates authorization, mutation, cascades, and broadcast.
type Service struct {
	events      store.EventStore
	tasks       store.TaskStore
	users       store.UserStore
	broadcaster stream.Broadcaster
	tokens      *identity.TokenManager
	logger      *slog.Logger
	now         func() time.Time
}

// New wires the service. The broadcaster is a required collaborator; pass
// stream.NopBroadcaster to disable propagation (tests, batch tools).
func New(events store.EventStore, tasks store.TaskStore, users store.UserStore, broadcaster stream.Broadcaster, tokens *identity.TokenManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		events:      events,
		tasks:       tasks,
		users:       users,
		broadcaster: broadcaster,
		tokens:      tokens,
		logger:      logger.With("component", "planner"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}
