package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syncboard/syncboard/pkg/authz"
	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/model"
	"github.com/syncboard/syncboard/pkg/store"
	"github.com/syncboard/syncboard/pkg/stream"
)

// CreateEventInput carries the client-supplied event fields.
type CreateEventInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location"`
	Participants []string  `json:"participants"`
}

// ListEvents returns the whole collection to any authenticated principal.
// There is no visibility filtering at this layer; see authz.CanListEvents.
func (s *Service) ListEvents(ctx context.Context, p identity.Principal) ([]*model.Event, error) {
	if d := authz.CanListEvents(p); !d.Allowed {
		return nil, forbidden(d)
	}
	return s.events.List(ctx)
}

// GetEvent loads one event. Absence is reported before authorization (the
// resource must be loaded to evaluate the rule), so a missing id is
// NotFound, never Forbidden. The returned event's Tasks are populated from
// the task store, which is authoritative over the event's cached id list.
func (s *Service) GetEvent(ctx context.Context, p identity.Principal, id string) (*model.Event, error) {
	ev, err := s.events.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanReadEvent(p, ev); !d.Allowed {
		return nil, forbidden(d)
	}

	tasks, err := s.tasks.ListByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tasks for event %s: %w", id, err)
	}
	ev.Tasks = tasks
	return ev, nil
}

// CreateEvent inserts a new event with the requester as creator. The
// participant set defaults to just the creator; when one is supplied the
// creator is ensured into it, so createdBy ∈ participants holds at
// creation time (they may diverge later).
func (s *Service) CreateEvent(ctx context.Context, p identity.Principal, in CreateEventInput) (*model.Event, error) {
	if d := authz.CanCreateEvent(p); !d.Allowed {
		return nil, forbidden(d)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	participants := in.Participants
	if len(participants) == 0 {
		participants = []string{p.ID}
	} else if !containsID(participants, p.ID) {
		participants = append(append([]string(nil), participants...), p.ID)
	}

	ev := &model.Event{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		Date:         in.Date,
		Location:     in.Location,
		CreatedBy:    p.ID,
		Participants: participants,
		TaskIDs:      []string{},
		CreatedAt:    s.now(),
	}
	if err := s.events.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", ev.ID, "created_by", p.ID)
	return ev, nil
}

// DeleteEvent removes the event and every task it owns. Children go first;
// an event delete failing after its tasks are gone is a cascade failure
// and is surfaced as such (no rollback exists). Success publishes exactly
// one EventDeleted notification.
func (s *Service) DeleteEvent(ctx context.Context, p identity.Principal, id string) error {
	ev, err := s.events.Get(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanDeleteEvent(p, ev); !d.Allowed {
		return forbidden(d)
	}

	removed, err := s.tasks.DeleteByEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("delete tasks of event %s: %w", id, err)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) && removed == 0 {
			// Raced with another delete and nothing was touched here.
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: removed %d tasks of event %s but event delete failed: %v",
			ErrCascadeFailure, removed, id, err)
	}

	s.logger.Info("event deleted", "event_id", id, "tasks_removed", removed, "deleted_by", p.ID)
	s.broadcaster.Publish(stream.EventDeleted(id))
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
