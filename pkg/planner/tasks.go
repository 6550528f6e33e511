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

// CreateTaskInput carries the client-supplied task fields. Status is not
// accepted: new tasks always start pending.
type CreateTaskInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventID     string    `json:"event"`
	AssignedTo  string    `json:"assignedTo"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
}

// UpdateTaskInput is a partial merge; nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssignedTo  *string    `json:"assignedTo"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// CreateTask inserts a task under an event and appends its id to the
// event's task sequence. Any authenticated principal may create a task; no
// relationship to the event is required (a documented gap, kept). The two
// writes must agree: a failing append after a successful insert is a
// cascade failure. Success publishes exactly one TaskCreated notification.
func (s *Service) CreateTask(ctx context.Context, p identity.Principal, in CreateTaskInput) (*model.Task, error) {
	if d := authz.CanCreateTask(p); !d.Allowed {
		return nil, forbidden(d)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.EventID == "" {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidInput)
	}

	priority := model.PriorityMedium
	if in.Priority != "" {
		parsed, err := model.ParseTaskPriority(in.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		priority = parsed
	}

	// The back-reference invariant needs an existing parent.
	if _, err := s.events.Get(ctx, in.EventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", in.EventID, store.ErrNotFound)
		}
		return nil, err
	}

	task := &model.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		EventID:     in.EventID,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   p.ID,
		Status:      model.StatusPending,
		Priority:    priority,
		DueDate:     in.DueDate,
		CreatedAt:   s.now(),
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if err := s.events.AppendTask(ctx, in.EventID, task.ID); err != nil {
		// The task exists but the owner's list doesn't reference it. A
		// read-time reconciliation (tasks-by-event is authoritative) will
		// still see it, but the partial write is surfaced regardless.
		return nil, fmt.Errorf("%w: task %s created but event %s list update failed: %v",
			ErrCascadeFailure, task.ID, in.EventID, err)
	}

	s.logger.Info("task created", "task_id", task.ID, "event_id", task.EventID, "created_by", p.ID)
	s.broadcaster.Publish(stream.TaskCreated(task))
	return task, nil
}

// UpdateTask applies a partial merge. Enum violations are rejected before
// anything is written, so a bad patch leaves the stored task untouched.
// Success publishes exactly one TaskUpdated notification.
func (s *Service) UpdateTask(ctx context.Context, p identity.Principal, id string, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanMutateTask(p, task); !d.Allowed {
		return nil, forbidden(d)
	}

	if in.Status != nil {
		status, err := model.ParseTaskStatus(*in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		task.Status = status
	}
	if in.Priority != nil {
		priority, err := model.ParseTaskPriority(*in.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		task.Priority = priority
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.AssignedTo != nil {
		task.AssignedTo = *in.AssignedTo
	}
	if in.DueDate != nil {
		task.DueDate = *in.DueDate
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	s.logger.Info("task updated", "task_id", id, "updated_by", p.ID)
	s.broadcaster.Publish(stream.TaskUpdated(task))
	return task, nil
}

// DeleteTask removes the task and then its id from the owning event's
// sequence. A concurrently vanished parent makes the second step a no-op
// rather than a failure, so a task delete racing an event delete cannot
// corrupt the back-reference invariant. A raced double delete loses with
// NotFound at the store's atomic check-and-delete. Success publishes
// exactly one TaskDeleted{eventId,taskId} notification.
func (s *Service) DeleteTask(ctx context.Context, p identity.Principal, id string) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanMutateTask(p, task); !d.Allowed {
		return forbidden(d)
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.events.RemoveTask(ctx, task.EventID, id); err != nil {
		return fmt.Errorf("%w: task %s deleted but event %s list update failed: %v",
			ErrCascadeFailure, id, task.EventID, err)
	}

	s.logger.Info("task deleted", "task_id", id, "event_id", task.EventID, "deleted_by", p.ID)
	s.broadcaster.Publish(stream.TaskDeleted(task.EventID, id))
	return nil
}

// PendingTaskCount reports how many tasks the principal created or is
// assigned to (the dashboard counter).
func (s *Service) PendingTaskCount(ctx context.Context, p identity.Principal) (int, error) {
	return s.tasks.CountByUser(ctx, p.ID)
}
