package planner

import (
	"context"
	"fmt"

	"github.com/syncboard/syncboard/pkg/authz"
	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/model"
	"github.com/syncboard/syncboard/pkg/stream"
)

// UserSummary is a user row on the admin dashboard: the account plus how
// many events its participant set membership spans.
type UserSummary struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	EventCount int        `json:"eventCount"`
}

// ListUsers returns every account with its event participation count.
// Admin only.
func (s *Service) ListUsers(ctx context.Context, p identity.Principal) ([]UserSummary, error) {
	if d := authz.CanAdminister(p); !d.Allowed {
		return nil, forbidden(d)
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		count, err := s.events.CountByParticipant(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count events for user %s: %w", u.ID, err)
		}
		summaries = append(summaries, UserSummary{
			ID:         u.ID,
			Email:      u.Email,
			Role:       u.Role,
			EventCount: count,
		})
	}
	return summaries, nil
}

// ChangeUserRole sets a user's role. Admin only; the role is validated at
// the boundary, and a missing user is NotFound.
func (s *Service) ChangeUserRole(ctx context.Context, p identity.Principal, userID, rawRole string) (*model.User, error) {
	if d := authz.CanAdminister(p); !d.Allowed {
		return nil, forbidden(d)
	}
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	s.logger.Info("user role changed", "user_id", userID, "role", role, "changed_by", p.ID)
	return s.users.Get(ctx, userID)
}

// DeleteUser removes the account and cascades deletion of every event the
// user created, each with its own task cascade and EventDeleted broadcast
// so connected views prune consistently. Events the user merely
// participates in are untouched. Admin only.
func (s *Service) DeleteUser(ctx context.Context, p identity.Principal, userID string) error {
	if d := authz.CanAdminister(p); !d.Allowed {
		return forbidden(d)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	owned, err := s.events.ListByCreator(ctx, userID)
	if err != nil {
		return fmt.Errorf("list events of user %s: %w", userID, err)
	}
	for _, ev := range owned {
		removed, err := s.tasks.DeleteByEvent(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("%w: deleting user %s stalled at tasks of event %s: %v",
				ErrCascadeFailure, userID, ev.ID, err)
		}
		if err := s.events.Delete(ctx, ev.ID); err != nil {
			return fmt.Errorf("%w: removed %d tasks of event %s but event delete failed: %v",
				ErrCascadeFailure, removed, ev.ID, err)
		}
		s.broadcaster.Publish(stream.EventDeleted(ev.ID))
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("%w: events of user %s deleted but user delete failed: %v",
			ErrCascadeFailure, userID, err)
	}
	s.logger.Info("user deleted", "user_id", userID, "events_removed", len(owned), "deleted_by", p.ID)
	return nil
}
