// Package authz is the permission evaluator: pure decision functions mapping
// (principal, action, resource state) to allow/deny. Nothing here touches
// storage or suspends; callers load the resource first, which is also what
// fixes the NotFound-before-Forbidden ordering at the service layer.
package authz

import (
	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/model"
)

// Decision is the outcome of a permission check. Reason is set only on
// denial and is safe to surface to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// CanListEvents gates the event listing. Any authenticated principal may
// list, and no visibility filtering happens at this layer: the full
// collection is returned regardless of membership. This is a known gap in
// the access model, kept deliberately.
func CanListEvents(p identity.Principal) Decision {
	return allow()
}

// CanReadEvent allows participants, the creator, and admins. The creator is
// checked independently of the participant set: the two may diverge after
// creation.
func CanReadEvent(p identity.Principal, ev *model.Event) Decision {
	if p.IsAdmin() {
		return allow()
	}
	if ev.CreatedBy == p.ID || ev.HasParticipant(p.ID) {
		return allow()
	}
	return deny("you do not have permission to access this event")
}

// CanCreateEvent allows any authenticated principal.
func CanCreateEvent(p identity.Principal) Decision {
	return allow()
}

// CanDeleteEvent allows the creator and admins only. Participation alone
// does not grant deletion.
func CanDeleteEvent(p identity.Principal, ev *model.Event) Decision {
	if p.IsAdmin() || ev.CreatedBy == p.ID {
		return allow()
	}
	return deny("only the event creator or an admin can delete this event")
}

// CanCreateTask allows any authenticated principal. No relationship between
// the principal and the target event is enforced here; another known gap
// kept deliberately.
func CanCreateTask(p identity.Principal) Decision {
	return allow()
}

// CanMutateTask gates task updates and deletion: the task creator, the
// assignee, and admins.
func CanMutateTask(p identity.Principal, t *model.Task) Decision {
	if p.IsAdmin() {
		return allow()
	}
	if t.CreatedBy == p.ID || (t.AssignedTo != "" && t.AssignedTo == p.ID) {
		return allow()
	}
	return deny("only the task creator, its assignee or an admin can modify this task")
}

// CanAdminister gates the admin surface: user listing, role changes, and
// user deletion.
func CanAdminister(p identity.Principal) Decision {
	if p.IsAdmin() {
		return allow()
	}
	return deny("admin rights required")
}
