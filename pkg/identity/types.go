// Package identity resolves request credentials into principals and mints
// the tokens the HTTP surface hands out at login.
package identity

import "github.com/syncboard/syncboard/pkg/model"

// Principal is the resolved identity for a single request. It is built once
// by the auth middleware and passed explicitly to the service layer;
// downstream code never re-reads credentials.
type Principal struct {
	ID    string
	Email string
	Role  model.Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}
