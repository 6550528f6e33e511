package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/syncboard/syncboard/pkg/identity"
)

// handleAdminUsers handles GET /api/admin/users.
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	p, err := identity.PrincipalFromContext(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	users, err := s.svc.ListUsers(r.Context(), p)
	if err != nil {
		writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// handleAdminUserByID routes /api/admin/users/{id} (DELETE) and
// /api/admin/users/{id}/role (PUT).
func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request) {
	p, err := identity.PrincipalFromContext(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	tail := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	id, rest, hasRest := strings.Cut(tail, "/")
	if id == "" {
		WriteNotFound(w, "Unknown admin path")
		return
	}

	switch {
	case hasRest && rest == "role":
		if r.Method != http.MethodPut {
			WriteMethodNotAllowed(w)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req changeRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteBadRequest(w, "Invalid request body")
			return
		}
		user, err := s.svc.ChangeUserRole(r.Context(), p, id, req.Role)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case !hasRest:
		if r.Method != http.MethodDelete {
			WriteMethodNotAllowed(w)
			return
		}
		if err := s.svc.DeleteUser(r.Context(), p, id); err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})

	default:
		WriteNotFound(w, "Unknown admin path")
	}
}
