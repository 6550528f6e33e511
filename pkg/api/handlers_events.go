package api

import (
	"encoding/json"
	"net/http"

	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/planner"
)

// handleEvents handles GET (list) and POST (create) on /api/events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	p, err := identity.PrincipalFromContext(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		events, err := s.svc.ListEvents(r.Context(), p)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var input planner.CreateEventInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			WriteBadRequest(w, "Invalid request body")
			return
		}
		event, err := s.svc.CreateEvent(r.Context(), p, input)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, event)

	default:
		WriteMethodNotAllowed(w)
	}
}

// handleEventByID handles GET and DELETE on /api/events/{id}.
func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request) {
	p, err := identity.PrincipalFromContext(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	id := pathTail(r.URL.Path, "/api/events/")
	if id == "" {
		WriteNotFound(w, "Unknown event path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		event, err := s.svc.GetEvent(r.Context(), p, id)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)

	case http.MethodDelete:
		if err := s.svc.DeleteEvent(r.Context(), p, id); err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})

	default:
		WriteMethodNotAllowed(w)
	}
}
