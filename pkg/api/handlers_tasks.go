package api

import (
	"encoding/json"
	"net/http"

	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/planner"
)

// handleTasks handles GET (the caller's task counter) and POST (create) on
// /api/tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	p, err := identity.PrincipalFromContext(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		count, err := s.svc.PendingTaskCount(r.Context(), p)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var input planner.CreateTaskInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			WriteBadRequest(w, "Invalid request body")
			return
		}
		task, err := s.svc.CreateTask(r.Context(), p, input)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)

	default:
		WriteMethodNotAllowed(w)
	}
}

// handleTaskByID handles PUT/PATCH and DELETE on /api/tasks/{id}.
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	p, err := identity.PrincipalFromContext(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	id := pathTail(r.URL.Path, "/api/tasks/")
	if id == "" {
		WriteNotFound(w, "Unknown task path")
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var input planner.UpdateTaskInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			WriteBadRequest(w, "Invalid request body")
			return
		}
		task, err := s.svc.UpdateTask(r.Context(), p, id, input)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)

	case http.MethodDelete:
		if err := s.svc.DeleteTask(r.Context(), p, id); err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})

	default:
		WriteMethodNotAllowed(w)
	}
}
