package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/syncboard/syncboard/pkg/planner"
	"github.com/syncboard/syncboard/pkg/stream"
)

// Server is the HTTP surface over the planner service and the live stream.
type Server struct {
	svc    *planner.Service
	sse    *stream.SSEHandler
	logger *slog.Logger
}

// NewServer wires the HTTP surface. sse may be nil to run without the
// live-sync endpoint.
func NewServer(svc *planner.Service, sse *stream.SSEHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, sse: sse, logger: logger.With("component", "api")}
}

// Routes registers all endpoints on the mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/readiness", s.handleHealth)

	mux.HandleFunc("/api/users", s.handleUsers)
	mux.HandleFunc("/api/users/login", s.handleLogin)

	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/events/", s.handleEventByID)

	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/", s.handleTaskByID)

	mux.HandleFunc("/api/admin/users", s.handleAdminUsers)
	mux.HandleFunc("/api/admin/users/", s.handleAdminUserByID)

	if s.sse != nil {
		mux.Handle("/api/stream", s.sse)
	}
}

// Handler builds the full mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Routes(mux)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// pathTail returns the path segment after the prefix, or "" if the request
// has trailing segments beyond it.
func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	if tail == "" || strings.Contains(tail, "/") {
		return ""
	}
	return tail
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
