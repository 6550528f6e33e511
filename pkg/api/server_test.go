package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncboard/syncboard/pkg/api"
	"github.com/syncboard/syncboard/pkg/auth"
	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/model"
	"github.com/syncboard/syncboard/pkg/planner"
	"github.com/syncboard/syncboard/pkg/store"
	"github.com/syncboard/syncboard/pkg/stream"
)

type testServer struct {
	ts     *httptest.Server
	tokens *identity.TokenManager
	hub    *stream.Hub
	users  *store.MemoryUserStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	events := store.NewMemoryEventStore()
	tasks := store.NewMemoryTaskStore()
	users := store.NewMemoryUserStore()
	hub := stream.NewHub(nil)
	t.Cleanup(hub.Close)

	tokens := identity.NewTokenManager([]byte("test-secret"), time.Hour)
	svc := planner.New(events, tasks, users, hub, tokens, nil)
	srv := api.NewServer(svc, stream.NewSSEHandler(hub), nil)

	handler := auth.RequestIDMiddleware(
		auth.CORSMiddleware(nil)(
			auth.NewMiddleware(tokens)(srv.Handler()),
		),
	)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return &testServer{ts: ts, tokens: tokens, hub: hub, users: users}
}

func (s *testServer) token(t *testing.T, p identity.Principal) string {
	t.Helper()
	token, err := s.tokens.Issue(p)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRegisterLoginAndCreateEvent(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.User](t, resp)
	assert.Equal(t, model.RoleUser, created.Role)

	resp = s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}](t, resp)
	require.NotEmpty(t, login.Token)

	resp = s.do(t, http.MethodPost, "/api/events", login.Token, map[string]any{
		"title": "launch", "date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[model.Event](t, resp)
	assert.Equal(t, login.User.ID, event.CreatedBy)
	assert.Contains(t, event.Participants, login.User.ID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestEventEndpointsEnforcePermissions(t *testing.T) {
	s := newTestServer(t)
	aliceTok := s.token(t, identity.Principal{ID: "alice", Role: model.RoleUser})
	bobTok := s.token(t, identity.Principal{ID: "bob", Role: model.RoleUser})
	adminTok := s.token(t, identity.Principal{ID: "root", Role: model.RoleAdmin})

	resp := s.do(t, http.MethodPost, "/api/events", aliceTok, map[string]any{
		"title": "private", "date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[model.Event](t, resp)

	// Unauthenticated read of the collection is rejected.
	resp = s.do(t, http.MethodGet, "/api/events", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// An unrelated user sees 403 on the single event, 404 for a missing id.
	resp = s.do(t, http.MethodGet, "/api/events/"+event.ID, bobTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/events/ghost", bobTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Participants cannot delete; only creator or admin.
	resp = s.do(t, http.MethodDelete, "/api/events/"+event.ID, bobTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/events/"+event.ID, adminTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A second delete is 404, not 500.
	resp = s.do(t, http.MethodDelete, "/api/events/"+event.ID, aliceTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, identity.Principal{ID: "alice", Role: model.RoleUser})

	resp := s.do(t, http.MethodPost, "/api/events", tok, map[string]any{
		"title": "launch", "date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[model.Event](t, resp)

	resp = s.do(t, http.MethodPost, "/api/tasks", tok, map[string]any{
		"title": "book venue", "event": event.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[model.Task](t, resp)
	assert.Equal(t, model.StatusPending, task.Status)

	// Invalid enum value is a 400.
	resp = s.do(t, http.MethodPut, "/api/tasks/"+task.ID, tok, map[string]any{
		"status": "bogus",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/tasks/"+task.ID, tok, map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Task](t, resp)
	assert.Equal(t, model.StatusCompleted, updated.Status)

	// The counter endpoint reflects the caller's tasks.
	resp = s.do(t, http.MethodGet, "/api/tasks", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	count := decode[map[string]int](t, resp)
	assert.Equal(t, 1, count["count"])

	resp = s.do(t, http.MethodDelete, "/api/tasks/"+task.ID, tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	userTok := s.token(t, identity.Principal{ID: "alice", Role: model.RoleUser})
	adminTok := s.token(t, identity.Principal{ID: "root", Role: model.RoleAdmin})

	resp := s.do(t, http.MethodGet, "/api/admin/users", userTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/admin/users", adminTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/admin/users/ghost/role", adminTok, map[string]string{"role": "admin"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamDeliversCommittedMutations(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, identity.Principal{ID: "alice", Role: model.RoleUser})

	// The stream endpoint needs no credentials.
	req, err := http.NewRequest(http.MethodGet, s.ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := s.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	create := s.do(t, http.MethodPost, "/api/events", tok, map[string]any{
		"title": "launch", "date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, create.StatusCode)
	event := decode[model.Event](t, create)

	taskResp := s.do(t, http.MethodPost, "/api/tasks", tok, map[string]any{
		"title": "book venue", "event": event.ID,
	})
	require.Equal(t, http.StatusCreated, taskResp.StatusCode)
	task := decode[model.Task](t, taskResp)

	kind, data := readSSEEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "taskCreated", kind)
	var streamed model.Task
	require.NoError(t, json.Unmarshal([]byte(data), &streamed))
	assert.Equal(t, task.ID, streamed.ID)
}

// readSSEEvent reads the next complete event from the stream, skipping
// comments and blank separators.
func readSSEEvent(t *testing.T, r *bufio.Reader) (kind, data string) {
	t.Helper()

	type sseEvent struct{ kind, data string }
	events := make(chan sseEvent, 1)
	go func() {
		var ev sseEvent
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				close(events)
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.kind = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case line == "" && ev.kind != "":
				events <- ev
				return
			}
		}
	}()

	select {
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SSE event")
	case ev, ok := <-events:
		if !ok {
			t.Fatal("stream closed before a complete SSE event")
		}
		return ev.kind, ev.data
	}
	return "", ""
}

func TestUnknownMethodIs405(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, identity.Principal{ID: "alice", Role: model.RoleUser})

	resp := s.do(t, http.MethodDelete, "/api/events", tok, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	var problem api.ProblemDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, http.StatusMethodNotAllowed, problem.Status)
	assert.Equal(t, fmt.Sprintf("https://syncboard.dev/errors/%d", http.StatusMethodNotAllowed), problem.Type)
}
