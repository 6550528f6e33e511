package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/syncboard/syncboard/pkg/model"
)

// In-memory implementations back tests and dev mode. Documents are copied
// on the way in and out so callers never alias store state.

// MemoryEventStore is a mutex-guarded EventStore.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[string]*model.Event
}

// NewMemoryEventStore creates an empty event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[string]*model.Event)}
}

func copyEvent(ev *model.Event) *model.Event {
	out := *ev
	out.Participants = slices.Clone(ev.Participants)
	out.TaskIDs = slices.Clone(ev.TaskIDs)
	out.Tasks = nil
	return &out
}

func (s *MemoryEventStore) Insert(ctx context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return ErrConflict
	}
	s.events[ev.ID] = copyEvent(ev)
	return nil
}

func (s *MemoryEventStore) Get(ctx context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(ev), nil
}

func (s *MemoryEventStore) List(ctx context.Context) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, copyEvent(ev))
	}
	sortEvents(out)
	return out, nil
}

func (s *MemoryEventStore) ListByCreator(ctx context.Context, userID string) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Event
	for _, ev := range s.events {
		if ev.CreatedBy == userID {
			out = append(out, copyEvent(ev))
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *MemoryEventStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryEventStore) AppendTask(ctx context.Context, eventID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	if !slices.Contains(ev.TaskIDs, taskID) {
		ev.TaskIDs = append(ev.TaskIDs, taskID)
	}
	return nil
}

func (s *MemoryEventStore) RemoveTask(ctx context.Context, eventID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil // parent already gone; the cascade step is a no-op
	}
	ev.TaskIDs = slices.DeleteFunc(ev.TaskIDs, func(id string) bool { return id == taskID })
	return nil
}

func (s *MemoryEventStore) CountByParticipant(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ev := range s.events {
		if ev.HasParticipant(userID) {
			n++
		}
	}
	return n, nil
}

func sortEvents(events []*model.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}

// MemoryTaskStore is a mutex-guarded TaskStore.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*model.Task
}

// NewMemoryTaskStore creates an empty task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*model.Task)}
}

func copyTask(t *model.Task) *model.Task {
	out := *t
	return &out
}

func (s *MemoryTaskStore) Insert(ctx context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return ErrConflict
	}
	s.tasks[t.ID] = copyTask(t)
	return nil
}

func (s *MemoryTaskStore) Get(ctx context.Context, id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTask(t), nil
}

func (s *MemoryTaskStore) Update(ctx context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	s.tasks[t.ID] = copyTask(t)
	return nil
}

func (s *MemoryTaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryTaskStore) ListByEvent(ctx context.Context, eventID string) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Task
	for _, t := range s.tasks {
		if t.EventID == eventID {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryTaskStore) DeleteByEvent(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, t := range s.tasks {
		if t.EventID == eventID {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryTaskStore) CountByUser(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tasks {
		if t.CreatedBy == userID || t.AssignedTo == userID {
			n++
		}
	}
	return n, nil
}

// MemoryUserStore is a mutex-guarded UserStore with a unique email index.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewMemoryUserStore creates an empty user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*model.User)}
}

func copyUser(u *model.User) *model.User {
	out := *u
	return &out
}

func (s *MemoryUserStore) Insert(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *MemoryUserStore) Get(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) List(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryUserStore) UpdateRole(ctx context.Context, id string, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}
