package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncboard/syncboard/pkg/model"
	"github.com/syncboard/syncboard/pkg/store"
)

func TestMemoryEventLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryEventStore()

	ev := &model.Event{
		ID:           "e1",
		Title:        "launch party",
		Date:         time.Now(),
		CreatedBy:    "alice",
		Participants: []string{"alice", "bob"},
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.Insert(ctx, ev))
	assert.ErrorIs(t, s.Insert(ctx, ev), store.ErrConflict)

	got, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "launch party", got.Title)

	// Returned documents must not alias store state.
	got.Participants[0] = "mallory"
	again, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Participants[0])

	require.NoError(t, s.Delete(ctx, "e1"))
	assert.ErrorIs(t, s.Delete(ctx, "e1"), store.ErrNotFound)
	_, err = s.Get(ctx, "e1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryEventTaskList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryEventStore()
	require.NoError(t, s.Insert(ctx, &model.Event{ID: "e1", CreatedBy: "alice"}))

	require.NoError(t, s.AppendTask(ctx, "e1", "t1"))
	// Append is idempotent: the id appears exactly once.
	require.NoError(t, s.AppendTask(ctx, "e1", "t1"))
	require.NoError(t, s.AppendTask(ctx, "e1", "t2"))

	ev, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ev.TaskIDs)

	require.NoError(t, s.RemoveTask(ctx, "e1", "t1"))
	ev, err = s.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, ev.TaskIDs)

	// Appending to a missing event fails; removing from one is a no-op.
	assert.ErrorIs(t, s.AppendTask(ctx, "ghost", "t9"), store.ErrNotFound)
	assert.NoError(t, s.RemoveTask(ctx, "ghost", "t9"))
}

func TestMemoryCountByParticipant(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryEventStore()
	require.NoError(t, s.Insert(ctx, &model.Event{ID: "e1", CreatedBy: "alice", Participants: []string{"alice", "bob"}}))
	require.NoError(t, s.Insert(ctx, &model.Event{ID: "e2", CreatedBy: "bob", Participants: []string{"bob"}}))

	n, err := s.CountByParticipant(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountByParticipant(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryTaskStore()

	task := &model.Task{
		ID:        "t1",
		Title:     "book venue",
		EventID:   "e1",
		CreatedBy: "alice",
		Status:    model.StatusPending,
		Priority:  model.PriorityMedium,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Insert(ctx, task))

	task.Status = model.StatusCompleted
	require.NoError(t, s.Update(ctx, task))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	require.NoError(t, s.Delete(ctx, "t1"))
	assert.ErrorIs(t, s.Delete(ctx, "t1"), store.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, task), store.ErrNotFound)
}

func TestMemoryTaskQueries(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryTaskStore()
	base := time.Now()
	require.NoError(t, s.Insert(ctx, &model.Task{ID: "t1", EventID: "e1", CreatedBy: "alice", CreatedAt: base}))
	require.NoError(t, s.Insert(ctx, &model.Task{ID: "t2", EventID: "e1", AssignedTo: "bob", CreatedBy: "alice", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, s.Insert(ctx, &model.Task{ID: "t3", EventID: "e2", CreatedBy: "bob", CreatedAt: base.Add(2 * time.Second)}))

	tasks, err := s.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, "t2", tasks[1].ID)

	n, err := s.CountByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // assigned t2, created t3

	removed, err := s.DeleteByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	tasks, err = s.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryUserStore()

	require.NoError(t, s.Insert(ctx, &model.User{ID: "u1", Email: "a@example.com", Role: model.RoleUser}))
	assert.ErrorIs(t, s.Insert(ctx, &model.User{ID: "u2", Email: "a@example.com", Role: model.RoleUser}), store.ErrConflict)

	u, err := s.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	require.NoError(t, s.UpdateRole(ctx, "u1", model.RoleAdmin))
	u, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	assert.ErrorIs(t, s.UpdateRole(ctx, "ghost", model.RoleAdmin), store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "u1"))
	_, err = s.GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
