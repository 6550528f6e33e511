package planner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncboard/syncboard/pkg/model"
	"github.com/syncboard/syncboard/pkg/planner"
	"github.com/syncboard/syncboard/pkg/store"
	"github.com/syncboard/syncboard/pkg/stream"
)

var eventCols = []string{"id", "title", "description", "date", "location",
	"created_by", "participants", "task_ids", "created_at"}

// A storage fault between the two halves of the event-delete cascade must
// surface as a cascade failure, never as success or a plain NotFound.
func TestDeleteEventSurfacesCascadeFailureOnStorageFault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = \?`).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("ev1", "launch", "", now, "", "alice", `["alice"]`, `["t1"]`, now))
	mock.ExpectExec(`DELETE FROM events WHERE id = \?`).
		WithArgs("ev1").
		WillReturnError(errors.New("disk I/O error"))

	events := store.NewSQLiteEventStore(db)
	tasks := store.NewMemoryTaskStore()
	require.NoError(t, tasks.Insert(context.Background(), &model.Task{
		ID: "t1", Title: "book venue", EventID: "ev1", CreatedBy: "alice",
		Status: model.StatusPending, Priority: model.PriorityMedium,
	}))

	svc := planner.New(events, tasks, store.NewMemoryUserStore(), stream.NopBroadcaster{}, nil, nil)

	err = svc.DeleteEvent(context.Background(), alice, "ev1")
	assert.ErrorIs(t, err, planner.ErrCascadeFailure)

	// The child delete already ran: the partial state is real and visible.
	remaining, listErr := tasks.ListByEvent(context.Background(), "ev1")
	require.NoError(t, listErr)
	assert.Empty(t, remaining)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A fault while appending the created task to its event's list surfaces
// the same way: the task row exists but the cascade did not finish.
func TestCreateTaskSurfacesCascadeFailureOnAppendFault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = \?`).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("ev1", "launch", "", now, "", "alice", `["alice"]`, `[]`, now))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT task_ids FROM events WHERE id = \?`).
		WithArgs("ev1").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	events := store.NewSQLiteEventStore(db)
	tasks := store.NewMemoryTaskStore()
	svc := planner.New(events, tasks, store.NewMemoryUserStore(), stream.NopBroadcaster{}, nil, nil)

	_, err = svc.CreateTask(context.Background(), alice, planner.CreateTaskInput{
		Title: "book venue", EventID: "ev1",
	})
	assert.ErrorIs(t, err, planner.ErrCascadeFailure)

	// The orphaned task row is surfaced, not rolled back.
	orphans, listErr := tasks.ListByEvent(context.Background(), "ev1")
	require.NoError(t, listErr)
	assert.Len(t, orphans, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}
