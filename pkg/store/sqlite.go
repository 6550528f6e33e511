package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syncboard/syncboard/pkg/model"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database at path and applies the
// schema. A path of ":memory:" gives an ephemeral database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; the database serializes concurrent mutations for us.
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the document tables. Participant sets and task-id
// sequences are JSON columns: the store keeps the document shape rather
// than imposing a relational schema on the core.
func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date DATETIME NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		participants JSON NOT NULL DEFAULT '[]',
		task_ids JSON NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		event_id TEXT NOT NULL,
		assigned_to TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		due_date DATETIME,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_event ON tasks(event_id);
	CREATE INDEX IF NOT EXISTS idx_events_creator ON events(created_by);`
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

const eventColumns = "id, title, description, date, location, created_by, participants, task_ids, created_at"

// SQLiteEventStore implements EventStore on database/sql.
type SQLiteEventStore struct {
	db *sql.DB
}

// NewSQLiteEventStore wraps a migrated database handle.
func NewSQLiteEventStore(db *sql.DB) *SQLiteEventStore {
	return &SQLiteEventStore{db: db}
}

func (s *SQLiteEventStore) Insert(ctx context.Context, ev *model.Event) error {
	participants, _ := json.Marshal(ev.Participants)
	taskIDs, _ := json.Marshal(ev.TaskIDs)
	if ev.TaskIDs == nil {
		taskIDs = []byte("[]")
	}
	if ev.Participants == nil {
		participants = []byte("[]")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Title, ev.Description, formatTime(ev.Date), ev.Location,
		ev.CreatedBy, string(participants), string(taskIDs), formatTime(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLiteEventStore) Get(ctx context.Context, id string) (*model.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

func (s *SQLiteEventStore) List(ctx context.Context) ([]*model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
}

func (s *SQLiteEventStore) ListByCreator(ctx context.Context, userID string) ([]*model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE created_by = ? ORDER BY created_at, id`, userID)
}

func (s *SQLiteEventStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteEventStore) AppendTask(ctx context.Context, eventID, taskID string) error {
	return s.mutateTaskList(ctx, eventID, func(ids []string) []string {
		for _, id := range ids {
			if id == taskID {
				return ids
			}
		}
		return append(ids, taskID)
	}, true)
}

func (s *SQLiteEventStore) RemoveTask(ctx context.Context, eventID, taskID string) error {
	return s.mutateTaskList(ctx, eventID, func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if id != taskID {
				out = append(out, id)
			}
		}
		return out
	}, false)
}

// mutateTaskList rewrites the task-id sequence inside a transaction.
// requireEvent distinguishes append (the parent must exist) from remove
// (a missing parent makes the cascade step a no-op).
func (s *SQLiteEventStore) mutateTaskList(ctx context.Context, eventID string, mutate func([]string) []string, requireEvent bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task-list update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT task_ids FROM events WHERE id = ?`, eventID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		if requireEvent {
			return ErrNotFound
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load task list: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return fmt.Errorf("decode task list for event %s: %w", eventID, err)
	}
	ids = mutate(ids)
	if ids == nil {
		ids = []string{}
	}
	encoded, _ := json.Marshal(ids)

	if _, err := tx.ExecContext(ctx, `UPDATE events SET task_ids = ? WHERE id = ?`, string(encoded), eventID); err != nil {
		return fmt.Errorf("store task list: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteEventStore) CountByParticipant(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events e
		 WHERE EXISTS (SELECT 1 FROM json_each(e.participants) WHERE json_each.value = ?)`,
		userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events by participant: %w", err)
	}
	return n, nil
}

func (s *SQLiteEventStore) queryEvents(ctx context.Context, query string, args ...any) ([]*model.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		ev                          model.Event
		date, createdAt             string
		participantsRaw, taskIDsRaw string
	)
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &date, &ev.Location,
		&ev.CreatedBy, &participantsRaw, &taskIDsRaw, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	ev.Date = parseTime(date)
	ev.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(participantsRaw), &ev.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if err := json.Unmarshal([]byte(taskIDsRaw), &ev.TaskIDs); err != nil {
		return nil, fmt.Errorf("decode task ids: %w", err)
	}
	return &ev, nil
}

const taskColumns = "id, title, description, event_id, assigned_to, created_by, status, priority, due_date, created_at"

// SQLiteTaskStore implements TaskStore on database/sql.
type SQLiteTaskStore struct {
	db *sql.DB
}

// NewSQLiteTaskStore wraps a migrated database handle.
func NewSQLiteTaskStore(db *sql.DB) *SQLiteTaskStore {
	return &SQLiteTaskStore{db: db}
}

func (s *SQLiteTaskStore) Insert(ctx context.Context, t *model.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.EventID, t.AssignedTo, t.CreatedBy,
		string(t.Status), string(t.Priority), formatNullableTime(t.DueDate), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *SQLiteTaskStore) Get(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (s *SQLiteTaskStore) Update(ctx context.Context, t *model.Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, assigned_to = ?, status = ?, priority = ?, due_date = ? WHERE id = ?`,
		t.Title, t.Description, t.AssignedTo, string(t.Status), string(t.Priority),
		formatNullableTime(t.DueDate), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteTaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteTaskStore) ListByEvent(ctx context.Context, eventID string) ([]*model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE event_id = ? ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *SQLiteTaskStore) DeleteByEvent(ctx context.Context, eventID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteTaskStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE created_by = ? OR assigned_to = ?`,
		userID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks by user: %w", err)
	}
	return n, nil
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t                model.Task
		status, priority string
		dueDate          sql.NullString
		createdAt        string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.EventID, &t.AssignedTo,
		&t.CreatedBy, &status, &priority, &dueDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Status = model.TaskStatus(status)
	t.Priority = model.TaskPriority(priority)
	if dueDate.Valid {
		t.DueDate = parseTime(dueDate.String)
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// SQLiteUserStore implements UserStore on database/sql.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStore wraps a migrated database handle.
func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

func (s *SQLiteUserStore) Insert(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) Get(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *SQLiteUserStore) List(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *SQLiteUserStore) UpdateRole(ctx context.Context, id string, role model.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteUserStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		role      string
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = model.Role(role)
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	// modernc's driver reports constraint failures only through the error
	// string; there is no typed error to unwrap.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
