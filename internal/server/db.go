package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/waypoint/internal/model"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// Owner is the parent of a checkpoint list: a client request or a task.
type Owner struct {
	Kind string
	ID   int64
}

const (
	OwnerRequest = "request"
	OwnerTask    = "task"
)

func RequestOwner(id int64) Owner { return Owner{Kind: OwnerRequest, ID: id} }
func TaskOwner(id int64) Owner    { return Owner{Kind: OwnerTask, ID: id} }

// DB is the authority's SQLite store.
type DB struct {
	sql *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*DB, error) {
	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serialises writers.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	d := &DB{sql: db, now: time.Now}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY,
			request_id INTEGER REFERENCES requests(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			task_type TEXT NOT NULL DEFAULT 'fullstack',
			status TEXT NOT NULL DEFAULT 'todo',
			story_points INTEGER NOT NULL DEFAULT 0,
			assignee TEXT,
			created_by TEXT,
			due_date TEXT,
			ord INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(project_id, status, ord);`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			id INTEGER PRIMARY KEY,
			owner_kind TEXT NOT NULL,
			owner_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			is_done INTEGER NOT NULL DEFAULT 0,
			ord INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_owner ON checkpoints(owner_kind, owner_id, ord);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := d.sql.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) stamp() int64 { return d.now().UnixMilli() }

func (d *DB) exists(ctx context.Context, table string, id int64) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// OwnerExists reports whether the request or task behind o exists.
func (d *DB) OwnerExists(ctx context.Context, o Owner) (bool, error) {
	switch o.Kind {
	case OwnerRequest:
		return d.exists(ctx, "requests", o.ID)
	case OwnerTask:
		return d.exists(ctx, "tasks", o.ID)
	}
	return false, fmt.Errorf("unknown owner kind %q", o.Kind)
}

func (d *DB) ProjectExists(ctx context.Context, id int64) (bool, error) {
	return d.exists(ctx, "projects", id)
}

// Checkpoints lists o's checkpoints by (order, creation).
func (d *DB) Checkpoints(ctx context.Context, o Owner) ([]model.Item, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, title, comment, is_done, ord FROM checkpoints
		 WHERE owner_kind = ? AND owner_id = ? ORDER BY ord, created_at, id`, o.Kind, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Item{}
	for rows.Next() {
		var it model.Item
		var ord int
		if err := rows.Scan(&it.ID, &it.Title, &it.Comment, &it.IsDone, &ord); err != nil {
			return nil, err
		}
		it.Order = model.IntPtr(ord)
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateCheckpoint appends a checkpoint after the current last one.
func (d *DB) CreateCheckpoint(ctx context.Context, o Owner, title, comment string) (model.Item, error) {
	var last sql.NullInt64
	if err := d.sql.QueryRowContext(ctx,
		`SELECT MAX(ord) FROM checkpoints WHERE owner_kind = ? AND owner_id = ?`, o.Kind, o.ID).Scan(&last); err != nil {
		return model.Item{}, err
	}
	ord := int(last.Int64) + 1
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO checkpoints (owner_kind, owner_id, title, comment, is_done, ord, created_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`, o.Kind, o.ID, title, comment, ord, d.stamp())
	if err != nil {
		return model.Item{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, err
	}
	return model.Item{ID: id, Title: title, Comment: comment, Order: model.IntPtr(ord)}, nil
}

// Patch holds the provided fields of an update; nil means untouched.
type Patch struct {
	Title   *string
	Comment *string
	IsDone  *bool
}

func (d *DB) UpdateCheckpoint(ctx context.Context, o Owner, id int64, p Patch) error {
	ok, err := d.ownsCheckpoint(ctx, o, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if p.Title != nil {
		if _, err := d.sql.ExecContext(ctx, `UPDATE checkpoints SET title = ? WHERE id = ?`, *p.Title, id); err != nil {
			return err
		}
	}
	if p.Comment != nil {
		if _, err := d.sql.ExecContext(ctx, `UPDATE checkpoints SET comment = ? WHERE id = ?`, *p.Comment, id); err != nil {
			return err
		}
	}
	if p.IsDone != nil {
		if _, err := d.sql.ExecContext(ctx, `UPDATE checkpoints SET is_done = ? WHERE id = ?`, *p.IsDone, id); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) DeleteCheckpoint(ctx context.Context, o Owner, id int64) error {
	res, err := d.sql.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE id = ? AND owner_kind = ? AND owner_id = ?`, id, o.Kind, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderCheckpoints numbers the listed checkpoints of o 1..n in list
// order. Ids o does not own are skipped and a repeated id keeps its first
// position, the same numbering the client store applies. Unlisted
// checkpoints keep their order.
func (d *DB) ReorderCheckpoints(ctx context.Context, o Owner, ids []int64) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	seen := make(map[int64]bool, len(ids))
	ord := 0
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		res, err := tx.ExecContext(ctx,
			`UPDATE checkpoints SET ord = ? WHERE id = ? AND owner_kind = ? AND owner_id = ?`,
			ord+1, id, o.Kind, o.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			ord++
		}
	}
	return tx.Commit()
}

func (d *DB) ownsCheckpoint(ctx context.Context, o Owner, id int64) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checkpoints WHERE id = ? AND owner_kind = ? AND owner_id = ?`, id, o.Kind, o.ID).Scan(&n)
	return n > 0, err
}

// Tasks lists a project's tasks by (order, creation); description is
// exposed as the item comment.
func (d *DB) Tasks(ctx context.Context, projectID int64) ([]model.Item, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, title, description, status, ord FROM tasks
		 WHERE project_id = ? ORDER BY ord, created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Item{}
	for rows.Next() {
		var it model.Item
		var ord int
		var status string
		if err := rows.Scan(&it.ID, &it.Title, &it.Comment, &status, &ord); err != nil {
			return nil, err
		}
		it.Status = model.Status(status)
		it.IsDone = it.Status == model.StatusDone
		it.Order = model.IntPtr(ord)
		out = append(out, it)
	}
	return out, rows.Err()
}

// MoveTask reclassifies a task and puts it at the end of its new column.
func (d *DB) MoveTask(ctx context.Context, id int64, status model.Status) error {
	var project int64
	err := d.sql.QueryRowContext(ctx, `SELECT project_id FROM tasks WHERE id = ?`, id).Scan(&project)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	var last sql.NullInt64
	if err := d.sql.QueryRowContext(ctx,
		`SELECT MAX(ord) FROM tasks WHERE project_id = ? AND status = ? AND id != ?`,
		project, string(status), id).Scan(&last); err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`UPDATE tasks SET status = ?, ord = ?, updated_at = ? WHERE id = ?`,
		string(status), last.Int64+1, d.stamp(), id)
	return err
}

// Task returns the panel header of a task.
func (d *DB) Task(ctx context.Context, id int64) (model.TaskDetail, error) {
	var t model.TaskDetail
	var status string
	var assignee, createdBy, due sql.NullString
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, title, description, status, task_type, story_points, assignee, created_by, due_date, project_id
		 FROM tasks WHERE id = ?`, id).Scan(
		&t.ID, &t.Title, &t.Description, &status, &t.TaskType, &t.StoryPoints, &assignee, &createdBy, &due, &t.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Status = model.Status(status)
	t.StatusLabel = t.Status.Label()
	t.TaskTypeLabel = taskTypeLabel(t.TaskType)
	t.Assignee = nullable(assignee)
	t.CreatedBy = nullable(createdBy)
	t.DueDate = nullable(due)
	return t, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func taskTypeLabel(t string) string {
	switch t {
	case "frontend":
		return "Frontend"
	case "backend":
		return "Backend"
	case "fullstack":
		return "Fullstack"
	case "devops":
		return "DevOps"
	case "qa":
		return "QA"
	case "android":
		return "Android"
	case "db":
		return "Database"
	}
	return t
}

const chatWindow = 50

// Chat returns the latest messages of a task, oldest first.
func (d *DB) Chat(ctx context.Context, taskID int64) ([]model.ChatMessage, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, text, author, created_at FROM messages
		 WHERE task_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, taskID, chatWindow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		var at int64
		if err := rows.Scan(&m.ID, &m.Text, &m.Author, &at); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(at).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (d *DB) AddMessage(ctx context.Context, taskID int64, author, text string) (model.ChatMessage, error) {
	at := d.stamp()
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO messages (task_id, author, text, created_at) VALUES (?, ?, ?, ?)`, taskID, author, text, at)
	if err != nil {
		return model.ChatMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ChatMessage{}, err
	}
	return model.ChatMessage{ID: id, Text: text, Author: author, CreatedAt: time.UnixMilli(at).UTC()}, nil
}
