package server

import (
	"context"
	"fmt"
)

// Seed fills an empty database with one request, one project and a small
// board so the clients have something to talk to. It is a no-op when any
// request already exists.
func (d *DB) Seed(ctx context.Context) error {
	var n int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	at := d.stamp()
	exec := func(q string, args ...any) {
		if err != nil {
			return
		}
		_, err = tx.ExecContext(ctx, q, args...)
	}
	exec(`INSERT INTO requests (id, title, status, created_at) VALUES (1, 'Company website', 'in_progress', ?)`, at)
	exec(`INSERT INTO projects (id, request_id, name, created_at) VALUES (1, 1, 'Company website', ?)`, at)
	for i, title := range []string{"Brief", "Design mockups", "Development", "Launch"} {
		exec(`INSERT INTO checkpoints (owner_kind, owner_id, title, is_done, ord, created_at) VALUES (?, 1, ?, ?, ?, ?)`,
			OwnerRequest, title, i == 0, i+1, at)
	}
	tasks := []struct {
		title, typ, status string
	}{
		{"Landing layout", "frontend", "todo"},
		{"Contact form API", "backend", "todo"},
		{"CI pipeline", "devops", "in_progress"},
		{"Cross-browser pass", "qa", "review"},
		{"Domain and DNS", "devops", "done"},
	}
	for i, t := range tasks {
		exec(`INSERT INTO tasks (id, project_id, title, task_type, status, ord, created_by, created_at, updated_at)
			VALUES (?, 1, ?, ?, ?, ?, 'manager', ?, ?)`, i+1, t.title, t.typ, t.status, i+1, at, at)
	}
	exec(`INSERT INTO checkpoints (owner_kind, owner_id, title, ord, created_at) VALUES (?, 1, 'Hero section', 1, ?)`, OwnerTask, at)
	exec(`INSERT INTO messages (task_id, author, text, created_at) VALUES (1, 'manager', 'Mockups are in the shared folder.', ?)`, at)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return tx.Commit()
}
