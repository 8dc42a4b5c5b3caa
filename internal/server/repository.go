package server

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"taskdeck/internal/task"
)

var ErrNotFound = errors.New("todo not found")

// Repository persists the development remote store in sqlite. Deadlines are
// stored exactly as submitted so timezone-less values round-trip unchanged.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func OpenRepository(dbPath string) (*Repository, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repository{db: db, now: time.Now}
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	deadline TEXT DEFAULT NULL,
	created_at TEXT NOT NULL
);`
	if _, err := r.db.Exec(ddl); err != nil {
		return err
	}
	return r.ensureColumns()
}

// ensureColumns upgrades databases created before a column existed.
func (r *Repository) ensureColumns() error {
	required := map[string]string{
		"deadline":   "ALTER TABLE todos ADD COLUMN deadline TEXT DEFAULT NULL;",
		"updated_at": "ALTER TABLE todos ADD COLUMN updated_at TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := r.db.Query(`PRAGMA table_info(todos);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := r.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

const selectColumns = `SELECT id, title, completed, deadline FROM todos`

// List returns todos newest first.
func (r *Repository) List(ctx context.Context) ([]task.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY rowid DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
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

func (r *Repository) Get(ctx context.Context, id string) (task.Task, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?;`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) Create(ctx context.Context, title string, deadline *string) (task.Task, error) {
	id := uuid.NewString()
	now := r.now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, completed, deadline, created_at) VALUES (?, ?, 0, ?, ?);`,
		id, title, nullString(deadline), now)
	if err != nil {
		return task.Task{}, err
	}
	return r.Get(ctx, id)
}

// Update replaces title and deadline; completed is only changed when given.
func (r *Repository) Update(ctx context.Context, id, title string, deadline *string, completed *bool) (task.Task, error) {
	now := r.now().UTC().Format(time.RFC3339Nano)
	var (
		res sql.Result
		err error
	)
	if completed != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE todos SET title = ?, deadline = ?, completed = ?, updated_at = ? WHERE id = ?;`,
			title, nullString(deadline), boolToInt(*completed), now, id)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE todos SET title = ?, deadline = ?, updated_at = ? WHERE id = ?;`,
			title, nullString(deadline), now, id)
	}
	if err != nil {
		return task.Task{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (task.Task, error) {
	var t task.Task
	var completed int
	var deadline sql.NullString
	if err := s.Scan(&t.ID, &t.Title, &completed, &deadline); err != nil {
		return task.Task{}, err
	}
	t.Completed = completed == 1
	if deadline.Valid {
		t.Deadline = task.ParseDeadline(deadline.String)
	}
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*s), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
