// Package devbackend is a local stand-in for the persistence REST API.
//
// It stores PRDs, technical specifications and roadmap tasks in SQLite and
// serves them over the same routes the backend client calls, so the agents
// can run end to end without the production service.
package devbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/pmhelper/internal/backend"
	_ "modernc.org/sqlite"
)

// openDB opens the database handle; tests swap it.
var openDB = sql.Open

var (
	// ErrNotFound reports a missing document or task.
	ErrNotFound = errors.New("not found")
	// ErrExists reports a create of a document the project already has.
	ErrExists = errors.New("already exists")
)

// Kind is a document family.
type Kind string

const (
	KindPRD  Kind = "prd"
	KindSpec Kind = "spec"
)

// DocumentInput is the body of a document create.
type DocumentInput struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	Status           string `json:"status"`
	TechnicalDetails string `json:"technical_details"`
}

// DocumentPatch is the body of a document update; nil fields are kept.
type DocumentPatch struct {
	Title            *string `json:"title"`
	Content          *string `json:"content"`
	Status           *string `json:"status"`
	TechnicalDetails *string `json:"technical_details"`
}

// TaskFilter narrows ListTasks. Empty fields match everything.
type TaskFilter struct {
	Quarter string
	Status  string
}

// Store is the SQLite persistence of the dev backend.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("devbackend: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("devbackend: open database: %w", err)
	}
	// One connection keeps the pragmas in force for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("devbackend: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("devbackend: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Migrations ---

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id        INTEGER NOT NULL,
			kind              TEXT    NOT NULL,
			title             TEXT    NOT NULL DEFAULT '',
			content           TEXT    NOT NULL DEFAULT '',
			status            TEXT    NOT NULL DEFAULT 'draft',
			technical_details TEXT    NOT NULL DEFAULT '',
			created_at        TEXT    NOT NULL,
			updated_at        TEXT    NOT NULL,
			UNIQUE (project_id, kind)
		);

		CREATE TABLE IF NOT EXISTS roadmap_tasks (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id       INTEGER NOT NULL,
			title            TEXT    NOT NULL,
			description      TEXT    NOT NULL DEFAULT '',
			priority         TEXT    NOT NULL DEFAULT 'P2',
			quarter          TEXT    NOT NULL,
			estimated_effort TEXT    NOT NULL DEFAULT 'Medium',
			dependencies     TEXT    NOT NULL DEFAULT '',
			status           TEXT    NOT NULL DEFAULT 'planned',
			created_at       TEXT    NOT NULL,
			updated_at       TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_project ON roadmap_tasks(project_id, quarter);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- Documents ---

const documentColumns = `id, project_id, title, content, status, technical_details, created_at, updated_at`

// GetDocument returns the project's document of kind.
func (s *Store) GetDocument(ctx context.Context, kind Kind, projectID int64) (*backend.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE project_id = ? AND kind = ?`,
		projectID, kind,
	)
	return scanDocument(row)
}

// CreateDocument stores the project's first document of kind.
func (s *Store) CreateDocument(ctx context.Context, kind Kind, projectID int64, in DocumentInput) (*backend.Document, error) {
	status := in.Status
	if status == "" {
		status = backend.DraftStatus
	}
	now := Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (project_id, kind, title, content, status, technical_details, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, kind, in.Title, in.Content, status, in.TechnicalDetails, now, now,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s for project %d: %w", kind, projectID, ErrExists)
	}
	if err != nil {
		return nil, err
	}
	return s.GetDocument(ctx, kind, projectID)
}

// UpdateDocument applies p to the project's document of kind.
func (s *Store) UpdateDocument(ctx context.Context, kind Kind, projectID int64, p DocumentPatch) (*backend.Document, error) {
	doc, err := s.GetDocument(ctx, kind, projectID)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Content != nil {
		doc.Content = *p.Content
	}
	if p.Status != nil {
		doc.Status = *p.Status
	}
	if p.TechnicalDetails != nil {
		doc.TechnicalDetails = *p.TechnicalDetails
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET title = ?, content = ?, status = ?, technical_details = ?, updated_at = ?
		 WHERE id = ?`,
		doc.Title, doc.Content, doc.Status, doc.TechnicalDetails, Now(), doc.ID,
	); err != nil {
		return nil, err
	}
	return s.GetDocument(ctx, kind, projectID)
}

func scanDocument(row *sql.Row) (*backend.Document, error) {
	var d backend.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Content, &d.Status, &d.TechnicalDetails, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// --- Roadmap tasks ---

const taskColumns = `id, project_id, title, description, priority, quarter, estimated_effort, dependencies, status, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateTask stores one task.
func (s *Store) CreateTask(ctx context.Context, projectID int64, t backend.Task) (*backend.Task, error) {
	id, err := insertTask(ctx, s.db, projectID, t)
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// BulkCreateTasks stores every task or none of them.
func (s *Store) BulkCreateTasks(ctx context.Context, projectID int64, tasks []backend.Task) ([]backend.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bulk create: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(tasks))
	for i, t := range tasks {
		id, err := insertTask(ctx, tx, projectID, t)
		if err != nil {
			return nil, fmt.Errorf("bulk create task %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bulk create: commit: %w", err)
	}

	out := make([]backend.Task, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func insertTask(ctx context.Context, db execer, projectID int64, t backend.Task) (int64, error) {
	now := Now()
	res, err := db.ExecContext(ctx,
		`INSERT INTO roadmap_tasks (project_id, title, description, priority, quarter, estimated_effort, dependencies, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, t.Title, t.Description,
		orDefault(t.Priority, "P2"), t.Quarter, orDefault(t.EstimatedEffort, "Medium"),
		t.Dependencies, orDefault(t.Status, "planned"), now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTasks returns the project's tasks ordered by quarter, priority and id.
func (s *Store) ListTasks(ctx context.Context, projectID int64, f TaskFilter) ([]backend.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM roadmap_tasks WHERE project_id = ?`
	args := []any{projectID}
	if f.Quarter != "" {
		query += ` AND quarter = ?`
		args = append(args, f.Quarter)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY quarter, priority, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks := []backend.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetTask returns one task.
func (s *Store) GetTask(ctx context.Context, id int64) (*backend.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM roadmap_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// UpdateTask applies the non-nil fields of u.
func (s *Store) UpdateTask(ctx context.Context, id int64, u backend.TaskUpdate) (*backend.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&t.Title, u.Title)
	apply(&t.Description, u.Description)
	apply(&t.Priority, u.Priority)
	apply(&t.Quarter, u.Quarter)
	apply(&t.EstimatedEffort, u.EstimatedEffort)
	apply(&t.Dependencies, u.Dependencies)
	apply(&t.Status, u.Status)

	if _, err := s.db.ExecContext(ctx,
		`UPDATE roadmap_tasks
		 SET title = ?, description = ?, priority = ?, quarter = ?,
		     estimated_effort = ?, dependencies = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, t.Description, t.Priority, t.Quarter,
		t.EstimatedEffort, t.Dependencies, t.Status, Now(), id,
	); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes one task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roadmap_tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTasks removes every task of the project.
func (s *Store) ClearTasks(ctx context.Context, projectID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM roadmap_tasks WHERE project_id = ?`, projectID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*backend.Task, error) {
	var t backend.Task
	if err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.Quarter,
		&t.EstimatedEffort, &t.Dependencies, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Helpers ---

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
