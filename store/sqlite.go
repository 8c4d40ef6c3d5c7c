package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteStore is an embedded single-file store for development and
// single-binary deployments. Fields and record data are stored as JSON text
// columns, mirroring the document shape of the PostgreSQL store.
type SQLiteStore struct {
	db *sql.DB

	workflows *SQLiteWorkflowStore
	records   *SQLiteRecordStore
}

// NewSQLiteStore opens (creating if needed) the database at path and
// initializes the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Serialized access; modernc sqlite files do not tolerate concurrent writers.
	db.SetMaxOpenConns(1)

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:        db,
		workflows: &SQLiteWorkflowStore{db: db},
		records:   &SQLiteRecordStore{db: db},
	}, nil
}

// Workflows returns the workflow store.
func (s *SQLiteStore) Workflows() WorkflowStore { return s.workflows }

// Records returns the record store.
func (s *SQLiteStore) Records() RecordStore { return s.records }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			fields TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflows_owner ON workflows(owner_id);`,
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_owner ON records(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_records_workflow ON records(workflow_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

// SQLiteWorkflowStore implements WorkflowStore on an embedded sqlite file.
type SQLiteWorkflowStore struct {
	db *sql.DB
}

func (s *SQLiteWorkflowStore) Create(ctx context.Context, w *Workflow) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	fields, err := MarshalFields(w.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, owner_id, name, description, fields, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)`,
		w.ID.String(), w.OwnerID, w.Name, w.Description, string(fields), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

func (s *SQLiteWorkflowStore) Get(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, fields, created_at, updated_at
		FROM workflows WHERE id = ?`, id.String())
	return scanSQLiteWorkflow(row)
}

func (s *SQLiteWorkflowStore) Update(ctx context.Context, w *Workflow) error {
	w.UpdatedAt = time.Now()
	fields, err := MarshalFields(w.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET name = ?, description = ?, fields = ?, updated_at = ?
		WHERE id = ?`,
		w.Name, w.Description, string(fields), w.UpdatedAt, w.ID.String())
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteWorkflowStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteWorkflowStore) List(ctx context.Context, f WorkflowFilter) ([]*Workflow, error) {
	limit := f.Pagination.Limit
	if limit <= 0 {
		limit = DefaultPagination().Limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, description, fields, created_at, updated_at
		FROM workflows WHERE (? = '' OR owner_id = ?) LIMIT ? OFFSET ?`,
		f.OwnerID, f.OwnerID, limit, f.Pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		w, err := scanSQLiteWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (s *SQLiteWorkflowStore) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workflows WHERE (? = '' OR owner_id = ?)`, ownerID, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count workflows: %w", err)
	}
	return n, nil
}

// SQLiteRecordStore implements RecordStore on an embedded sqlite file.
type SQLiteRecordStore struct {
	db *sql.DB
}

func (s *SQLiteRecordStore) Create(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, workflow_id, owner_id, data, created_at, updated_at)
		VALUES (?,?,?,?,?,?)`,
		r.ID.String(), r.WorkflowID.String(), r.OwnerID, string(data), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteRecordStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, owner_id, data, created_at, updated_at
		FROM records WHERE id = ?`, id.String())
	return scanSQLiteRecord(row)
}

func (s *SQLiteRecordStore) Update(ctx context.Context, r *Record) error {
	r.UpdatedAt = time.Now()
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), r.UpdatedAt, r.ID.String())
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteRecordStore) List(ctx context.Context, f RecordFilter) ([]*Record, error) {
	limit := f.Pagination.Limit
	if limit <= 0 {
		limit = DefaultPagination().Limit
	}

	query := `SELECT id, workflow_id, owner_id, data, created_at, updated_at
		FROM records WHERE (? = '' OR owner_id = ?)`
	args := []any{f.OwnerID, f.OwnerID}
	if f.WorkflowID != nil {
		query += ` AND workflow_id = ?`
		args = append(args, f.WorkflowID.String())
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, f.Pagination.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteRecordStore) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE (? = '' OR owner_id = ?)`, ownerID, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteWorkflow(row rowScanner) (*Workflow, error) {
	var (
		w      Workflow
		id     string
		fields string
	)
	err := row.Scan(&id, &w.OwnerID, &w.Name, &w.Description, &fields, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}
	if w.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse workflow id: %w", err)
	}
	if w.Fields, err = UnmarshalFields([]byte(fields)); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &w, nil
}

func scanSQLiteRecord(row rowScanner) (*Record, error) {
	var (
		r    Record
		id   string
		wfID string
		data string
	)
	err := row.Scan(&id, &wfID, &r.OwnerID, &data, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	if r.WorkflowID, err = uuid.Parse(wfID); err != nil {
		return nil, fmt.Errorf("parse workflow id: %w", err)
	}
	if r.Data, err = scanJSONMap([]byte(data)); err != nil {
		return nil, err
	}
	return &r, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
