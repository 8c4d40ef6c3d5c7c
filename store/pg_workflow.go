package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGWorkflowStore implements WorkflowStore backed by PostgreSQL. The field
// list is stored as a JSONB document, matching the document-database shape
// the schema designer produces.
type PGWorkflowStore struct {
	pool *pgxpool.Pool
}

func (s *PGWorkflowStore) Create(ctx context.Context, w *Workflow) error {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflows (id, owner_id, name, description, fields, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		w.ID, w.OwnerID, w.Name, w.Description, fields, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isDuplicateError(err) {
			return fmt.Errorf("%w: workflow %s", ErrDuplicate, w.ID)
		}
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

func (s *PGWorkflowStore) Get(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, name, description, fields, created_at, updated_at
		FROM workflows WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query workflow: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query workflow: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanWorkflow(rows)
}

func (s *PGWorkflowStore) Update(ctx context.Context, w *Workflow) error {
	w.UpdatedAt = time.Now()
	fields, err := MarshalFields(w.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE workflows SET name = $2, description = $3, fields = $4, updated_at = $5
		WHERE id = $1`,
		w.ID, w.Name, w.Description, fields, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGWorkflowStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Records referencing this workflow are left in place on purpose.
	tag, err := s.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGWorkflowStore) List(ctx context.Context, f WorkflowFilter) ([]*Workflow, error) {
	query := `SELECT id, owner_id, name, description, fields, created_at, updated_at
		FROM workflows WHERE 1=1`
	args := []any{}
	idx := 1

	if f.OwnerID != "" {
		query += fmt.Sprintf(` AND owner_id = $%d`, idx)
		args = append(args, f.OwnerID)
		idx++
	}

	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, idx, idx+1)
	limit := f.Pagination.Limit
	if limit <= 0 {
		limit = DefaultPagination().Limit
	}
	args = append(args, limit, f.Pagination.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (s *PGWorkflowStore) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workflows WHERE ($1 = '' OR owner_id = $1)`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count workflows: %w", err)
	}
	return n, nil
}

func scanWorkflow(rows pgx.Rows) (*Workflow, error) {
	var (
		w      Workflow
		fields []byte
	)
	err := rows.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Description, &fields, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan workflow: %w", err)
	}
	if len(fields) > 0 {
		w.Fields, err = UnmarshalFields(fields)
		if err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	return &w, nil
}

// scanJSONMap decodes a JSONB column into a generic map.
func scanJSONMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return m, nil
}
