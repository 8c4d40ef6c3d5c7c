package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecordStore implements RecordStore backed by PostgreSQL. Record data is a
// JSONB document keyed by field id. There is no foreign key to workflows:
// the workflow reference is weak and records survive schema deletion.
type PGRecordStore struct {
	pool *pgxpool.Pool
}

func (s *PGRecordStore) Create(ctx context.Context, r *Record) error {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO records (id, workflow_id, owner_id, data, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.WorkflowID, r.OwnerID, data, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PGRecordStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, workflow_id, owner_id, data, created_at, updated_at
		FROM records WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query record: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanRecord(rows)
}

func (s *PGRecordStore) Update(ctx context.Context, r *Record) error {
	r.UpdatedAt = time.Now()
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE records SET data = $2, updated_at = $3 WHERE id = $1`,
		r.ID, data, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGRecordStore) List(ctx context.Context, f RecordFilter) ([]*Record, error) {
	query := `SELECT id, workflow_id, owner_id, data, created_at, updated_at
		FROM records WHERE 1=1`
	args := []any{}
	idx := 1

	if f.OwnerID != "" {
		query += fmt.Sprintf(` AND owner_id = $%d`, idx)
		args = append(args, f.OwnerID)
		idx++
	}
	if f.WorkflowID != nil {
		query += fmt.Sprintf(` AND workflow_id = $%d`, idx)
		args = append(args, *f.WorkflowID)
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
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PGRecordStore) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM records WHERE ($1 = '' OR owner_id = $1)`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func scanRecord(rows pgx.Rows) (*Record, error) {
	var (
		r    Record
		data []byte
	)
	err := rows.Scan(&r.ID, &r.WorkflowID, &r.OwnerID, &data, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	r.Data, err = scanJSONMap(data)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
