package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGConfig holds PostgreSQL connection configuration.
type PGConfig struct {
	URL      string `yaml:"url" json:"url"`
	MaxConns int32  `yaml:"max_conns" json:"max_conns"`
	MinConns int32  `yaml:"min_conns" json:"min_conns"`
}

// PGStore wraps a pgxpool.Pool and provides access to the domain stores.
type PGStore struct {
	pool *pgxpool.Pool

	workflows *PGWorkflowStore
	records   *PGRecordStore
}

// NewPGStore connects to PostgreSQL and returns a PGStore with all sub-stores.
func NewPGStore(ctx context.Context, cfg PGConfig) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse pg config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}

	return &PGStore{
		pool:      pool,
		workflows: &PGWorkflowStore{pool: pool},
		records:   &PGRecordStore{pool: pool},
	}, nil
}

// Workflows returns the workflow store.
func (s *PGStore) Workflows() WorkflowStore { return s.workflows }

// Records returns the record store.
func (s *PGStore) Records() RecordStore { return s.records }

// Migrate applies the schema migrations.
func (s *PGStore) Migrate(ctx context.Context) error {
	return NewMigrator(s.pool).Migrate(ctx)
}

// Close closes the underlying connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

// isDuplicateError reports whether err is a unique constraint violation.
func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
