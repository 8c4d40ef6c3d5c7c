package store

import (
	"context"

	"github.com/google/uuid"
)

// Pagination holds common pagination parameters.
type Pagination struct {
	Offset int
	Limit  int
}

// DefaultPagination returns a Pagination with sensible defaults.
func DefaultPagination() Pagination {
	return Pagination{Offset: 0, Limit: 200}
}

// WorkflowFilter specifies criteria for listing workflows.
type WorkflowFilter struct {
	OwnerID    string
	Pagination Pagination
}

// WorkflowStore defines persistence operations for workflow schemas.
// Implementations return results in no particular order; callers sort.
type WorkflowStore interface {
	Create(ctx context.Context, w *Workflow) error
	Get(ctx context.Context, id uuid.UUID) (*Workflow, error)
	Update(ctx context.Context, w *Workflow) error
	// Delete removes a workflow. It does not cascade to records that
	// reference it.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f WorkflowFilter) ([]*Workflow, error)
	Count(ctx context.Context, ownerID string) (int, error)
}

// RecordFilter specifies criteria for listing records.
type RecordFilter struct {
	OwnerID    string
	WorkflowID *uuid.UUID
	Pagination Pagination
}

// RecordStore defines persistence operations for workflow records.
type RecordStore interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RecordFilter) ([]*Record, error)
	Count(ctx context.Context, ownerID string) (int, error)
}
