package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryWorkflowStore is an in-memory implementation of WorkflowStore. It
// backs the "memory" store driver and the test suites.
type MemoryWorkflowStore struct {
	mu        sync.Mutex
	workflows map[uuid.UUID]*Workflow
}

// NewMemoryWorkflowStore creates a new empty MemoryWorkflowStore.
func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{workflows: make(map[uuid.UUID]*Workflow)}
}

func (s *MemoryWorkflowStore) Create(_ context.Context, w *Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	s.workflows[w.ID] = copyWorkflow(w)
	return nil
}

func (s *MemoryWorkflowStore) Get(_ context.Context, id uuid.UUID) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyWorkflow(w), nil
}

func (s *MemoryWorkflowStore) Update(_ context.Context, w *Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workflows[w.ID]
	if !ok {
		return ErrNotFound
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = time.Now()
	s.workflows[w.ID] = copyWorkflow(w)
	return nil
}

func (s *MemoryWorkflowStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(s.workflows, id)
	return nil
}

func (s *MemoryWorkflowStore) List(_ context.Context, f WorkflowFilter) ([]*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Workflow
	for _, w := range s.workflows {
		if f.OwnerID != "" && w.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, copyWorkflow(w))
	}
	return paginate(out, f.Pagination), nil
}

func (s *MemoryWorkflowStore) Count(_ context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.workflows {
		if ownerID == "" || w.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// MemoryRecordStore is an in-memory implementation of RecordStore.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
}

// NewMemoryRecordStore creates a new empty MemoryRecordStore.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MemoryRecordStore) Create(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.records[r.ID] = copyRecord(r)
	return nil
}

func (s *MemoryRecordStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(r), nil
}

func (s *MemoryRecordStore) Update(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[r.ID]
	if !ok {
		return ErrNotFound
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	s.records[r.ID] = copyRecord(r)
	return nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryRecordStore) List(_ context.Context, f RecordFilter) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for _, r := range s.records {
		if f.OwnerID != "" && r.OwnerID != f.OwnerID {
			continue
		}
		if f.WorkflowID != nil && r.WorkflowID != *f.WorkflowID {
			continue
		}
		out = append(out, copyRecord(r))
	}
	return paginate(out, f.Pagination), nil
}

func (s *MemoryRecordStore) Count(_ context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if ownerID == "" || r.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func copyWorkflow(w *Workflow) *Workflow {
	cp := *w
	cp.Fields = make([]Field, len(w.Fields))
	copy(cp.Fields, w.Fields)
	for i, fld := range w.Fields {
		if fld.Options != nil {
			cp.Fields[i].Options = append([]string(nil), fld.Options...)
		}
	}
	return &cp
}

func copyRecord(r *Record) *Record {
	cp := *r
	if r.Data != nil {
		cp.Data = make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			cp.Data[k] = v
		}
	}
	return &cp
}

func paginate[T any](items []T, p Pagination) []T {
	if p.Limit <= 0 {
		return items
	}
	if p.Offset >= len(items) {
		return nil
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
