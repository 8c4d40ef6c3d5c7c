package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	wf := &Workflow{
		OwnerID:     "user-1",
		Name:        "Contacts",
		Description: "People we know",
		Fields: []Field{
			{ID: "f-name", Name: "Name", Type: FieldTypeText, Required: true, Order: 0},
			{ID: "f-color", Name: "Color", Type: FieldTypeSelect, Options: []string{"red", "blue"}, Order: 1},
		},
	}
	if err := s.Workflows().Create(ctx, wf); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Workflows().Get(ctx, wf.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Contacts" || got.Description != "People we know" {
		t.Fatalf("got %+v", got)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("fields = %d", len(got.Fields))
	}
	if got.Fields[1].Type != FieldTypeSelect || len(got.Fields[1].Options) != 2 {
		t.Fatalf("select field lost options: %+v", got.Fields[1])
	}

	got.Name = "Contacts v2"
	if err := s.Workflows().Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, _ := s.Workflows().Get(ctx, wf.ID)
	if updated.Name != "Contacts v2" {
		t.Fatalf("update not persisted: %q", updated.Name)
	}

	if err := s.Workflows().Delete(ctx, wf.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Workflows().Get(ctx, wf.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := s.Workflows().Delete(ctx, wf.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestSQLiteWorkflowListAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	for _, owner := range []string{"alice", "alice", "bob"} {
		wf := &Workflow{OwnerID: owner, Name: "wf", Fields: []Field{{ID: "f", Name: "F", Type: FieldTypeText}}}
		if err := s.Workflows().Create(ctx, wf); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	mine, err := s.Workflows().List(ctx, WorkflowFilter{OwnerID: "alice"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("List(alice) = %d, want 2", len(mine))
	}

	n, err := s.Workflows().Count(ctx, "bob")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count(bob) = %d, want 1", n)
	}
}

func TestSQLiteRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	wfID := uuid.New()

	rec := &Record{
		WorkflowID: wfID,
		OwnerID:    "user-1",
		Data:       map[string]any{"f-name": "Ada", "f-sub": true},
	}
	if err := s.Records().Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Records().Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WorkflowID != wfID || got.Data["f-name"] != "Ada" {
		t.Fatalf("got %+v", got)
	}
	// JSON round-trips booleans intact.
	if got.Data["f-sub"] != true {
		t.Fatalf("checkbox value = %v (%T)", got.Data["f-sub"], got.Data["f-sub"])
	}

	got.Data = map[string]any{"f-name": "Grace"}
	if err := s.Records().Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, _ := s.Records().Get(ctx, rec.ID)
	if updated.Data["f-name"] != "Grace" {
		t.Fatalf("update not persisted: %v", updated.Data)
	}
	if _, ok := updated.Data["f-sub"]; ok {
		t.Fatal("update merged instead of replacing")
	}

	other := uuid.New()
	scoped, err := s.Records().List(ctx, RecordFilter{OwnerID: "user-1", WorkflowID: &other})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(scoped) != 0 {
		t.Fatalf("List(other workflow) = %d, want 0", len(scoped))
	}
}
