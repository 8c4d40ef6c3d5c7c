package schema

import (
	"fmt"
	"time"

	"github.com/formflow/formflow/store"
)

// Builder assembles a workflow field list at design time. It mirrors the
// schema designer: fields accumulate in a mutable draft and nothing touches
// persistence until Build produces a fully-formed workflow. The contiguous
// order invariant {0..n-1} is restored after every mutation.
type Builder struct {
	name        string
	description string
	fields      []store.Field
	seq         int
}

// NewBuilder creates a Builder for a workflow draft.
func NewBuilder(name, description string) *Builder {
	return &Builder{name: name, description: description}
}

// Fields returns the current draft field list.
func (b *Builder) Fields() []store.Field {
	return b.fields
}

// AddField appends a new blank field: default type text, not required,
// order at the end of the list. Returns the generated field id.
func (b *Builder) AddField() string {
	b.seq++
	f := store.Field{
		ID:    fmt.Sprintf("field-%d-%d", time.Now().UnixMilli(), b.seq),
		Type:  store.FieldTypeText,
		Order: len(b.fields),
	}
	b.fields = append(b.fields, f)
	return f.ID
}

// FieldPatch carries replacement attributes for UpdateField. Nil members
// leave the current value untouched; id and order can never be patched.
type FieldPatch struct {
	Name     *string
	Type     *store.FieldType
	Required *bool
	Options  []string
}

// UpdateField replaces the addressed field's attributes except its id and
// order. Returns false when no field has the given id.
func (b *Builder) UpdateField(fieldID string, patch FieldPatch) bool {
	for i := range b.fields {
		if b.fields[i].ID != fieldID {
			continue
		}
		if patch.Name != nil {
			b.fields[i].Name = *patch.Name
		}
		if patch.Type != nil {
			b.fields[i].Type = *patch.Type
		}
		if patch.Required != nil {
			b.fields[i].Required = *patch.Required
		}
		if patch.Options != nil {
			b.fields[i].Options = patch.Options
		}
		return true
	}
	return false
}

// RemoveField deletes the addressed field and renumbers the remaining
// fields so orders stay contiguous from 0. Returns false on unknown id.
func (b *Builder) RemoveField(fieldID string) bool {
	for i := range b.fields {
		if b.fields[i].ID == fieldID {
			b.fields = append(b.fields[:i], b.fields[i+1:]...)
			Renumber(b.fields)
			return true
		}
	}
	return false
}

// Move reorders the draft via the drag-and-drop move operation.
func (b *Builder) Move(from, to int) {
	b.fields = Move(b.fields, from, to)
}

// Build validates the draft and returns a workflow ready for persistence.
// The name must be non-empty, at least one field must exist, and every
// field definition must be individually valid. Orders are normalized to the
// positional indices of the draft sequence.
func (b *Builder) Build(ownerID string) (*store.Workflow, error) {
	if b.name == "" {
		return nil, &ValidationError{Message: "workflow name is required"}
	}
	if len(b.fields) == 0 {
		return nil, &ValidationError{Message: "workflow requires at least one field"}
	}

	fields := make([]store.Field, len(b.fields))
	copy(fields, b.fields)
	Renumber(fields)
	for _, f := range fields {
		if err := ValidateField(f); err != nil {
			return nil, err
		}
	}

	return &store.Workflow{
		OwnerID:     ownerID,
		Name:        b.name,
		Description: b.description,
		Fields:      fields,
	}, nil
}

// NewWorkflow validates a client-assembled field list and returns a
// workflow with orders assigned by input position. It is the one-shot form
// of Build used by the create endpoint, where the designer ships the whole
// draft in a single request.
func NewWorkflow(ownerID, name, description string, fields []store.Field) (*store.Workflow, error) {
	if name == "" {
		return nil, &ValidationError{Message: "name and fields are required"}
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Message: "name and fields are required"}
	}

	normalized := make([]store.Field, len(fields))
	copy(normalized, fields)
	Renumber(normalized)
	for _, f := range normalized {
		if err := ValidateField(f); err != nil {
			return nil, err
		}
	}

	return &store.Workflow{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Fields:      normalized,
	}, nil
}
