package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldType identifies the input kind of a workflow field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeEmail    FieldType = "email"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
)

// ValidFieldTypes is the set of recognized field type values.
var ValidFieldTypes = map[FieldType]bool{
	FieldTypeText:     true,
	FieldTypeNumber:   true,
	FieldTypeEmail:    true,
	FieldTypeDate:     true,
	FieldTypeSelect:   true,
	FieldTypeCheckbox: true,
}

// Field is a single typed field definition inside a workflow schema.
// Order is the field's position among its siblings; within one workflow the
// order values are always contiguous from 0 after any mutation.
type Field struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"` // select fields only
	Order    int       `json:"order"`
}

// Workflow is a user-defined data schema: an ordered list of fields owned by
// a single user.
type Workflow struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Fields      []Field   `json:"fields"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Record is a single data entry collected against a workflow schema. The
// workflow reference is weak: the workflow may be deleted while records
// referencing it live on.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	WorkflowID uuid.UUID      `json:"workflowId"`
	OwnerID    string         `json:"userId"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// MarshalFields serializes a field list for storage in a JSON document column.
func MarshalFields(fields []Field) ([]byte, error) {
	return json.Marshal(fields)
}

// UnmarshalFields deserializes a stored field list.
func UnmarshalFields(raw []byte) ([]Field, error) {
	var fields []Field
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
