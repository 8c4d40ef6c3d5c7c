package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formflow/formflow/store"
)

func strPtr(s string) *string                    { return &s }
func typePtr(t store.FieldType) *store.FieldType { return &t }
func boolPtr(b bool) *bool                       { return &b }

func TestBuilderAddField(t *testing.T) {
	b := NewBuilder("Contacts", "")
	id1 := b.AddField()
	id2 := b.AddField()

	require.NotEqual(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "field-"))

	fields := b.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, store.FieldTypeText, fields[0].Type)
	assert.False(t, fields[0].Required)
	assert.Equal(t, 0, fields[0].Order)
	assert.Equal(t, 1, fields[1].Order)
}

func TestBuilderUpdateField(t *testing.T) {
	b := NewBuilder("Contacts", "")
	id := b.AddField()

	ok := b.UpdateField(id, FieldPatch{
		Name:     strPtr("Status"),
		Type:     typePtr(store.FieldTypeSelect),
		Required: boolPtr(true),
		Options:  []string{"new", "active"},
	})
	require.True(t, ok)

	f := b.Fields()[0]
	assert.Equal(t, "Status", f.Name)
	assert.Equal(t, store.FieldTypeSelect, f.Type)
	assert.True(t, f.Required)
	assert.Equal(t, []string{"new", "active"}, f.Options)
	assert.Equal(t, id, f.ID)
	assert.Equal(t, 0, f.Order)
}

func TestBuilderUpdateUnknownField(t *testing.T) {
	b := NewBuilder("Contacts", "")
	b.AddField()
	assert.False(t, b.UpdateField("ghost", FieldPatch{Name: strPtr("x")}))
}

func TestBuilderRemoveFieldRenumbers(t *testing.T) {
	b := NewBuilder("Contacts", "")
	id1 := b.AddField()
	b.AddField()
	b.AddField()

	require.True(t, b.RemoveField(id1))
	fields := b.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, 0, fields[0].Order)
	assert.Equal(t, 1, fields[1].Order)

	assert.False(t, b.RemoveField(id1))
}

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder("Contacts", "People we know")
	id := b.AddField()
	b.UpdateField(id, FieldPatch{Name: strPtr("Name"), Required: boolPtr(true)})

	wf, err := b.Build("user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", wf.OwnerID)
	assert.Equal(t, "Contacts", wf.Name)
	assert.Equal(t, "People we know", wf.Description)
	require.Len(t, wf.Fields, 1)
	assert.Equal(t, "Name", wf.Fields[0].Name)
}

func TestBuilderBuildRejectsEmptyDraft(t *testing.T) {
	_, err := NewBuilder("", "").Build("user-1")
	require.Error(t, err)

	_, err = NewBuilder("Contacts", "").Build("user-1")
	require.Error(t, err)
}

func TestBuilderBuildRejectsUnnamedField(t *testing.T) {
	b := NewBuilder("Contacts", "")
	b.AddField()
	_, err := b.Build("user-1")
	require.Error(t, err)
}

func TestNewWorkflowAssignsOrderByPosition(t *testing.T) {
	wf, err := NewWorkflow("user-1", "Contacts", "", []store.Field{
		{ID: "f-b", Name: "B", Type: store.FieldTypeText, Order: 9},
		{ID: "f-a", Name: "A", Type: store.FieldTypeText, Order: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, wf.Fields[0].Order)
	assert.Equal(t, 1, wf.Fields[1].Order)
	assert.Equal(t, "f-b", wf.Fields[0].ID)
}

func TestNewWorkflowRejectsMissingNameOrFields(t *testing.T) {
	_, err := NewWorkflow("user-1", "", "", orderedFields("a"))
	require.EqualError(t, err, "name and fields are required")

	_, err = NewWorkflow("user-1", "Contacts", "", nil)
	require.EqualError(t, err, "name and fields are required")
}

func TestValidateField(t *testing.T) {
	assert.NoError(t, ValidateField(store.Field{ID: "f", Name: "Name", Type: store.FieldTypeText}))
	assert.Error(t, ValidateField(store.Field{ID: "f", Name: "  ", Type: store.FieldTypeText}))
	assert.Error(t, ValidateField(store.Field{ID: "f", Name: "Name", Type: "fancy"}))
	assert.Error(t, ValidateField(store.Field{
		ID: "f", Name: "Pick", Type: store.FieldTypeSelect, Options: []string{"ok", " padded "},
	}))
}

func TestParseOptions(t *testing.T) {
	assert.Equal(t, []string{"red", "green", "blue"}, ParseOptions(" red, green ,blue,, "))
	assert.Nil(t, ParseOptions("  ,  "))
	assert.Equal(t, []string{"a", "a"}, ParseOptions("a,a"))
}
