// Package schema implements the workflow schema model: field definition
// validation, the design-time field list builder, drag-and-drop reordering,
// and record validation against a schema's current field list.
package schema

import (
	"fmt"
	"strings"

	"github.com/formflow/formflow/store"
)

// ValidateField checks a single field definition: the display name must be
// non-empty and the type must be one of the recognized kinds. Options on a
// select field may be empty, but any stored option must be a trimmed
// non-empty string.
func ValidateField(f store.Field) error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Message: "field name is required"}
	}
	if !store.ValidFieldTypes[f.Type] {
		return &ValidationError{Message: fmt.Sprintf("unknown field type %q", f.Type)}
	}
	if f.Type == store.FieldTypeSelect {
		for _, opt := range f.Options {
			if opt == "" || opt != strings.TrimSpace(opt) {
				return &ValidationError{Message: fmt.Sprintf("invalid option %q on field %q", opt, f.Name)}
			}
		}
	}
	return nil
}

// ParseOptions converts comma-separated designer input into an option list:
// entries are trimmed and empty entries dropped. Duplicates are kept.
func ParseOptions(input string) []string {
	var opts []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			opts = append(opts, trimmed)
		}
	}
	return opts
}
