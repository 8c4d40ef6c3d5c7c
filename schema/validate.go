package schema

import (
	"fmt"
	"strings"

	"github.com/formflow/formflow/store"
)

// ValidationError reports a rejected workflow or record payload. For record
// validation MissingFields lists the display names of every required field
// the payload failed to supply, not just the first.
type ValidationError struct {
	Message       string
	MissingFields []string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
	}
	return e.Message
}

// Validate checks a candidate record payload against a schema's field list
// and returns the normalized record data.
//
// A required field is violated when its key is absent from the payload or
// its value is the empty string. Checkbox fields are the exception: false is
// an explicit answer, so only an entirely missing key counts. No per-type
// format checking is done; an email field accepts any non-empty string.
//
// On success the returned map contains exactly the payload keys that match a
// known field id; unknown keys are dropped.
func Validate(fields []store.Field, payload map[string]any) (map[string]any, error) {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := payload[f.ID]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if f.Type == store.FieldTypeCheckbox {
			continue
		}
		if s, isStr := v.(string); (isStr && s == "") || v == nil {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{MissingFields: missing}
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.ID] = true
	}
	normalized := make(map[string]any, len(payload))
	for k, v := range payload {
		if known[k] {
			normalized[k] = v
		}
	}
	return normalized, nil
}
