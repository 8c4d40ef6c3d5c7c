package schema

import "github.com/formflow/formflow/store"

// Move returns a new field list with the element at from removed and
// reinserted at to, preserving the relative order of every other element.
// Order values are reassigned to match the new positions. When from equals
// to, or either index is out of range (the dragged item may have been
// deleted mid-drag), the input is returned unchanged.
func Move(fields []store.Field, from, to int) []store.Field {
	if from == to || from < 0 || to < 0 || from >= len(fields) || to >= len(fields) {
		return fields
	}

	out := make([]store.Field, 0, len(fields))
	out = append(out, fields[:from]...)
	out = append(out, fields[from+1:]...)

	out = append(out[:to], append([]store.Field{fields[from]}, out[to:]...)...)

	Renumber(out)
	return out
}

// MoveByID moves the field with the given id to the position currently held
// by the target field id, the identity form of the drag-and-drop drop event.
// Unknown ids make it a no-op.
func MoveByID(fields []store.Field, id, targetID string) []store.Field {
	from, to := -1, -1
	for i, f := range fields {
		if f.ID == id {
			from = i
		}
		if f.ID == targetID {
			to = i
		}
	}
	if from < 0 || to < 0 {
		return fields
	}
	return Move(fields, from, to)
}

// Renumber rewrites every field's order to its positional index, restoring
// the contiguous {0..n-1} invariant after a mutation.
func Renumber(fields []store.Field) {
	for i := range fields {
		fields[i].Order = i
	}
}
