// README: Edit-tracking set: Auto/Manual state per guarded field.
package booking

import (
	"encoding/json"
	"sort"
)

// EditSet records which guarded fields a user has directly edited. A field in
// the set is Manual (recomputation suppressed); everything else is Auto.
type EditSet struct {
	manual map[Field]struct{}
}

func NewEditSet() *EditSet {
	return &EditSet{manual: make(map[Field]struct{})}
}

// MarkManual locks a field after a direct user edit.
func (e *EditSet) MarkManual(f Field) {
	if e.manual == nil {
		e.manual = make(map[Field]struct{})
	}
	e.manual[f] = struct{}{}
}

// IsManual reports whether recomputation must leave the field alone.
func (e *EditSet) IsManual(f Field) bool {
	_, ok := e.manual[f]
	return ok
}

// Reset returns every field to Auto. Triggered by an identity-triple change.
func (e *EditSet) Reset() {
	e.manual = make(map[Field]struct{})
}

// ResetField returns one field to Auto. Triggered when a stop slot is removed
// and recycled for its next occupant.
func (e *EditSet) ResetField(f Field) {
	delete(e.manual, f)
}

// Len reports how many fields are Manual.
func (e *EditSet) Len() int {
	return len(e.manual)
}

// The set serializes as a sorted list so session payloads are stable.

func (e *EditSet) MarshalJSON() ([]byte, error) {
	fields := make([]Field, 0, len(e.manual))
	for f := range e.manual {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return json.Marshal(fields)
}

func (e *EditSet) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	e.manual = make(map[Field]struct{}, len(fields))
	for _, f := range fields {
		e.manual[f] = struct{}{}
	}
	return nil
}
