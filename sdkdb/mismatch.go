package sdkdb

import (
	"encoding/json"
	"fmt"
)

// Operation defines the kind of divergence a Mismatch describes
type Operation string

const (
	// DTNotEqual means two leaves (or two values of different shape) differ
	DTNotEqual = Operation("~")
	// DTMissingKey means a baseline mapping key is absent from the candidate
	DTMissingKey = Operation("-")
	// DTMissingEntry means a baseline library has no counterpart in the
	// candidate entry list
	DTMissingEntry = Operation("!")
	// DTMissingTarget means a whole baseline target list is absent from the
	// candidate database
	DTMissingTarget = Operation("?")
	// DTVisibility means a public baseline was compared to a private candidate
	DTVisibility = Operation("p")
	// DTLibrary annotates the preceding mismatches with the install name of the
	// library they were found in
	DTLibrary = Operation("@")
)

// Mismatch is a single point of divergence between a baseline & candidate
// snapshot. It encodes to JSON as a compact array, see MarshalJSON
type Mismatch struct {
	// the type of divergence
	Type Operation
	// Path is the bracketed breadcrumb to the divergence, eg: "[symbols][0]"
	Path string
	// Key is the mapping key or target name that went missing
	Key string
	// Library is the install name of the entry this mismatch belongs to
	Library string
	// Base & Candidate are the diverging values, only set for DTNotEqual
	Base      interface{}
	Candidate interface{}
}

// Mismatches is a list of mismatches, in the order they were found
type Mismatches []*Mismatch

// String renders the mismatch as its legacy diagnostic line. lines produced
// while walking an entry end in a space, the library annotation closes them
func (m *Mismatch) String() string {
	switch m.Type {
	case DTNotEqual:
		return fmt.Sprintf("SDKDB%s is not equal: %s vs %s ", m.Path, FormatValue(m.Base), FormatValue(m.Candidate))
	case DTMissingKey:
		return fmt.Sprintf("key %s missing from dict%s ", m.Key, m.Path)
	case DTLibrary:
		return fmt.Sprintf("in library %s\n", m.Library)
	case DTMissingEntry:
		return fmt.Sprintf("Missing %s from SDKDB\n", m.Library)
	case DTMissingTarget:
		return fmt.Sprintf("Target %s missing from SDKDB\n", m.Key)
	case DTVisibility:
		return "Comparing public to private is not supported\n"
	default:
		return fmt.Sprintf("%s %s\n", m.Type, m.Path)
	}
}

// MarshalJSON implements a compact JSON encoding:
// [type, path, key, library] for structural mismatches, with base & candidate
// values appended for DTNotEqual
func (m *Mismatch) MarshalJSON() ([]byte, error) {
	v := []interface{}{m.Type, m.Path, m.Key, m.Library}
	if m.Type == DTNotEqual {
		v = append(v, m.Base, m.Candidate)
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements the json.Unmarshaler interface, reversing
// MarshalJSON
func (m *Mismatch) UnmarshalJSON(data []byte) error {
	var v []interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) < 4 {
		return fmt.Errorf("mismatch: expected at least 4 elements, got %d", len(v))
	}

	t, ok := v[0].(string)
	if !ok {
		return fmt.Errorf("mismatch: type must be a string, got %T", v[0])
	}
	*m = Mismatch{Type: Operation(t)}
	m.Path, _ = v[1].(string)
	m.Key, _ = v[2].(string)
	m.Library, _ = v[3].(string)
	if len(v) > 5 {
		m.Base = v[4]
		m.Candidate = v[5]
	}
	return nil
}
