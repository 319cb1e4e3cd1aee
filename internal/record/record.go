// Package record holds the generic mapping type shared by desired-state files
// and remote objects, together with the stateless helpers that prepare records
// for comparison.
package record

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Record is a single object as a field name -> value mapping. Values follow
// encoding/json conventions: nested maps are Record or map[string]any, lists
// are []any, numbers are float64.
type Record map[string]any

// Clone returns a deep copy of r. Nested map[string]any values are copied as
// well, so callers may freely mutate the result.
func Clone(r Record) Record {
	if r == nil {
		return nil
	}
	c, err := copystructure.Copy(map[string]any(r))
	if err != nil {
		// copystructure only fails on values it cannot reflect over, which
		// decoded JSON/YAML never contains.
		panic(fmt.Sprintf("record: deep copy failed: %v", err))
	}
	return Record(c.(map[string]any))
}

// String returns the string value of field, or "" if it is missing or not a
// string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// ID returns the service-assigned identifier of a remote record.
func (r Record) ID() string {
	return r.String("id")
}

// Without returns a copy of r with the given top-level keys removed.
func (r Record) Without(keys ...string) Record {
	c := Clone(r)
	for _, k := range keys {
		delete(c, k)
	}
	return c
}

// AsRecord converts a decoded JSON value into a Record if it is a mapping.
func AsRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	default:
		return nil, false
	}
}
