// Package catalog holds the declarative description of every object type the
// reconciler supports.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/micahrl/graphsync/internal/record"
)

//go:embed types.toml
var typesTOML []byte

// DefaultKeyField is the human-readable key used to match records.
const DefaultKeyField = "displayName"

// Type describes one remote object type.
type Type struct {
	Name      string `toml:"name"`
	Label     string `toml:"label"`
	Directory string `toml:"directory"`
	Endpoint  string `toml:"endpoint"`
	KeyField  string `toml:"key-field"`
	// Identity fields besides the key that are immutable or already known
	// equal on a matched pair.
	Identity []string `toml:"identity-fields"`
	// FetchDetail requests GET endpoint/{id} for a matched object, for
	// types whose list response omits the content field.
	FetchDetail bool        `toml:"fetch-detail"`
	Ignore      []string    `toml:"ignore"`
	Content     *Content    `toml:"content"`
	Assignment  *Assignment `toml:"assignment"`
}

// Content describes an opaque payload kept in a sidecar file.
type Content struct {
	Field     string `toml:"field"`
	FileField string `toml:"file-field"`
	Directory string `toml:"directory"`
	Label     string `toml:"label"`
	Message   string `toml:"message"`
}

// Assignment describes where an object's assignments are written. Root is
// the resource collection the assign action lives on, which need not be the
// object's own endpoint.
type Assignment struct {
	Root       string `toml:"root"`
	PayloadKey string `toml:"payload-key"`
	Action     string `toml:"action"`
}

// Path returns the assign action path for the object id.
func (a Assignment) Path(id string) string {
	return strings.TrimSuffix(a.Root, "/") + "/" + id + "/" + a.Action
}

// Schema returns the normalization schema for t.
func (t Type) Schema() record.Schema {
	return record.Schema{
		Volatile: record.DefaultVolatile,
		Paths:    t.Ignore,
		Identity: append([]string{t.KeyField}, t.Identity...),
	}
}

// Load decodes the embedded catalog.
func Load() ([]Type, error) {
	return Parse(typesTOML)
}

// Parse decodes a catalog document and fills in defaults.
func Parse(data []byte) ([]Type, error) {
	var doc struct {
		Types []Type `toml:"type"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Types))
	for i := range doc.Types {
		t := &doc.Types[i]
		if t.Name == "" || t.Endpoint == "" || t.Directory == "" {
			return nil, fmt.Errorf("catalog type %d: name, endpoint and directory are required", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("catalog type %q defined twice", t.Name)
		}
		seen[t.Name] = true

		if t.KeyField == "" {
			t.KeyField = DefaultKeyField
		}
		if t.Label == "" {
			t.Label = t.Name
		}
		if c := t.Content; c != nil {
			if c.Field == "" || c.FileField == "" {
				return nil, fmt.Errorf("catalog type %q: content needs field and file-field", t.Name)
			}
			if c.Label == "" {
				c.Label = t.Label + " Content"
			}
			if c.Message == "" {
				c.Message = "Content changed, check commit history for details"
			}
		}
		if a := t.Assignment; a != nil {
			if a.Root == "" {
				a.Root = t.Endpoint
			}
			if a.Action == "" {
				a.Action = "assign"
			}
			if a.PayloadKey == "" {
				a.PayloadKey = "assignments"
			}
		}
	}
	return doc.Types, nil
}

// Select returns the named types in catalog order. An empty names list
// selects every type.
func Select(types []Type, names []string) ([]Type, error) {
	if len(names) == 0 {
		return types, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Type
	for _, t := range types {
		if want[t.Name] {
			out = append(out, t)
			delete(want, t.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown object type %q", n)
	}
	return out, nil
}

// Lookup returns the type named name.
func Lookup(types []Type, name string) (Type, bool) {
	for _, t := range types {
		if t.Name == name {
			return t, true
		}
	}
	return Type{}, false
}
