// Package diff compares normalized records and payload text and aggregates the
// result into reportable summaries.
package diff

import (
	"fmt"
	"strings"

	r3diff "github.com/r3labs/diff/v3"

	"github.com/micahrl/graphsync/internal/record"
)

// Kind is the nature of a single change.
type Kind string

const (
	Added   Kind = "added"
	Removed Kind = "removed"
	Changed Kind = "changed"
)

// Entry is one changed path. Old is the remote-side value and New the
// desired-side value.
type Entry struct {
	Path    string `json:"path"`
	Kind    Kind   `json:"kind"`
	Old     any    `json:"old,omitempty"`
	New     any    `json:"new,omitempty"`
	Notify  bool   `json:"notify"`
	Message string `json:"message,omitempty"`
}

func (e Entry) String() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %v -> %v", e.Kind, e.Path, e.Old, e.New)
}

// Compare returns the changes needed to turn remote into desired. Lists are
// compared as multisets, so server-side reordering is not a change. Keys that
// only the remote side carries at the top level are not reported: desired
// files routinely omit fields the service fills with defaults.
func Compare(remote, desired record.Record) ([]Entry, error) {
	cl, err := changelog(map[string]any(remote), map[string]any(desired))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(cl))
	for _, c := range cl {
		if c.Type == r3diff.DELETE && len(c.Path) == 1 {
			continue
		}
		entries = append(entries, fromChange(c))
	}
	return entries, nil
}

// CompareText compares two payload strings. Any difference yields a single
// entry covering the whole value at path.
func CompareText(remote, desired, path string) ([]Entry, error) {
	cl, err := changelog(remote, desired)
	if err != nil {
		return nil, err
	}
	if len(cl) == 0 {
		return nil, nil
	}
	return []Entry{{Path: path, Kind: Changed, Old: remote, New: desired, Notify: true}}, nil
}

// Equal reports whether a and b are equal under the same order-insensitive
// rules as Compare, including remote-only keys.
func Equal(a, b any) (bool, error) {
	cl, err := changelog(a, b)
	if err != nil {
		return false, err
	}
	return len(cl) == 0, nil
}

func changelog(a, b any) (r3diff.Changelog, error) {
	d, err := r3diff.NewDiffer(
		r3diff.SliceOrdering(false),
		r3diff.AllowTypeMismatch(true),
	)
	if err != nil {
		return nil, fmt.Errorf("creating differ: %w", err)
	}
	cl, err := d.Diff(a, b)
	if err != nil {
		return nil, fmt.Errorf("comparing values: %w", err)
	}
	return cl, nil
}

func fromChange(c r3diff.Change) Entry {
	e := Entry{Path: formatPath(c.Path), Old: c.From, New: c.To, Notify: true}
	switch c.Type {
	case r3diff.CREATE:
		e.Kind = Added
	case r3diff.DELETE:
		e.Kind = Removed
	default:
		e.Kind = Changed
	}
	return e
}

func formatPath(p []string) string {
	if len(p) == 0 {
		return "root"
	}
	var b strings.Builder
	b.WriteString("root")
	for _, seg := range p {
		b.WriteString("['")
		b.WriteString(seg)
		b.WriteString("']")
	}
	return b.String()
}
