// Package report renders reconciliation results for people and for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/micahrl/graphsync/internal/diff"
	"github.com/micahrl/graphsync/internal/reconcile"
)

// Write prints a plain-text summary of results to w. Unchanged objects are
// listed only when verbose is set.
func Write(w io.Writer, results []*reconcile.Result, verbose bool) error {
	ew := &errWriter{w: w}
	var changes, failures int

	for _, res := range results {
		if res == nil || (len(res.Summaries) == 0 && len(res.Failures) == 0) {
			continue
		}
		ew.printf("\n=== %s ===\n", res.Type)
		for _, s := range res.Summaries {
			if s.Action == diff.ActionNone && s.Count == 0 && !verbose {
				continue
			}
			writeSummary(ew, s)
			changes += s.Count
		}
		for _, f := range res.Failures {
			ew.printf("FAILED %s\n", f.Error())
			failures++
		}
		ew.printf("%d created, %d updated, %d unchanged\n", res.Created, res.Updated, res.Unchanged)
	}
	ew.printf("\n%d changes, %d failures\n", changes, failures)
	return ew.err
}

func writeSummary(ew *errWriter, s diff.Summary) {
	ew.printf("%s %q: %s", s.Type, s.Name, s.Action)
	if s.Message != "" {
		ew.printf(" (%s)", s.Message)
	}
	ew.printf(", %d changes\n", s.Count)
	for _, e := range s.Entries {
		ew.printf("  %s\n", e)
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Document is the JSON report layout.
type Document struct {
	Report bool           `json:"report"`
	Types  []TypeDocument `json:"types"`
}

// TypeDocument holds the results for one object type.
type TypeDocument struct {
	Type      string            `json:"type"`
	Created   int               `json:"created"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Summaries []diff.Summary    `json:"summaries"`
	Failures  []FailureDocument `json:"failures,omitempty"`
}

// FailureDocument is one failed object.
type FailureDocument struct {
	Name  string `json:"name,omitempty"`
	File  string `json:"file,omitempty"`
	Error string `json:"error"`
}

// Build converts results into the JSON report layout.
func Build(results []*reconcile.Result, reportMode bool) Document {
	doc := Document{Report: reportMode, Types: []TypeDocument{}}
	for _, res := range results {
		if res == nil {
			continue
		}
		td := TypeDocument{
			Type:      res.Type,
			Created:   res.Created,
			Updated:   res.Updated,
			Unchanged: res.Unchanged,
			Summaries: res.Summaries,
		}
		if td.Summaries == nil {
			td.Summaries = []diff.Summary{}
		}
		for _, f := range res.Failures {
			td.Failures = append(td.Failures, FailureDocument{Name: f.Name, File: f.File, Error: f.Err.Error()})
		}
		doc.Types = append(doc.Types, td)
	}
	return doc
}

// WriteJSON writes the JSON report for results to path.
func WriteJSON(path string, results []*reconcile.Result, reportMode bool) error {
	data, err := json.MarshalIndent(Build(results, reportMode), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
