// Package loader reads a directory of desired-state records.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/micahrl/graphsync/internal/record"
)

// AssignmentsField is split off every record at load time.
const AssignmentsField = "assignments"

// ErrMalformedRecord is matched by every per-file error returned from Load.
var ErrMalformedRecord = errors.New("malformed record")

// FileError reports a single file that was skipped.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func (e *FileError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Document is one desired-state record and the file it came from.
type Document struct {
	File   string
	Record record.Record
	// Assignments is the desired assignment list. It is nil when the file
	// has no assignments key.
	Assignments []any
}

// Key returns the value of keyField on the document's record.
func (d Document) Key(keyField string) string {
	return d.Record.String(keyField)
}

// Result is the outcome of loading one directory.
type Result struct {
	Documents []Document
	// Errors holds one *FileError for every skipped file.
	Errors []error
}

// Load parses every JSON or YAML file directly inside dir. Files that do not
// parse, do not hold a mapping, or fail key validation are reported in
// Result.Errors and skipped. A missing directory yields an empty result.
func Load(dir, keyField string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	res := &Result{}
	var docs []Document
	for _, e := range entries {
		if !Supported(e) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := LoadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, &FileError{File: path, Err: err})
			continue
		}
		docs = append(docs, doc)
	}

	records := make([]record.Record, len(docs))
	sources := make([]string, len(docs))
	for i, d := range docs {
		records[i] = d.Record
		sources[i] = d.File
	}
	verrs, invalid := record.Validate(keyField, records, sources)
	for _, ve := range verrs {
		res.Errors = append(res.Errors, &FileError{File: ve.Source, Err: ve})
	}
	for i, d := range docs {
		if !invalid[i] {
			res.Documents = append(res.Documents, d)
		}
	}

	return res, nil
}

// Supported reports whether a directory entry is a record file.
func Supported(e os.DirEntry) bool {
	if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(e.Name())) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile parses a single record file.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading: %w", err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Document{}, fmt.Errorf("parsing YAML: %w", err)
		}
		// Re-encode through JSON so values have the same Go types as
		// records decoded from service responses.
		if raw, err = viaJSON(raw); err != nil {
			return Document{}, err
		}
	}

	rec, ok := record.AsRecord(raw)
	if !ok {
		return Document{}, fmt.Errorf("expected a mapping at the top level, got %T", raw)
	}

	doc := Document{File: path, Record: rec}
	if a, present := rec[AssignmentsField]; present {
		list, ok := a.([]any)
		if !ok && a != nil {
			return Document{}, fmt.Errorf("%s must be a list, got %T", AssignmentsField, a)
		}
		if list == nil {
			list = []any{}
		}
		doc.Assignments = list
		delete(rec, AssignmentsField)
	}
	return doc, nil
}

func viaJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting YAML: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("converting YAML: %w", err)
	}
	return out, nil
}
