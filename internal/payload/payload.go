// Package payload separates large opaque content, such as a script body kept
// in a sidecar file, from an object's structural fields.
package payload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/micahrl/graphsync/internal/record"
)

// ErrMissingContentFile is matched by errors returned from Read when the
// referenced sidecar file does not exist.
var ErrMissingContentFile = errors.New("content file missing")

// MissingContentError names the sidecar file that could not be found.
type MissingContentError struct {
	Path string
}

func (e *MissingContentError) Error() string {
	return fmt.Sprintf("content file %s does not exist", e.Path)
}

func (e *MissingContentError) Is(target error) bool {
	return target == ErrMissingContentFile
}

// Encode returns the at-rest form the service expects for content.
func Encode(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

// Decode turns the service's at-rest form back into plain text.
func Decode(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding content: %w", err)
	}
	if !utf8.Valid(b) {
		return "", errors.New("decoding content: not valid UTF-8")
	}
	return string(b), nil
}

// Read returns the raw text of the sidecar file name inside dir.
func Read(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("reading content: %w", &MissingContentError{Path: dir})
	}
	path := filepath.Join(dir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", &MissingContentError{Path: path}
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Split returns a copy of r without field, together with the field's string
// value. ok is false when the field is absent or not a string.
func Split(r record.Record, field string) (rest record.Record, value string, ok bool) {
	value, ok = r[field].(string)
	return r.Without(field), value, ok
}
