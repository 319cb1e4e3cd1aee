package record

import "fmt"

// ValidationError describes a single constraint violation in a set of
// desired-state records.
type ValidationError struct {
	Source  string
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Source, e.Key, e.Message)
}

// Validate checks that every record carries a non-empty string keyField and
// that keys are unique. sources[i] names where records[i] was loaded from.
// It returns the index of every invalid record alongside the errors. Only the
// second and later occurrences of a duplicate key are invalid.
func Validate(keyField string, records []Record, sources []string) ([]ValidationError, map[int]bool) {
	var errs []ValidationError
	invalid := make(map[int]bool)
	seen := make(map[string]string, len(records))

	for i, r := range records {
		src := fmt.Sprintf("record %d", i)
		if i < len(sources) {
			src = sources[i]
		}

		raw, ok := r[keyField]
		if !ok {
			errs = append(errs, ValidationError{
				Source:  src,
				Message: fmt.Sprintf("missing key field %q", keyField),
			})
			invalid[i] = true
			continue
		}
		key, ok := raw.(string)
		if !ok || key == "" {
			errs = append(errs, ValidationError{
				Source:  src,
				Message: fmt.Sprintf("key field %q must be a non-empty string", keyField),
			})
			invalid[i] = true
			continue
		}

		if first, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Source:  src,
				Key:     key,
				Message: fmt.Sprintf("duplicate %s, already defined in %s", keyField, first),
			})
			invalid[i] = true
			continue
		}
		seen[key] = src
	}

	return errs, invalid
}
