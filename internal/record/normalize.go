package record

import "strings"

// DefaultVolatile lists keys the service owns on every object type. They are
// removed at any depth before comparison.
var DefaultVolatile = []string{
	"id",
	"@odata.context",
	"@odata.etag",
	"createdDateTime",
	"lastModifiedDateTime",
	"modifiedDateTime",
	"lastSyncDateTime",
	"version",
	"sourceId",
	"supportsScopeTags",
	"isReadOnly",
	"isGlobalScript",
	"highestAvailableVersion",
	"secretReferenceValueId",
	"isEncrypted",
	"deployedAppCount",
}

// Schema describes which fields of one object type are not comparable.
type Schema struct {
	// Volatile keys are removed wherever they occur.
	Volatile []string
	// Paths are removed only at the given location. A path is a dotted list
	// of keys; a "[]" suffix on a segment descends into every element of a
	// list, e.g. "localizedNotificationMessages[].lastModifiedDateTime".
	Paths []string
	// Identity fields are used for matching (the key field plus type
	// discriminators). They are known equal on a matched pair and are
	// removed from both sides by StripIdentity.
	Identity []string
}

// Normalize returns a copy of r with the schema's volatile keys and paths
// removed. r is not modified.
func Normalize(r Record, s Schema) Record {
	out := Clone(r)
	if out == nil {
		return nil
	}
	if len(s.Volatile) > 0 {
		drop := make(map[string]struct{}, len(s.Volatile))
		for _, k := range s.Volatile {
			drop[k] = struct{}{}
		}
		removeKeys(map[string]any(out), drop)
	}
	for _, p := range s.Paths {
		removePath(map[string]any(out), strings.Split(p, "."))
	}
	return out
}

// StripIdentity returns a copy of r without the schema's identity fields.
func StripIdentity(r Record, s Schema) Record {
	return r.Without(s.Identity...)
}

func removeKeys(v any, drop map[string]struct{}) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if _, ok := drop[k]; ok {
				delete(t, k)
				continue
			}
			removeKeys(child, drop)
		}
	case Record:
		removeKeys(map[string]any(t), drop)
	case []any:
		for _, child := range t {
			removeKeys(child, drop)
		}
	}
}

func removePath(m map[string]any, segs []string) {
	if len(segs) == 0 {
		return
	}
	key, each := strings.CutSuffix(segs[0], "[]")
	if len(segs) == 1 && !each {
		delete(m, key)
		return
	}
	child, ok := m[key]
	if !ok {
		return
	}
	if !each {
		if cm, ok := AsRecord(child); ok {
			removePath(map[string]any(cm), segs[1:])
		}
		return
	}
	list, ok := child.([]any)
	if !ok {
		return
	}
	for _, el := range list {
		if em, ok := AsRecord(el); ok {
			removePath(map[string]any(em), segs[1:])
		}
	}
}
