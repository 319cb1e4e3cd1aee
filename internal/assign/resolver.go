// Package assign turns a desired assignment list into the payload the
// service's assign action expects.
package assign

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/micahrl/graphsync/internal/diff"
	"github.com/micahrl/graphsync/internal/record"
)

// Fields a desired target may carry that the service does not accept.
var nameOnlyFields = []string{"groupName", "groupType", "membershipRule", "deviceAndAppManagementAssignmentFilterName"}

// Directory looks up and creates groups.
type Directory interface {
	FindGroups(ctx context.Context, name string) ([]record.Record, error)
	CreateGroup(ctx context.Context, name string) (record.Record, error)
}

// Resolver resolves group names to ids and decides whether the remote
// assignment list needs to change. Resolved names are cached for the lifetime
// of the Resolver.
type Resolver struct {
	dir    Directory
	log    logrus.FieldLogger
	groups map[string]string
}

// NewResolver returns a Resolver backed by dir.
func NewResolver(dir Directory, log logrus.FieldLogger) *Resolver {
	return &Resolver{dir: dir, log: log, groups: make(map[string]string)}
}

// Resolve returns the assignment payload to apply and true, or false when
// remote already matches desired. A nil desired list means the object's
// assignments are not managed and never changes anything.
func (r *Resolver) Resolve(ctx context.Context, desired []any, remote []record.Record, createGroups bool) ([]record.Record, bool, error) {
	if desired == nil {
		return nil, false, nil
	}

	resolved := make([]record.Record, 0, len(desired))
	for i, raw := range desired {
		entry, ok := record.AsRecord(raw)
		if !ok {
			return nil, false, fmt.Errorf("assignment %d: expected a mapping, got %T", i, raw)
		}
		a, keep, err := r.resolveEntry(ctx, record.Clone(entry), createGroups)
		if err != nil {
			return nil, false, fmt.Errorf("assignment %d: %w", i, err)
		}
		if keep {
			resolved = append(resolved, a)
		}
	}

	equal, err := diff.Equal(canonical(resolved), canonical(remote))
	if err != nil {
		return nil, false, fmt.Errorf("comparing assignments: %w", err)
	}
	if equal {
		return nil, false, nil
	}
	return resolved, true, nil
}

func (r *Resolver) resolveEntry(ctx context.Context, entry record.Record, createGroups bool) (record.Record, bool, error) {
	delete(entry, "id")
	target, ok := record.AsRecord(entry["target"])
	if !ok {
		return nil, false, fmt.Errorf("missing target")
	}

	name := target.String("groupName")
	if name != "" && target.String("groupId") == "" {
		id, found, err := r.groupID(ctx, name, createGroups)
		if err != nil {
			return nil, false, err
		}
		if !found {
			r.log.WithField("group", name).Warn("assignment group not found, skipping assignment")
			return nil, false, nil
		}
		target["groupId"] = id
	}
	for _, f := range nameOnlyFields {
		delete(target, f)
	}
	entry["target"] = map[string]any(target)
	return entry, true, nil
}

func (r *Resolver) groupID(ctx context.Context, name string, create bool) (string, bool, error) {
	if id, ok := r.groups[name]; ok {
		return id, true, nil
	}

	groups, err := r.dir.FindGroups(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("looking up group %q: %w", name, err)
	}
	if len(groups) > 1 {
		r.log.WithFields(logrus.Fields{"group": name, "matches": len(groups)}).Warn("group name is ambiguous, using first match")
	}
	if len(groups) > 0 {
		r.groups[name] = groups[0].ID()
		return groups[0].ID(), true, nil
	}
	if !create {
		return "", false, nil
	}

	g, err := r.dir.CreateGroup(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("creating group %q: %w", name, err)
	}
	r.log.WithFields(logrus.Fields{"group": name, "id": g.ID()}).Info("created group")
	r.groups[name] = g.ID()
	return g.ID(), true, nil
}

// canonical reduces assignments to the fields that decide equality: the
// service adds ids and source markers, and reports an unset filter as
// "none" / null.
func canonical(list []record.Record) []any {
	out := make([]any, 0, len(list))
	for _, a := range list {
		c := record.Normalize(a, record.Schema{Paths: []string{"id", "source", "sourceId", "@odata.type"}})
		if t, ok := record.AsRecord(c["target"]); ok {
			if id, _ := t["deviceAndAppManagementAssignmentFilterId"].(string); id == "" {
				delete(t, "deviceAndAppManagementAssignmentFilterId")
			}
			if ft, _ := t["deviceAndAppManagementAssignmentFilterType"].(string); ft == "" || ft == "none" {
				delete(t, "deviceAndAppManagementAssignmentFilterType")
			}
			for _, f := range nameOnlyFields {
				delete(t, f)
			}
		}
		out = append(out, map[string]any(c))
	}
	return out
}
