package reconcile

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/micahrl/graphsync/internal/catalog"
	"github.com/micahrl/graphsync/internal/record"
)

// reconcileAssignments applies the desired assignment list to object id when
// it differs from remote. The assign action lives under the type's assignment
// root, which may differ from the object's own endpoint.
func (r *Reconciler) reconcileAssignments(ctx context.Context, typ catalog.Type, id string, desired []any, remote []record.Record, log logrus.FieldLogger) error {
	if typ.Assignment == nil {
		return nil
	}

	createGroups := r.opts.CreateGroups && !r.opts.Report
	assignments, changed, err := r.resolver.Resolve(ctx, desired, remote, createGroups)
	if err != nil {
		return fmt.Errorf("resolving assignments of %s: %w", id, err)
	}
	if !changed {
		return nil
	}

	if r.opts.Report {
		log.Info("assignments differ, report mode: not updating")
		return nil
	}

	if assignments == nil {
		assignments = []record.Record{}
	}
	body := map[string]any{typ.Assignment.PayloadKey: assignments}
	if _, err := r.client.Post(ctx, typ.Assignment.Path(id), body, 0); err != nil {
		return fmt.Errorf("assigning %s: %w", id, err)
	}
	log.WithField("assignments", len(assignments)).Info("updated assignments")
	return nil
}
