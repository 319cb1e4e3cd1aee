package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/micahrl/graphsync/internal/catalog"
	"github.com/micahrl/graphsync/internal/diff"
	"github.com/micahrl/graphsync/internal/graph"
	"github.com/micahrl/graphsync/internal/loader"
	"github.com/micahrl/graphsync/internal/payload"
	"github.com/micahrl/graphsync/internal/record"
)

// CreatedMessage is attached to the summary of an object that did not exist
// remotely.
const CreatedMessage = "Object not found remotely, created"

// update handles a desired record that matched remote object obj.
func (r *Reconciler) update(ctx context.Context, typ catalog.Type, doc loader.Document, obj graph.Object, contentDir string) (*diff.Summary, error) {
	name := doc.Key(typ.KeyField)
	id := obj.Record.ID()
	log := r.log.WithFields(logrus.Fields{"type": typ.Name, "name": name, "id": id})

	live := obj.Record
	if typ.FetchDetail {
		var err error
		if live, err = r.client.Get(ctx, typ.Endpoint+"/"+id); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", id, err)
		}
	}

	schema := typ.Schema()
	remote := record.StripIdentity(record.Normalize(live, schema), schema)
	desired := record.StripIdentity(record.Normalize(doc.Record, schema), schema)

	var (
		content    string
		contentErr error
		pdiff      []diff.Entry
	)
	if c := typ.Content; c != nil {
		var encoded string
		var hasRemote bool
		remote, encoded, hasRemote = payload.Split(remote, c.Field)
		desired, _, _ = payload.Split(desired, c.Field)

		content, contentErr = payload.Read(contentDir, doc.Record.String(c.FileField))
		if contentErr == nil {
			pdiff, contentErr = comparePayload(encoded, hasRemote, content, c.Field, log)
		}
	}

	cdiff, err := diff.Compare(remote, desired)
	if err != nil {
		return nil, fmt.Errorf("comparing %s: %w", name, err)
	}

	push := (len(cdiff) > 0 || len(pdiff) > 0) && contentErr == nil
	action := diff.ActionNone
	if push {
		action = diff.ActionUpdate
	}

	summary := diff.Summarize(name, typ.Label, cdiff, diff.WithAction(action))
	if c := typ.Content; c != nil {
		summary.Merge(diff.Summarize("", c.Label, pdiff, diff.WithMessage(c.Message), diff.Silent()))
	}

	if contentErr != nil {
		log.WithError(contentErr).Warn("content unavailable, not pushing changes")
	}

	if push {
		if r.opts.Report {
			log.WithField("changes", summary.Count).Info("differences found, report mode: not updating")
		} else {
			body := map[string]any(desired)
			if c := typ.Content; c != nil {
				body[c.Field] = payload.Encode(content)
			}
			if err := r.client.Patch(ctx, typ.Endpoint+"/"+id, body); err != nil {
				return &summary, fmt.Errorf("updating %s: %w", id, err)
			}
			log.WithField("changes", summary.Count).Info("updated")
		}
	}

	var assignErr error
	if r.opts.Assignments {
		assignErr = r.reconcileAssignments(ctx, typ, id, doc.Assignments, obj.Assignments, log)
	}

	return &summary, errors.Join(contentErr, assignErr)
}

// create handles a desired record with no remote counterpart.
func (r *Reconciler) create(ctx context.Context, typ catalog.Type, doc loader.Document, contentDir string) (*diff.Summary, error) {
	name := doc.Key(typ.KeyField)
	log := r.log.WithFields(logrus.Fields{"type": typ.Name, "name": name})

	body := record.Clone(doc.Record)
	if c := typ.Content; c != nil {
		content, err := payload.Read(contentDir, doc.Record.String(c.FileField))
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		body[c.Field] = payload.Encode(content)
	}

	summary := diff.Summarize(name, typ.Label, nil,
		diff.WithAction(diff.ActionCreate), diff.WithMessage(CreatedMessage))

	if r.opts.Report {
		log.Info("not found, report mode: not creating")
		return &summary, nil
	}

	log.Info("not found, creating")
	created, err := r.client.Post(ctx, typ.Endpoint, map[string]any(body), http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	id := created.ID()
	if id == "" {
		return &summary, fmt.Errorf("creating %s: response carries no id", name)
	}
	log = log.WithField("id", id)
	log.Info("created")

	if err := r.reconcileAssignments(ctx, typ, id, doc.Assignments, nil, log); err != nil {
		return &summary, err
	}
	return &summary, nil
}

// comparePayload compares decoded remote content with the desired content.
// Remote content that cannot be decoded is treated as different.
func comparePayload(encoded string, hasRemote bool, content, field string, log logrus.FieldLogger) ([]diff.Entry, error) {
	remoteText := ""
	if hasRemote {
		decoded, err := payload.Decode(encoded)
		if err != nil {
			log.WithError(err).Warn("remote content is not decodable, treating as changed")
			return []diff.Entry{{Path: field, Kind: diff.Changed, Notify: true}}, nil
		}
		remoteText = decoded
	}
	return diff.CompareText(remoteText, content, field)
}
