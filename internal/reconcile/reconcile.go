// Package reconcile converges remote objects with desired-state records. For
// each record it matches the remote counterpart by key, compares structure and
// payload, creates or patches the object, and reconciles its assignments.
// Records are processed one at a time, in the order given.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/micahrl/graphsync/internal/catalog"
	"github.com/micahrl/graphsync/internal/diff"
	"github.com/micahrl/graphsync/internal/graph"
	"github.com/micahrl/graphsync/internal/loader"
	"github.com/micahrl/graphsync/internal/record"
)

// Client abstracts the remote management API.
type Client interface {
	Get(ctx context.Context, path string) (record.Record, error)
	ListObjects(ctx context.Context, endpoint string, withAssignments bool) ([]graph.Object, error)
	Patch(ctx context.Context, path string, body any) error
	Post(ctx context.Context, path string, body any, expectStatus int) (record.Record, error)
}

// AssignmentResolver turns a desired assignment list into a concrete payload.
// It returns false when the remote assignments already match.
type AssignmentResolver interface {
	Resolve(ctx context.Context, desired []any, remote []record.Record, createGroups bool) ([]record.Record, bool, error)
}

// Options control one run.
type Options struct {
	// Report detects and reports differences without issuing any write.
	Report bool
	// Assignments enables assignment reconciliation for matched objects.
	// Newly created objects are always assigned.
	Assignments bool
	// CreateGroups lets the resolver create missing groups.
	CreateGroups bool
	// FailFast aborts the remaining batch on the first failed remote
	// request. By default the failure is recorded and the batch continues.
	FailFast bool
}

// Failure records an object that could not be fully reconciled.
type Failure struct {
	Type string
	Name string
	File string
	Err  error
}

func (f Failure) Error() string {
	switch {
	case f.Name == "" && f.File == "":
		return fmt.Sprintf("%s: %v", f.Type, f.Err)
	case f.Name == "":
		return fmt.Sprintf("%s: %s: %v", f.Type, f.File, f.Err)
	}
	return fmt.Sprintf("%s %q: %v", f.Type, f.Name, f.Err)
}

// Result is the outcome of reconciling one object type.
type Result struct {
	Type      string
	Summaries []diff.Summary
	Failures  []Failure
	Created   int
	Updated   int
	Unchanged int
}

// Reconciler runs the reconciliation for object types.
type Reconciler struct {
	client   Client
	resolver AssignmentResolver
	opts     Options
	log      logrus.FieldLogger
}

// New returns a Reconciler.
func New(client Client, resolver AssignmentResolver, opts Options, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{client: client, resolver: resolver, opts: opts, log: log}
}

// SyncType loads typ's directory under root and reconciles it. A type whose
// directory does not exist is skipped without contacting the service.
func (r *Reconciler) SyncType(ctx context.Context, root string, typ catalog.Type) (*Result, error) {
	dir := filepath.Join(root, typ.Directory)
	log := r.log.WithField("type", typ.Name)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Debug("no configuration directory, skipping")
		return &Result{Type: typ.Name}, nil
	}

	loaded, err := loader.Load(dir, typ.KeyField)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", typ.Name, err)
	}

	var loadFailures []Failure
	for _, e := range loaded.Errors {
		log.WithError(e).Warn("skipping file")
		f := Failure{Type: typ.Name, Err: e}
		var fe *loader.FileError
		if errors.As(e, &fe) {
			f.File = fe.File
		}
		loadFailures = append(loadFailures, f)
	}

	contentDir := ""
	if typ.Content != nil {
		contentDir = filepath.Join(dir, typ.Content.Directory)
	}
	res, err := r.Run(ctx, typ, loaded.Documents, contentDir)
	if res != nil {
		res.Failures = append(loadFailures, res.Failures...)
	}
	return res, err
}

// Run reconciles docs against the remote objects of typ. Remote state is
// fetched once and not refreshed during the run. contentDir is where sidecar
// content files live.
//
// Object-local problems are recorded in Result.Failures. A failed remote
// request is recorded too, unless FailFast is set, in which case Run stops and
// returns the partial result together with the error.
func (r *Reconciler) Run(ctx context.Context, typ catalog.Type, docs []loader.Document, contentDir string) (*Result, error) {
	res := &Result{Type: typ.Name}
	if len(docs) == 0 {
		return res, nil
	}

	remote, err := r.client.ListObjects(ctx, typ.Endpoint, typ.Assignment != nil)
	if err != nil {
		return res, fmt.Errorf("fetching %s: %w", typ.Name, err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		summary, err := r.reconcileDocument(ctx, typ, doc, remote, contentDir)
		if summary != nil {
			res.Summaries = append(res.Summaries, *summary)
		}
		if err == nil {
			res.count(summary)
			continue
		}

		name := doc.Key(typ.KeyField)
		r.log.WithFields(logrus.Fields{"type": typ.Name, "name": name}).WithError(err).Error("reconciliation failed")
		res.Failures = append(res.Failures, Failure{Type: typ.Name, Name: name, File: doc.File, Err: err})
		if r.opts.FailFast && errors.Is(err, graph.ErrRemoteRequestFailed) {
			return res, err
		}
	}
	return res, nil
}

// count tallies a successfully reconciled object. Failed objects are only
// listed in Failures.
func (res *Result) count(s *diff.Summary) {
	if s == nil {
		return
	}
	switch s.Action {
	case diff.ActionCreate:
		res.Created++
	case diff.ActionUpdate:
		res.Updated++
	default:
		res.Unchanged++
	}
}

func (r *Reconciler) reconcileDocument(ctx context.Context, typ catalog.Type, doc loader.Document, remote []graph.Object, contentDir string) (*diff.Summary, error) {
	key := doc.Key(typ.KeyField)
	match, found := record.Match(key, remote, func(o graph.Object) string {
		return o.Record.String(typ.KeyField)
	})
	if !found {
		return r.create(ctx, typ, doc, contentDir)
	}
	return r.update(ctx, typ, doc, match, contentDir)
}
