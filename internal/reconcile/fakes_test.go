package reconcile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/micahrl/graphsync/internal/catalog"
	"github.com/micahrl/graphsync/internal/graph"
	"github.com/micahrl/graphsync/internal/loader"
	"github.com/micahrl/graphsync/internal/record"
)

type call struct {
	Method string
	Path   string
	Body   map[string]any
	Expect int
	// Expand is set on LIST calls that asked for assignments.
	Expand bool
}

type fakeClient struct {
	objects   []graph.Object
	calls     []call
	failPaths map[string]error
	listErr   error
	nextID    string
}

// fail returns the error configured for "METHOD path", if any.
func (f *fakeClient) fail(method, path string) error {
	if f.failPaths == nil {
		return nil
	}
	return f.failPaths[method+" "+path]
}

func (f *fakeClient) Get(_ context.Context, path string) (record.Record, error) {
	f.calls = append(f.calls, call{Method: "GET", Path: path})
	if err := f.fail("GET", path); err != nil {
		return nil, err
	}
	for _, o := range f.objects {
		if strings.HasSuffix(path, "/"+o.Record.ID()) {
			return record.Clone(o.Record), nil
		}
	}
	return nil, &graph.RequestError{Method: "GET", URL: path, StatusCode: 404}
}

func (f *fakeClient) ListObjects(_ context.Context, endpoint string, withAssignments bool) ([]graph.Object, error) {
	f.calls = append(f.calls, call{Method: "LIST", Path: endpoint, Expand: withAssignments})
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]graph.Object, len(f.objects))
	for i, o := range f.objects {
		out[i] = graph.Object{Record: record.Clone(o.Record)}
		if withAssignments {
			out[i].Assignments = o.Assignments
		}
	}
	return out, nil
}

func (f *fakeClient) Patch(_ context.Context, path string, body any) error {
	f.calls = append(f.calls, call{Method: "PATCH", Path: path, Body: body.(map[string]any)})
	return f.fail("PATCH", path)
}

func (f *fakeClient) Post(_ context.Context, path string, body any, expect int) (record.Record, error) {
	f.calls = append(f.calls, call{Method: "POST", Path: path, Body: body.(map[string]any), Expect: expect})
	if err := f.fail("POST", path); err != nil {
		return nil, err
	}
	if f.nextID == "" {
		return nil, nil
	}
	return record.Record{"id": f.nextID}, nil
}

func (f *fakeClient) writes() []call {
	var out []call
	for _, c := range f.calls {
		if c.Method == "PATCH" || c.Method == "POST" {
			out = append(out, c)
		}
	}
	return out
}

type resolveCall struct {
	Desired      []any
	Remote       []record.Record
	CreateGroups bool
}

type fakeResolver struct {
	calls   []resolveCall
	payload []record.Record
	changed bool
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, desired []any, remote []record.Record, createGroups bool) ([]record.Record, bool, error) {
	f.calls = append(f.calls, resolveCall{Desired: desired, Remote: remote, CreateGroups: createGroups})
	return f.payload, f.changed, f.err
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func scriptType() catalog.Type {
	return catalog.Type{
		Name:        "Custom Attributes",
		Label:       "Custom Attribute",
		Directory:   "Custom Attributes",
		Endpoint:    "deviceManagement/deviceCustomAttributeShellScripts",
		KeyField:    "displayName",
		Identity:    []string{"customAttributeName", "customAttributeType"},
		FetchDetail: true,
		Content: &catalog.Content{
			Field:     "scriptContent",
			FileField: "fileName",
			Directory: "Script Data",
			Label:     "Custom Attribute Shell Script",
			Message:   "Script changed, check commit history for details",
		},
		Assignment: &catalog.Assignment{
			Root:       "deviceManagement/deviceManagementScripts",
			PayloadKey: "deviceManagementScriptAssignments",
			Action:     "assign",
		},
	}
}

// writeContent writes the given sidecar files into a temporary directory.
func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func remoteScript(id, name, script string) graph.Object {
	return graph.Object{Record: record.Record{
		"id":                   id,
		"displayName":          name,
		"customAttributeName":  name,
		"customAttributeType":  "string",
		"description":          "desc",
		"runAsAccount":         "system",
		"fileName":             name + ".sh",
		"roleScopeTagIds":      []any{"0", "1"},
		"scriptContent":        script,
		"createdDateTime":      "2023-01-01T00:00:00Z",
		"lastModifiedDateTime": "2023-01-02T00:00:00Z",
	}}
}

func desiredScript(name string) loader.Document {
	return loader.Document{
		File: name + ".json",
		Record: record.Record{
			"displayName":         name,
			"customAttributeName": name,
			"customAttributeType": "string",
			"description":         "desc",
			"runAsAccount":        "system",
			"fileName":            name + ".sh",
			"roleScopeTagIds":     []any{"0", "1"},
		},
	}
}
