package assign

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micahrl/graphsync/internal/record"
)

type fakeDirectory struct {
	groups  map[string]string
	created []string
	lookups int
	findErr error
}

func (f *fakeDirectory) FindGroups(_ context.Context, name string) ([]record.Record, error) {
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if id, ok := f.groups[name]; ok {
		return []record.Record{{"id": id, "displayName": name}}, nil
	}
	return nil, nil
}

func (f *fakeDirectory) CreateGroup(_ context.Context, name string) (record.Record, error) {
	f.created = append(f.created, name)
	id := "new-" + name
	if f.groups == nil {
		f.groups = map[string]string{}
	}
	f.groups[name] = id
	return record.Record{"id": id, "displayName": name}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func groupSpec(name string) any {
	return map[string]any{
		"target": map[string]any{
			"@odata.type": "#microsoft.graph.groupAssignmentTarget",
			"groupName":   name,
			"groupType":   "StaticMembership",
		},
	}
}

func remoteGroup(id string) record.Record {
	return record.Record{
		"id":     "assignment-" + id,
		"source": "direct",
		"target": map[string]any{
			"@odata.type": "#microsoft.graph.groupAssignmentTarget",
			"groupId":     id,
			"deviceAndAppManagementAssignmentFilterId":   nil,
			"deviceAndAppManagementAssignmentFilterType": "none",
		},
	}
}

func TestResolve_NilSpecIsNoChange(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, quietLogger())

	payload, changed, err := r.Resolve(context.Background(), nil, []record.Record{remoteGroup("g1")}, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, payload)
}

func TestResolve_AlreadyAssigned(t *testing.T) {
	dir := &fakeDirectory{groups: map[string]string{"Pilot": "g1", "Prod": "g2"}}
	r := NewResolver(dir, quietLogger())

	_, changed, err := r.Resolve(context.Background(),
		[]any{groupSpec("Prod"), groupSpec("Pilot")},
		[]record.Record{remoteGroup("g1"), remoteGroup("g2")},
		false)
	require.NoError(t, err)
	assert.False(t, changed, "order and service-added fields must not count as a change")
}

func TestResolve_NewAssignment(t *testing.T) {
	dir := &fakeDirectory{groups: map[string]string{"Pilot": "g1"}}
	r := NewResolver(dir, quietLogger())

	payload, changed, err := r.Resolve(context.Background(), []any{groupSpec("Pilot")}, nil, false)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, payload, 1)

	target := payload[0]["target"].(map[string]any)
	assert.Equal(t, "g1", target["groupId"])
	assert.NotContains(t, target, "groupName")
	assert.NotContains(t, target, "groupType")
}

func TestResolve_EmptySpecClearsAssignments(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, quietLogger())

	payload, changed, err := r.Resolve(context.Background(), []any{}, []record.Record{remoteGroup("g1")}, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, payload)
}

func TestResolve_MissingGroupSkipped(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewResolver(dir, quietLogger())

	payload, changed, err := r.Resolve(context.Background(), []any{groupSpec("Ghost")}, nil, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, payload)
	assert.Empty(t, dir.created)
}

func TestResolve_CreateGroups(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewResolver(dir, quietLogger())

	payload, changed, err := r.Resolve(context.Background(), []any{groupSpec("Ghost")}, nil, true)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"Ghost"}, dir.created)
	assert.Equal(t, "new-Ghost", payload[0]["target"].(map[string]any)["groupId"])
}

func TestResolve_CachesGroupLookups(t *testing.T) {
	dir := &fakeDirectory{groups: map[string]string{"Pilot": "g1"}}
	r := NewResolver(dir, quietLogger())

	for i := 0; i < 3; i++ {
		_, _, err := r.Resolve(context.Background(), []any{groupSpec("Pilot")}, nil, false)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, dir.lookups)
}

func TestResolve_AllDevicesNeedsNoLookup(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewResolver(dir, quietLogger())
	desired := []any{map[string]any{"target": map[string]any{"@odata.type": "#microsoft.graph.allDevicesAssignmentTarget"}}}

	payload, changed, err := r.Resolve(context.Background(), desired, nil, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, payload, 1)
	assert.Equal(t, 0, dir.lookups)
}

func TestResolve_Errors(t *testing.T) {
	r := NewResolver(&fakeDirectory{findErr: errors.New("boom")}, quietLogger())

	_, _, err := r.Resolve(context.Background(), []any{groupSpec("Pilot")}, nil, false)
	assert.ErrorContains(t, err, "boom")

	_, _, err = r.Resolve(context.Background(), []any{"all"}, nil, false)
	assert.ErrorContains(t, err, "expected a mapping")

	_, _, err = r.Resolve(context.Background(), []any{map[string]any{"intent": "apply"}}, nil, false)
	assert.ErrorContains(t, err, "missing target")
}
