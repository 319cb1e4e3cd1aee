package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, version, strings.TrimSpace(execute(t, "version")))
}

func TestTypesCommand(t *testing.T) {
	out := execute(t, "types")
	assert.Contains(t, out, "Custom Attributes")
	assert.Contains(t, out, "Notification Templates")
}

func TestUpdateCommand_RequiresPath(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"update", "--config", t.TempDir() + "/missing.toml"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}
