package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	entries := []Entry{{Path: "root['description']", Kind: Changed, Old: "a", New: "b"}}

	s := Summarize("Script A", "Custom Attribute", entries)

	assert.Equal(t, "Script A", s.Name)
	assert.Equal(t, "Custom Attribute", s.Type)
	assert.Equal(t, ActionNone, s.Action)
	assert.True(t, s.Notify)
	assert.Equal(t, 1, s.Count)
	assert.True(t, s.Entries[0].Notify)
	assert.Equal(t, "b", s.Entries[0].New)
}

func TestSummarize_SilentHidesValues(t *testing.T) {
	entries := []Entry{{Path: "scriptContent", Kind: Changed, Old: "secret old", New: "secret new", Notify: true}}

	s := Summarize("", "Custom Attribute Shell Script", entries,
		WithMessage("Script changed, check commit history for details"), Silent())

	assert.False(t, s.Notify)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, Entry{
		Path:    "scriptContent",
		Kind:    Changed,
		Message: "Script changed, check commit history for details",
	}, s.Entries[0])
}

func TestSummary_Merge(t *testing.T) {
	cfg := Summarize("A", "Custom Attribute", []Entry{{Path: "root['x']", Kind: Changed}}, WithAction(ActionUpdate))
	script := Summarize("", "Custom Attribute Shell Script", []Entry{{Path: "scriptContent", Kind: Changed}},
		WithMessage("changed"), Silent())

	cfg.Merge(script)

	assert.Equal(t, "A", cfg.Name)
	assert.Equal(t, ActionUpdate, cfg.Action)
	assert.Equal(t, 2, cfg.Count)
	assert.Len(t, cfg.Entries, 2)
	assert.Len(t, cfg.Notifying(), 1)
	assert.True(t, cfg.Notify)
}

func TestSummary_MergeEmpty(t *testing.T) {
	cfg := Summarize("A", "T", nil)
	cfg.Merge(Summarize("", "T2", nil, Silent()))

	assert.Equal(t, 0, cfg.Count)
	assert.Empty(t, cfg.Entries)
}
