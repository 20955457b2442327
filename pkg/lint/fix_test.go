package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
)

func fixableDoc() flatten.Document {
	return flatten.Document{
		"root.meta.name":    "bad_name",
		"root.custom.old.a": float64(1),
		"root.custom.old.b": float64(2),
		"root.props.text":   "hi",
	}
}

func fixableDiags() []Diagnostic {
	return []Diagnostic{
		{RuleID: "D01", Fix: &Fix{
			Description: "delete root.custom.old",
			Edits:       []Edit{{Path: "root.custom.old", Delete: true}},
		}},
		{RuleID: "R01", Fix: &Fix{
			Description: `rename to "BadName"`,
			Unsafe:      true,
			Edits:       []Edit{{Path: "root.meta.name", Value: "BadName"}},
		}},
		{RuleID: "N01"}, // no fix attached
	}
}

func TestApplyFixes_SafeOnly(t *testing.T) {
	doc := fixableDoc()
	got, applied := ApplyFixes(doc, fixableDiags(), false, nil)

	require.Len(t, applied, 1)
	assert.Equal(t, "D01", applied[0].RuleID)
	assert.NotContains(t, got, "root.custom.old.a")
	assert.NotContains(t, got, "root.custom.old.b")
	assert.Equal(t, "bad_name", got["root.meta.name"])

	// The input document is never mutated.
	assert.Equal(t, fixableDoc(), doc)
}

func TestApplyFixes_Unsafe(t *testing.T) {
	got, applied := ApplyFixes(fixableDoc(), fixableDiags(), true, nil)
	require.Len(t, applied, 2)
	assert.Equal(t, "BadName", got["root.meta.name"])
	assert.NotContains(t, got, "root.custom.old.a")
}

func TestApplyFixes_RuleFilter(t *testing.T) {
	got, applied := ApplyFixes(fixableDoc(), fixableDiags(), true,
		map[string]bool{"R01": true})
	require.Len(t, applied, 1)
	assert.Equal(t, "R01", applied[0].RuleID)
	assert.Contains(t, got, "root.custom.old.a")
}

func TestApplyFixes_DeleteSubtree(t *testing.T) {
	doc := flatten.Document{
		"root.custom.rows[0]":   float64(1),
		"root.custom.rows[1]":   float64(2),
		"root.custom.rowsTotal": float64(3),
	}
	got, _ := ApplyFixes(doc, []Diagnostic{{RuleID: "D01", Fix: &Fix{
		Edits: []Edit{{Path: "root.custom.rows", Delete: true}},
	}}}, false, nil)
	assert.NotContains(t, got, "root.custom.rows[0]")
	assert.NotContains(t, got, "root.custom.rows[1]")
	// A sibling sharing the name as a prefix survives.
	assert.Contains(t, got, "root.custom.rowsTotal")
}
