package lint

import (
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
)

// Fix is a proposed mechanical repair for a finding. Unsafe fixes may
// change runtime behavior (renaming a component that scripts look up,
// for example) and are only applied on explicit request.
type Fix struct {
	Description string `json:"description"`
	Unsafe      bool   `json:"unsafe,omitempty"`
	Edits       []Edit `json:"edits"`
}

// Edit is one change to a flattened document: set a value at a path,
// or delete the path and everything nested under it.
type Edit struct {
	Path   string `json:"path"`
	Value  any    `json:"value,omitempty"`
	Delete bool   `json:"delete,omitempty"`
}

// ApplyFixes applies the fixes attached to diags onto a copy of doc.
// Unsafe fixes are skipped unless allowUnsafe; a non-empty ruleFilter
// restricts fixes to the listed rule IDs. It returns the patched
// document and the diagnostics whose fixes were applied.
func ApplyFixes(doc flatten.Document, diags []Diagnostic, allowUnsafe bool, ruleFilter map[string]bool) (flatten.Document, []Diagnostic) {
	out := make(flatten.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	var applied []Diagnostic
	for _, d := range diags {
		if d.Fix == nil {
			continue
		}
		if d.Fix.Unsafe && !allowUnsafe {
			continue
		}
		if len(ruleFilter) > 0 && !ruleFilter[d.RuleID] {
			continue
		}
		for _, e := range d.Fix.Edits {
			if e.Delete {
				deleteSubtree(out, e.Path)
				continue
			}
			out[e.Path] = e.Value
		}
		applied = append(applied, d)
	}
	return out, applied
}

// deleteSubtree removes the key and every key nested under it.
func deleteSubtree(doc flatten.Document, path string) {
	for k := range doc {
		if k == path || strings.HasPrefix(k, path+".") || strings.HasPrefix(k, path+"[") {
			delete(doc, k)
		}
	}
}
