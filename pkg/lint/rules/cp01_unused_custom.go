package rules

import (
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/model"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "CP01",
		Name:        "unused-custom-properties",
		Group:       "properties",
		Description: "Custom properties are referenced by at least one binding or script",
		Severity:    lint.SeverityWarning,
		Kinds: []model.Kind{
			model.KindProperty, model.KindExpressionBinding, model.KindPropertyBinding,
			model.KindMessageHandler, model.KindCustomMethod, model.KindTransform,
			model.KindEventHandler,
		},
		New: newUnusedCustom,
		Rationale: "Custom properties nobody reads are dead configuration. They " +
			"mislead maintainers and often survive refactors by accident.",
		BadExample:  `custom.oldTitle = "..."  (referenced nowhere)`,
		GoodExample: `custom.title = "..."  with a binding on {view.custom.title}`,
		Fix:         "Delete the property, or wire up the consumer that was meant to read it.",
	})
}

type customDef struct {
	node  *model.Node
	token string
}

// unusedCustom collects custom property definitions and every text that
// could reference one, then reports the definitions left unreferenced.
type unusedCustom struct {
	defs []customDef
	refs []string
}

func newUnusedCustom(cfg lint.RuleConfig) (lint.Visitor, error) {
	return &unusedCustom{}, nil
}

func (r *unusedCustom) Visit(rc *lint.RuleRun, n *model.Node) {
	switch n.Kind {
	case model.KindProperty:
		if token := refToken(n); token != "" {
			r.defs = append(r.defs, customDef{node: n, token: token})
		}
	case model.KindExpressionBinding:
		r.refs = append(r.refs, n.Expression())
	case model.KindPropertyBinding:
		r.refs = append(r.refs, n.TargetPath())
	default:
		r.refs = append(r.refs, n.Script())
	}
}

func (r *unusedCustom) Finalize(rc *lint.RuleRun) {
	for _, def := range r.defs {
		if r.referenced(def.token) {
			continue
		}
		path := def.node.Path.String()
		rc.ReportFixable(def.node,
			"custom property "+def.token+" is never referenced",
			&lint.Fix{
				Description: "delete " + path,
				Edits:       []lint.Edit{{Path: path, Delete: true}},
			})
	}
}

func (r *unusedCustom) referenced(token string) bool {
	for _, text := range r.refs {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// refToken renders the suffix of a property path from its custom or
// params segment on, which is how bindings and scripts address it
// (e.g. "custom.title").
func refToken(n *model.Node) string {
	segs := n.Path.Segments()
	for i, s := range segs {
		if s.IsIdx || (s.Name != "custom" && s.Name != "params") {
			continue
		}
		parts := make([]string, 0, len(segs)-i)
		for _, rest := range segs[i:] {
			if rest.IsIdx {
				// Array elements are addressed through their parent.
				break
			}
			parts = append(parts, rest.Name)
		}
		return strings.Join(parts, ".")
	}
	return ""
}
