package lint

import (
	"github.com/viewlint-labs/viewlint/pkg/model"
)

// RuleDef is a data-driven rule definition. The definition itself is
// stateless and shared; per-run state lives in the Visitor that New
// constructs, so concurrent runs never share rule state.
type RuleDef struct {
	ID          string       // Unique identifier, e.g., "NP01"
	Name        string       // Human-readable name, e.g., "name-pattern"
	Group       string       // Category, e.g., "naming", "structure", "scripts"
	Description string       // Human-readable description
	Severity    Severity     // Default severity
	Kinds       []model.Kind // Node kinds the rule visits; empty means finalize-only
	ConfigKeys  []string     // Configuration keys this rule accepts

	// New constructs a fresh per-run visitor. It returns an error when
	// the rule-specific params are invalid.
	New func(cfg RuleConfig) (Visitor, error)

	// Documentation fields for richer rule documentation
	Rationale   string // Why this rule exists, what problems it prevents
	BadExample  string // Content showing the anti-pattern
	GoodExample string // Content showing the correct pattern
	Fix         string // How to fix violations (when not obvious)
}

// Visitor is the per-run instance of a rule. Visit is called once per
// matching node in document pre-order; Finalize once after the
// traversal, for checks that need the whole document.
type Visitor interface {
	Visit(rc *RuleRun, n *model.Node)
	Finalize(rc *RuleRun)
}

// VisitorFunc adapts a plain visit function to Visitor for rules with
// no cross-node state.
type VisitorFunc func(rc *RuleRun, n *model.Node)

func (f VisitorFunc) Visit(rc *RuleRun, n *model.Node) { f(rc, n) }
func (f VisitorFunc) Finalize(rc *RuleRun)             {}

// RuleConfig carries one rule's configuration into New.
type RuleConfig struct {
	Rule     string         // Rule ID or name as written in configuration
	Enabled  *bool          // nil means enabled
	Severity string         // Override; empty keeps the rule default
	Kinds    []string       // Override of the visited kinds; empty keeps default
	Params   map[string]any // Rule-specific options
}

// StringParam reads a string param with a default.
func (c RuleConfig) StringParam(key, def string) string {
	if v, ok := c.Params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// IntParam reads an int param with a default. YAML and JSON decoders
// deliver numbers as int or float64 depending on source.
func (c RuleConfig) IntParam(key string, def int) int {
	switch v := c.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// StringsParam reads a string-list param. YAML decoders deliver lists
// as []any.
func (c RuleConfig) StringsParam(key string) []string {
	switch v := c.Params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// BoolParam reads a bool param with a default.
func (c RuleConfig) BoolParam(key string, def bool) bool {
	if v, ok := c.Params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
