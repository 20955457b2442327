package rules

import (
	"fmt"
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/model"
	"github.com/viewlint-labs/viewlint/pkg/script"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "SC01",
		Name:        "script-lint",
		Group:       "scripts",
		Description: "Embedded scripts pass the configured external script checker",
		Severity:    lint.SeverityWarning,
		Kinds:       model.ScriptKinds(),
		New:         newScriptLint,
		Rationale: "Event handlers, custom methods, message handlers and script " +
			"transforms are plain code hidden in JSON. Without a checker they " +
			"only fail in a live session.",
		Fix: "Fix the script as the checker output indicates.",
	})
}

type collected struct {
	node   *model.Node
	source string
}

// scriptLint gathers every embedded script during traversal, hands the
// concatenated unit to the external checker once, and maps findings
// back to the owning nodes. Without a configured checker it does
// nothing.
type scriptLint struct {
	scripts []collected
}

func newScriptLint(cfg lint.RuleConfig) (lint.Visitor, error) {
	return &scriptLint{}, nil
}

func (r *scriptLint) Visit(rc *lint.RuleRun, n *model.Node) {
	if src := n.Script(); strings.TrimSpace(src) != "" {
		r.scripts = append(r.scripts, collected{node: n, source: src})
	}
}

func (r *scriptLint) Finalize(rc *lint.RuleRun) {
	checker := rc.Checker()
	if checker == nil || len(r.scripts) == 0 {
		return
	}
	unit := &script.Unit{}
	for _, s := range r.scripts {
		unit.Add(s.node.Path.String(), s.source)
	}
	findings, err := checker.Check(unit.Source())
	if err != nil {
		rc.ReportFinding("", lint.SeverityWarning, fmt.Sprintf("script checker failed: %v", err))
		return
	}
	for _, f := range findings {
		loc, ok := unit.Resolve(f.Line)
		if !ok {
			continue
		}
		rc.ReportFinding(loc.Path, CategorySeverity(f.Category),
			fmt.Sprintf("line %d: %s", loc.Line, f.Message))
	}
}

// CategorySeverity maps an external checker category to a severity.
// Unknown categories rank as warnings.
func CategorySeverity(category string) lint.Severity {
	switch strings.ToLower(category) {
	case "error", "fatal":
		return lint.SeverityError
	case "warning":
		return lint.SeverityWarning
	case "convention", "refactor", "info":
		return lint.SeverityInfo
	default:
		return lint.SeverityWarning
	}
}
