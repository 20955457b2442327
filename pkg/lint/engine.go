package lint

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
	"github.com/viewlint-labs/viewlint/pkg/model"
	"github.com/viewlint-labs/viewlint/pkg/script"
	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

// Whitelist suppresses findings for approved nodes. A nil Whitelist
// approves nothing.
type Whitelist func(viewpath.Path) bool

// Options configures an Engine.
type Options struct {
	// Whitelist marks node paths whose findings are suppressed.
	Whitelist Whitelist
	// Checker is the external script linter, if any. Rules that need
	// one skip their work when it is nil.
	Checker script.Checker
}

// Engine runs a fixed, ordered rule list over documents. Diagnostic
// order is deterministic: rules in configuration order, and within one
// rule, nodes in document pre-order with finalize findings last.
type Engine struct {
	configs []RuleConfig
	opts    Options
}

// NewEngine validates the rule configuration and returns an engine.
// Invalid configuration (unknown rule, bad severity, unknown kind,
// rejected params) is reported as *ConfigError before any run.
func NewEngine(configs []RuleConfig, opts Options) (*Engine, error) {
	if _, err := resolve(configs); err != nil {
		return nil, err
	}
	return &Engine{configs: configs, opts: opts}, nil
}

// resolvedRule pairs a definition with its per-run visitor and the
// effective severity and kind set.
type resolvedRule struct {
	def      RuleDef
	severity Severity
	kinds    map[model.Kind]bool
	visitor  Visitor
}

// resolve builds fresh visitors for one run. Disabled rules are left
// out entirely.
func resolve(configs []RuleConfig) ([]*resolvedRule, error) {
	var rules []*resolvedRule
	for _, cfg := range configs {
		if cfg.Enabled != nil && !*cfg.Enabled {
			continue
		}
		def, ok := GetByName(cfg.Rule)
		if !ok {
			return nil, &ConfigError{Rule: cfg.Rule, Message: "unknown rule"}
		}
		r := &resolvedRule{def: def, severity: def.Severity}
		if cfg.Severity != "" {
			sev, err := ParseSeverity(cfg.Severity)
			if err != nil {
				return nil, &ConfigError{Rule: cfg.Rule, Key: "severity", Message: err.Error()}
			}
			r.severity = sev
		}
		kinds := def.Kinds
		if len(cfg.Kinds) > 0 {
			kinds = kinds[:0:0]
			for _, name := range cfg.Kinds {
				k, ok := model.ParseKind(name)
				if !ok {
					return nil, &ConfigError{Rule: cfg.Rule, Key: "kinds", Message: fmt.Sprintf("unknown node kind %q", name)}
				}
				kinds = append(kinds, k)
			}
		}
		r.kinds = make(map[model.Kind]bool, len(kinds))
		for _, k := range kinds {
			r.kinds[k] = true
		}
		visitor, err := def.New(cfg)
		if err != nil {
			return nil, &ConfigError{Rule: cfg.Rule, Message: err.Error()}
		}
		r.visitor = visitor
		rules = append(rules, r)
	}
	return rules, nil
}

// Run lints one document. Each run gets fresh rule state, so a single
// engine may lint many documents, including concurrently.
func (e *Engine) Run(document string, m *model.Model, doc flatten.Document) (*RunResult, error) {
	rules, err := resolve(e.configs)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.NewString(),
		Document:  document,
		StartedAt: time.Now(),
	}

	runs := make([]*RuleRun, len(rules))
	for i, r := range rules {
		runs[i] = &RuleRun{engine: e, model: m, doc: doc, rule: r}
	}

	m.Walk(func(n *model.Node) bool {
		if e.opts.Whitelist != nil && e.opts.Whitelist(n.Path) {
			return true
		}
		for _, rr := range runs {
			if rr.failed || !rr.rule.kinds[n.Kind] {
				continue
			}
			rr.safeVisit(n)
		}
		return true
	})

	for _, rr := range runs {
		if rr.failed {
			continue
		}
		rr.safeFinalize()
	}

	result.RuleTimings = make(map[string]time.Duration, len(runs))
	for _, rr := range runs {
		result.Diagnostics = append(result.Diagnostics, rr.diags...)
		result.RuleTimings[rr.rule.def.ID] += rr.elapsed
	}
	result.Duration = time.Since(result.StartedAt)
	return result, nil
}

// RuleRun is the reporting context handed to one rule during one run.
type RuleRun struct {
	engine *Engine
	model  *model.Model
	doc    flatten.Document
	rule    *resolvedRule
	diags   []Diagnostic
	failed  bool
	elapsed time.Duration
}

// Model returns the document's node graph.
func (rr *RuleRun) Model() *model.Model { return rr.model }

// Doc returns the flattened document.
func (rr *RuleRun) Doc() flatten.Document { return rr.doc }

// Checker returns the configured external script checker, or nil.
func (rr *RuleRun) Checker() script.Checker { return rr.engine.opts.Checker }

// Whitelisted reports whether findings at a path are suppressed.
func (rr *RuleRun) Whitelisted(p viewpath.Path) bool {
	return rr.engine.opts.Whitelist != nil && rr.engine.opts.Whitelist(p)
}

// Report records a finding against a node.
func (rr *RuleRun) Report(n *model.Node, message string) {
	rr.diags = append(rr.diags, Diagnostic{
		RuleID:   rr.rule.def.ID,
		Severity: rr.rule.severity,
		Path:     n.Path.String(),
		NodeKind: n.Kind.String(),
		Message:  message,
	})
}

// Reportf records a formatted finding against a node.
func (rr *RuleRun) Reportf(n *model.Node, format string, args ...any) {
	rr.Report(n, fmt.Sprintf(format, args...))
}

// ReportFixable records a finding with a proposed mechanical fix.
func (rr *RuleRun) ReportFixable(n *model.Node, message string, fix *Fix) {
	rr.diags = append(rr.diags, Diagnostic{
		RuleID:   rr.rule.def.ID,
		Severity: rr.rule.severity,
		Path:     n.Path.String(),
		NodeKind: n.Kind.String(),
		Message:  message,
		Fix:      fix,
	})
}

// ReportAt records a finding at a raw path, for rules that work on the
// flattened document rather than classified nodes.
func (rr *RuleRun) ReportAt(path, message string) {
	rr.diags = append(rr.diags, Diagnostic{
		RuleID:   rr.rule.def.ID,
		Severity: rr.rule.severity,
		Path:     path,
		Message:  message,
	})
}

// ReportFinding records a finding with an explicit severity, for rules
// that grade findings individually (e.g. external checker categories).
func (rr *RuleRun) ReportFinding(path string, sev Severity, message string) {
	rr.diags = append(rr.diags, Diagnostic{
		RuleID:   rr.rule.def.ID,
		Severity: sev,
		Path:     path,
		Message:  message,
	})
}

// safeVisit dispatches one node to the rule, converting a panic into a
// synthetic error diagnostic. A failed rule stops receiving nodes but
// the remaining rules run to completion.
func (rr *RuleRun) safeVisit(n *model.Node) {
	start := time.Now()
	defer func() { rr.elapsed += time.Since(start) }()
	defer rr.recoverPanic(n.Path.String())
	rr.rule.visitor.Visit(rr, n)
}

func (rr *RuleRun) safeFinalize() {
	start := time.Now()
	defer func() { rr.elapsed += time.Since(start) }()
	defer rr.recoverPanic("")
	rr.rule.visitor.Finalize(rr)
}

func (rr *RuleRun) recoverPanic(path string) {
	r := recover()
	if r == nil {
		return
	}
	rr.failed = true
	rr.diags = append(rr.diags, Diagnostic{
		RuleID:   rr.rule.def.ID,
		Severity: SeverityError,
		Path:     path,
		Message:  fmt.Sprintf("rule failed: %v", r),
	})
}
