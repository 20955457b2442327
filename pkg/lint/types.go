package lint

import (
	"fmt"
	"time"
)

// Diagnostic represents a lint finding at one node of a view document.
type Diagnostic struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	NodeKind string   `json:"node_kind,omitempty"`
	Message  string   `json:"message"`
	Fix      *Fix     `json:"fix,omitempty"`
}

// RunResult is the outcome of linting one document.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Document    string        `json:"document"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Diagnostics []Diagnostic  `json:"diagnostics"`

	// RuleTimings is the time each rule spent in visits and finalize,
	// keyed by rule ID.
	RuleTimings map[string]time.Duration `json:"rule_timings,omitempty"`
}

// MaxSeverity returns the most severe diagnostic severity in the run.
// ok is false when the run produced no diagnostics.
func (r *RunResult) MaxSeverity() (Severity, bool) {
	if len(r.Diagnostics) == 0 {
		return 0, false
	}
	max := r.Diagnostics[0].Severity
	for _, d := range r.Diagnostics[1:] {
		if d.Severity.MoreSevere(max) {
			max = d.Severity
		}
	}
	return max, true
}

// CountBySeverity tallies diagnostics per severity.
func (r *RunResult) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, d := range r.Diagnostics {
		counts[d.Severity]++
	}
	return counts
}

// ConfigError reports an invalid rule configuration. Configuration is
// validated up front, before any document is traversed.
type ConfigError struct {
	Rule    string
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("rule %s: option %s: %s", e.Rule, e.Key, e.Message)
	}
	return fmt.Sprintf("rule %s: %s", e.Rule, e.Message)
}
