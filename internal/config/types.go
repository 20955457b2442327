package config

import (
	"github.com/viewlint-labs/viewlint/pkg/lint"
)

// Defaults applied before any config source is loaded.
const (
	DefaultArtifactsDir  = ".viewlint"
	DefaultWhitelist     = ".viewlint-whitelist"
	DefaultOutput        = "auto"
	DefaultJobs          = 4
	DefaultLockTimeoutMS = 5000
)

// RuleEntry is one rule's configuration. Rules form an ordered list:
// diagnostic ordering follows this order, so it is a list in YAML, not
// a map.
type RuleEntry struct {
	Rule     string         `koanf:"rule"`
	Enabled  *bool          `koanf:"enabled"`
	Severity string         `koanf:"severity"`
	Kinds    []string       `koanf:"kinds"`
	Params   map[string]any `koanf:"params"`
}

// Config is the resolved viewlint configuration.
type Config struct {
	ArtifactsDir   string      `koanf:"artifacts_dir"`
	Whitelist      string      `koanf:"whitelist"`
	Output         string      `koanf:"output"` // auto, text, or json
	Jobs           int         `koanf:"jobs"`
	LockTimeoutMS  int         `koanf:"lock_timeout_ms"`
	IgnoreWarnings bool        `koanf:"ignore_warnings"`
	Timings        bool        `koanf:"timings"`
	Verbose        bool        `koanf:"verbose"`
	Rules          []RuleEntry `koanf:"rules"`

	// ScriptChecker is the external command scripts are piped to, e.g.
	// ["pylint", "--from-stdin"]. Empty disables script checking.
	ScriptChecker []string `koanf:"script_checker"`

	// ProjectRoot is the directory relative paths resolve against.
	// Derived, never read from a config source.
	ProjectRoot string `koanf:"-"`
}

// RuleConfigs converts the configured rule list into engine form. With
// no rules configured, every registered rule runs with its defaults,
// in registry (ID) order.
func (c *Config) RuleConfigs() []lint.RuleConfig {
	if len(c.Rules) == 0 {
		var out []lint.RuleConfig
		for _, def := range lint.GetAll() {
			out = append(out, lint.RuleConfig{Rule: def.ID})
		}
		return out
	}
	out := make([]lint.RuleConfig, len(c.Rules))
	for i, e := range c.Rules {
		out[i] = lint.RuleConfig{
			Rule:     e.Rule,
			Enabled:  e.Enabled,
			Severity: e.Severity,
			Kinds:    e.Kinds,
			Params:   e.Params,
		}
	}
	return out
}
