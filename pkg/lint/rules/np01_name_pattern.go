// Package rules provides the built-in lint rules. Importing the package
// registers them in the global registry.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/model"
)

// Naming conventions accepted by NP01. Each maps to two patterns:
// with and without digits.
var conventions = map[string][2]string{
	"PascalCase": {`^[A-Z][a-zA-Z0-9]*$`, `^[A-Z][a-zA-Z]*$`},
	"camelCase":  {`^[a-z][a-zA-Z0-9]*$`, `^[a-z][a-zA-Z]*$`},
	"snake_case": {`^[a-z][a-z0-9_]*$`, `^[a-z][a-z_]*$`},
	"kebab-case": {`^[a-z][a-z0-9-]*$`, `^[a-z][a-z-]*$`},
	"Title Case": {`^[A-Z][a-zA-Z0-9]*( [A-Z][a-zA-Z0-9]*)*$`, `^[A-Z][a-zA-Z]*( [A-Z][a-zA-Z]*)*$`},
}

func init() {
	lint.Register(lint.RuleDef{
		ID:          "NP01",
		Name:        "name-pattern",
		Group:       "naming",
		Description: "Component and property names follow the configured naming convention",
		Severity:    lint.SeverityError,
		Kinds:       []model.Kind{model.KindComponent},
		ConfigKeys:  []string{"convention", "min_length", "allow_numbers", "forbidden_abbreviations"},
		New:         newNamePattern,
		Rationale: "Inconsistent names make views hard to navigate and break " +
			"scripts that look components up by name.",
		BadExample:  `meta.name = "submit_Btn2"`,
		GoodExample: `meta.name = "SubmitButton"`,
		Fix:         "Rename the node to match the convention configured for its kind.",
	})
}

type namePattern struct {
	convention    string
	pattern       *regexp.Regexp
	minLength     int
	abbreviations []string
}

func newNamePattern(cfg lint.RuleConfig) (lint.Visitor, error) {
	convention := cfg.StringParam("convention", "PascalCase")
	pats, ok := conventions[convention]
	if !ok {
		return nil, fmt.Errorf("unknown naming convention %q", convention)
	}
	pat := pats[0]
	if !cfg.BoolParam("allow_numbers", true) {
		pat = pats[1]
	}
	return &namePattern{
		convention:    convention,
		pattern:       regexp.MustCompile(pat),
		minLength:     cfg.IntParam("min_length", 1),
		abbreviations: cfg.StringsParam("forbidden_abbreviations"),
	}, nil
}

func (r *namePattern) Visit(rc *lint.RuleRun, n *model.Node) {
	// The top-level container is always named "root" by the Designer.
	if n.Kind == model.KindComponent && n.Path.String() == "root" {
		return
	}
	name := n.Name()
	if name == "" {
		if n.Kind == model.KindComponent {
			rc.Report(n, "component has no meta.name")
		}
		return
	}
	if len(name) < r.minLength {
		rc.Reportf(n, "name %q is shorter than %d characters", name, r.minLength)
		return
	}
	if !r.pattern.MatchString(name) {
		msg := fmt.Sprintf("name %q does not match %s", name, r.convention)
		renamed := convertName(name, r.convention)
		editPath := nameEditPath(n)
		if editPath != "" && renamed != "" && renamed != name && r.pattern.MatchString(renamed) {
			// Renaming may break scripts and bindings that address the
			// node by name, so the fix is marked unsafe.
			rc.ReportFixable(n, msg, &lint.Fix{
				Description: fmt.Sprintf("rename to %q", renamed),
				Unsafe:      true,
				Edits:       []lint.Edit{{Path: editPath, Value: renamed}},
			})
			return
		}
		rc.Report(n, msg)
		return
	}
	lower := strings.ToLower(name)
	for _, abbr := range r.abbreviations {
		if strings.Contains(lower, strings.ToLower(abbr)) {
			rc.Reportf(n, "name %q contains forbidden abbreviation %q", name, abbr)
			return
		}
	}
}

func (r *namePattern) Finalize(rc *lint.RuleRun) {}

// nameEditPath is the flattened path holding the node's name, for kinds
// whose name is a value rather than a key.
func nameEditPath(n *model.Node) string {
	switch n.Kind {
	case model.KindComponent:
		return n.Path.String() + ".meta.name"
	case model.KindCustomMethod:
		return n.Path.String() + ".name"
	case model.KindMessageHandler:
		return n.Path.String() + ".messageType"
	}
	return ""
}

// convertName rewrites name into the target convention, or returns ""
// when no mechanical conversion exists.
func convertName(name, convention string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return ""
	}
	switch convention {
	case "PascalCase":
		return joinTitled(words, "", 0)
	case "camelCase":
		return joinTitled(words, "", 1)
	case "snake_case":
		return strings.Join(words, "_")
	case "kebab-case":
		return strings.Join(words, "-")
	case "Title Case":
		return joinTitled(words, " ", 0)
	}
	return ""
}

// splitWords lowers and splits a name on separators and on lower-to-
// upper case boundaries.
func splitWords(name string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = nil
		}
	}
	runes := []rune(name)
	for i, c := range runes {
		switch {
		case c == '_' || c == '-' || c == ' ':
			flush()
		case c >= 'A' && c <= 'Z' && i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z':
			flush()
			cur = append(cur, c)
		default:
			cur = append(cur, c)
		}
	}
	flush()
	return words
}

// joinTitled joins words with sep, capitalizing all but the first
// skipTitle words.
func joinTitled(words []string, sep string, skipTitle int) string {
	out := make([]string, len(words))
	for i, w := range words {
		if i < skipTitle {
			out[i] = w
			continue
		}
		out[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(out, sep)
}
