package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/model"
	"github.com/viewlint-labs/viewlint/pkg/script"
)

// run lints one flattened document with a single rule configuration.
func run(t *testing.T, doc flatten.Document, cfg lint.RuleConfig, opts lint.Options) []lint.Diagnostic {
	t.Helper()
	m, diags, err := model.NewBuilder().Build(doc)
	require.NoError(t, err)
	require.Empty(t, diags)

	eng, err := lint.NewEngine([]lint.RuleConfig{cfg}, opts)
	require.NoError(t, err)
	res, err := eng.Run("view.json", m, doc)
	require.NoError(t, err)
	return res.Diagnostics
}

func component(name string) flatten.Document {
	return flatten.Document{
		"root.children[0].meta.name": name,
		"root.children[0].meta.type": "ia.display.label",
	}
}

func TestNamePattern_Conventions(t *testing.T) {
	tests := []struct {
		name       string
		convention string
		compName   string
		ok         bool
	}{
		{"pascal accepts PascalCase", "PascalCase", "SubmitButton", true},
		{"pascal accepts digits", "PascalCase", "Button2", true},
		{"pascal rejects camel", "PascalCase", "submitButton", false},
		{"pascal rejects snake", "PascalCase", "submit_button", false},
		{"camel accepts camelCase", "camelCase", "submitButton", true},
		{"camel rejects pascal", "camelCase", "SubmitButton", false},
		{"snake accepts snake_case", "snake_case", "submit_button", true},
		{"snake rejects kebab", "snake_case", "submit-button", false},
		{"kebab accepts kebab-case", "kebab-case", "submit-button", true},
		{"kebab rejects underscore", "kebab-case", "submit_button", false},
		{"title accepts spaced words", "Title Case", "Submit Button", true},
		{"title rejects lowercase word", "Title Case", "Submit button", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := run(t, component(tt.compName), lint.RuleConfig{
				Rule:   "NP01",
				Params: map[string]any{"convention": tt.convention},
			}, lint.Options{})
			if tt.ok {
				assert.Empty(t, diags)
			} else {
				require.Len(t, diags, 1)
				assert.Equal(t, "NP01", diags[0].RuleID)
				assert.Equal(t, "root.children[0]", diags[0].Path)
			}
		})
	}
}

// The top-level "root" container carries a fixed lowercase name and is
// never reported.
func TestNamePattern_RootExempt(t *testing.T) {
	diags := run(t, flatten.Document{
		"root.meta.name": "root",
		"root.meta.type": "ia.container.flex",
	}, lint.RuleConfig{Rule: "NP01"}, lint.Options{})
	assert.Empty(t, diags)
}

func TestNamePattern_ProposesRename(t *testing.T) {
	diags := run(t, component("submit_button"), lint.RuleConfig{Rule: "NP01"}, lint.Options{})
	require.Len(t, diags, 1)

	fix := diags[0].Fix
	require.NotNil(t, fix)
	assert.True(t, fix.Unsafe)
	assert.Contains(t, fix.Description, `"SubmitButton"`)
	require.Len(t, fix.Edits, 1)
	assert.Equal(t, "root.children[0].meta.name", fix.Edits[0].Path)
	assert.Equal(t, "SubmitButton", fix.Edits[0].Value)
}

// A name that cannot be mechanically converted into the convention is
// reported without a fix.
func TestNamePattern_NoRenameWhenUnconvertible(t *testing.T) {
	diags := run(t, component("Button2"), lint.RuleConfig{
		Rule:   "NP01",
		Params: map[string]any{"allow_numbers": false},
	}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Nil(t, diags[0].Fix)
}

func TestConvertName(t *testing.T) {
	tests := []struct {
		in, convention, want string
	}{
		{"submit_button", "PascalCase", "SubmitButton"},
		{"SubmitButton", "camelCase", "submitButton"},
		{"submitButton", "snake_case", "submit_button"},
		{"Submit Button", "kebab-case", "submit-button"},
		{"submit_button", "Title Case", "Submit Button"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertName(tt.in, tt.convention),
			"%s to %s", tt.in, tt.convention)
	}
}

func TestNamePattern_DisallowNumbers(t *testing.T) {
	diags := run(t, component("Button2"), lint.RuleConfig{
		Rule:   "NP01",
		Params: map[string]any{"allow_numbers": false},
	}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "PascalCase")
}

func TestNamePattern_ForbiddenAbbreviations(t *testing.T) {
	diags := run(t, component("SubmitBtn"), lint.RuleConfig{
		Rule:   "NP01",
		Params: map[string]any{"forbidden_abbreviations": []any{"btn", "lbl"}},
	}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, `"btn"`)
}

func TestNamePattern_MinLength(t *testing.T) {
	diags := run(t, component("Ab"), lint.RuleConfig{
		Rule:   "NP01",
		Params: map[string]any{"min_length": 3},
	}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "shorter than 3")
}

// A component with no meta.name is still classified and reported.
func TestNamePattern_MissingName(t *testing.T) {
	diags := run(t, flatten.Document{
		"root.children[0].meta.type":  "ia.input.button",
		"root.children[0].props.text": "OK",
	}, lint.RuleConfig{Rule: "NP01"}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "component has no meta.name", diags[0].Message)
}

func TestNamePattern_TargetsProperties(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name":       "root",
		"root.meta.type":       "ia.container.flex",
		"root.custom.rowCount": float64(1),
		"root.custom.BadName":  "x",
	}
	diags := run(t, doc, lint.RuleConfig{
		Rule:   "NP01",
		Kinds:  []string{"property"},
		Params: map[string]any{"convention": "camelCase"},
	}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "root.custom.BadName", diags[0].Path)
}

func TestNamePattern_BadConvention(t *testing.T) {
	_, err := lint.NewEngine([]lint.RuleConfig{{
		Rule:   "NP01",
		Params: map[string]any{"convention": "SHOUTING"},
	}}, lint.Options{})
	require.Error(t, err)
	var cfgErr *lint.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestUnusedCustom(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name":    "root",
		"root.meta.type":    "ia.container.flex",
		"root.custom.title": "Dashboard",
		"root.custom.stale": "unused",

		"root.children[0].meta.name":                                       "Header",
		"root.children[0].meta.type":                                       "ia.display.label",
		"root.children[0].propConfig.props.text.binding.type":              "expr",
		"root.children[0].propConfig.props.text.binding.config.expression": "{view.custom.title}",
	}
	diags := run(t, doc, lint.RuleConfig{Rule: "CP01"}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "root.custom.stale", diags[0].Path)
	assert.Contains(t, diags[0].Message, "custom.stale")
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)

	// Deleting an unused property never changes behavior, so the
	// proposed fix is safe.
	fix := diags[0].Fix
	require.NotNil(t, fix)
	assert.False(t, fix.Unsafe)
	require.Len(t, fix.Edits, 1)
	assert.Equal(t, "root.custom.stale", fix.Edits[0].Path)
	assert.True(t, fix.Edits[0].Delete)
}

func TestUnusedCustom_ScriptReference(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name":    "root",
		"root.meta.type":    "ia.container.flex",
		"root.custom.count": float64(0),

		"root.children[0].meta.name":                       "Counter",
		"root.children[0].meta.type":                       "ia.display.label",
		"root.children[0].scripts.customMethods[0].name":   "bump",
		"root.children[0].scripts.customMethods[0].script": "\tself.view.custom.count += 1",
	}
	diags := run(t, doc, lint.RuleConfig{Rule: "CP01"}, lint.Options{})
	assert.Empty(t, diags)
}

func TestExcessiveContext(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name": "root",
		"root.meta.type": "ia.container.flex",
	}
	for i := 0; i < 6; i++ {
		doc[fmt.Sprintf("root.custom.rows[%d]", i)] = float64(i)
	}
	diags := run(t, doc, lint.RuleConfig{
		Rule:   "CD01",
		Params: map[string]any{"max_array_size": 4, "max_data_points": 100},
	}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "root.custom.rows", diags[0].Path)
	assert.Contains(t, diags[0].Message, "6 elements")
}

func TestExcessiveContext_DataPointsAndDepth(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name":             "root",
		"root.meta.type":             "ia.container.flex",
		"root.custom.a.b.c.d.e.leaf": "deep",
		"root.custom.one":            float64(1),
		"root.custom.two":            float64(2),
	}
	diags := run(t, doc, lint.RuleConfig{
		Rule:   "CD01",
		Params: map[string]any{"max_data_points": 2, "max_nesting_depth": 3},
	}, lint.Options{})
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "data points")
	assert.Contains(t, diags[1].Message, "levels deep")
}

func componentTree() flatten.Document {
	return flatten.Document{
		"root.meta.name": "root",
		"root.meta.type": "ia.container.flex",

		"root.children[0].meta.name": "Label",
		"root.children[0].meta.type": "ia.display.label",

		"root.children[1].meta.name":                                       "Value",
		"root.children[1].meta.type":                                       "ia.display.numeric",
		"root.children[1].propConfig.props.text.binding.type":              "expr",
		"root.children[1].propConfig.props.text.binding.config.expression": "{../Label.props.text}",
	}
}

func TestComponentReference_Valid(t *testing.T) {
	diags := run(t, componentTree(), lint.RuleConfig{Rule: "CR01"}, lint.Options{})
	assert.Empty(t, diags)
}

func TestComponentReference_Broken(t *testing.T) {
	doc := componentTree()
	doc["root.children[1].propConfig.props.text.binding.config.expression"] = "{../Lable.props.text}"
	diags := run(t, doc, lint.RuleConfig{Rule: "CR01"}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "root.children[1].propConfig.props.text.binding", diags[0].Path)
	assert.Contains(t, diags[0].Message, "../Lable.props.text")
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
}

func TestComponentReference_GetSibling(t *testing.T) {
	doc := componentTree()
	doc["root.children[1].scripts.customMethods[0].name"] = "read"
	doc["root.children[1].scripts.customMethods[0].script"] = "\treturn self.parent.getSibling('Label')"
	diags := run(t, doc, lint.RuleConfig{Rule: "CR01"}, lint.Options{})
	assert.Empty(t, diags)

	doc["root.children[1].scripts.customMethods[0].script"] = "\treturn self.parent.getSibling('Missing')"
	diags = run(t, doc, lint.RuleConfig{Rule: "CR01"}, lint.Options{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, `getSibling("Missing")`)
}

func TestScriptLint(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name": "root",
		"root.meta.type": "ia.container.flex",

		"root.children[0].meta.name":                       "Panel",
		"root.children[0].meta.type":                       "ia.container.flex",
		"root.children[0].scripts.customMethods[0].name":   "refresh",
		"root.children[0].scripts.customMethods[0].script": "\tx = 1\n\tprint x",
		"root.events.component.onStartup.script":           "\tpass",
	}
	checker := script.CheckerFunc(func(source string) ([]script.Finding, error) {
		// The second line of the first script is line 2 of the unit.
		return []script.Finding{
			{Line: 2, Category: "error", Message: "invalid syntax"},
			{Line: 3, Category: "convention", Message: "missing docstring"},
		}, nil
	})

	diags := run(t, doc, lint.RuleConfig{Rule: "SC01"}, lint.Options{Checker: checker})
	require.Len(t, diags, 2)
	assert.Equal(t, "root.children[0].scripts.customMethods[0]", diags[0].Path)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "line 2: invalid syntax")
	assert.Equal(t, "root.events.component.onStartup", diags[1].Path)
	assert.Equal(t, lint.SeverityInfo, diags[1].Severity)
}

func TestScriptLint_NoChecker(t *testing.T) {
	doc := flatten.Document{
		"root.meta.name":                         "root",
		"root.meta.type":                         "ia.container.flex",
		"root.events.component.onStartup.script": "\tpass",
	}
	diags := run(t, doc, lint.RuleConfig{Rule: "SC01"}, lint.Options{})
	assert.Empty(t, diags)
}

func TestCategorySeverity(t *testing.T) {
	assert.Equal(t, lint.SeverityError, CategorySeverity("error"))
	assert.Equal(t, lint.SeverityError, CategorySeverity("Fatal"))
	assert.Equal(t, lint.SeverityWarning, CategorySeverity("warning"))
	assert.Equal(t, lint.SeverityInfo, CategorySeverity("convention"))
	assert.Equal(t, lint.SeverityInfo, CategorySeverity("refactor"))
	assert.Equal(t, lint.SeverityWarning, CategorySeverity("mystery"))
}
