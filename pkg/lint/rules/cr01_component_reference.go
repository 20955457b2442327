package rules

import (
	"regexp"
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/model"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "CR01",
		Name:        "component-reference",
		Group:       "structure",
		Description: "Relative component references resolve to an existing component",
		Severity:    lint.SeverityError,
		Kinds: []model.Kind{
			model.KindExpressionBinding, model.KindPropertyBinding,
			model.KindMessageHandler, model.KindCustomMethod, model.KindTransform,
			model.KindEventHandler,
		},
		New: newComponentReference,
		Rationale: "Expressions like {../Label.props.text} and script calls like " +
			"getSibling('Label') break silently at runtime when the named " +
			"component is renamed or removed.",
		BadExample:  `{../Lable.props.text}  after the label was renamed`,
		GoodExample: `{../Label.props.text}`,
		Fix:         "Update the reference to the component's current name.",
	})
}

var (
	exprRefPattern = regexp.MustCompile(`\{((?:\.\./)+[^}]+)\}`)
	siblingPattern = regexp.MustCompile(`getSibling\(\s*['"]([^'"]+)['"]\s*\)`)
)

type componentRef struct {
	owner *model.Node // nearest enclosing component
	from  *model.Node // node carrying the reference
	raw   string
}

// componentReference validates relative references in a second phase:
// pre-order visits see bindings before later sibling components exist
// in its index, so resolution waits for Finalize.
type componentReference struct {
	refs     []componentRef
	siblings []componentRef
}

func newComponentReference(cfg lint.RuleConfig) (lint.Visitor, error) {
	return &componentReference{}, nil
}

func (r *componentReference) Visit(rc *lint.RuleRun, n *model.Node) {
	switch n.Kind {
	case model.KindExpressionBinding:
		owner := enclosingComponent(rc.Model(), n)
		for _, match := range exprRefPattern.FindAllStringSubmatch(n.Expression(), -1) {
			r.refs = append(r.refs, componentRef{owner: owner, from: n, raw: match[1]})
		}
	case model.KindPropertyBinding:
		if target := n.TargetPath(); strings.HasPrefix(target, "../") {
			r.refs = append(r.refs, componentRef{
				owner: enclosingComponent(rc.Model(), n), from: n, raw: target,
			})
		}
	default:
		owner := enclosingComponent(rc.Model(), n)
		for _, match := range siblingPattern.FindAllStringSubmatch(n.Script(), -1) {
			r.siblings = append(r.siblings, componentRef{owner: owner, from: n, raw: match[1]})
		}
	}
}

func (r *componentReference) Finalize(rc *lint.RuleRun) {
	m := rc.Model()
	for _, ref := range r.refs {
		if !r.resolve(m, ref.owner, ref.raw) {
			rc.Reportf(ref.from, "reference %q does not resolve to a component", ref.raw)
		}
	}
	for _, ref := range r.siblings {
		if !r.hasSibling(m, ref.owner, ref.raw) {
			rc.Reportf(ref.from, "getSibling(%q) does not match any sibling component", ref.raw)
		}
	}
}

// resolve walks a relative reference: each "../" ascends one component,
// each name segment descends to a child component of that name. The
// trailing property path after the component name is not validated.
func (r *componentReference) resolve(m *model.Model, owner *model.Node, raw string) bool {
	cur := owner
	rest := raw
	for strings.HasPrefix(rest, "../") {
		rest = rest[len("../"):]
		if cur = parentComponent(m, cur); cur == nil {
			return false
		}
	}
	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		name := seg
		if i == len(segments)-1 {
			// Last segment carries the property path: "Label.props.text".
			if dot := strings.IndexByte(seg, '.'); dot >= 0 {
				name = seg[:dot]
			}
		}
		if name == "" {
			return false
		}
		cur = childComponent(m, cur, name)
		if cur == nil {
			return false
		}
	}
	return true
}

func (r *componentReference) hasSibling(m *model.Model, owner *model.Node, name string) bool {
	parent := parentComponent(m, owner)
	if parent == nil {
		return false
	}
	sib := childComponent(m, parent, name)
	return sib != nil && sib != owner
}

// enclosingComponent returns the nearest component at or above a node.
func enclosingComponent(m *model.Model, n *model.Node) *model.Node {
	for cur := n; cur != nil; cur = m.Parent(cur) {
		if cur.Kind == model.KindComponent {
			return cur
		}
	}
	return nil
}

func parentComponent(m *model.Model, n *model.Node) *model.Node {
	if n == nil {
		return nil
	}
	if p := m.Parent(n); p != nil {
		return enclosingComponent(m, p)
	}
	return nil
}

func childComponent(m *model.Model, n *model.Node, name string) *model.Node {
	if n == nil {
		return nil
	}
	for _, c := range m.ChildComponents(n) {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
