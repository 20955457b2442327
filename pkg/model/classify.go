package model

import (
	"fmt"

	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

// classifier decides whether a raw subtree is a node of one kind.
// Classifiers are evaluated most specific first; distinct specificity
// values keep the order total. Two matches at the same specificity is a
// builder bug and surfaces as ErrAmbiguousKind.
type classifier struct {
	kind        Kind
	specificity int
	match       func(n *rawNode) bool
}

// ErrAmbiguousKind is wrapped into the error returned when two
// classifiers of equal specificity claim the same subtree.
var ErrAmbiguousKind = fmt.Errorf("ambiguous node classification")

func defaultClassifiers() []classifier {
	return []classifier{
		{KindExpressionBinding, 100, func(n *rawNode) bool {
			return isBinding(n) && n.leafString("type") == "expr"
		}},
		{KindPropertyBinding, 99, func(n *rawNode) bool {
			return isBinding(n) && n.leafString("type") == "property"
		}},
		{KindTagBinding, 98, func(n *rawNode) bool {
			return isBinding(n) && n.leafString("type") == "tag"
		}},
		{KindTransform, 90, func(n *rawNode) bool {
			return indexedUnder(n.path, "transforms") && n.leafString("type") == "script"
		}},
		{KindMessageHandler, 80, func(n *rawNode) bool {
			return indexedUnder(n.path, "messageHandlers") && n.hasChild("script")
		}},
		{KindCustomMethod, 79, func(n *rawNode) bool {
			return indexedUnder(n.path, "customMethods") && n.hasChild("script")
		}},
		{KindEventHandler, 70, func(n *rawNode) bool {
			return underEvents(n.path) && (n.hasChild("script") || n.hasLeaf("config.script"))
		}},
		// Components match either on a fully populated meta block or on
		// tree position, so a component missing its meta.name still
		// classifies and reaches the naming rules.
		{KindComponent, 61, func(n *rawNode) bool {
			return !n.leaf && n.hasLeaf("meta.name") && n.hasLeaf("meta.type")
		}},
		{KindComponent, 60, func(n *rawNode) bool {
			if n.leaf {
				return false
			}
			segs := n.path.Segments()
			if len(segs) == 1 && !segs[0].IsIdx && segs[0].Name == "root" {
				return n.hasChild("meta")
			}
			return indexedUnder(n.path, "children")
		}},
		{KindProperty, 40, func(n *rawNode) bool {
			if !n.leaf {
				return false
			}
			var custom bool
			for _, s := range n.path.Segments() {
				if s.IsIdx {
					continue
				}
				switch s.Name {
				case "custom", "params":
					custom = true
				case "binding", "propConfig":
					return false
				}
			}
			return custom
		}},
	}
}

// classify returns the kind of a raw subtree, or ok=false for plain
// structure. It checks that no two classifiers of equal specificity
// matched, which the total order is supposed to rule out.
func classify(classifiers []classifier, n *rawNode) (Kind, bool, error) {
	bestAt := -1
	var best Kind
	for _, c := range classifiers {
		if !c.match(n) {
			continue
		}
		if c.specificity == bestAt {
			return 0, false, fmt.Errorf("%w: %s matches %s and %s at specificity %d",
				ErrAmbiguousKind, n.path, best, c.kind, bestAt)
		}
		if c.specificity > bestAt {
			bestAt = c.specificity
			best = c.kind
		}
	}
	if bestAt < 0 {
		return 0, false, nil
	}
	return best, true, nil
}

func isBinding(n *rawNode) bool {
	if n.leaf || n.path.IsRoot() {
		return false
	}
	last := n.path.Last()
	return !last.IsIdx && last.Name == "binding"
}

// indexedUnder reports whether path ends with <field>[i] for the given
// field name.
func indexedUnder(p viewpath.Path, field string) bool {
	segs := p.Segments()
	if len(segs) < 2 || !segs[len(segs)-1].IsIdx {
		return false
	}
	prev := segs[len(segs)-2]
	return !prev.IsIdx && prev.Name == field
}

// underEvents reports whether path has the events.<domain>.<event> shape.
func underEvents(p viewpath.Path) bool {
	segs := p.Segments()
	if len(segs) < 3 {
		return false
	}
	s := segs[len(segs)-3]
	return !s.IsIdx && s.Name == "events"
}
