package model

import (
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

// Kind classifies a model node. The set is closed: classification assigns
// every node exactly one kind, determined by path shape and sibling keys.
type Kind int

const (
	KindRoot Kind = iota
	KindComponent
	KindProperty
	KindExpressionBinding
	KindPropertyBinding
	KindTagBinding
	KindMessageHandler
	KindCustomMethod
	KindTransform
	KindEventHandler
)

var kindNames = map[Kind]string{
	KindRoot:              "root",
	KindComponent:         "component",
	KindProperty:          "property",
	KindExpressionBinding: "expression_binding",
	KindPropertyBinding:   "property_binding",
	KindTagBinding:        "tag_binding",
	KindMessageHandler:    "message_handler",
	KindCustomMethod:      "custom_method",
	KindTransform:         "transform",
	KindEventHandler:      "event_handler",
}

// String returns the snake_case kind name used in configuration files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a configuration kind name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns every kind except KindRoot, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindComponent, KindProperty, KindExpressionBinding, KindPropertyBinding,
		KindTagBinding, KindMessageHandler, KindCustomMethod, KindTransform,
		KindEventHandler,
	}
}

// ScriptKinds returns the kinds that carry embedded script text.
func ScriptKinds() []Kind {
	return []Kind{KindMessageHandler, KindCustomMethod, KindTransform, KindEventHandler}
}

// NodeID is a stable arena index. Children are owned ID lists and the
// parent is a plain non-owning ID, which rules out reference cycles.
type NodeID int

// InvalidNode marks the absent parent of the root node.
const InvalidNode NodeID = -1

// Node is one classified element of the view model. Attrs maps
// node-relative flattened paths (e.g. "props.text", "meta.name") to the
// scalar values found beneath the node.
type Node struct {
	ID       NodeID
	Kind     Kind
	Path     viewpath.Path
	Parent   NodeID
	Children []NodeID
	Attrs    map[string]any

	// Value holds the scalar of leaf-kind nodes (properties). It is nil
	// for subtree-kind nodes, whose scalars live in Attrs.
	Value any
}

// Attr returns the scalar stored under the given node-relative key.
func (n *Node) Attr(key string) (any, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// AttrString returns a string attribute, or "" when absent or non-string.
func (n *Node) AttrString(key string) string {
	if v, ok := n.Attrs[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Name returns the node's declared name: meta.name for components, the
// handler's own name field for scripts, and the final path segment for
// properties.
func (n *Node) Name() string {
	switch n.Kind {
	case KindComponent:
		return n.AttrString("meta.name")
	case KindCustomMethod:
		return n.AttrString("name")
	case KindMessageHandler:
		return n.AttrString("messageType")
	case KindProperty:
		if n.Path.IsRoot() {
			return ""
		}
		last := n.Path.Last()
		if !last.IsIdx {
			return last.Name
		}
	}
	return ""
}

// TypeName returns the component type (e.g. "ia.input.button"), or "".
func (n *Node) TypeName() string { return n.AttrString("meta.type") }

// Prop returns a props.* attribute by its bare name.
func (n *Node) Prop(name string) (any, bool) { return n.Attr("props." + name) }

// Expression returns the expression text of an expression binding.
func (n *Node) Expression() string { return n.AttrString("config.expression") }

// TagPath returns the tag path of a tag binding.
func (n *Node) TagPath() string { return n.AttrString("config.tagPath") }

// TargetPath returns the source property path of a property binding.
func (n *Node) TargetPath() string { return n.AttrString("config.path") }

// Script returns the embedded script text of a script-kind node.
func (n *Node) Script() string {
	if s := n.AttrString("script"); s != "" {
		return s
	}
	return n.AttrString("config.script")
}

// joinAttrKey appends a node-relative attribute key to an absolute path
// key. Index-rooted relative keys attach without a separator.
func joinAttrKey(base, rel string) string {
	if base == "" {
		return rel
	}
	if strings.HasPrefix(rel, "[") {
		return base + rel
	}
	return base + "." + rel
}
