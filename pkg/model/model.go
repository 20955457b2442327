package model

import (
	"github.com/viewlint-labs/viewlint/pkg/flatten"
)

// Model is the reconstructed node graph of one view document. Lookups by
// path and by kind are constant time over prebuilt indices. Models are
// immutable after Build and safe for concurrent reads.
type Model struct {
	nodes  []Node
	byPath map[string]NodeID
	byKind map[Kind][]NodeID
}

// Root returns the synthetic document root.
func (m *Model) Root() *Node { return &m.nodes[0] }

// Node returns the node with the given arena ID.
func (m *Model) Node(id NodeID) *Node { return &m.nodes[id] }

// Len returns the node count, root included.
func (m *Model) Len() int { return len(m.nodes) }

// ByPath returns the node at a flattened path key.
func (m *Model) ByPath(key string) (*Node, bool) {
	id, ok := m.byPath[key]
	if !ok {
		return nil, false
	}
	return &m.nodes[id], true
}

// ByKind returns all nodes of one kind in document pre-order.
func (m *Model) ByKind(k Kind) []*Node {
	ids := m.byKind[k]
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = &m.nodes[id]
	}
	return out
}

// Parent returns a node's parent, or nil for the root.
func (m *Model) Parent(n *Node) *Node {
	if n.Parent == InvalidNode {
		return nil
	}
	return &m.nodes[n.Parent]
}

// ChildrenOf returns a node's direct children in document order.
func (m *Model) ChildrenOf(n *Node) []*Node {
	out := make([]*Node, len(n.Children))
	for i, id := range n.Children {
		out[i] = &m.nodes[id]
	}
	return out
}

// ChildComponents returns the direct child components of a node.
func (m *Model) ChildComponents(n *Node) []*Node {
	var out []*Node
	for _, id := range n.Children {
		if m.nodes[id].Kind == KindComponent {
			out = append(out, &m.nodes[id])
		}
	}
	return out
}

// Walk visits every node in pre-order, root first. Returning false from
// fn skips the node's subtree.
func (m *Model) Walk(fn func(*Node) bool) {
	m.walk(0, fn)
}

func (m *Model) walk(id NodeID, fn func(*Node) bool) {
	n := &m.nodes[id]
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		m.walk(c, fn)
	}
}

// Flatten converts the model back to its flattened document form.
// Building the result again yields a structurally identical model.
func (m *Model) Flatten() flatten.Document {
	out := make(flatten.Document)
	for i := range m.nodes {
		n := &m.nodes[i]
		if n.Kind == KindProperty {
			out[n.Path.String()] = n.Value
			continue
		}
		base := n.Path.String()
		for rel, val := range n.Attrs {
			out[joinAttrKey(base, rel)] = val
		}
	}
	return out
}

// Stats summarizes a model for reporting.
type Stats struct {
	Nodes  int
	ByKind map[string]int
}

// Stats counts nodes per kind, excluding the synthetic root.
func (m *Model) Stats() Stats {
	s := Stats{Nodes: len(m.nodes) - 1, ByKind: make(map[string]int)}
	for k, ids := range m.byKind {
		if k == KindRoot {
			continue
		}
		s.ByKind[k.String()] = len(ids)
	}
	return s
}
