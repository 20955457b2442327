// Package model reconstructs a typed node graph from a flattened
// view.json document. Nodes live in an arena indexed by NodeID: children
// are owned ID lists and parents plain back-references, so the graph
// cannot form reference cycles.
package model

import (
	"fmt"
	"sort"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

// DiagCode identifies a class of non-fatal build problem.
type DiagCode string

const (
	DiagMalformedPath DiagCode = "malformed-path"
	DiagDuplicatePath DiagCode = "duplicate-path"
	DiagPathConflict  DiagCode = "path-conflict"
)

// BuildDiagnostic records a document problem the builder recovered from.
type BuildDiagnostic struct {
	Code    DiagCode
	Path    string
	Message string
}

// ErrEmptyDocument is returned when no usable path survives parsing, so
// no root can be established.
var ErrEmptyDocument = fmt.Errorf("document contains no usable paths")

// Entry is one flattened path/value pair. The entry form exists so
// callers merging raw sources can present duplicate paths; a Document,
// being a map, cannot.
type Entry struct {
	Key   string
	Value any
}

// rawNode is the untyped prefix tree the builder assembles before
// classification. Child order follows path order.
type rawNode struct {
	path     viewpath.Path
	children map[string]*rawNode
	order    []string
	value    any
	leaf     bool
}

func (n *rawNode) child(seg viewpath.Segment) *rawNode {
	key := seg.String()
	if c, ok := n.children[key]; ok {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*rawNode)
	}
	c := &rawNode{path: n.path.Child(seg)}
	n.children[key] = c
	n.order = append(n.order, key)
	return c
}

func (n *rawNode) hasChild(key string) bool {
	_, ok := n.children[key]
	return ok
}

// hasLeaf reports whether a dotted relative key resolves to a leaf.
func (n *rawNode) hasLeaf(rel string) bool {
	p, err := viewpath.Parse(rel)
	if err != nil {
		return false
	}
	cur := n
	for _, seg := range p.Segments() {
		next, ok := cur.children[seg.String()]
		if !ok {
			return false
		}
		cur = next
	}
	return cur.leaf
}

func (n *rawNode) leafString(key string) string {
	c, ok := n.children[key]
	if !ok || !c.leaf {
		return ""
	}
	s, _ := c.value.(string)
	return s
}

// Builder reconstructs models from flattened documents. The zero-arg
// constructor installs the standard classifier table.
type Builder struct {
	classifiers []classifier
}

// NewBuilder returns a Builder with the default classifiers.
func NewBuilder() *Builder {
	return &Builder{classifiers: defaultClassifiers()}
}

// Build reconstructs a model from a flattened document. Diagnostics
// report recovered problems; the error is non-nil only for fatal ones
// (no usable root, ambiguous classification).
func (b *Builder) Build(doc flatten.Document) (*Model, []BuildDiagnostic, error) {
	entries := make([]Entry, 0, len(doc))
	for _, key := range doc.SortedKeys() {
		entries = append(entries, Entry{Key: key, Value: doc[key]})
	}
	return b.BuildEntries(entries)
}

// BuildEntries is Build over an ordered entry list. Duplicate paths are
// legal: the last value wins and a diagnostic records the collision.
func (b *Builder) BuildEntries(entries []Entry) (*Model, []BuildDiagnostic, error) {
	var diags []BuildDiagnostic

	type parsedEntry struct {
		path viewpath.Path
		val  any
		seq  int
	}
	parsed := make([]parsedEntry, 0, len(entries))
	for i, e := range entries {
		p, err := viewpath.Parse(e.Key)
		if err != nil {
			diags = append(diags, BuildDiagnostic{
				Code:    DiagMalformedPath,
				Path:    e.Key,
				Message: err.Error(),
			})
			continue
		}
		if p.IsRoot() {
			diags = append(diags, BuildDiagnostic{
				Code:    DiagMalformedPath,
				Path:    e.Key,
				Message: "empty path",
			})
			continue
		}
		parsed = append(parsed, parsedEntry{path: p, val: e.Value, seq: i})
	}

	// Stable sort keeps duplicate paths in presentation order, so the
	// later entry is the one that wins.
	sort.SliceStable(parsed, func(i, j int) bool {
		return viewpath.Compare(parsed[i].path, parsed[j].path) < 0
	})

	root := &rawNode{path: viewpath.Root}
	for _, e := range parsed {
		if err := insert(root, e.path, e.val, &diags); err != nil {
			return nil, diags, err
		}
	}
	if len(root.order) == 0 {
		return nil, diags, ErrEmptyDocument
	}

	m := &Model{
		byPath: make(map[string]NodeID),
		byKind: make(map[Kind][]NodeID),
	}
	m.nodes = append(m.nodes, Node{
		ID:     0,
		Kind:   KindRoot,
		Path:   viewpath.Root,
		Parent: InvalidNode,
	})
	m.byPath[""] = 0
	m.byKind[KindRoot] = []NodeID{0}

	if err := b.lower(root, 0, m); err != nil {
		return nil, diags, err
	}
	return m, diags, nil
}

func insert(root *rawNode, p viewpath.Path, val any, diags *[]BuildDiagnostic) error {
	cur := root
	segs := p.Segments()
	for i, seg := range segs {
		if cur.leaf {
			*diags = append(*diags, BuildDiagnostic{
				Code:    DiagPathConflict,
				Path:    p.String(),
				Message: fmt.Sprintf("parent %s already holds a value", cur.path),
			})
			return nil
		}
		cur = cur.child(seg)
		if i == len(segs)-1 {
			switch {
			case len(cur.order) > 0:
				*diags = append(*diags, BuildDiagnostic{
					Code:    DiagPathConflict,
					Path:    p.String(),
					Message: "path already holds a subtree",
				})
			case cur.leaf:
				*diags = append(*diags, BuildDiagnostic{
					Code:    DiagDuplicatePath,
					Path:    p.String(),
					Message: fmt.Sprintf("duplicate path, keeping later value %v", val),
				})
				cur.value = val
			default:
				cur.leaf = true
				cur.value = val
			}
		}
	}
	return nil
}

// lower walks the raw tree in path order, creating arena nodes for
// classified subtrees and folding unclassified leaves into the nearest
// classified ancestor's attribute map.
func (b *Builder) lower(raw *rawNode, ancestor NodeID, m *Model) error {
	for _, key := range raw.order {
		child := raw.children[key]
		kind, ok, err := classify(b.classifiers, child)
		if err != nil {
			return err
		}
		if !ok {
			if child.leaf {
				m.attach(ancestor, child)
				continue
			}
			if err := b.lower(child, ancestor, m); err != nil {
				return err
			}
			continue
		}
		id := NodeID(len(m.nodes))
		n := Node{
			ID:     id,
			Kind:   kind,
			Path:   child.path,
			Parent: ancestor,
		}
		if child.leaf {
			n.Value = child.value
		}
		m.nodes = append(m.nodes, n)
		m.nodes[ancestor].Children = append(m.nodes[ancestor].Children, id)
		m.byPath[child.path.String()] = id
		m.byKind[kind] = append(m.byKind[kind], id)
		if !child.leaf {
			if err := b.lower(child, id, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// attach records a scalar leaf as an attribute of the arena node,
// keyed by the leaf's path relative to that node.
func (m *Model) attach(id NodeID, leaf *rawNode) {
	n := &m.nodes[id]
	rel := viewpath.New(leaf.path.Segments()[n.Path.Len():]...).String()
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[rel] = leaf.value
}
