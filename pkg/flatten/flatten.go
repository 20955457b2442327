// Package flatten converts nested view.json documents to and from the
// flattened path/value representation consumed by the model builder.
package flatten

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

// Document is a flattened view: one scalar value per path key. Keys are
// unique within a document. Values are JSON scalars (string, float64,
// bool, or nil).
type Document map[string]any

// ReadFile reads and decodes a view.json file into its nested form.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Flatten converts a nested JSON document into path/value pairs. Objects
// contribute dotted field segments, arrays bracketed indices. Empty
// objects and arrays flatten to nothing: only scalar leaves carry values.
func Flatten(doc map[string]any) Document {
	out := make(Document)
	for key, val := range doc {
		flattenValue(viewpath.New(viewpath.Field(key)), val, out)
	}
	return out
}

func flattenValue(p viewpath.Path, val any, out Document) {
	switch v := val.(type) {
	case map[string]any:
		for key, child := range v {
			flattenValue(p.Child(viewpath.Field(key)), child, out)
		}
	case []any:
		for i, child := range v {
			flattenValue(p.Child(viewpath.Index(i)), child, out)
		}
	default:
		out[p.String()] = v
	}
}

// Unflatten rebuilds the nested document from path/value pairs. Keys
// that fail to parse are dropped. Array indices keep their positions;
// a gap left by a missing index becomes a nil element.
func Unflatten(d Document) map[string]any {
	root := make(map[string]any)
	for _, key := range d.SortedKeys() {
		p, err := viewpath.Parse(key)
		if err != nil {
			continue
		}
		insertValue(root, p, d[key])
	}
	return root
}

// insertValue writes val at p, creating containers along the way. A key
// whose prefix already holds a scalar conflicts and is dropped; the
// builder reports such documents separately.
func insertValue(root map[string]any, p viewpath.Path, val any) {
	var cur any = root
	segs := p.Segments()
	for i, seg := range segs {
		last := i == len(segs)-1
		if seg.IsIdx {
			arr, ok := cur.([]any)
			if !ok {
				return
			}
			for len(arr) <= seg.Index {
				arr = append(arr, nil)
			}
			if last {
				arr[seg.Index] = val
			} else if arr[seg.Index] == nil {
				arr[seg.Index] = emptyContainer(segs[i+1])
			}
			writeBack(root, segs[:i], arr)
			cur = arr[seg.Index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return
		}
		if last {
			obj[seg.Name] = val
		} else if _, exists := obj[seg.Name]; !exists {
			obj[seg.Name] = emptyContainer(segs[i+1])
		}
		cur = obj[seg.Name]
	}
}

func emptyContainer(next viewpath.Segment) any {
	if next.IsIdx {
		return []any{}
	}
	return make(map[string]any)
}

// writeBack re-anchors a grown slice under its parent container, since
// append may have reallocated it.
func writeBack(root map[string]any, parents []viewpath.Segment, arr []any) {
	if len(parents) == 0 {
		return
	}
	var cur any = root
	for _, seg := range parents[:len(parents)-1] {
		if seg.IsIdx {
			cur = cur.([]any)[seg.Index]
		} else {
			cur = cur.(map[string]any)[seg.Name]
		}
	}
	last := parents[len(parents)-1]
	if last.IsIdx {
		cur.([]any)[last.Index] = arr
	} else {
		cur.(map[string]any)[last.Name] = arr
	}
}

// SortedKeys returns the document's keys in path order. Keys that fail to
// parse sort last, by raw string, so the builder can still visit and
// report them.
func (d Document) SortedKeys() []string {
	type parsed struct {
		key  string
		path viewpath.Path
		ok   bool
	}
	items := make([]parsed, 0, len(d))
	for key := range d {
		p, err := viewpath.Parse(key)
		items = append(items, parsed{key: key, path: p, ok: err == nil})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.ok && !b.ok:
			return true
		case !a.ok && b.ok:
			return false
		case !a.ok:
			return a.key < b.key
		}
		return viewpath.Compare(a.path, b.path) < 0
	})
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.key
	}
	return keys
}
