// Package whitelist manages approved findings. A whitelist entry
// approves either a whole document or a single node within one:
//
//	# views with known, accepted findings
//	views/legacy/Dashboard/view.json
//	views/Overview/view.json::root.children[3]
//
// Lines starting with # are comments. Approved nodes are skipped by the
// lint engine, subtree included.
package whitelist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

// Separator splits the document path from the node path in an entry.
const Separator = "::"

// Whitelist holds approved documents and nodes.
type Whitelist struct {
	files map[string]bool
	nodes map[string][]viewpath.Path
}

// New returns an empty whitelist.
func New() *Whitelist {
	return &Whitelist{
		files: make(map[string]bool),
		nodes: make(map[string][]viewpath.Path),
	}
}

// Load reads a whitelist file. A missing file yields an empty
// whitelist, so a project without one lints everything.
func Load(path string) (*Whitelist, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("open whitelist %s: %w", path, err)
	}
	defer f.Close()
	w, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse whitelist %s: %w", path, err)
	}
	return w, nil
}

// Parse reads whitelist entries from r.
func Parse(r io.Reader) (*Whitelist, error) {
	w := New()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		file, node, hasNode := strings.Cut(text, Separator)
		file = strings.TrimSpace(file)
		if file == "" {
			return nil, fmt.Errorf("line %d: empty document path", line)
		}
		if !hasNode {
			w.files[file] = true
			continue
		}
		p, err := viewpath.Parse(strings.TrimSpace(node))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		w.nodes[file] = append(w.nodes[file], p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return w, nil
}

// AddFile approves a whole document.
func (w *Whitelist) AddFile(file string) { w.files[file] = true }

// AddNode approves one node (and its subtree) of a document.
func (w *Whitelist) AddNode(file string, p viewpath.Path) {
	for _, have := range w.nodes[file] {
		if have.Equal(p) {
			return
		}
	}
	w.nodes[file] = append(w.nodes[file], p)
}

// Len returns the number of entries.
func (w *Whitelist) Len() int {
	n := len(w.files)
	for _, paths := range w.nodes {
		n += len(paths)
	}
	return n
}

// Approves reports whether the whole document is approved.
func (w *Whitelist) Approves(file string) bool { return w.files[file] }

// Predicate returns the engine whitelist for one document: true for
// nodes under any approved path, or for every node when the whole
// document is approved.
func (w *Whitelist) Predicate(file string) lint.Whitelist {
	if w.files[file] {
		return func(viewpath.Path) bool { return true }
	}
	approved := w.nodes[file]
	if len(approved) == 0 {
		return nil
	}
	return func(p viewpath.Path) bool {
		for _, a := range approved {
			if p.HasPrefix(a) {
				return true
			}
		}
		return false
	}
}

// Merge adds every entry of other into w.
func (w *Whitelist) Merge(other *Whitelist) {
	for file := range other.files {
		w.AddFile(file)
	}
	for file, paths := range other.nodes {
		for _, p := range paths {
			w.AddNode(file, p)
		}
	}
}

// Render serializes the whitelist deterministically: file entries
// first, then node entries, both sorted.
func (w *Whitelist) Render() []byte {
	var lines []string
	for file := range w.files {
		lines = append(lines, file)
	}
	for file, paths := range w.nodes {
		for _, p := range paths {
			lines = append(lines, file+Separator+p.String())
		}
	}
	sort.Strings(lines)

	var buf bytes.Buffer
	buf.WriteString("# viewlint whitelist: approved documents and nodes\n")
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Generate builds a whitelist approving every document matching the
// given glob patterns.
func Generate(patterns []string) (*Whitelist, error) {
	w := New()
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			w.AddFile(filepath.ToSlash(m))
		}
	}
	return w, nil
}
