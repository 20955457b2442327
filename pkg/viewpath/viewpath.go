// Package viewpath implements parsing and ordering of flattened view paths.
//
// A flattened path encodes a location inside a view.json tree as a string
// key, with dots separating object fields and brackets marking array
// indices, e.g. "root.children[0].meta.name". Paths are comparable and
// totally ordered by their segment sequence, so sorting a set of paths
// groups every subtree under its parent prefix.
package viewpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a path: either an object field or an array index.
type Segment struct {
	Name  string
	Index int
	IsIdx bool
}

// String renders the segment as it appears inside a path key.
func (s Segment) String() string {
	if s.IsIdx {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// Field returns a field segment.
func Field(name string) Segment { return Segment{Name: name} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{Index: i, IsIdx: true} }

// Path is a parsed flattened path. The zero value is the document root.
type Path struct {
	segs []Segment
	key  string
}

// Root is the empty path.
var Root = Path{}

// Parse parses a flattened path key into a Path.
// It rejects empty segments, unterminated or non-numeric index brackets,
// and negative indices.
func Parse(key string) (Path, error) {
	if key == "" {
		return Root, nil
	}
	var segs []Segment
	rest := key
	for len(rest) > 0 {
		switch {
		case rest[0] == '[':
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return Path{}, fmt.Errorf("path %q: unterminated index bracket", key)
			}
			idx, err := strconv.Atoi(rest[1:close])
			if err != nil || idx < 0 {
				return Path{}, fmt.Errorf("path %q: invalid array index %q", key, rest[1:close])
			}
			segs = append(segs, Index(idx))
			rest = rest[close+1:]
			if len(rest) > 0 && rest[0] == '.' {
				rest = rest[1:]
				if rest == "" {
					return Path{}, fmt.Errorf("path %q: trailing separator", key)
				}
			}
		case rest[0] == '.':
			return Path{}, fmt.Errorf("path %q: empty segment", key)
		default:
			end := len(rest)
			for i := 0; i < len(rest); i++ {
				if rest[i] == '.' || rest[i] == '[' {
					end = i
					break
				}
			}
			segs = append(segs, Field(rest[:end]))
			rest = rest[end:]
			if len(rest) > 0 && rest[0] == '.' {
				rest = rest[1:]
				if rest == "" {
					return Path{}, fmt.Errorf("path %q: trailing separator", key)
				}
			}
		}
	}
	return Path{segs: segs, key: key}, nil
}

// MustParse is Parse for keys known to be well formed. It panics on error
// and is intended for tests and literals.
func MustParse(key string) Path {
	p, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return p
}

// New builds a path from segments.
func New(segs ...Segment) Path {
	p := Path{segs: append([]Segment(nil), segs...)}
	p.key = joinKey(p.segs)
	return p
}

func joinKey(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.IsIdx {
			b.WriteString(s.String())
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// String returns the original key for parsed paths, or the canonical
// rendering for constructed ones.
func (p Path) String() string {
	if p.key == "" && len(p.segs) > 0 {
		return joinKey(p.segs)
	}
	return p.key
}

// Segments returns the segment sequence. The returned slice must not be
// mutated.
func (p Path) Segments() []Segment { return p.segs }

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segs) }

// IsRoot reports whether p is the document root.
func (p Path) IsRoot() bool { return len(p.segs) == 0 }

// Last returns the final segment. Calling Last on the root is invalid.
func (p Path) Last() Segment { return p.segs[len(p.segs)-1] }

// Parent returns the path with the final segment removed.
// The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p.segs) == 0 {
		return Root
	}
	return New(p.segs[:len(p.segs)-1]...)
}

// Child returns p extended by one segment.
func (p Path) Child(s Segment) Path {
	segs := make([]Segment, 0, len(p.segs)+1)
	segs = append(segs, p.segs...)
	segs = append(segs, s)
	return New(segs...)
}

// Compare orders paths lexicographically by segment sequence. Field
// segments order before index segments at the same position; field
// segments compare by name, index segments numerically. A strict prefix
// orders before any of its extensions.
func Compare(a, b Path) int {
	n := len(a.segs)
	if len(b.segs) < n {
		n = len(b.segs)
	}
	for i := 0; i < n; i++ {
		sa, sb := a.segs[i], b.segs[i]
		switch {
		case !sa.IsIdx && sb.IsIdx:
			return -1
		case sa.IsIdx && !sb.IsIdx:
			return 1
		case sa.IsIdx:
			if sa.Index != sb.Index {
				if sa.Index < sb.Index {
					return -1
				}
				return 1
			}
		default:
			if c := strings.Compare(sa.Name, sb.Name); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(a.segs) < len(b.segs):
		return -1
	case len(a.segs) > len(b.segs):
		return 1
	}
	return 0
}

// Equal reports whether two paths have identical segment sequences.
func (p Path) Equal(other Path) bool { return Compare(p, other) == 0 }

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segs) > len(p.segs) {
		return false
	}
	for i, s := range prefix.segs {
		if s.IsIdx != p.segs[i].IsIdx {
			return false
		}
		if s.IsIdx && s.Index != p.segs[i].Index {
			return false
		}
		if !s.IsIdx && s.Name != p.segs[i].Name {
			return false
		}
	}
	return true
}
