// Package script supports delegating embedded view scripts to an
// external checker. Scripts scattered across a document are concatenated
// into one source unit; findings map back to the owning node and its
// node-relative line.
package script

import "strings"

// Finding is one problem an external checker reported against a
// concatenated source unit. Line is 1-based within that unit.
type Finding struct {
	Line     int
	Category string // e.g. "error", "warning", "convention", "refactor"
	Message  string
}

// Checker runs an external script linter over a source unit.
type Checker interface {
	Check(source string) ([]Finding, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(source string) ([]Finding, error)

func (f CheckerFunc) Check(source string) ([]Finding, error) { return f(source) }

// Location identifies a finding's origin: the node path that owns the
// script and the 1-based line within that script.
type Location struct {
	Path string
	Line int
}

type section struct {
	path  string
	start int // first line of the section in the unit, 1-based
	lines int
}

// Unit assembles scripts from many nodes into one checkable source and
// resolves unit lines back to node-relative ones.
type Unit struct {
	sections []section
	lines    []string
}

// Add appends one node's script to the unit.
func (u *Unit) Add(path, source string) {
	lines := strings.Split(source, "\n")
	u.sections = append(u.sections, section{
		path:  path,
		start: len(u.lines) + 1,
		lines: len(lines),
	})
	u.lines = append(u.lines, lines...)
}

// Len returns the number of scripts added.
func (u *Unit) Len() int { return len(u.sections) }

// Source returns the concatenated source unit.
func (u *Unit) Source() string { return strings.Join(u.lines, "\n") }

// Resolve maps a unit line to the owning node and its relative line.
func (u *Unit) Resolve(line int) (Location, bool) {
	for _, s := range u.sections {
		if line >= s.start && line < s.start+s.lines {
			return Location{Path: s.path, Line: line - s.start + 1}, true
		}
	}
	return Location{}, false
}
