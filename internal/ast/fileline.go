// Package ast defines the elaborated netlist tree that instrumentation
// passes rewrite. Nodes are plain structs; parents own their children
// through typed fields and slices, and sharing is only ever introduced
// deliberately (declared types, coverage declarations).
package ast

import (
	"path/filepath"
	"strings"
)

// Warn identifies a lint warning that can be suppressed per location.
type Warn int

// Warning codes understood by downstream lint passes.
const (
	WarnUnusedSignal Warn = iota
)

// FileLine records where a node came from in the original HDL source.
// A node's location is its header token; multi-line constructs carry the
// statement lines on the statements themselves.
type FileLine struct {
	Filename  string
	FirstLine int
	LastLine  int

	// CoverageOn reflects lexer-level coverage_on/coverage_off pragmas:
	// nodes at a location with CoverageOn false never receive coverage.
	CoverageOn bool

	warnsOff map[Warn]bool
}

// NewFileLine returns a location covering [first, last] with coverage on.
func NewFileLine(filename string, first, last int) *FileLine {
	return &FileLine{
		Filename:   filename,
		FirstLine:  first,
		LastLine:   last,
		CoverageOn: true,
	}
}

// At is shorthand for a single-line location.
func At(filename string, line int) *FileLine {
	return NewFileLine(filename, line, line)
}

// Copy returns an independent FileLine so warning suppression on the copy
// does not leak back to every node sharing the original.
func (fl *FileLine) Copy() *FileLine {
	dup := *fl
	if fl.warnsOff != nil {
		dup.warnsOff = make(map[Warn]bool, len(fl.warnsOff))
		for w, off := range fl.warnsOff {
			dup.warnsOff[w] = off
		}
	}
	return &dup
}

// WarnOff suppresses a warning code for nodes declared at this location.
func (fl *FileLine) WarnOff(w Warn) {
	if fl.warnsOff == nil {
		fl.warnsOff = make(map[Warn]bool, 1)
	}
	fl.warnsOff[w] = true
}

// WarnIsOff reports whether a warning code is suppressed here.
func (fl *FileLine) WarnIsOff(w Warn) bool {
	return fl.warnsOff[w]
}

// BasenameNoExt returns the file's base name without its extension,
// used to derive trace variable names.
func (fl *FileLine) BasenameNoExt() string {
	base := filepath.Base(fl.Filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
