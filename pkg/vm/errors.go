package vm

import (
	"strconv"
	"strings"
)

// RuntimeError is the uniform shape every VM-surfaced failure takes
// (spec.md §7): `[Kind] message at file:line:col`, the offending source
// line with a caret, and the active call stack, innermost first.
type RuntimeError struct {
	Kind       string
	Message    string
	File       string
	Line       int
	Column     int
	SourceLine string
	Frames     []string
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString("[" + e.Kind + "] " + e.Message)
	if e.File != "" {
		b.WriteString(" at ")
		b.WriteString(e.File)
		b.WriteString(":")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteString(":")
		b.WriteString(strconv.Itoa(e.Column))
	}
	if e.SourceLine != "" {
		b.WriteString("\n")
		b.WriteString(e.SourceLine)
		b.WriteString("\n")
		col := e.Column - 1
		if col < 0 {
			col = 0
		}
		if col > len(e.SourceLine) {
			col = len(e.SourceLine)
		}
		b.WriteString(strings.Repeat(" ", col))
		b.WriteString("^")
	}
	for _, f := range e.Frames {
		b.WriteString("\n  at ")
		b.WriteString(f)
	}
	return b.String()
}
