// Package ast defines the data carrier between the parse, resolve and check
// stages: positions and spans, the pattern algebra, imports, bindings and
// the top-level expression nodes the checker walks.
package ast

import "fmt"

// Pos is a zero-based byte offset plus a human-facing line/column pair, as
// required by the parser-to-core contract (spec §6).
type Pos struct {
	Index  int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span covers [Start, End) in a single file. The end position carries only
// a byte index, matching the external contract in spec §6.
type Span struct {
	File  string
	Start Pos
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%s", s.File, s.Start)
}
