package ast

import "testing"

func TestPosString(t *testing.T) {
	p := Pos{Index: 10, Line: 2, Column: 5}
	if got, want := p.String(), "2:5"; got != want {
		t.Errorf("Pos.String() = %q, want %q", got, want)
	}
}

func TestSpanString(t *testing.T) {
	s := Span{File: "main.ch", Start: Pos{Line: 1, Column: 1}}
	if got, want := s.String(), "main.ch:1:1"; got != want {
		t.Errorf("Span.String() = %q, want %q", got, want)
	}
}
