package ast

import "testing"

func TestPatternSingleString(t *testing.T) {
	p := NewSingle(&SymbolPattern{Symbol: "x", Mutable: true})
	if got, want := p.String(), "mut x"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !p.IsSingle() {
		t.Error("IsSingle() = false, want true")
	}
	sym, err := p.AsSingle()
	if err != nil {
		t.Fatalf("AsSingle() error = %v", err)
	}
	if sym.Symbol != "x" {
		t.Errorf("AsSingle().Symbol = %q, want %q", sym.Symbol, "x")
	}
}

func TestPatternStructDestructorString(t *testing.T) {
	p := NewStructDestructor([]*SymbolPattern{
		{Symbol: "a"},
		{Symbol: "b", Alias: "c"},
	}, true, Span{})
	if got, want := p.String(), "{a, b}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if _, err := p.AsSingle(); err != ErrExpectedSingle {
		t.Errorf("AsSingle() error = %v, want ErrExpectedSingle", err)
	}
}

func TestPatternTupleDestructorString(t *testing.T) {
	p := NewTupleDestructor([]*SymbolPattern{{Symbol: "a"}, {Ignore: true}}, false, Span{})
	if got, want := p.String(), "(a, _)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPatternWalkOrder(t *testing.T) {
	syms := []*SymbolPattern{{Symbol: "a"}, {Symbol: "b"}, {Symbol: "c"}}
	p := NewTupleDestructor(syms, true, Span{})

	var seen []string
	p.Walk(func(s *SymbolPattern) { seen = append(seen, s.Symbol) })
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Errorf("Walk order = %v, want [a b c]", seen)
	}
}
