package workspace

import (
	"reflect"
	"testing"
)

func TestModuleExportsSymbolsInsertionOrder(t *testing.T) {
	e := NewModuleExports()
	e.Insert(0, "zebra", 1)
	e.Insert(0, "apple", 2)
	e.Insert(0, "mango", 3)

	// ART iteration is lexicographic by key; Symbols must preserve the
	// order entries were inserted in, not alphabetical order.
	got := e.Symbols(0)
	want := []string{"zebra", "apple", "mango"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}
}

func TestModuleExportsLookupAndHas(t *testing.T) {
	e := NewModuleExports()
	if e.Has(0) {
		t.Fatal("Has() = true for a module with no exports yet")
	}
	e.Insert(0, "foo", 42)
	if !e.Has(0) {
		t.Error("Has() = false after Insert")
	}
	id, ok := e.Lookup(0, "foo")
	if !ok || id != 42 {
		t.Errorf("Lookup() = (%v, %v), want (42, true)", id, ok)
	}
	if _, ok := e.Lookup(0, "missing"); ok {
		t.Error("Lookup() found a symbol that was never inserted")
	}
}

func TestModuleExportsReinsertDoesNotDuplicateOrder(t *testing.T) {
	e := NewModuleExports()
	e.Insert(1, "a", 1)
	e.Insert(1, "a", 2)

	syms := e.Symbols(1)
	if len(syms) != 1 {
		t.Fatalf("Symbols() = %v, want exactly one entry", syms)
	}
	id, _ := e.Lookup(1, "a")
	if id != 2 {
		t.Errorf("Lookup(a) = %d, want 2 (last write wins)", id)
	}
}
