// Package types implements the structural type lattice, the union-find
// type context, and the coercion-aware unifier (spec §4.5). The lattice is
// a closed tagged union (spec §9 design note): adding a variant means
// updating every exhaustive switch below, which is the point — it
// prevents a new node from silently skipping unification or normalization.
package types

import (
	"fmt"
	"strings"

	"github.com/chili-lang/chili/internal/ast"
)

// Type is the closed tagged union of spec §3. It has no behavior beyond
// String(); all structural logic (equality via unification, substitution
// via normalize) lives in unify.go and tyctx.go so it stays exhaustive and
// centrally auditable.
type Type interface {
	typeNode()
	String() string
}

// TyVarID indexes a TyCtx slot (spec §3).
type TyVarID int

// --- leaves ---

type TUnit struct{}

func (TUnit) typeNode()      {}
func (TUnit) String() string { return "unit" }

type TBool struct{}

func (TBool) typeNode()      {}
func (TBool) String() string { return "bool" }

// TNever is the bottom type; it unifies with anything (spec §4.5).
type TNever struct{}

func (TNever) typeNode()      {}
func (TNever) String() string { return "never" }

type TInt struct {
	Width  int // 8, 16, 32, 64, or 0 for "word size"
	Signed bool
}

func (TInt) typeNode() {}
func (t TInt) String() string {
	if !t.Signed {
		return fmt.Sprintf("uint%d", t.Width)
	}
	return fmt.Sprintf("int%d", t.Width)
}

type TFloat struct {
	Width int // 32 or 64
}

func (TFloat) typeNode()      {}
func (t TFloat) String() string { return fmt.Sprintf("float%d", t.Width) }

type TString struct{}

func (TString) typeNode()      {}
func (TString) String() string { return "string" }

// AnyInt is an open integer variable: it participates in unification
// without committing to a width until defaulting (spec §4.5, glossary).
type AnyInt struct{ Var TyVarID }

func (AnyInt) typeNode()      {}
func (a AnyInt) String() string { return fmt.Sprintf("anyint(%d)", a.Var) }

// AnyFloat is the float analogue of AnyInt.
type AnyFloat struct{ Var TyVarID }

func (AnyFloat) typeNode()      {}
func (a AnyFloat) String() string { return fmt.Sprintf("anyfloat(%d)", a.Var) }

// --- composites ---

type TPointer struct {
	Elem Type
	Mut  bool
}

func (TPointer) typeNode() {}
func (t TPointer) String() string {
	if t.Mut {
		return "*mut " + t.Elem.String()
	}
	return "*" + t.Elem.String()
}

type TMultiPointer struct {
	Elem Type
	Mut  bool
}

func (TMultiPointer) typeNode() {}
func (t TMultiPointer) String() string {
	if t.Mut {
		return "[*]mut " + t.Elem.String()
	}
	return "[*]" + t.Elem.String()
}

type TSlice struct {
	Elem Type
	Mut  bool
}

func (TSlice) typeNode() {}
func (t TSlice) String() string {
	if t.Mut {
		return "[]mut " + t.Elem.String()
	}
	return "[]" + t.Elem.String()
}

type TArray struct {
	Elem Type
	N    int
}

func (TArray) typeNode()      {}
func (t TArray) String() string { return fmt.Sprintf("[%d]%s", t.N, t.Elem.String()) }

type TTuple struct{ Elems []Type }

func (TTuple) typeNode() {}
func (t TTuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FnParam is one parameter of a TFn: a name (used to spot the
// "@caller_location" injection marker, spec §4.7) plus its type.
type FnParam struct {
	Name string
	Ty   Type
}

type TFn struct {
	Params   []FnParam
	Variadic bool
	Ret      Type
}

func (TFn) typeNode() {}
func (t TFn) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.Ty.String()
	}
	v := ""
	if t.Variadic {
		v = "..."
	}
	return fmt.Sprintf("fn(%s%s) -> %s", strings.Join(parts, ", "), v, t.Ret.String())
}

// StructKind discriminates the three nominal aggregate flavors spec §3
// names.
type StructKind int

const (
	StructKindStruct StructKind = iota
	StructKindUnion
	StructKindPackedStruct
)

// StructField is one field of a TStruct; Offset is nil until layout is
// computed (lowering does not need it for the compile-time evaluator, but
// the type carries the slot per spec §3).
type StructField struct {
	Name   string
	Ty     Type
	Offset *int
}

// TStruct is a nominal aggregate. BindingID identifies the struct's own
// top-level binding so two TStructs with the same BindingID are the same
// nominal type regardless of structural shape (spec §4.5 unify table).
type TStruct struct {
	BindingID ast.BindingInfoID
	Kind      StructKind
	Fields    []StructField
}

func (TStruct) typeNode() {}
func (t TStruct) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + ": " + f.Ty.String()
	}
	return "struct{" + strings.Join(parts, ", ") + "}"
}

// TType wraps a type used as a compile-time value (`Type(T)`, spec §3).
// Values of this kind are rejected at ordinary call sites (spec §4.7
// step 5): they exist only for compile-time metaprogramming.
type TType struct{ Inner Type }

func (TType) typeNode()      {}
func (t TType) String() string { return "type(" + t.Inner.String() + ")" }

// TVar is a reference into a TyCtx slot.
type TVar struct{ ID TyVarID }

func (TVar) typeNode()      {}
func (t TVar) String() string { return fmt.Sprintf("'t%d", t.ID) }
