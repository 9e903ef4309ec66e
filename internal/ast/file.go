package ast

// Visibility controls whether a binding or import contributes to its
// module's exports (spec §3).
type Visibility int

const (
	Private Visibility = iota
	Public
)

// Import is one `use` item. A Glob import has Glob set and no Symbol; resolve
// replaces it with one concrete Import per exported symbol of ModulePath
// (spec §4.4).
type Import struct {
	ModulePath string // e.g. "foo/bar"
	Symbol     string // the imported name; empty and Glob==true for `use foo.*`
	Alias      string // renamed-import target name, if any
	Glob       bool
	Visibility Visibility

	// ModuleID is filled once ModulePath is resolved to a parsed module.
	ModuleID int
	// BindingInfoID is filled once Symbol is resolved against the target
	// module's exports.
	BindingInfoID BindingInfoID

	Span Span
}

func (i *Import) Position() Span { return i.Span }

// Binding is a top-level `let` declaration. Unlike a LetStmt nested in a
// function body, a top-level Binding's pattern must project to Single for
// export purposes (spec §9 open question 2), though destructors are legal
// syntax.
type Binding struct {
	Pattern    *Pattern
	TyAnn      TypeExpr
	Value      Expr
	Visibility Visibility
	Mutable    bool
	Span       Span
}

func (b *Binding) Position() Span { return b.Span }

// RunExpr is a top-level `run!(...)` compile-time evaluation request.
type RunExpr struct {
	Expr Expr
	Span Span
}

func (r *RunExpr) Position() Span { return r.Span }

// Ast is the per-source-file data carrier produced by the parser and
// consumed mutably through resolve and check. FileID and ModuleID are
// workspace-registry indices, not pointers (spec §9 design note).
type Ast struct {
	FileID     int
	ModuleID   int
	SourcePath string // the file this Ast was parsed from; used to register ModuleInfo
	Imports    []*Import
	Bindings   []*Binding
	RunExprs   []*RunExpr
}
