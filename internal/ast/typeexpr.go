package ast

// TypeExpr is the surface-syntax counterpart of types.Type: the shape a
// written type annotation takes before the checker resolves it against the
// type context. It is a distinct, simpler union from the checked Type
// lattice in internal/types — the parser never needs to know about type
// variables or union-find.
type TypeExpr interface {
	Node
	typeExprNode()
}

// NamedType references a type by name (`int`, `string`, or a user struct).
type NamedType struct {
	Name string
	Span Span
}

func (n *NamedType) Position() Span { return n.Span }
func (*NamedType) typeExprNode()    {}

// PointerType is `*T` or `*mut T`.
type PointerType struct {
	Elem  TypeExpr
	Mut   bool
	Multi bool // MultiPointer ([*]T) vs single-element Pointer (*T)
	Span  Span
}

func (p *PointerType) Position() Span { return p.Span }
func (*PointerType) typeExprNode()    {}

// SliceType is `[]T` or `[]mut T`.
type SliceType struct {
	Elem TypeExpr
	Mut  bool
	Span Span
}

func (s *SliceType) Position() Span { return s.Span }
func (*SliceType) typeExprNode()    {}

// ArrayType is `[N]T`.
type ArrayType struct {
	Elem TypeExpr
	Size int
	Span Span
}

func (a *ArrayType) Position() Span { return a.Span }
func (*ArrayType) typeExprNode()    {}

// TupleType is `(T1, T2, ...)`.
type TupleType struct {
	Elems []TypeExpr
	Span  Span
}

func (t *TupleType) Position() Span { return t.Span }
func (*TupleType) typeExprNode()    {}

// FnParamType is one named parameter in a function type annotation.
type FnParamType struct {
	Name string
	Ty   TypeExpr
}

// FnType is `fn(params) -> ret`.
type FnType struct {
	Params   []FnParamType
	Variadic bool
	Ret      TypeExpr
	Span     Span
}

func (f *FnType) Position() Span { return f.Span }
func (*FnType) typeExprNode()    {}
