package types

// TyBindingState is Unbound or Bound (spec §3).
type TyBindingState int

const (
	Unbound TyBindingState = iota
	Bound
)

// TyBinding is one slot of a TyCtx.
type TyBinding struct {
	State TyBindingState
	Ty    Type // meaningful only when State == Bound
}

// TyCtx is the dense, append-only union-find store of type variables
// (spec §3, §5 resource policy: slots never shrink; a bound slot never
// reverts to Unbound). It is created at the start of check and retained
// through lower so lowering can still read resolved types.
type TyCtx struct {
	slots []TyBinding
}

// NewTyCtx returns an empty type context.
func NewTyCtx() *TyCtx {
	return &TyCtx{}
}

// Fresh allocates a new Unbound slot and returns its id.
func (c *TyCtx) Fresh() TyVarID {
	id := TyVarID(len(c.slots))
	c.slots = append(c.slots, TyBinding{State: Unbound})
	return id
}

// FreshAnyInt allocates a fresh slot and returns it wrapped as AnyInt.
func (c *TyCtx) FreshAnyInt() Type { return AnyInt{Var: c.Fresh()} }

// FreshAnyFloat allocates a fresh slot and returns it wrapped as AnyFloat.
func (c *TyCtx) FreshAnyFloat() Type { return AnyFloat{Var: c.Fresh()} }

// FreshVar allocates a fresh slot and returns it wrapped as TVar.
func (c *TyCtx) FreshVar() Type { return TVar{ID: c.Fresh()} }

// Get returns the binding at id. It panics (an Internal-kind bug, not a
// recoverable diagnostic) if id was never allocated via Fresh.
func (c *TyCtx) Get(id TyVarID) TyBinding {
	if int(id) < 0 || int(id) >= len(c.slots) {
		panic("types: TyVarID out of range — internal compiler error")
	}
	return c.slots[id]
}

// Bind records Bound(ty) at id. A slot may only transition Unbound ->
// Bound once (spec §5 resource policy); binding an already-bound slot is
// an internal invariant violation.
func (c *TyCtx) Bind(id TyVarID, ty Type) {
	if c.slots[id].State == Bound {
		panic("types: re-binding an already-bound type variable — internal compiler error")
	}
	c.slots[id] = TyBinding{State: Bound, Ty: ty}
}

// Len reports the number of allocated slots, mostly useful for tests that
// want to assert on allocation counts.
func (c *TyCtx) Len() int { return len(c.slots) }
