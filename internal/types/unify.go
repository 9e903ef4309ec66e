package types

import "fmt"

// MismatchError reports a structural unification failure; check attaches
// the originating span and wraps it as a diag.Diagnostic of kind
// TypeMismatch (spec §4.5, §7).
type MismatchError struct {
	Expected, Found Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
}

// OccursError reports that unifying a variable with a type would produce
// an infinite type (spec §4.5 occurs check; kind OccursCheckFailed).
type OccursError struct {
	Var TyVarID
	In  Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("occurs check failed: 't%d occurs in %s", e.Var, e.In)
}

// Normalize walks ty and replaces every Var whose slot is Bound with the
// (recursively normalized) contents of that slot. Unbound variables are
// left untouched. Idempotent: Normalize(Normalize(ty)) == Normalize(ty)
// (spec §8 substitution idempotence).
func Normalize(ctx *TyCtx, ty Type) Type {
	switch t := ty.(type) {
	case TVar:
		b := ctx.Get(t.ID)
		if b.State == Bound {
			return Normalize(ctx, b.Ty)
		}
		return t
	case AnyInt:
		b := ctx.Get(t.Var)
		if b.State == Bound {
			return Normalize(ctx, b.Ty)
		}
		return t
	case AnyFloat:
		b := ctx.Get(t.Var)
		if b.State == Bound {
			return Normalize(ctx, b.Ty)
		}
		return t
	case TPointer:
		t.Elem = Normalize(ctx, t.Elem)
		return t
	case TMultiPointer:
		t.Elem = Normalize(ctx, t.Elem)
		return t
	case TSlice:
		t.Elem = Normalize(ctx, t.Elem)
		return t
	case TArray:
		t.Elem = Normalize(ctx, t.Elem)
		return t
	case TTuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Normalize(ctx, e)
		}
		return TTuple{Elems: elems}
	case TFn:
		params := make([]FnParam, len(t.Params))
		for i, p := range t.Params {
			params[i] = FnParam{Name: p.Name, Ty: Normalize(ctx, p.Ty)}
		}
		t.Params = params
		t.Ret = Normalize(ctx, t.Ret)
		return t
	case TStruct:
		fields := make([]StructField, len(t.Fields))
		for i, f := range t.Fields {
			f.Ty = Normalize(ctx, f.Ty)
			fields[i] = f
		}
		t.Fields = fields
		return t
	case TType:
		t.Inner = Normalize(ctx, t.Inner)
		return t
	default:
		// TUnit, TBool, TNever, TInt, TFloat, TString carry no sub-terms.
		return ty
	}
}

// Occurs reports whether an unbound Var(v) is reachable from ty. Bound
// variables are recursed through so a chain of binds cannot hide a cycle.
func Occurs(ctx *TyCtx, v TyVarID, ty Type) bool {
	switch t := ty.(type) {
	case TVar:
		if t.ID == v {
			return true
		}
		b := ctx.Get(t.ID)
		if b.State == Bound {
			return Occurs(ctx, v, b.Ty)
		}
		return false
	case AnyInt:
		if t.Var == v {
			return true
		}
		b := ctx.Get(t.Var)
		if b.State == Bound {
			return Occurs(ctx, v, b.Ty)
		}
		return false
	case AnyFloat:
		if t.Var == v {
			return true
		}
		b := ctx.Get(t.Var)
		if b.State == Bound {
			return Occurs(ctx, v, b.Ty)
		}
		return false
	case TPointer:
		return Occurs(ctx, v, t.Elem)
	case TMultiPointer:
		return Occurs(ctx, v, t.Elem)
	case TSlice:
		return Occurs(ctx, v, t.Elem)
	case TArray:
		return Occurs(ctx, v, t.Elem)
	case TTuple:
		for _, e := range t.Elems {
			if Occurs(ctx, v, e) {
				return true
			}
		}
		return false
	case TFn:
		for _, p := range t.Params {
			if Occurs(ctx, v, p.Ty) {
				return true
			}
		}
		return Occurs(ctx, v, t.Ret)
	case TStruct:
		for _, f := range t.Fields {
			if Occurs(ctx, v, f.Ty) {
				return true
			}
		}
		return false
	case TType:
		return Occurs(ctx, v, t.Inner)
	default:
		return false
	}
}

// CanCoerceMut implements spec §4.5's literal directional rule: `from` may
// be promoted to `to` only when they already agree, or when `from` is
// immutable and `to` is mutable. The rule is applied identically whichever
// side of a Pointer/MultiPointer/Slice pair calls it; it is never combined
// across nesting depth (spec §9 open question 3) — a Pointer(Pointer(T,
// m1), m2) unification checks m2 here and recurses into the inner pointer
// pair separately.
func CanCoerceMut(from, to bool) bool {
	return from == to || (!from && to)
}

// isNumericTarget classifies the handful of Type implementations Unify must
// special-case as a single "is this a number-ish open variable" bucket,
// versus everything else.
func isNumericTarget(t Type) bool {
	switch t.(type) {
	case AnyInt, AnyFloat, TInt, TFloat:
		return true
	default:
		return false
	}
}

// Unify attempts to unify A and B under ctx, mutating ctx's bindings in
// place on success (spec §4.5). It is symmetric in intent: both orderings
// of a pair that the table names reach the same outcome.
func Unify(ctx *TyCtx, a, b Type) error {
	a = Normalize(ctx, a)
	b = Normalize(ctx, b)

	// Var on either side defers to unifyVar first, ahead of every other
	// case, per spec §4.5.
	if va, ok := a.(TVar); ok {
		return unifyVar(ctx, va.ID, b)
	}
	if vb, ok := b.(TVar); ok {
		return unifyVar(ctx, vb.ID, a)
	}

	// Never unifies with anything.
	if _, ok := a.(TNever); ok {
		return nil
	}
	if _, ok := b.(TNever); ok {
		return nil
	}

	switch at := a.(type) {
	case TUnit:
		if _, ok := b.(TUnit); ok {
			return nil
		}
	case TBool:
		if _, ok := b.(TBool); ok {
			return nil
		}
	case TString:
		if _, ok := b.(TString); ok {
			return nil
		}
	case TInt:
		if bt, ok := b.(TInt); ok && at == bt {
			return nil
		}
		if bv, ok := b.(AnyInt); ok {
			ctx.Bind(bv.Var, at)
			return nil
		}
	case TFloat:
		if bt, ok := b.(TFloat); ok && at == bt {
			return nil
		}
		if bv, ok := b.(AnyFloat); ok {
			ctx.Bind(bv.Var, at)
			return nil
		}
		// An AnyInt literal may still default into a float expectation
		// (spec §4.5 table: AnyInt unifies with AnyFloat/Float too).
		if bv, ok := b.(AnyInt); ok {
			ctx.Bind(bv.Var, at)
			return nil
		}
	case AnyInt:
		if isNumericTarget(b) {
			if bv, ok := b.(AnyInt); ok && bv.Var == at.Var {
				return nil
			}
			ctx.Bind(at.Var, b)
			return nil
		}
	case AnyFloat:
		switch b.(type) {
		case AnyFloat, TFloat, AnyInt:
			if bv, ok := b.(AnyFloat); ok && bv.Var == at.Var {
				return nil
			}
			ctx.Bind(at.Var, b)
			return nil
		}
	case TPointer:
		if bt, ok := b.(TPointer); ok {
			if !CanCoerceMut(at.Mut, bt.Mut) {
				break
			}
			return Unify(ctx, at.Elem, bt.Elem)
		}
	case TMultiPointer:
		if bt, ok := b.(TMultiPointer); ok {
			if !CanCoerceMut(at.Mut, bt.Mut) {
				break
			}
			return Unify(ctx, at.Elem, bt.Elem)
		}
	case TSlice:
		if bt, ok := b.(TSlice); ok {
			if !CanCoerceMut(at.Mut, bt.Mut) {
				break
			}
			return Unify(ctx, at.Elem, bt.Elem)
		}
	case TArray:
		if bt, ok := b.(TArray); ok && at.N == bt.N {
			return Unify(ctx, at.Elem, bt.Elem)
		}
	case TTuple:
		if bt, ok := b.(TTuple); ok && len(at.Elems) == len(bt.Elems) {
			for i := range at.Elems {
				if err := Unify(ctx, at.Elems[i], bt.Elems[i]); err != nil {
					return err
				}
			}
			return nil
		}
	case TFn:
		if bt, ok := b.(TFn); ok {
			if len(at.Params) != len(bt.Params) || at.Variadic != bt.Variadic {
				break
			}
			for i := range at.Params {
				if err := Unify(ctx, at.Params[i].Ty, bt.Params[i].Ty); err != nil {
					return err
				}
			}
			return Unify(ctx, at.Ret, bt.Ret)
		}
	case TStruct:
		if bt, ok := b.(TStruct); ok {
			if at.BindingID == bt.BindingID {
				return nil
			}
			if at.Kind != bt.Kind || len(at.Fields) != len(bt.Fields) {
				break
			}
			for i := range at.Fields {
				if err := Unify(ctx, at.Fields[i].Ty, bt.Fields[i].Ty); err != nil {
					return err
				}
			}
			return nil
		}
	case TType:
		if bt, ok := b.(TType); ok {
			return Unify(ctx, at.Inner, bt.Inner)
		}
		// A Type(t) on one side unwraps and unifies inner vs the other side.
		return Unify(ctx, at.Inner, b)
	}

	// Symmetric fallback: Type(t) may appear on the right only.
	if bt, ok := b.(TType); ok {
		return Unify(ctx, a, bt.Inner)
	}

	return &MismatchError{Expected: a, Found: b}
}

// unifyVar implements spec §4.5's unify_var: a Bound slot defers to
// unifying its contents; an Unbound slot binds to U unless U normalizes to
// the same variable (a no-op) or the occurs check fails.
func unifyVar(ctx *TyCtx, v TyVarID, u Type) error {
	bind := ctx.Get(v)
	if bind.State == Bound {
		return Unify(ctx, bind.Ty, u)
	}

	u = Normalize(ctx, u)
	if uv, ok := u.(TVar); ok && uv.ID == v {
		return nil
	}
	if Occurs(ctx, v, u) {
		return &OccursError{Var: v, In: u}
	}
	ctx.Bind(v, u)
	return nil
}
