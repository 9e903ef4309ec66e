package types

import "testing"

func TestUnifyAnyIntBindsToConcreteInt(t *testing.T) {
	ctx := NewTyCtx()
	anyInt := ctx.FreshAnyInt()

	if err := Unify(ctx, anyInt, TInt{Width: 32, Signed: true}); err != nil {
		t.Fatalf("Unify() error = %v", err)
	}

	got := Normalize(ctx, anyInt)
	want := TInt{Width: 32, Signed: true}
	if got != want {
		t.Errorf("Normalize(anyInt) = %v, want %v", got, want)
	}
}

func TestUnifyNeverUnifiesWithAnything(t *testing.T) {
	ctx := NewTyCtx()
	if err := Unify(ctx, TNever{}, TBool{}); err != nil {
		t.Errorf("Unify(Never, Bool) error = %v, want nil", err)
	}
	if err := Unify(ctx, TString{}, TNever{}); err != nil {
		t.Errorf("Unify(String, Never) error = %v, want nil", err)
	}
	if err := Unify(ctx, TNever{}, TNever{}); err != nil {
		t.Errorf("Unify(Never, Never) error = %v, want nil", err)
	}
}

func TestUnifyOccursCheckFails(t *testing.T) {
	ctx := NewTyCtx()
	v := ctx.Fresh()
	self := TVar{ID: v}

	cyclic := TPointer{Elem: self}
	err := Unify(ctx, self, cyclic)
	if err == nil {
		t.Fatal("Unify() error = nil, want OccursError")
	}
	if _, ok := err.(*OccursError); !ok {
		t.Errorf("Unify() error type = %T, want *OccursError", err)
	}
}

func TestUnifyMismatch(t *testing.T) {
	ctx := NewTyCtx()
	err := Unify(ctx, TBool{}, TString{})
	if err == nil {
		t.Fatal("Unify() error = nil, want MismatchError")
	}
	if _, ok := err.(*MismatchError); !ok {
		t.Errorf("Unify() error type = %T, want *MismatchError", err)
	}
}

func TestUnifyPointerMutCoercion(t *testing.T) {
	ctx := NewTyCtx()
	// An immutable pointer may unify into a mutable-expecting position
	// (CanCoerceMut: !from && to), but not the reverse.
	immutSrc := TPointer{Elem: TInt{Width: 32, Signed: true}, Mut: false}
	mutDst := TPointer{Elem: TInt{Width: 32, Signed: true}, Mut: true}

	if err := Unify(ctx, immutSrc, mutDst); err != nil {
		t.Errorf("Unify(immut -> mut) error = %v, want nil", err)
	}

	ctx2 := NewTyCtx()
	if err := Unify(ctx2, mutDst, immutSrc); err == nil {
		t.Error("Unify(mut -> immut) error = nil, want mismatch")
	}
}

func TestCanCoerceMut(t *testing.T) {
	cases := []struct {
		from, to bool
		want     bool
	}{
		{false, false, true},
		{true, true, true},
		{false, true, true},
		{true, false, false},
	}
	for _, c := range cases {
		if got := CanCoerceMut(c.from, c.to); got != c.want {
			t.Errorf("CanCoerceMut(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestUnifyStructNominalByBindingID(t *testing.T) {
	ctx := NewTyCtx()
	a := TStruct{BindingID: 1, Kind: StructKindStruct, Fields: []StructField{{Name: "x", Ty: TBool{}}}}
	b := TStruct{BindingID: 1, Kind: StructKindStruct, Fields: []StructField{{Name: "y", Ty: TString{}}}}

	// Same BindingID unifies regardless of structural shape.
	if err := Unify(ctx, a, b); err != nil {
		t.Errorf("Unify() error = %v, want nil (same nominal binding)", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ctx := NewTyCtx()
	v := ctx.Fresh()
	ctx.Bind(v, TInt{Width: 64, Signed: true})

	ty := TVar{ID: v}
	once := Normalize(ctx, ty)
	twice := Normalize(ctx, once)
	if once != twice {
		t.Errorf("Normalize not idempotent: once=%v twice=%v", once, twice)
	}
}
