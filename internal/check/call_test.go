package check

import (
	"testing"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/workspace"
)

// newCallSession builds a Session with a single `variadicTy`-variadic
// function bound as `fn`, ready to check calls against it without driving
// the full resolve/check pipeline.
func newCallSession(t *testing.T, variadic bool, variadicTy types.Type) (*Session, *ast.Ident) {
	t.Helper()
	ws := workspace.New(workspace.BuildOptions{TargetWordSize: 64}, nil)
	ctx := types.NewTyCtx()
	sink := diag.NewSliceSink()

	fnTy := types.TFn{
		Params:   []types.FnParam{{Name: "xs", Ty: types.TSlice{Elem: variadicTy}}},
		Variadic: variadic,
		Ret:      types.TUnit{},
	}
	id := ws.AddBinding(workspace.BindingInfo{Symbol: "fn", Ty: fnTy})

	s := NewSession(ws, ctx, sink)
	return s, &ast.Ident{Name: "fn", BindingInfoID: id}
}

func intArg(v int64) *ast.Argument {
	return &ast.Argument{Value: &ast.Literal{Kind: ast.IntLit, Value: v}}
}

func TestCheckCallVariadicIndividualArgsCollectIntoArray(t *testing.T) {
	s, callee := newCallSession(t, true, types.TInt{Width: 64, Signed: true})
	call := &ast.Call{
		Callee: callee,
		Args:   []*ast.Argument{intArg(1), intArg(2), intArg(3)},
	}

	if _, err := s.checkCall(call); err != nil {
		t.Fatalf("checkCall() error = %v", err)
	}
	sink := s.sink.(*diag.SliceSink)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestCheckCallVariadicSpreadLastArgument(t *testing.T) {
	s, callee := newCallSession(t, true, types.TInt{Width: 64, Signed: true})
	arr := &ast.ArrayLit{Elements: []ast.Expr{
		&ast.Literal{Kind: ast.IntLit, Value: int64(1)},
		&ast.Literal{Kind: ast.IntLit, Value: int64(2)},
	}}
	call := &ast.Call{
		Callee: callee,
		Args:   []*ast.Argument{{Value: arr, Spread: true}},
	}

	if _, err := s.checkCall(call); err != nil {
		t.Fatalf("checkCall() error = %v", err)
	}
	sink := s.sink.(*diag.SliceSink)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics for a trailing spread: %v", sink.Diagnostics())
	}
}

func TestCheckCallSpreadNotLastIsRejected(t *testing.T) {
	s, callee := newCallSession(t, true, types.TInt{Width: 64, Signed: true})
	arr := &ast.ArrayLit{Elements: []ast.Expr{&ast.Literal{Kind: ast.IntLit, Value: int64(1)}}}
	call := &ast.Call{
		Callee: callee,
		Args: []*ast.Argument{
			{Value: arr, Spread: true},
			intArg(2),
		},
	}

	if _, err := s.checkCall(call); err != nil {
		t.Fatalf("checkCall() error = %v", err)
	}
	sink := s.sink.(*diag.SliceSink)
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for a non-trailing spread argument")
	}
}

func TestCheckCallTooManyArgsNonVariadic(t *testing.T) {
	s, callee := newCallSession(t, false, types.TInt{Width: 64, Signed: true})
	call := &ast.Call{
		Callee: callee,
		Args:   []*ast.Argument{intArg(1), intArg(2)},
	}

	if _, err := s.checkCall(call); err != nil {
		t.Fatalf("checkCall() error = %v", err)
	}
	sink := s.sink.(*diag.SliceSink)
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diag.ArityMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ArityMismatch diagnostic, got %v", sink.Diagnostics())
	}
}
