package check

import (
	"testing"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/resolve"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/workspace"
)

func intLit(v int64) ast.Expr { return &ast.Literal{Kind: ast.IntLit, Value: v} }

func TestDefaultTypeRecursesIntoArrayElement(t *testing.T) {
	ws := workspace.New(workspace.BuildOptions{TargetWordSize: 64}, nil)
	file := &ast.Ast{
		Bindings: []*ast.Binding{{
			Pattern: ast.NewSingle(&ast.SymbolPattern{Symbol: "arr", BindingInfoID: ast.UnresolvedBindingInfoID}),
			Value:   &ast.ArrayLit{Elements: []ast.Expr{intLit(1), intLit(2), intLit(3)}},
		}},
	}
	file.ModuleID = int(ws.AddModule(workspace.ModuleInfo{Path: "main", File: "main.ch"}))

	sink := diag.NewSliceSink()
	for _, d := range resolve.Run(ws, []*ast.Ast{file}) {
		sink.Emit(d)
	}
	if sink.HasErrors() {
		t.Fatalf("resolve diagnostics: %v", sink.Diagnostics())
	}

	ctx := types.NewTyCtx()
	Run(ws, ctx, sink, []*ast.Ast{file})
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}

	sym, _ := file.Bindings[0].Pattern.AsSingle()
	info := ws.GetBinding(sym.BindingInfoID)
	arr, ok := info.Ty.(types.TArray)
	if !ok {
		t.Fatalf("binding type = %T, want types.TArray", info.Ty)
	}
	want := types.TInt{Width: 64, Signed: true}
	if arr.Elem != want {
		t.Errorf("array element type = %v, want %v (still an open AnyInt: defaulting did not recurse)", arr.Elem, want)
	}
}

func TestUnifyAnyIntAnyFloatOrderIndependent(t *testing.T) {
	// 1 + 1.0 and 1.0 + 1 must both succeed: Unify(AnyInt, AnyFloat) and
	// Unify(AnyFloat, AnyInt) are the same table row regardless of side.
	ctx1 := types.NewTyCtx()
	if err := types.Unify(ctx1, ctx1.FreshAnyInt(), ctx1.FreshAnyFloat()); err != nil {
		t.Errorf("Unify(AnyInt, AnyFloat) error = %v, want nil", err)
	}

	ctx2 := types.NewTyCtx()
	if err := types.Unify(ctx2, ctx2.FreshAnyFloat(), ctx2.FreshAnyInt()); err != nil {
		t.Errorf("Unify(AnyFloat, AnyInt) error = %v, want nil", err)
	}
}
