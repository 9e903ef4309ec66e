package lower

import (
	"testing"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/check"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/resolve"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/vm"
	"github.com/chili-lang/chili/internal/workspace"
)

func intLit(v int64) ast.Expr { return &ast.Literal{Kind: ast.IntLit, Value: v} }

// compileAndRun drives the real resolve -> check -> lower -> vm pipeline
// over a hand-built Ast, the same sequencing internal/pipeline wires
// together, so a lowering test exercises the actual upstream stages
// rather than a synthetic pre-typed fixture.
func compileAndRun(t *testing.T, files []*ast.Ast) (vm.Value, *diag.SliceSink) {
	t.Helper()
	ws := workspace.New(workspace.BuildOptions{TargetWordSize: 64}, nil)
	for _, f := range files {
		f.ModuleID = int(ws.AddModule(workspace.ModuleInfo{Path: "main", File: "main.ch"}))
	}

	sink := diag.NewSliceSink()
	for _, d := range resolve.Run(ws, files) {
		sink.Emit(d)
	}
	if sink.HasErrors() {
		return nil, sink
	}

	ctx := types.NewTyCtx()
	check.Run(ws, ctx, sink, files)
	if sink.HasErrors() {
		return nil, sink
	}

	res := Run(ws, ctx, files)
	machine := vm.New(res.Constants, res.NGlobals)
	v, err := machine.Run(res.Start)
	if err != nil {
		t.Fatalf("vm.Run() error = %v", err)
	}
	return v, sink
}

func TestLowerSimpleGlobalArithmetic(t *testing.T) {
	file := &ast.Ast{
		Bindings: []*ast.Binding{{
			Pattern: ast.NewSingle(&ast.SymbolPattern{Symbol: "x", BindingInfoID: ast.UnresolvedBindingInfoID}),
			Value:   &ast.BinaryOp{Left: intLit(1), Right: intLit(2), Op: "+"},
		}},
	}

	_, sink := compileAndRun(t, []*ast.Ast{file})
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestGlobalsPrologueOrder(t *testing.T) {
	sym := func(name string) *ast.SymbolPattern {
		return &ast.SymbolPattern{Symbol: name, BindingInfoID: ast.UnresolvedBindingInfoID}
	}
	file := &ast.Ast{
		Bindings: []*ast.Binding{
			{Pattern: ast.NewSingle(sym("a")), Value: intLit(1)},
			{Pattern: ast.NewSingle(sym("b")), Value: intLit(2)},
			{Pattern: ast.NewSingle(sym("c")), Value: intLit(3)},
		},
	}

	ws := workspace.New(workspace.BuildOptions{TargetWordSize: 64}, nil)
	file.ModuleID = int(ws.AddModule(workspace.ModuleInfo{Path: "main", File: "main.ch"}))
	sink := diag.NewSliceSink()
	for _, d := range resolve.Run(ws, []*ast.Ast{file}) {
		sink.Emit(d)
	}
	if sink.HasErrors() {
		t.Fatalf("resolve diagnostics: %v", sink.Diagnostics())
	}
	ctx := types.NewTyCtx()
	check.Run(ws, ctx, sink, []*ast.Ast{file})
	if sink.HasErrors() {
		t.Fatalf("check diagnostics: %v", sink.Diagnostics())
	}

	res := Run(ws, ctx, []*ast.Ast{file})
	machine := vm.New(res.Constants, res.NGlobals)
	if _, err := machine.Run(res.Start); err != nil {
		t.Fatalf("vm.Run() error = %v", err)
	}

	// Globals must be assigned dense slots in registration (insertion)
	// order, and the prologue must actually have run each initializer:
	// a, b, c in slots 0, 1, 2 holding 1, 2, 3 respectively.
	wantOrder := []string{"a", "b", "c"}
	for i, name := range wantOrder {
		want := int64(i + 1)
		g := machine.Globals[i].(vm.Int)
		if g.Bits != want {
			t.Errorf("global slot %d (%s) = %d, want %d", i, name, g.Bits, want)
		}
	}
}

func TestAnyIntDefaultsToWordSizedInt(t *testing.T) {
	file := &ast.Ast{
		Bindings: []*ast.Binding{{
			Pattern: ast.NewSingle(&ast.SymbolPattern{Symbol: "n", BindingInfoID: ast.UnresolvedBindingInfoID}),
			Value:   intLit(7),
		}},
	}

	ws := workspace.New(workspace.BuildOptions{TargetWordSize: 64}, nil)
	file.ModuleID = int(ws.AddModule(workspace.ModuleInfo{Path: "main", File: "main.ch"}))
	sink := diag.NewSliceSink()
	for _, d := range resolve.Run(ws, []*ast.Ast{file}) {
		sink.Emit(d)
	}
	ctx := types.NewTyCtx()
	check.Run(ws, ctx, sink, []*ast.Ast{file})
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}

	sym, _ := file.Bindings[0].Pattern.AsSingle()
	info := ws.GetBinding(sym.BindingInfoID)
	want := types.TInt{Width: 64, Signed: true}
	if info.Ty != want {
		t.Errorf("defaulted type = %v, want %v", info.Ty, want)
	}
}
