package resolve

import (
	"testing"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/workspace"
)

func unitLit() ast.Expr { return &ast.Literal{Kind: ast.UnitLit} }

func singleBinding(name string, vis ast.Visibility) *ast.Binding {
	return &ast.Binding{
		Pattern:    ast.NewSingle(&ast.SymbolPattern{Symbol: name, BindingInfoID: ast.UnresolvedBindingInfoID}),
		Value:      unitLit(),
		Visibility: vis,
	}
}

func newWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	return workspace.New(workspace.BuildOptions{TargetWordSize: 64}, nil)
}

func TestRegisterBindingsAssignsIDs(t *testing.T) {
	ws := newWorkspace(t)
	fileA := &ast.Ast{ModuleID: int(ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"}))}
	fileA.Bindings = []*ast.Binding{singleBinding("foo", ast.Public)}

	Run(ws, []*ast.Ast{fileA})

	sym, _ := fileA.Bindings[0].Pattern.AsSingle()
	if sym.BindingInfoID == ast.UnresolvedBindingInfoID {
		t.Fatal("BindingInfoID left unresolved after Run")
	}
	info := ws.GetBinding(sym.BindingInfoID)
	if info.Symbol != "foo" {
		t.Errorf("binding Symbol = %q, want foo", info.Symbol)
	}
}

func TestCollectOwnExportsSkipsPrivate(t *testing.T) {
	ws := newWorkspace(t)
	modID := ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"})
	fileA := &ast.Ast{ModuleID: int(modID)}
	fileA.Bindings = []*ast.Binding{
		singleBinding("pub", ast.Public),
		singleBinding("priv", ast.Private),
	}

	Run(ws, []*ast.Ast{fileA})

	if !ws.Exports.Has(modID) {
		t.Fatal("expected module to have exports")
	}
	if _, ok := ws.Exports.Lookup(modID, "pub"); !ok {
		t.Error("expected \"pub\" to be exported")
	}
	if _, ok := ws.Exports.Lookup(modID, "priv"); ok {
		t.Error("expected \"priv\" to not be exported")
	}
}

func TestRedefinitionDiagnostic(t *testing.T) {
	ws := newWorkspace(t)
	modID := ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"})
	fileA := &ast.Ast{ModuleID: int(modID)}
	fileA.Bindings = []*ast.Binding{
		singleBinding("dup", ast.Public),
		singleBinding("dup", ast.Public),
	}

	diags := Run(ws, []*ast.Ast{fileA})

	found := false
	for _, d := range diags {
		if d.Message == `redefinition of exported symbol "dup"` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Redefinition diagnostic for \"dup\", got %v", diags)
	}
}

func TestResolveImportAcrossModules(t *testing.T) {
	ws := newWorkspace(t)
	modA := ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"})
	modB := ws.AddModule(workspace.ModuleInfo{Path: "b", File: "b.ch"})

	fileA := &ast.Ast{ModuleID: int(modA)}
	fileA.Bindings = []*ast.Binding{singleBinding("helper", ast.Public)}

	fileB := &ast.Ast{ModuleID: int(modB)}
	fileB.Imports = []*ast.Import{{ModulePath: "a", Symbol: "helper"}}

	diags := Run(ws, []*ast.Ast{fileA, fileB})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	imp := fileB.Imports[0]
	if imp.ModuleID != int(modA) {
		t.Errorf("Import.ModuleID = %d, want %d", imp.ModuleID, modA)
	}
	if imp.BindingInfoID == ast.UnresolvedBindingInfoID {
		t.Error("Import.BindingInfoID left unresolved")
	}
}

func TestResolveImportUnknownSymbol(t *testing.T) {
	ws := newWorkspace(t)
	modA := ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"})
	modB := ws.AddModule(workspace.ModuleInfo{Path: "b", File: "b.ch"})

	fileA := &ast.Ast{ModuleID: int(modA)}
	fileB := &ast.Ast{ModuleID: int(modB)}
	fileB.Imports = []*ast.Import{{ModulePath: "a", Symbol: "missing"}}

	diags := Run(ws, []*ast.Ast{fileA, fileB})
	if len(diags) == 0 {
		t.Fatal("expected an UnresolvedSymbol diagnostic")
	}
}

func TestGlobExpansionInsertionOrder(t *testing.T) {
	ws := newWorkspace(t)
	modA := ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"})
	modB := ws.AddModule(workspace.ModuleInfo{Path: "b", File: "b.ch"})

	fileA := &ast.Ast{ModuleID: int(modA)}
	fileA.Bindings = []*ast.Binding{
		singleBinding("first", ast.Public),
		singleBinding("second", ast.Public),
		singleBinding("third", ast.Public),
	}

	fileB := &ast.Ast{ModuleID: int(modB)}
	fileB.Imports = []*ast.Import{{ModulePath: "a", Glob: true}}

	diags := Run(ws, []*ast.Ast{fileA, fileB})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if len(fileB.Imports) != 3 {
		t.Fatalf("expanded import count = %d, want 3", len(fileB.Imports))
	}
	want := []string{"first", "second", "third"}
	for i, imp := range fileB.Imports {
		if imp.Symbol != want[i] {
			t.Errorf("fileB.Imports[%d].Symbol = %q, want %q", i, imp.Symbol, want[i])
		}
	}
}

func TestReexportUnderAlias(t *testing.T) {
	ws := newWorkspace(t)
	modA := ws.AddModule(workspace.ModuleInfo{Path: "a", File: "a.ch"})
	modB := ws.AddModule(workspace.ModuleInfo{Path: "b", File: "b.ch"})

	fileA := &ast.Ast{ModuleID: int(modA)}
	fileA.Bindings = []*ast.Binding{singleBinding("orig", ast.Public)}

	fileB := &ast.Ast{ModuleID: int(modB)}
	fileB.Imports = []*ast.Import{{ModulePath: "a", Symbol: "orig", Alias: "renamed", Visibility: ast.Public}}

	diags := Run(ws, []*ast.Ast{fileA, fileB})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if _, ok := ws.Exports.Lookup(modB, "renamed"); !ok {
		t.Error("expected module b to re-export \"orig\" as \"renamed\"")
	}
	if _, ok := ws.Exports.Lookup(modB, "orig"); ok {
		t.Error("did not expect module b to export under the original name")
	}
}
