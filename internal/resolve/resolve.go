// Package resolve implements spec §4.4: assigning every top-level pattern
// a BindingInfo, expanding glob imports, and building each module's export
// map. Resolve runs once every module has been parsed (spec §4.3/§5: a
// happens-before from every parse completion to resolve), since glob
// expansion and cross-module import lookups need every module's exports
// already known.
package resolve

import (
	"fmt"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/workspace"
)

// Run executes the full resolve stage over files (already registered into
// ws by the parse driver) and returns any diagnostics raised. It mutates
// files in place: every SymbolPattern gets a real BindingInfoID, every
// Import is either expanded (if Glob) or resolved to a concrete
// BindingInfoID, and ws.Exports is populated.
//
// The sub-steps below are a superset of spec §4.4's two named passes
// (export collection, glob expansion): resolving a concrete import's
// target symbol to a BindingInfoID, and re-exporting public imports, are
// necessary plumbing the spec's prose takes for granted rather than
// modules in their own right; this implementation makes them explicit so
// ordering is auditable. See DESIGN.md, internal/resolve.
func Run(ws *workspace.Workspace, files []*ast.Ast) []*diag.Diagnostic {
	var diags []*diag.Diagnostic

	registerBindings(ws, files)
	diags = append(diags, collectOwnExports(ws, files)...)
	diags = append(diags, expandGlobs(ws, files)...)
	diags = append(diags, resolveImports(ws, files)...)
	diags = append(diags, collectReexports(ws, files)...)

	return diags
}

// registerBindings creates a BindingInfo row for every top-level symbol
// pattern, in Ast order. This must happen before export collection and
// before check's top-level pass, since forward references rely on the
// BindingInfo already existing (spec §4.6).
func registerBindings(ws *workspace.Workspace, files []*ast.Ast) {
	for _, f := range files {
		mID := workspace.ModuleID(f.ModuleID)
		for _, b := range f.Bindings {
			b.Pattern.WalkMut(func(sym *ast.SymbolPattern) {
				if sym.Ignore {
					return
				}
				id := ws.AddBinding(workspace.BindingInfo{
					Symbol:     sym.Symbol,
					Alias:      sym.Alias,
					ModuleID:   mID,
					Span:       sym.Span,
					Mutable:    sym.Mutable || b.Mutable,
					Visibility: b.Visibility,
				})
				sym.BindingInfoID = id
			})
		}
	}
}

// collectOwnExports inserts every module's own Public, Single top-level
// bindings into ws.Exports (spec §4.4 pass 1, restricted per spec §9 open
// question 2: destructor patterns are never exported, by design, pending
// a language decision — not a gap to fill in later).
func collectOwnExports(ws *workspace.Workspace, files []*ast.Ast) []*diag.Diagnostic {
	var diags []*diag.Diagnostic
	for _, f := range files {
		mID := workspace.ModuleID(f.ModuleID)
		for _, b := range f.Bindings {
			if b.Visibility != ast.Public || !b.Pattern.IsSingle() {
				continue
			}
			sym, _ := b.Pattern.AsSingle()
			if sym.Ignore {
				continue
			}
			if _, exists := ws.Exports.Lookup(mID, sym.Symbol); exists {
				diags = append(diags, diag.New(diag.Redefinition, sym.Span,
					fmt.Sprintf("redefinition of exported symbol %q", sym.Symbol)))
				continue
			}
			ws.Exports.Insert(mID, sym.Symbol, sym.BindingInfoID)
		}
	}
	return diags
}

// moduleIndex maps a module's declared path to its id, built once per run.
func moduleIndex(ws *workspace.Workspace) map[string]workspace.ModuleID {
	idx := make(map[string]workspace.ModuleID, len(ws.Modules))
	for i, m := range ws.Modules {
		idx[m.Path] = workspace.ModuleID(i)
	}
	return idx
}

// resolveImports assigns ast.Import.ModuleID and ast.Import.BindingInfoID
// for every non-glob import (glob imports are gone by this point —
// expandGlobs ran first) by looking the symbol up in the target module's
// exports. An import of a private or nonexistent symbol is
// UnresolvedSymbol (spec §7).
func resolveImports(ws *workspace.Workspace, files []*ast.Ast) []*diag.Diagnostic {
	var diags []*diag.Diagnostic
	modules := moduleIndex(ws)

	for _, f := range files {
		for _, imp := range f.Imports {
			targetID, ok := modules[imp.ModulePath]
			if !ok {
				diags = append(diags, diag.New(diag.UnresolvedSymbol, imp.Span,
					fmt.Sprintf("unresolved module %q", imp.ModulePath)))
				continue
			}
			imp.ModuleID = int(targetID)

			if imp.Symbol == "" {
				// Whole-module import under its own name: no single
				// binding id to resolve. check declares no name for
				// such an import.
				continue
			}

			bid, ok := ws.Exports.Lookup(targetID, imp.Symbol)
			if !ok {
				diags = append(diags, diag.New(diag.UnresolvedSymbol, imp.Span,
					fmt.Sprintf("module %q has no public symbol %q", imp.ModulePath, imp.Symbol)))
				continue
			}
			imp.BindingInfoID = bid
		}
	}
	return diags
}

// collectReexports inserts every module's own Public imports into
// ws.Exports under their local name (symbol, or alias if renamed) — spec
// §4.4 pass 1's other half, deferred until after resolveImports because it
// needs each import's BindingInfoID.
func collectReexports(ws *workspace.Workspace, files []*ast.Ast) []*diag.Diagnostic {
	var diags []*diag.Diagnostic
	for _, f := range files {
		mID := workspace.ModuleID(f.ModuleID)
		for _, imp := range f.Imports {
			if imp.Visibility != ast.Public || imp.Symbol == "" {
				continue
			}
			name := imp.Symbol
			if imp.Alias != "" {
				name = imp.Alias
			}
			if _, exists := ws.Exports.Lookup(mID, name); exists {
				diags = append(diags, diag.New(diag.Redefinition, imp.Span,
					fmt.Sprintf("redefinition of exported symbol %q", name)))
				continue
			}
			ws.Exports.Insert(mID, name, imp.BindingInfoID)
		}
	}
	return diags
}
