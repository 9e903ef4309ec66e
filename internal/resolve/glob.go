package resolve

import (
	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/workspace"
)

// expandGlobs replaces every `use mod.*` import with one concrete,
// non-glob Import per symbol mod currently exports, in the insertion
// order ws.Exports.Symbols reports (spec §4.4, §8 scenario 5). It must run
// after collectOwnExports so every module's own Public bindings are
// already visible, and before resolveImports so the synthesized imports
// get resolved like any other.
//
// A glob only sees its target's own direct exports, not symbols the
// target itself re-exports from a further glob or import; chained
// re-exports are not followed (see DESIGN.md, internal/resolve).
func expandGlobs(ws *workspace.Workspace, files []*ast.Ast) []*diag.Diagnostic {
	var diags []*diag.Diagnostic
	modules := moduleIndex(ws)

	for _, f := range files {
		expanded := make([]*ast.Import, 0, len(f.Imports))
		for _, imp := range f.Imports {
			if !imp.Glob {
				expanded = append(expanded, imp)
				continue
			}

			targetID, ok := modules[imp.ModulePath]
			if !ok {
				diags = append(diags, diag.New(diag.UnresolvedSymbol, imp.Span,
					"unresolved module \""+imp.ModulePath+"\""))
				continue
			}

			for _, symbol := range ws.Exports.Symbols(targetID) {
				expanded = append(expanded, &ast.Import{
					ModulePath: imp.ModulePath,
					Symbol:     symbol,
					Visibility: imp.Visibility,
					ModuleID:   int(targetID),
					Span:       imp.Span,
				})
			}
		}
		f.Imports = expanded
	}
	return diags
}
