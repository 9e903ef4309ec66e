package workspace

import (
	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/chili-lang/chili/internal/ast"
)

// moduleExportTable is one module's symbol -> binding-id map. Lookups
// (hot during import resolution and glob expansion) go through the radix
// tree; order preserves the sequence entries were inserted in, which spec
// §8 scenario 5 and original_source/compiler/chili_resolve/src/import.rs
// both require for deterministic glob expansion — an ART's native
// iteration is lexicographic by key, not insertion order, so it is used
// purely for the lookup, with order tracked alongside it.
type moduleExportTable struct {
	tree  art.Tree
	order []string
}

func newModuleExportTable() *moduleExportTable {
	return &moduleExportTable{tree: art.New()}
}

func (t *moduleExportTable) insert(symbol string, id ast.BindingInfoID) {
	if _, replaced := t.tree.Insert(art.Key(symbol), id); !replaced {
		t.order = append(t.order, symbol)
	}
}

func (t *moduleExportTable) lookup(symbol string) (ast.BindingInfoID, bool) {
	v, ok := t.tree.Search(art.Key(symbol))
	if !ok {
		return 0, false
	}
	return v.(ast.BindingInfoID), true
}

// ModuleExports is the workspace-wide `module_id -> (symbol -> binding_id)`
// map (spec §3), populated only for Public items during resolve.
type ModuleExports struct {
	byModule map[ModuleID]*moduleExportTable
}

// NewModuleExports returns an empty ModuleExports.
func NewModuleExports() *ModuleExports {
	return &ModuleExports{byModule: make(map[ModuleID]*moduleExportTable)}
}

// Insert records that module m publicly exports symbol under id. Calling
// Insert again for an already-exported symbol is the caller's
// responsibility to have already rejected as a Redefinition (spec §4.4);
// Insert itself does not re-check.
func (e *ModuleExports) Insert(m ModuleID, symbol string, id ast.BindingInfoID) {
	t, ok := e.byModule[m]
	if !ok {
		t = newModuleExportTable()
		e.byModule[m] = t
	}
	t.insert(symbol, id)
}

// Lookup finds the binding id exported by module m under symbol.
func (e *ModuleExports) Lookup(m ModuleID, symbol string) (ast.BindingInfoID, bool) {
	t, ok := e.byModule[m]
	if !ok {
		return 0, false
	}
	return t.lookup(symbol)
}

// Has reports whether module m has any exports at all (used to tell
// "module exports nothing" apart from "module id unknown").
func (e *ModuleExports) Has(m ModuleID) bool {
	_, ok := e.byModule[m]
	return ok
}

// Symbols returns module m's exported symbol names in insertion order —
// the order glob expansion (spec §4.4) walks when synthesizing one import
// per exported symbol.
func (e *ModuleExports) Symbols(m ModuleID) []string {
	t, ok := e.byModule[m]
	if !ok {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
