// Package workspace implements the process-wide registry of spec §3/§4.2:
// an append-only, index-owned store of modules and bindings that outlives
// every pipeline stage. Grounded on the teacher's Workspace-shaped global
// state (internal/module, internal/loader) but reshaped around spec's
// integer-id, append-only discipline (spec §9 design note: ids into
// arena-like vectors replace pointer cycles).
package workspace

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/types"
)

// ModuleID indexes Workspace.Modules.
type ModuleID int

// ModuleInfo describes one parsed source file's module (spec §3). It is
// immutable once inserted.
type ModuleInfo struct {
	Path string // e.g. "foo/bar"
	File string // absolute or workspace-relative file path
}

// BindingInfo is one name introduction's permanent record (spec §3): a
// symbol, its defining module, mutability, resolved type, visibility and a
// use-count, mutated in place through check and never removed.
type BindingInfo struct {
	Symbol     string
	Alias      string
	ModuleID   ModuleID
	Span       ast.Span
	Mutable    bool
	Ty         types.Type
	Visibility ast.Visibility
	UseCount   int
}

// BuildOptions carries the process-wide compilation configuration (spec
// §3): target word size in bits, and a verbosity flag copied from the
// manifest (the CLI decides on the bytecode dump from the manifest's own
// Verbose field, not from this one).
type BuildOptions struct {
	TargetWordSize int // 32 or 64
	Verbose        bool
}

// Workspace is the process-wide registry created once per compilation
// (spec §3). All ids are small integers; ownership is by index, never by
// pointer. Workspace outlives every other stage: TyCtx, Ast values and the
// check session are all discarded before Workspace is.
type Workspace struct {
	// SessionID uniquely identifies this compilation run. It has no
	// semantic role in the type system; the bytecode.txt dump and
	// diagnostics do not include it.
	SessionID uuid.UUID

	Options BuildOptions

	Modules  []ModuleInfo
	Bindings []BindingInfo
	Exports  *ModuleExports

	log *slog.Logger
}

// New creates an empty Workspace. log may be nil, in which case
// slog.Default() is used — matching the teacher's pattern of logging
// through the default logger unless the caller wants a dedicated one.
func New(opts BuildOptions, log *slog.Logger) *Workspace {
	if log == nil {
		log = slog.Default()
	}
	return &Workspace{
		SessionID: uuid.New(),
		Options:   opts,
		Exports:   NewModuleExports(),
		log:       log.With("component", "workspace"),
	}
}

// Log returns the workspace's logger (tagged component=workspace), for
// stages that want to log through it without reaching into the struct
// field directly.
func (w *Workspace) Log() *slog.Logger { return w.log }

// AddModule registers m and returns its stable id.
func (w *Workspace) AddModule(m ModuleInfo) ModuleID {
	id := ModuleID(len(w.Modules))
	w.Modules = append(w.Modules, m)
	w.log.Debug("module registered", "id", id, "path", m.Path)
	return id
}

// GetModule returns the ModuleInfo for id. Ids are never reused or
// invalidated, so this never fails for an id AddModule actually returned.
func (w *Workspace) GetModule(id ModuleID) *ModuleInfo {
	return &w.Modules[id]
}

// AddBinding registers b and returns its stable id.
func (w *Workspace) AddBinding(b BindingInfo) ast.BindingInfoID {
	id := ast.BindingInfoID(len(w.Bindings))
	w.Bindings = append(w.Bindings, b)
	return id
}

// GetBinding returns a read-only pointer to the BindingInfo at id.
func (w *Workspace) GetBinding(id ast.BindingInfoID) *BindingInfo {
	return &w.Bindings[id]
}

// GetBindingMut returns a mutable pointer to the BindingInfo at id, for
// the check stage's in-place type/use-count updates.
func (w *Workspace) GetBindingMut(id ast.BindingInfoID) *BindingInfo {
	return &w.Bindings[id]
}
