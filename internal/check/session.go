// Package check implements the check session of spec §4.6/§4.7: a
// single-threaded pass over every parsed module that assigns a type to
// every expression of its top-level bindings (top-level `run` expressions
// are not checked), tracks definite-assignment (init) state, and resolves
// calls through the arity/variadic/spread state machine in call.go.
//
// Grounded on the teacher's type-checking session shape (a long-lived
// struct owning the workspace and a substitution store, pushed/popped
// scopes per function), adapted from AILANG's effect/dictionary-aware
// checker down to spec's plain Hindley-Milner-adjacent model: no
// typeclass dictionaries, no row polymorphism, no effect rows.
package check

import (
	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/workspace"
)

// InitState is a local binding's definite-assignment state (spec §4.6).
type InitState int

const (
	NotInit InitState = iota
	Init
)

// CheckFrame is pushed on function entry and popped on exit (spec §4.6).
type CheckFrame struct {
	Depth            int
	LoopDepth        int
	ModuleID         workspace.ModuleID
	ExpectedReturnTy types.Type
	SelfTypes        []types.Type
}

// Session is the check stage's single mutable context (spec §4.6): it owns
// the workspace and type context for the whole compilation and is
// discarded once lowering has consumed its final, normalized types.
type Session struct {
	WS  *workspace.Workspace
	Ctx *types.TyCtx

	sink diag.Sink

	// initScopes mirrors spec's "stack of scopes mapping binding_info_id ->
	// InitState"; a new scope is pushed for the top-level pass and for
	// every function body and nested block.
	initScopes []map[ast.BindingInfoID]InitState

	// lexScopes resolves a bare identifier's textual name to a
	// BindingInfoID: the bottom frame is a module's top-level symbol table
	// (bindings + imports), further frames are function parameters and
	// block-local lets. Lookup scans top-down.
	lexScopes []map[string]ast.BindingInfoID

	frames []*CheckFrame
}

// NewSession returns a Session ready to check files already registered in
// ws (i.e. resolve has run).
func NewSession(ws *workspace.Workspace, ctx *types.TyCtx, sink diag.Sink) *Session {
	return &Session{WS: ws, Ctx: ctx, sink: sink}
}

func (s *Session) emit(d *diag.Diagnostic) { s.sink.Emit(d) }

// --- init-state scopes ---

func (s *Session) pushInitScope() {
	s.initScopes = append(s.initScopes, make(map[ast.BindingInfoID]InitState))
}

func (s *Session) popInitScope() {
	s.initScopes = s.initScopes[:len(s.initScopes)-1]
}

func (s *Session) setInit(id ast.BindingInfoID, state InitState) {
	s.initScopes[len(s.initScopes)-1][id] = state
}

// initStateOf scans from the innermost scope outward; a binding not found
// in any open scope (e.g. a binding from a module that has already
// completed its top-level pass) is treated as Init — only the
// currently-open top-level or function-body scope enforces ordering.
func (s *Session) initStateOf(id ast.BindingInfoID) InitState {
	for i := len(s.initScopes) - 1; i >= 0; i-- {
		if st, ok := s.initScopes[i][id]; ok {
			return st
		}
	}
	return Init
}

// --- lexical name scopes ---

func (s *Session) pushLexScope() {
	s.lexScopes = append(s.lexScopes, make(map[string]ast.BindingInfoID))
}

func (s *Session) popLexScope() {
	s.lexScopes = s.lexScopes[:len(s.lexScopes)-1]
}

func (s *Session) declareLocal(name string, id ast.BindingInfoID) {
	s.lexScopes[len(s.lexScopes)-1][name] = id
}

func (s *Session) lookupName(name string) (ast.BindingInfoID, bool) {
	for i := len(s.lexScopes) - 1; i >= 0; i-- {
		if id, ok := s.lexScopes[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

// --- frames ---

func (s *Session) pushFrame(f *CheckFrame) { s.frames = append(s.frames, f) }
func (s *Session) popFrame()               { s.frames = s.frames[:len(s.frames)-1] }
func (s *Session) frame() *CheckFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}
