package check

import (
	"fmt"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/workspace"
)

// Run executes the full check stage (spec §4.6) over files — already
// parsed and resolved — and returns the diagnostics it raised. Diagnostics
// do not stop the pass: check continues past a failed binding so it can
// report as many errors as possible in one run (spec §7 propagation
// policy).
func Run(ws *workspace.Workspace, ctx *types.TyCtx, sink diag.Sink, files []*ast.Ast) {
	s := NewSession(ws, ctx, sink)
	s.buildModuleScopes(files)

	// Step 1: push the single top-level scope (spec §4.6 step 1).
	s.pushInitScope()

	// Step 2: check every import, then every binding, per Ast, in the
	// order files are given. Imports need no type checking of their own
	// (resolve already validated the reference); only bindings produce
	// init-state and type obligations.
	for _, f := range files {
		s.checkModuleImports(f)
		s.checkModuleBindings(f)
	}

	// Step 3: pop the top-level scope.
	s.popInitScope()

	// Step 4: substitution/defaulting pass over every BindingInfo.
	s.defaultAndSubstituteBindings()
}

// buildModuleScopes seeds one lexical scope shared by all modules: every top-level
// Single binding and every import contributes its local name. This scope
// stays open for the whole top-level pass (and is the outermost scope a
// function literal's body scope chains from), so forward references
// resolve regardless of file order.
func (s *Session) buildModuleScopes(files []*ast.Ast) {
	s.pushLexScope() // one shared scope for simplicity: names are workspace-global by construction (BindingInfoID), so module boundaries don't need separate frames here.
	for _, f := range files {
		for _, b := range f.Bindings {
			b.Pattern.Walk(func(sym *ast.SymbolPattern) {
				if sym.Ignore {
					return
				}
				s.declareLocal(sym.Symbol, sym.BindingInfoID)
			})
		}
		for _, imp := range f.Imports {
			if imp.Symbol == "" {
				continue
			}
			name := imp.Symbol
			if imp.Alias != "" {
				name = imp.Alias
			}
			s.declareLocal(name, imp.BindingInfoID)
		}
	}
}

func (s *Session) checkModuleImports(f *ast.Ast) {
	// Imports carry no expression to check; their BindingInfoID was
	// already validated during resolve. Nothing to do here beyond the
	// scope registration buildModuleScopes already performed — this
	// function exists to mirror spec §4.6 step 2's explicit two-part
	// per-Ast walk ("check every import, then every binding").
	_ = f
}

func (s *Session) checkModuleBindings(f *ast.Ast) {
	frame := &CheckFrame{ModuleID: workspace.ModuleID(f.ModuleID)}
	s.pushFrame(frame)
	defer s.popFrame()

	for _, b := range f.Bindings {
		s.checkTopLevelBinding(b)
	}
}

// checkTopLevelBinding implements the "Binding rules" of spec §4.6 for a
// module-level `let`/`pub let`/`fn` declaration: its BindingInfo slot
// already exists (resolve created it), so checking reuses that id rather
// than allocating a new one.
func (s *Session) checkTopLevelBinding(b *ast.Binding) {
	single, err := b.Pattern.AsSingle()
	if err != nil {
		// A destructuring top-level binding: check the value, then bind
		// each destructured symbol's own (already-registered) slot.
		if b.Value == nil {
			return
		}
		valTy, cerr := s.inferExpr(b.Value)
		if cerr != nil {
			s.emitMismatch(b.Span, cerr)
			return
		}
		s.bindDestructor(b.Pattern, valTy, b.Span)
		return
	}

	info := s.WS.GetBindingMut(single.BindingInfoID)
	if info.Ty == nil {
		info.Ty = s.Ctx.FreshVar()
	}
	expected := info.Ty

	if b.TyAnn != nil {
		annotated := s.resolveTypeExpr(b.TyAnn)
		if err := types.Unify(s.Ctx, expected, annotated); err != nil {
			s.emitMismatch(b.Span, err)
		}
	}

	if b.Value == nil {
		s.setInit(single.BindingInfoID, NotInit)
		return
	}

	valTy, err := s.inferExpr(b.Value)
	if err != nil {
		s.emitMismatch(b.Span, err)
	} else if err := types.Unify(s.Ctx, expected, valTy); err != nil {
		s.emitMismatch(b.Span, err)
	}
	s.setInit(single.BindingInfoID, Init)
}

func (s *Session) emitMismatch(span ast.Span, err error) {
	switch e := err.(type) {
	case *types.OccursError:
		s.emit(diag.New(diag.OccursCheckFailed, span, e.Error()))
	case *types.MismatchError:
		s.emit(diag.New(diag.TypeMismatch, span, e.Error()))
	default:
		s.emit(diag.New(diag.Internal, span, err.Error()))
	}
}

// bindDestructor assigns a type to each symbol of a struct/tuple
// destructor pattern, given the type of the value being destructured.
func (s *Session) bindDestructor(p *ast.Pattern, valTy types.Type, span ast.Span) {
	valTy = types.Normalize(s.Ctx, valTy)
	switch p.Kind {
	case ast.PatternTupleDestructor:
		tup, ok := valTy.(types.TTuple)
		if !ok {
			s.emit(diag.New(diag.TypeMismatch, span, fmt.Sprintf("cannot destructure %s as a tuple", valTy)))
			return
		}
		for i, sym := range p.Symbols {
			if sym.Ignore || i >= len(tup.Elems) {
				continue
			}
			s.bindSymbolTy(sym, tup.Elems[i])
		}
	case ast.PatternStructDestructor:
		st, ok := valTy.(types.TStruct)
		if !ok {
			s.emit(diag.New(diag.TypeMismatch, span, fmt.Sprintf("cannot destructure %s as a struct", valTy)))
			return
		}
		for _, sym := range p.Symbols {
			if sym.Ignore {
				continue
			}
			var fieldTy types.Type
			for _, f := range st.Fields {
				if f.Name == sym.Symbol {
					fieldTy = f.Ty
					break
				}
			}
			if fieldTy == nil {
				s.emit(diag.New(diag.UnresolvedSymbol, sym.Span, fmt.Sprintf("no field %q on %s", sym.Symbol, valTy)))
				continue
			}
			s.bindSymbolTy(sym, fieldTy)
		}
	}
}

func (s *Session) bindSymbolTy(sym *ast.SymbolPattern, ty types.Type) {
	info := s.WS.GetBindingMut(sym.BindingInfoID)
	info.Ty = ty
	s.setInit(sym.BindingInfoID, Init)
}

// defaultAndSubstituteBindings implements spec §4.6 step 4: replace every
// BindingInfo's type with its normalized form, defaulting any
// still-unbound AnyInt/AnyFloat and flagging a still-free Var as
// TypeAnnotationsNeeded.
func (s *Session) defaultAndSubstituteBindings() {
	wordInt := types.TInt{Width: s.WS.Options.TargetWordSize, Signed: true}
	defaultFloat := types.TFloat{Width: 64}
	if s.WS.Options.TargetWordSize == 32 {
		defaultFloat = types.TFloat{Width: 32}
	}

	for i := range s.WS.Bindings {
		info := s.WS.GetBindingMut(ast.BindingInfoID(i))
		if info.Ty == nil {
			continue
		}
		info.Ty = s.defaultType(info.Ty, info.Span, wordInt, defaultFloat)
	}
}

// defaultType normalizes ty and then recurses into every composite variant
// exactly as Normalize/Occurs (internal/types/unify.go) do, so a still-open
// AnyInt/AnyFloat or free TVar nested anywhere inside a composite type (an
// array element, a tuple slot, a function parameter or return, a struct
// field) is defaulted or flagged, not just one at the outermost level.
func (s *Session) defaultType(ty types.Type, span ast.Span, wordInt types.TInt, defaultFloat types.TFloat) types.Type {
	norm := types.Normalize(s.Ctx, ty)
	switch t := norm.(type) {
	case types.AnyInt:
		return wordInt
	case types.AnyFloat:
		return defaultFloat
	case types.TVar:
		s.emit(diag.New(diag.TypeAnnotationsNeeded, span, fmt.Sprintf("type annotations needed for %s", norm)))
		return norm
	case types.TPointer:
		return types.TPointer{Elem: s.defaultType(t.Elem, span, wordInt, defaultFloat), Mut: t.Mut}
	case types.TMultiPointer:
		return types.TMultiPointer{Elem: s.defaultType(t.Elem, span, wordInt, defaultFloat), Mut: t.Mut}
	case types.TSlice:
		return types.TSlice{Elem: s.defaultType(t.Elem, span, wordInt, defaultFloat), Mut: t.Mut}
	case types.TArray:
		return types.TArray{Elem: s.defaultType(t.Elem, span, wordInt, defaultFloat), N: t.N}
	case types.TTuple:
		elems := make([]types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.defaultType(e, span, wordInt, defaultFloat)
		}
		return types.TTuple{Elems: elems}
	case types.TFn:
		params := make([]types.FnParam, len(t.Params))
		for i, p := range t.Params {
			params[i] = types.FnParam{Name: p.Name, Ty: s.defaultType(p.Ty, span, wordInt, defaultFloat)}
		}
		return types.TFn{Params: params, Variadic: t.Variadic, Ret: s.defaultType(t.Ret, span, wordInt, defaultFloat)}
	case types.TStruct:
		fields := make([]types.StructField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = types.StructField{Name: f.Name, Ty: s.defaultType(f.Ty, span, wordInt, defaultFloat), Offset: f.Offset}
		}
		return types.TStruct{BindingID: t.BindingID, Kind: t.Kind, Fields: fields}
	case types.TType:
		return types.TType{Inner: s.defaultType(t.Inner, span, wordInt, defaultFloat)}
	default:
		return norm
	}
}
