package check

import (
	"fmt"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/workspace"
)

// inferExpr computes a bottom-up type for e, unifying sub-expressions as
// it goes (spec §4.6 binding rules, generalized to every expression form).
func (s *Session) inferExpr(e ast.Expr) (types.Type, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return s.inferLiteral(n), nil

	case *ast.Ident:
		return s.inferIdent(n)

	case *ast.BinaryOp:
		return s.inferBinaryOp(n)

	case *ast.UnaryOp:
		return s.inferUnaryOp(n)

	case *ast.Block:
		return s.inferBlock(n)

	case *ast.If:
		return s.inferIf(n)

	case *ast.LetStmt:
		return s.inferLetStmt(n)

	case *ast.Call:
		return s.checkCall(n)

	case *ast.FuncLit:
		return s.inferFuncLit(n)

	case *ast.ArrayLit:
		return s.inferArrayLit(n)

	case *ast.TupleLit:
		return s.inferTupleLit(n)

	default:
		return nil, fmt.Errorf("check: unhandled expression node %T", e)
	}
}

func (s *Session) inferLiteral(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.IntLit:
		return s.Ctx.FreshAnyInt()
	case ast.FloatLit:
		return s.Ctx.FreshAnyFloat()
	case ast.StringLit:
		return types.TString{}
	case ast.BoolLit:
		return types.TBool{}
	case ast.UnitLit:
		return types.TUnit{}
	default:
		return types.TNever{}
	}
}

func (s *Session) inferIdent(id *ast.Ident) (types.Type, error) {
	binID := id.BindingInfoID
	if binID == ast.UnresolvedBindingInfoID {
		if local, ok := s.lookupName(id.Name); ok {
			binID = local
		} else {
			s.emit(diag.New(diag.UnresolvedSymbol, id.Span, fmt.Sprintf("unresolved symbol %q", id.Name)))
			return types.TNever{}, nil
		}
		id.BindingInfoID = binID
	}

	if s.initStateOf(binID) == NotInit {
		s.emit(diag.New(diag.UseBeforeInit, id.Span, fmt.Sprintf("%q used before it is initialized", id.Name)))
	}

	info := s.WS.GetBindingMut(binID)
	info.UseCount++
	if info.Ty == nil {
		info.Ty = s.Ctx.FreshVar()
	}
	return info.Ty, nil
}

func (s *Session) inferBinaryOp(b *ast.BinaryOp) (types.Type, error) {
	lt, err := s.inferExpr(b.Left)
	if err != nil {
		return nil, err
	}
	rt, err := s.inferExpr(b.Right)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		if err := types.Unify(s.Ctx, lt, rt); err != nil {
			return nil, err
		}
		return types.TBool{}, nil
	case "&&", "||":
		if err := types.Unify(s.Ctx, lt, types.TBool{}); err != nil {
			return nil, err
		}
		if err := types.Unify(s.Ctx, rt, types.TBool{}); err != nil {
			return nil, err
		}
		return types.TBool{}, nil
	default: // +, -, *, /, % and friends
		if err := types.Unify(s.Ctx, lt, rt); err != nil {
			return nil, err
		}
		return lt, nil
	}
}

func (s *Session) inferUnaryOp(u *ast.UnaryOp) (types.Type, error) {
	xt, err := s.inferExpr(u.X)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case "-":
		return xt, nil
	case "!":
		if err := types.Unify(s.Ctx, xt, types.TBool{}); err != nil {
			return nil, err
		}
		return types.TBool{}, nil
	case "&":
		return types.TPointer{Elem: xt, Mut: false}, nil
	case "&mut":
		return types.TPointer{Elem: xt, Mut: true}, nil
	case "*":
		if pt, ok := types.Normalize(s.Ctx, xt).(types.TPointer); ok {
			return pt.Elem, nil
		}
		if mt, ok := types.Normalize(s.Ctx, xt).(types.TMultiPointer); ok {
			return mt.Elem, nil
		}
		return nil, &types.MismatchError{Expected: types.TPointer{Elem: xt}, Found: xt}
	default:
		return xt, nil
	}
}

func (s *Session) inferBlock(b *ast.Block) (types.Type, error) {
	s.pushLexScope()
	s.pushInitScope()
	defer s.popLexScope()
	defer s.popInitScope()

	var last types.Type = types.TUnit{}
	for _, e := range b.Exprs {
		ty, err := s.inferExpr(e)
		if err != nil {
			return nil, err
		}
		last = ty
	}
	return last, nil
}

func (s *Session) inferIf(i *ast.If) (types.Type, error) {
	condTy, err := s.inferExpr(i.Cond)
	if err != nil {
		return nil, err
	}
	if err := types.Unify(s.Ctx, condTy, types.TBool{}); err != nil {
		return nil, err
	}

	thenTy, err := s.inferExpr(i.Then)
	if err != nil {
		return nil, err
	}
	if i.Else == nil {
		return types.TUnit{}, nil
	}
	elseTy, err := s.inferExpr(i.Else)
	if err != nil {
		return nil, err
	}
	if err := types.Unify(s.Ctx, thenTy, elseTy); err != nil {
		return nil, err
	}
	return thenTy, nil
}

// inferLetStmt implements spec §4.6's binding rule for a block-local `let`:
// a fresh BindingInfo is registered in the workspace (the only storage for
// any introduced name, local or top-level), a fresh type var allocated (or
// reused from an annotation), the initializer checked against it, and the
// symbol marked Init (or NotInit if uninitialized).
func (s *Session) inferLetStmt(l *ast.LetStmt) (types.Type, error) {
	if l.Pattern.IsSingle() {
		sym, _ := l.Pattern.AsSingle()
		expected := s.Ctx.FreshVar()
		if l.TyAnn != nil {
			expected = s.resolveTypeExpr(l.TyAnn)
		}

		id := s.addLocalBinding(sym, expected)
		sym.BindingInfoID = id
		if !sym.Ignore {
			s.declareLocal(sym.Symbol, id)
		}

		if l.Value == nil {
			s.setInit(id, NotInit)
			return types.TUnit{}, nil
		}
		valTy, err := s.inferExpr(l.Value)
		if err != nil {
			return nil, err
		}
		if err := types.Unify(s.Ctx, expected, valTy); err != nil {
			return nil, err
		}
		s.setInit(id, Init)
		return types.TUnit{}, nil
	}

	// Destructor: register each symbol first so later references resolve,
	// then infer the value's type and bind field/element types.
	l.Pattern.WalkMut(func(sym *ast.SymbolPattern) {
		if sym.Ignore {
			return
		}
		id := s.addLocalBinding(sym, nil)
		sym.BindingInfoID = id
		s.declareLocal(localName(sym), id)
	})
	if l.Value == nil {
		return types.TUnit{}, nil
	}
	valTy, err := s.inferExpr(l.Value)
	if err != nil {
		return nil, err
	}
	s.bindDestructor(l.Pattern, valTy, l.Span)
	return types.TUnit{}, nil
}

func localName(sym *ast.SymbolPattern) string {
	if sym.Alias != "" {
		return sym.Alias
	}
	return sym.Symbol
}

// addLocalBinding registers a block-local or parameter name as a
// BindingInfo row — the only storage for any introduced name, local or
// top-level (spec §4.2) — attributed to the module of the innermost
// open frame.
func (s *Session) addLocalBinding(sym *ast.SymbolPattern, ty types.Type) ast.BindingInfoID {
	return s.WS.AddBinding(workspace.BindingInfo{
		Symbol:     sym.Symbol,
		Alias:      sym.Alias,
		ModuleID:   workspace.ModuleID(workspaceModuleID(s.frame())),
		Span:       sym.Span,
		Mutable:    sym.Mutable,
		Ty:         ty,
		Visibility: ast.Private,
	})
}

func (s *Session) inferFuncLit(f *ast.FuncLit) (types.Type, error) {
	s.pushLexScope()
	s.pushInitScope()
	defer s.popLexScope()
	defer s.popInitScope()

	params := make([]types.FnParam, 0, len(f.Params))
	for _, p := range f.Params {
		var pty types.Type
		if p.TyAnn != nil {
			pty = s.resolveTypeExpr(p.TyAnn)
		} else {
			pty = s.Ctx.FreshVar()
		}
		id := s.WS.AddBinding(workspace.BindingInfo{
			Symbol:     p.Name,
			ModuleID:   workspace.ModuleID(workspaceModuleID(s.frame())),
			Span:       p.Span,
			Ty:         pty,
			Visibility: ast.Private,
		})
		p.BindingInfoID = id
		s.declareLocal(p.Name, id)
		s.setInit(id, Init)
		params = append(params, types.FnParam{Name: p.Name, Ty: pty})
	}

	var retTy types.Type = s.Ctx.FreshVar()
	if f.RetTyAnn != nil {
		retTy = s.resolveTypeExpr(f.RetTyAnn)
	}

	frame := &CheckFrame{ExpectedReturnTy: retTy}
	if parent := s.frame(); parent != nil {
		frame.Depth = parent.Depth + 1
		frame.ModuleID = parent.ModuleID
	}
	s.pushFrame(frame)
	bodyTy, err := s.inferExpr(f.Body)
	s.popFrame()
	if err != nil {
		return nil, err
	}
	if err := types.Unify(s.Ctx, retTy, bodyTy); err != nil {
		return nil, err
	}

	return types.TFn{Params: params, Variadic: f.Variadic, Ret: retTy}, nil
}

func (s *Session) inferArrayLit(a *ast.ArrayLit) (types.Type, error) {
	elemTy := s.Ctx.FreshVar()
	for _, e := range a.Elements {
		ty, err := s.inferExpr(e)
		if err != nil {
			return nil, err
		}
		if err := types.Unify(s.Ctx, elemTy, ty); err != nil {
			return nil, err
		}
	}
	return types.TArray{Elem: elemTy, N: len(a.Elements)}, nil
}

func (s *Session) inferTupleLit(t *ast.TupleLit) (types.Type, error) {
	elems := make([]types.Type, len(t.Elements))
	for i, e := range t.Elements {
		ty, err := s.inferExpr(e)
		if err != nil {
			return nil, err
		}
		elems[i] = ty
	}
	return types.TTuple{Elems: elems}, nil
}

// resolveTypeExpr turns a surface TypeExpr into a checked types.Type. It
// never fails: an unrecognized named type becomes a fresh, unconstrained
// TVar rather than aborting the whole check pass, since a typo there
// should surface as a later UnresolvedSymbol at the point of use, not stop
// checking entirely.
func (s *Session) resolveTypeExpr(te ast.TypeExpr) types.Type {
	switch t := te.(type) {
	case *ast.NamedType:
		if ty, ok := namedType(t.Name, s.WS.Options.TargetWordSize); ok {
			return ty
		}
		// A user-defined nominal type name: resolved elsewhere via its own
		// struct binding. A typo surfaces as UnresolvedSymbol at the point
		// of use rather than aborting the whole check pass here.
		return s.Ctx.FreshVar()
	case *ast.PointerType:
		elem := s.resolveTypeExpr(t.Elem)
		if t.Multi {
			return types.TMultiPointer{Elem: elem, Mut: t.Mut}
		}
		return types.TPointer{Elem: elem, Mut: t.Mut}
	case *ast.SliceType:
		return types.TSlice{Elem: s.resolveTypeExpr(t.Elem), Mut: t.Mut}
	case *ast.ArrayType:
		return types.TArray{Elem: s.resolveTypeExpr(t.Elem), N: t.Size}
	case *ast.TupleType:
		elems := make([]types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.resolveTypeExpr(e)
		}
		return types.TTuple{Elems: elems}
	case *ast.FnType:
		params := make([]types.FnParam, len(t.Params))
		for i, p := range t.Params {
			params[i] = types.FnParam{Name: p.Name, Ty: s.resolveTypeExpr(p.Ty)}
		}
		return types.TFn{Params: params, Variadic: t.Variadic, Ret: s.resolveTypeExpr(t.Ret)}
	default:
		return s.Ctx.FreshVar()
	}
}

func namedType(name string, wordSize int) (types.Type, bool) {
	switch name {
	case "unit":
		return types.TUnit{}, true
	case "bool":
		return types.TBool{}, true
	case "string":
		return types.TString{}, true
	case "never":
		return types.TNever{}, true
	case "int":
		return types.TInt{Width: wordSize, Signed: true}, true
	case "uint":
		return types.TInt{Width: wordSize, Signed: false}, true
	case "int8":
		return types.TInt{Width: 8, Signed: true}, true
	case "int16":
		return types.TInt{Width: 16, Signed: true}, true
	case "int32":
		return types.TInt{Width: 32, Signed: true}, true
	case "int64":
		return types.TInt{Width: 64, Signed: true}, true
	case "uint8":
		return types.TInt{Width: 8, Signed: false}, true
	case "uint16":
		return types.TInt{Width: 16, Signed: false}, true
	case "uint32":
		return types.TInt{Width: 32, Signed: false}, true
	case "uint64":
		return types.TInt{Width: 64, Signed: false}, true
	case "float32":
		return types.TFloat{Width: 32}, true
	case "float64":
		return types.TFloat{Width: 64}, true
	default:
		return nil, false
	}
}

func workspaceModuleID(frame *CheckFrame) int {
	if frame == nil {
		return 0
	}
	return int(frame.ModuleID)
}
