package lower

import (
	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/vm"
)

// emitter lowers one function body (or one top-level initializer, which
// is itself wrapped as a zero-argument function) into a single
// vm.CompiledCode. Local scopes are a stack of name->offset maps so a
// nested Block's lets shadow an enclosing scope's without disturbing it.
type emitter struct {
	lc   *LowerContext
	code *vm.CompiledCode

	localScopes []map[ast.BindingInfoID]int
	nextLocal   int
}

func newEmitter(lc *LowerContext) *emitter {
	e := &emitter{lc: lc, code: &vm.CompiledCode{}}
	e.pushScope()
	return e
}

func (e *emitter) pushScope() { e.localScopes = append(e.localScopes, make(map[ast.BindingInfoID]int)) }
func (e *emitter) popScope()  { e.localScopes = e.localScopes[:len(e.localScopes)-1] }

func (e *emitter) declareLocal(id ast.BindingInfoID) int {
	slot := e.nextLocal
	e.nextLocal++
	if e.nextLocal > e.code.Locals {
		e.code.Locals = e.nextLocal
	}
	e.localScopes[len(e.localScopes)-1][id] = slot
	return slot
}

func (e *emitter) lookupLocal(id ast.BindingInfoID) (int, bool) {
	for i := len(e.localScopes) - 1; i >= 0; i-- {
		if slot, ok := e.localScopes[i][id]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (e *emitter) emit(op vm.Op, operand int64) int {
	e.code.Instructions = append(e.code.Instructions, vm.Instruction{Op: op, Operand: operand})
	return len(e.code.Instructions) - 1
}

func (e *emitter) patch(idx int, target int64) {
	e.code.Instructions[idx].Operand = target
}

func (e *emitter) here() int64 { return int64(len(e.code.Instructions)) }

// emitExpr lowers e, leaving its value on top of the operand stack.
func (e *emitter) emitExpr(expr ast.Expr) {
	switch n := expr.(type) {
	case *ast.Literal:
		e.emitLiteral(n)
	case *ast.Ident:
		e.emitIdent(n)
	case *ast.BinaryOp:
		e.emitExpr(n.Left)
		e.emitExpr(n.Right)
		e.emit(binOpcode(n.Op), 0)
	case *ast.UnaryOp:
		e.emitUnary(n)
	case *ast.Block:
		e.emitBlock(n)
	case *ast.If:
		e.emitIf(n)
	case *ast.LetStmt:
		e.emitLet(n)
	case *ast.Call:
		e.emitCall(n)
	case *ast.FuncLit:
		e.emitFuncLit(n)
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			e.emitExpr(el)
		}
		e.emit(vm.OpMakeArray, int64(len(n.Elements)))
	case *ast.TupleLit:
		for _, el := range n.Elements {
			e.emitExpr(el)
		}
		e.emit(vm.OpMakeTuple, int64(len(n.Elements)))
	default:
		// An internal invariant violation: every checked expression form
		// must have a lowering; a new ast.Expr variant that reaches here
		// without one is a compiler bug, not a user-facing diagnostic.
		e.emit(vm.OpPushConst, 0) // Unit, slot 0
	}
}

func (e *emitter) emitLiteral(l *ast.Literal) {
	switch l.Kind {
	case ast.IntLit:
		v := l.Value.(int64)
		slot := e.lc.internConst(constKey{kind: 'i', i: v}, vm.Int{Bits: v, Width: e.lc.globalWidth, Signed: true})
		e.emit(vm.OpPushConst, int64(slot))
	case ast.FloatLit:
		v := l.Value.(float64)
		slot := e.lc.internConst(constKey{kind: 'f', f: v}, vm.Float{Bits: v, Width: 64})
		e.emit(vm.OpPushConst, int64(slot))
	case ast.StringLit:
		v := l.Value.(string)
		slot := e.lc.internConst(constKey{kind: 's', s: v}, vm.Str(v))
		e.emit(vm.OpPushConst, int64(slot))
	case ast.BoolLit:
		v := l.Value.(bool)
		key := constKey{kind: 'b'}
		if v {
			key.i = 1
		}
		slot := e.lc.internConst(key, vm.Bool(v))
		e.emit(vm.OpPushConst, int64(slot))
	default: // UnitLit
		e.emit(vm.OpPushConst, 0)
	}
}

func (e *emitter) emitIdent(id *ast.Ident) {
	if slot, ok := e.lookupLocal(id.BindingInfoID); ok {
		if e.lc.TakePtr {
			e.emit(vm.OpAddrOfLocal, int64(slot))
		} else {
			e.emit(vm.OpPushLocal, int64(slot))
		}
		return
	}
	gslot := e.lc.assignGlobal(id.BindingInfoID)
	if e.lc.TakePtr {
		e.emit(vm.OpAddrOfGlobal, int64(gslot))
	} else {
		e.emit(vm.OpPushGlobal, int64(gslot))
	}
}

func (e *emitter) emitUnary(u *ast.UnaryOp) {
	switch u.Op {
	case "&", "&mut":
		saved := e.lc.TakePtr
		e.lc.TakePtr = true
		e.emitExpr(u.X)
		e.lc.TakePtr = saved
	case "*":
		e.emitExpr(u.X)
		e.emit(vm.OpDeref, 0)
	case "-":
		e.emitExpr(u.X)
		e.emit(vm.OpNeg, 0)
	case "!":
		e.emitExpr(u.X)
		e.emit(vm.OpNot, 0)
	default:
		e.emitExpr(u.X)
	}
}

func (e *emitter) emitBlock(b *ast.Block) {
	e.pushScope()
	defer e.popScope()

	if len(b.Exprs) == 0 {
		e.emit(vm.OpPushConst, 0)
		return
	}
	for i, ex := range b.Exprs {
		e.emitExpr(ex)
		if i != len(b.Exprs)-1 {
			e.emit(vm.OpPop, 0)
		}
	}
}

func (e *emitter) emitIf(i *ast.If) {
	e.emitExpr(i.Cond)
	jmpElse := e.emit(vm.OpJumpIfFalse, -1)
	e.emitExpr(i.Then)
	jmpEnd := e.emit(vm.OpJump, -1)
	e.patch(jmpElse, e.here())
	if i.Else != nil {
		e.emitExpr(i.Else)
	} else {
		e.emit(vm.OpPushConst, 0)
	}
	e.patch(jmpEnd, e.here())
}

func (e *emitter) emitLet(l *ast.LetStmt) {
	if l.Pattern.IsSingle() {
		sym, _ := l.Pattern.AsSingle()
		slot := e.declareLocal(sym.BindingInfoID)
		if l.Value != nil {
			e.emitExpr(l.Value)
			e.emit(vm.OpStoreLocal, int64(slot))
		}
		e.emit(vm.OpPushConst, 0)
		return
	}

	if l.Value != nil {
		e.emitExpr(l.Value)
	} else {
		e.emit(vm.OpPushConst, 0)
	}
	// Unlike lowerDestructorGlobalInit, the value is evaluated only once
	// (the expression may have side effects): it is stored in a synthetic
	// local, and each symbol's field is read back from that local with
	// PushLocal + GetField and stored into the symbol's own slot.
	tmp := e.declareLocal(ast.UnresolvedBindingInfoID)
	e.emit(vm.OpStoreLocal, int64(tmp))
	for i, sym := range l.Pattern.Symbols {
		if sym.Ignore {
			continue
		}
		slot := e.declareLocal(sym.BindingInfoID)
		e.emit(vm.OpPushLocal, int64(tmp))
		e.emit(vm.OpGetField, int64(i))
		e.emit(vm.OpStoreLocal, int64(slot))
	}
	e.emit(vm.OpPushConst, 0)
}

func (e *emitter) emitCall(c *ast.Call) {
	e.emitExpr(c.Callee)
	for _, a := range c.Args {
		e.emitExpr(a.Value)
	}
	e.emit(vm.OpCall, int64(len(c.Args)))
}

func (e *emitter) emitFuncLit(f *ast.FuncLit) {
	fe := newEmitter(e.lc)
	for _, p := range f.Params {
		fe.declareLocal(p.BindingInfoID)
	}
	fe.emitExpr(f.Body)
	fe.emit(vm.OpReturn, 0)

	slot := e.lc.pushConstFunction(&vm.Function{Name: "$lambda", Code: fe.code})
	e.emit(vm.OpPushConst, int64(slot))
}

func binOpcode(op string) vm.Op {
	switch op {
	case "+":
		return vm.OpAdd
	case "-":
		return vm.OpSub
	case "*":
		return vm.OpMul
	case "/":
		return vm.OpDiv
	case "%":
		return vm.OpMod
	case "==":
		return vm.OpEq
	case "!=":
		return vm.OpNeq
	case "<":
		return vm.OpLt
	case "<=":
		return vm.OpLe
	case ">":
		return vm.OpGt
	case ">=":
		return vm.OpGe
	case "&&":
		return vm.OpAnd
	case "||":
		return vm.OpOr
	default:
		return vm.OpAdd
	}
}
