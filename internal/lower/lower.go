// Package lower implements spec §4.8's lowering stage: walking checked
// AST into the vm package's flat bytecode, building the constants pool
// (slot 0 always Unit), assigning dense global slots, and assembling the
// globals-initialization prologue. Top-level `run` expressions are not
// lowered: the start function is the prologue followed by a Halt.
//
// Grounded on the teacher's own lowering pass shape (a context struct
// threaded through a recursive emit function, one CompiledCode per
// function), reduced from AILANG's ANF-elaborated, dictionary-passing
// lowering down to spec's direct AST-to-bytecode walk — there is no ANF
// normalization step here, since the instruction set spec names operates
// directly on the existing expression tree.
package lower

import (
	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/vm"
	"github.com/chili-lang/chili/internal/workspace"
)

// LowerContext carries the state threaded through one lowering run (spec
// §4.8: "LowerContext{take_ptr}"). TakePtr is set while emitting the
// operand of `&`/`&mut`, so Ident lowering knows to emit an address-of
// instruction instead of a value load.
type LowerContext struct {
	TakePtr bool

	ws  *workspace.Workspace
	ctx *types.TyCtx

	constants []vm.Value
	constSlot map[constKey]int

	globalSlot   map[ast.BindingInfoID]int
	globalOrder  []ast.BindingInfoID
	globalWidth  int
}

type constKey struct {
	kind byte
	i    int64
	f    float64
	s    string
}

// Result is everything the VM needs to start running: the start
// function's own code (the prologue followed by a Halt), the shared
// constants pool, and the number of global slots to allocate.
type Result struct {
	Start     *vm.CompiledCode
	Constants []vm.Value
	NGlobals  int
}

// Run lowers every top-level binding across files into a globals-init
// prologue, per spec §4.8's "Globals prologue": each compile-time
// evaluable binding becomes a zero-argument Function constant, chained as
// PushConst(fn_slot); Call(0) in insertion (registration) order.
func Run(ws *workspace.Workspace, ctx *types.TyCtx, files []*ast.Ast) *Result {
	lc := &LowerContext{
		ws:          ws,
		ctx:         ctx,
		constSlot:   make(map[constKey]int),
		globalSlot:  make(map[ast.BindingInfoID]int),
		globalWidth: ws.Options.TargetWordSize,
	}
	lc.pushConstUnit()

	// Assign a dense global slot to every top-level symbol before
	// lowering any initializer, so forward references within the same
	// pass resolve.
	for _, f := range files {
		for _, b := range f.Bindings {
			b.Pattern.Walk(func(sym *ast.SymbolPattern) {
				if sym.Ignore {
					return
				}
				lc.assignGlobal(sym.BindingInfoID)
			})
		}
	}

	prologue := &vm.CompiledCode{}
	for _, f := range files {
		for _, b := range f.Bindings {
			if b.Value == nil {
				continue
			}
			lc.lowerGlobalInit(b, prologue)
		}
	}
	prologue.Instructions = append(prologue.Instructions, vm.Instruction{Op: vm.OpHalt})

	return &Result{Start: prologue, Constants: lc.constants, NGlobals: len(lc.globalOrder)}
}

func (lc *LowerContext) assignGlobal(id ast.BindingInfoID) int {
	if slot, ok := lc.globalSlot[id]; ok {
		return slot
	}
	slot := len(lc.globalOrder)
	lc.globalSlot[id] = slot
	lc.globalOrder = append(lc.globalOrder, id)
	return slot
}

// lowerGlobalInit compiles one top-level binding's initializer into its
// own CompiledCode — a zero-argument function that evaluates the value
// and stores it into the binding's global slot — wraps it as a Function
// constant, and appends the PushConst(fn_slot); Call(0) pair spec §4.8
// names to prologue.
func (lc *LowerContext) lowerGlobalInit(b *ast.Binding, prologue *vm.CompiledCode) {
	single, err := b.Pattern.AsSingle()
	if err != nil {
		// A destructuring top-level binding: each bound symbol gets its
		// own init function, which re-evaluates the value and stores the
		// symbol's field into its slot.
		lc.lowerDestructorGlobalInit(b, prologue)
		return
	}

	e := newEmitter(lc)
	e.emitExpr(b.Value)
	slot := lc.assignGlobal(single.BindingInfoID)
	e.code.Instructions = append(e.code.Instructions, vm.Instruction{Op: vm.OpStoreGlobal, Operand: int64(slot)})
	e.code.Instructions = append(e.code.Instructions, vm.Instruction{Op: vm.OpReturn})

	fnSlot := lc.pushConstFunction(&vm.Function{Name: single.Symbol, Code: e.code})
	prologue.Instructions = append(prologue.Instructions,
		vm.Instruction{Op: vm.OpPushConst, Operand: int64(fnSlot)},
		vm.Instruction{Op: vm.OpCall, Operand: 0},
	)
}

// lowerDestructorGlobalInit re-evaluates the destructured value once per
// bound symbol rather than threading a stack-duplication instruction
// through GetField — simpler than a dup opcode, at the cost of
// re-running the initializer expression N times for an N-way destructor.
// Top-level destructuring bindings are rare enough (spec §9 open question
// 2 already excludes them from exports) that this tradeoff is acceptable.
func (lc *LowerContext) lowerDestructorGlobalInit(b *ast.Binding, prologue *vm.CompiledCode) {
	for i, sym := range b.Pattern.Symbols {
		if sym.Ignore {
			continue
		}
		e := newEmitter(lc)
		e.emitExpr(b.Value)
		e.code.Instructions = append(e.code.Instructions, vm.Instruction{Op: vm.OpGetField, Operand: int64(i)})
		slot := lc.assignGlobal(sym.BindingInfoID)
		e.code.Instructions = append(e.code.Instructions, vm.Instruction{Op: vm.OpStoreGlobal, Operand: int64(slot)})
		e.code.Instructions = append(e.code.Instructions, vm.Instruction{Op: vm.OpReturn})

		fnSlot := lc.pushConstFunction(&vm.Function{Name: "$destructor_init", Code: e.code})
		prologue.Instructions = append(prologue.Instructions,
			vm.Instruction{Op: vm.OpPushConst, Operand: int64(fnSlot)},
			vm.Instruction{Op: vm.OpCall, Operand: 0},
		)
	}
}

func (lc *LowerContext) pushConstUnit() int {
	return lc.internConst(constKey{kind: 'u'}, vm.Unit{})
}

func (lc *LowerContext) pushConstFunction(fn *vm.Function) int {
	lc.constants = append(lc.constants, fn)
	return len(lc.constants) - 1
}

func (lc *LowerContext) internConst(key constKey, v vm.Value) int {
	if slot, ok := lc.constSlot[key]; ok {
		return slot
	}
	slot := len(lc.constants)
	lc.constants = append(lc.constants, v)
	lc.constSlot[key] = slot
	return slot
}
