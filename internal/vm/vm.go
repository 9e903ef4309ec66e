package vm

import (
	"fmt"
)

// TrapError is a runtime fault the VM cannot recover from on its own —
// division by zero, an out-of-range index — returned from Run as an error.
// It carries only a message, no source span.
type TrapError struct {
	Message string
}

func (e *TrapError) Error() string { return "trap: " + e.Message }

// frame is one call stack entry: the return address (instruction index
// into the caller's code) and the base pointer into the locals stack the
// callee's PushLocal/StoreLocal offsets are relative to.
type frame struct {
	code       *CompiledCode
	returnAddr int
	basePtr    int
	callerCode *CompiledCode
}

// VM is the classical stack machine of spec §4.8: an operand stack, a call
// stack, a globals vector and a constants vector.
type VM struct {
	Constants []Value
	Globals   []Value

	stack  []Value
	frames []frame
}

// New returns a VM with constants and nGlobals globals slots, all
// zero-initialized to Unit until the globals prologue runs.
func New(constants []Value, nGlobals int) *VM {
	globals := make([]Value, nGlobals)
	for i := range globals {
		globals[i] = Unit{}
	}
	return &VM{Constants: constants, Globals: globals}
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

// Run executes code to completion (a Halt instruction) or until a trap.
// It is the VM's sole public entry point, used for a top-level program
// with no caller-supplied arguments. A Call instruction recurses into
// runFrame through a nested Go call (vm.call), with every frame sharing
// the one operand stack.
func (vm *VM) Run(code *CompiledCode) (Value, error) {
	return vm.runFrame(code, nil)
}

// runFrame establishes a new call frame for code, relative to the stack's
// current length at entry, so whatever lies below it (earlier frames, or
// values a caller left on the stack) is never addressed by this frame's
// local offsets. args, if any, are pushed first (the callee's first len(args)
// locals); the remaining declared locals are padded with Unit{}.
func (vm *VM) runFrame(code *CompiledCode, args []Value) (Value, error) {
	base := len(vm.stack)
	for _, a := range args {
		vm.push(a)
	}
	for i := len(args); i < code.Locals; i++ {
		vm.push(Unit{})
	}
	vm.frames = append(vm.frames, frame{code: code, basePtr: base})

	pc := 0
	for {
		if pc >= len(code.Instructions) {
			return Unit{}, nil
		}
		ins := code.Instructions[pc]
		switch ins.Op {
		case OpHalt:
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.stack) > base {
				return vm.pop(), nil
			}
			return Unit{}, nil

		case OpReturn:
			var ret Value = Unit{}
			if len(vm.stack) > base {
				ret = vm.pop()
			}
			vm.stack = vm.stack[:base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			return ret, nil

		case OpPushConst:
			vm.push(vm.Constants[ins.Operand])
			pc++

		case OpPop:
			vm.pop()
			pc++

		case OpPushGlobal:
			vm.push(vm.Globals[ins.Operand])
			pc++

		case OpStoreGlobal:
			vm.Globals[ins.Operand] = vm.pop()
			pc++

		case OpPushLocal:
			vm.push(vm.stack[base+int(ins.Operand)])
			pc++

		case OpStoreLocal:
			vm.stack[base+int(ins.Operand)] = vm.pop()
			pc++

		case OpJump:
			pc = int(ins.Operand)
			continue

		case OpJumpIfFalse:
			cond := vm.pop()
			if !truthy(cond) {
				pc = int(ins.Operand)
				continue
			}
			pc++

		case OpCall:
			result, err := vm.call(int(ins.Operand))
			if err != nil {
				return Unit{}, err
			}
			vm.push(result)
			pc++

		case OpMakeArray:
			n := int(ins.Operand)
			elems := make([]Value, n)
			copy(elems, vm.stack[len(vm.stack)-n:])
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(&Array{Elems: elems})
			pc++

		case OpMakeTuple:
			n := int(ins.Operand)
			elems := make([]Value, n)
			copy(elems, vm.stack[len(vm.stack)-n:])
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(&Tuple{Elems: elems})
			pc++

		case OpMakeStruct:
			n := int(ins.Operand)
			elems := make([]Value, n)
			copy(elems, vm.stack[len(vm.stack)-n:])
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(&Struct{Fields: elems})
			pc++

		case OpGetField:
			agg := vm.pop()
			v, err := getField(agg, int(ins.Operand))
			if err != nil {
				return Unit{}, err
			}
			vm.push(v)
			pc++

		case OpIndex:
			idx := vm.pop()
			agg := vm.pop()
			v, err := indexInto(agg, idx)
			if err != nil {
				return Unit{}, err
			}
			vm.push(v)
			pc++

		default:
			v, err := vm.execBinaryOrUnary(ins.Op)
			if err != nil {
				return Unit{}, err
			}
			vm.push(v)
			pc++
		}
	}
}

func (vm *VM) call(argc int) (Value, error) {
	calleeIdx := len(vm.stack) - argc - 1
	calleeV := vm.stack[calleeIdx]
	args := make([]Value, argc)
	copy(args, vm.stack[calleeIdx+1:])
	vm.stack = vm.stack[:calleeIdx]

	fn, ok := calleeV.(*Function)
	if !ok {
		return nil, &TrapError{Message: "call target is not a function"}
	}
	if fn.Native != nil {
		return fn.Native(args)
	}
	if fn.Code == nil {
		return nil, &TrapError{Message: fmt.Sprintf("function %q has no body", fn.Name)}
	}

	return vm.runFrame(fn.Code, args)
}

func truthy(v Value) bool {
	if b, ok := v.(Bool); ok {
		return bool(b)
	}
	return false
}

func getField(agg Value, idx int) (Value, error) {
	switch a := agg.(type) {
	case *Tuple:
		if idx < 0 || idx >= len(a.Elems) {
			return nil, &TrapError{Message: "tuple field index out of range"}
		}
		return a.Elems[idx], nil
	case *Struct:
		if idx < 0 || idx >= len(a.Fields) {
			return nil, &TrapError{Message: "struct field index out of range"}
		}
		return a.Fields[idx], nil
	default:
		return nil, &TrapError{Message: "GetField on a non-aggregate value"}
	}
}

func indexInto(agg, idx Value) (Value, error) {
	i, ok := idx.(Int)
	if !ok {
		return nil, &TrapError{Message: "index is not an integer"}
	}
	arr, ok := agg.(*Array)
	if !ok {
		return nil, &TrapError{Message: "Index on a non-array value"}
	}
	if i.Bits < 0 || int(i.Bits) >= len(arr.Elems) {
		return nil, &TrapError{Message: "array index out of range"}
	}
	return arr.Elems[i.Bits], nil
}
