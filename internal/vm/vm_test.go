package vm

import "testing"

func TestArithmeticPushConstAdd(t *testing.T) {
	constants := []Value{
		Int{Bits: 2, Width: 64, Signed: true},
		Int{Bits: 3, Width: 64, Signed: true},
	}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0},
		{Op: OpPushConst, Operand: 1},
		{Op: OpAdd},
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, ok := v.(Int)
	if !ok || got.Bits != 5 {
		t.Errorf("Run() = %v, want Int(5)", v)
	}
}

func TestDivisionByZeroTraps(t *testing.T) {
	constants := []Value{
		Int{Bits: 1, Width: 64, Signed: true},
		Int{Bits: 0, Width: 64, Signed: true},
	}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0},
		{Op: OpPushConst, Operand: 1},
		{Op: OpDiv},
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	_, err := machine.Run(code)
	if err == nil {
		t.Fatal("Run() error = nil, want a trap")
	}
	if _, ok := err.(*TrapError); !ok {
		t.Errorf("Run() error type = %T, want *TrapError", err)
	}
}

func TestSignedOverflowWrapsModular(t *testing.T) {
	constants := []Value{
		Int{Bits: 127, Width: 8, Signed: true},
		Int{Bits: 1, Width: 8, Signed: true},
	}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0},
		{Op: OpPushConst, Operand: 1},
		{Op: OpAdd},
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := v.(Int)
	if got.Bits != -128 {
		t.Errorf("signed int8 overflow: got %d, want -128", got.Bits)
	}
}

func TestUnsignedOverflowWraps(t *testing.T) {
	constants := []Value{
		Int{Bits: 255, Width: 8, Signed: false},
		Int{Bits: 1, Width: 8, Signed: false},
	}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0},
		{Op: OpPushConst, Operand: 1},
		{Op: OpAdd},
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := v.(Int)
	if got.Bits != 0 {
		t.Errorf("unsigned uint8 overflow: got %d, want 0", got.Bits)
	}
}

func TestGlobalsStoreAndLoad(t *testing.T) {
	constants := []Value{Int{Bits: 42, Width: 64, Signed: true}}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0},
		{Op: OpStoreGlobal, Operand: 0},
		{Op: OpPushGlobal, Operand: 0},
		{Op: OpHalt},
	}}

	machine := New(constants, 1)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := v.(Int).Bits; got != 42 {
		t.Errorf("Run() = %d, want 42", got)
	}
}

func TestCallNativeFunction(t *testing.T) {
	native := &Function{
		Name: "double",
		Native: func(args []Value) (Value, error) {
			x := args[0].(Int)
			return Int{Bits: x.Bits * 2, Width: x.Width, Signed: x.Signed}, nil
		},
	}
	constants := []Value{native, Int{Bits: 21, Width: 64, Signed: true}}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0},
		{Op: OpPushConst, Operand: 1},
		{Op: OpCall, Operand: 1},
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := v.(Int).Bits; got != 42 {
		t.Errorf("Run() = %d, want 42", got)
	}
}

// TestCallBytecodeFunctionWithResidueOnStack reproduces a call into a real
// (non-native) compiled function whose caller already left an unrelated
// value on the shared operand stack — e.g. a globals-prologue Call(0)
// result nobody popped. basePtr for the callee's frame must be computed
// from the stack length at the moment its own args are pushed, not
// inclusive of that residue, or PushLocal resolves against the wrong slot.
func TestCallBytecodeFunctionWithResidueOnStack(t *testing.T) {
	fn := &Function{
		Name: "identity",
		Code: &CompiledCode{
			Locals: 1,
			Instructions: []Instruction{
				{Op: OpPushLocal, Operand: 0},
				{Op: OpReturn},
			},
		},
	}
	constants := []Value{
		Int{Bits: 7, Width: 64, Signed: true}, // leftover residue, deliberately left unpopped
		fn,
		Int{Bits: 99, Width: 64, Signed: true}, // the call's sole argument
	}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0}, // leftover
		{Op: OpPushConst, Operand: 1}, // fn
		{Op: OpPushConst, Operand: 2}, // arg
		{Op: OpCall, Operand: 1},
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, ok := v.(Int)
	if !ok || got.Bits != 99 {
		t.Errorf("Run() = %v, want Int(99) (the argument, not a stale local slot)", v)
	}
}

func TestJumpIfFalseSkipsBranch(t *testing.T) {
	constants := []Value{
		Bool(false),
		Int{Bits: 1, Width: 64, Signed: true},
		Int{Bits: 2, Width: 64, Signed: true},
	}
	code := &CompiledCode{Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0}, // false
		{Op: OpJumpIfFalse, Operand: 5},
		{Op: OpPushConst, Operand: 1}, // then-branch: 1
		{Op: OpJump, Operand: 6},
		{Op: OpHalt},                  // unreachable padding
		{Op: OpPushConst, Operand: 2}, // else-branch: 2
		{Op: OpHalt},
	}}

	machine := New(constants, 0)
	v, err := machine.Run(code)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := v.(Int).Bits; got != 2 {
		t.Errorf("Run() = %d, want 2 (else branch)", got)
	}
}
