package vm

// execBinaryOrUnary pops the operands an arithmetic/logical/comparison
// opcode needs off the stack and returns its result (spec §4.8): division
// by zero traps; unsigned overflow wraps; signed overflow is defined
// modular, matching two's-complement target semantics — both follow
// naturally from doing the arithmetic in Go's own wrapping int64 and
// re-masking to the value's declared width.
func (vm *VM) execBinaryOrUnary(op Op) (Value, error) {
	switch op {
	case OpNeg:
		x := vm.pop()
		switch v := x.(type) {
		case Int:
			return maskInt(Int{Bits: -v.Bits, Width: v.Width, Signed: v.Signed}), nil
		case Float:
			return Float{Bits: -v.Bits, Width: v.Width}, nil
		}
		return nil, &TrapError{Message: "Neg on a non-numeric value"}

	case OpNot:
		x := vm.pop()
		b, ok := x.(Bool)
		if !ok {
			return nil, &TrapError{Message: "Not on a non-bool value"}
		}
		return Bool(!bool(b)), nil
	}

	b := vm.pop()
	a := vm.pop()

	switch op {
	case OpAdd:
		return numericBinOp(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
	case OpSub:
		return numericBinOp(a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
	case OpMul:
		return numericBinOp(a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
	case OpDiv:
		return divOp(a, b)
	case OpMod:
		return modOp(a, b)
	case OpEq:
		return Bool(valuesEqual(a, b)), nil
	case OpNeq:
		return Bool(!valuesEqual(a, b)), nil
	case OpLt:
		return compareOp(a, b, func(c int) bool { return c < 0 })
	case OpLe:
		return compareOp(a, b, func(c int) bool { return c <= 0 })
	case OpGt:
		return compareOp(a, b, func(c int) bool { return c > 0 })
	case OpGe:
		return compareOp(a, b, func(c int) bool { return c >= 0 })
	case OpAnd:
		ab, aok := a.(Bool)
		bb, bok := b.(Bool)
		if !aok || !bok {
			return nil, &TrapError{Message: "And on non-bool operands"}
		}
		return Bool(bool(ab) && bool(bb)), nil
	case OpOr:
		ab, aok := a.(Bool)
		bb, bok := b.(Bool)
		if !aok || !bok {
			return nil, &TrapError{Message: "Or on non-bool operands"}
		}
		return Bool(bool(ab) || bool(bb)), nil
	default:
		return nil, &TrapError{Message: "unrecognized opcode"}
	}
}

func maskInt(v Int) Int {
	if v.Width <= 0 || v.Width >= 64 {
		return v
	}
	mask := int64(1)<<uint(v.Width) - 1
	bits := v.Bits & mask
	if v.Signed {
		signBit := int64(1) << uint(v.Width-1)
		if bits&signBit != 0 {
			bits |= ^mask
		}
	}
	return Int{Bits: bits, Width: v.Width, Signed: v.Signed}
}

func numericBinOp(a, b Value, iop func(x, y int64) int64, fop func(x, y float64) float64) (Value, error) {
	if ai, ok := a.(Int); ok {
		if bi, ok := b.(Int); ok {
			return maskInt(Int{Bits: iop(ai.Bits, bi.Bits), Width: ai.Width, Signed: ai.Signed}), nil
		}
	}
	if af, ok := a.(Float); ok {
		if bf, ok := b.(Float); ok {
			return Float{Bits: fop(af.Bits, bf.Bits), Width: af.Width}, nil
		}
	}
	return nil, &TrapError{Message: "arithmetic on mismatched or non-numeric operand types"}
}

func divOp(a, b Value) (Value, error) {
	if ai, ok := a.(Int); ok {
		bi, ok := b.(Int)
		if !ok {
			return nil, &TrapError{Message: "division on mismatched operand types"}
		}
		if bi.Bits == 0 {
			return nil, &TrapError{Message: "division by zero"}
		}
		return maskInt(Int{Bits: ai.Bits / bi.Bits, Width: ai.Width, Signed: ai.Signed}), nil
	}
	if af, ok := a.(Float); ok {
		bf, ok := b.(Float)
		if !ok {
			return nil, &TrapError{Message: "division on mismatched operand types"}
		}
		return Float{Bits: af.Bits / bf.Bits, Width: af.Width}, nil
	}
	return nil, &TrapError{Message: "division on non-numeric operands"}
}

func modOp(a, b Value) (Value, error) {
	ai, aok := a.(Int)
	bi, bok := b.(Int)
	if !aok || !bok {
		return nil, &TrapError{Message: "modulo on non-integer operands"}
	}
	if bi.Bits == 0 {
		return nil, &TrapError{Message: "modulo by zero"}
	}
	return maskInt(Int{Bits: ai.Bits % bi.Bits, Width: ai.Width, Signed: ai.Signed}), nil
}

func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av.Bits == bv.Bits
	case Float:
		bv, ok := b.(Float)
		return ok && av.Bits == bv.Bits
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Unit:
		_, ok := b.(Unit)
		return ok
	default:
		return false
	}
}

func compareOp(a, b Value, pred func(int) bool) (Value, error) {
	if ai, ok := a.(Int); ok {
		bi, ok := b.(Int)
		if !ok {
			return nil, &TrapError{Message: "comparison on mismatched operand types"}
		}
		switch {
		case ai.Bits < bi.Bits:
			return Bool(pred(-1)), nil
		case ai.Bits > bi.Bits:
			return Bool(pred(1)), nil
		default:
			return Bool(pred(0)), nil
		}
	}
	if af, ok := a.(Float); ok {
		bf, ok := b.(Float)
		if !ok {
			return nil, &TrapError{Message: "comparison on mismatched operand types"}
		}
		switch {
		case af.Bits < bf.Bits:
			return Bool(pred(-1)), nil
		case af.Bits > bf.Bits:
			return Bool(pred(1)), nil
		default:
			return Bool(pred(0)), nil
		}
	}
	if as, ok := a.(Str); ok {
		bs, ok := b.(Str)
		if !ok {
			return nil, &TrapError{Message: "comparison on mismatched operand types"}
		}
		switch {
		case as < bs:
			return Bool(pred(-1)), nil
		case as > bs:
			return Bool(pred(1)), nil
		default:
			return Bool(pred(0)), nil
		}
	}
	return nil, &TrapError{Message: "comparison on non-comparable operands"}
}
