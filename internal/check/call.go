package check

import (
	"fmt"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/types"
)

// varargsState is the variadic-argument sub-state-machine of spec §4.7.
type varargsKind int

const (
	varargsEmpty varargsKind = iota
	varargsIndividual
	varargsSpread
)

type varargsState struct {
	kind       varargsKind
	individual []ast.Expr // collected in order, only meaningful when kind == varargsIndividual
	spread     ast.Expr   // only meaningful when kind == varargsSpread
	spreadTy   types.Type // only meaningful when kind == varargsSpread
}

// checkCall implements spec §4.7's full arity/variadic/spread algorithm.
// It is grounded on the same shape as the rest of check's expression
// inference (bottom-up, unify-as-you-go) but is kept in its own file
// because the state machine it drives — the @caller_location offset,
// individual-vs-spread vararg collection, the missing-argument check, and the final
// compile-time-value rejection pass — is substantial enough to want its
// own home, matching how the original source keeps call checking in its
// own module (original_source/src/check/call.rs; see SPEC_FULL.md §D).
func (s *Session) checkCall(call *ast.Call) (types.Type, error) {
	calleeTy, err := s.inferExpr(call.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := types.Normalize(s.Ctx, calleeTy).(types.TFn)
	if !ok {
		s.emit(diag.New(diag.TypeMismatch, call.Span, fmt.Sprintf("cannot call non-function type %s", calleeTy)))
		return types.TNever{}, nil
	}

	params := fn.Params
	offset := 0
	// Step 1: a leading @caller_location parameter is skipped when matching
	// arguments to parameters; no location argument is added to the call.
	if len(params) > 0 && params[0].Name == "@caller_location" {
		offset = 1
	}
	fixed := len(params)
	if fn.Variadic && fixed > 0 {
		fixed-- // the last parameter is the variadic tail (see variadicElemTy)
	}

	args := call.Args
	finalArgs := make([]ast.Expr, 0, len(args)+1)
	finalTys := make([]types.Type, 0, len(args)+1)
	vs := varargsState{kind: varargsEmpty}

	// Step 2: walk caller-supplied arguments in order.
	for i, arg := range args {
		paramIdx := i + offset
		if paramIdx < fixed {
			if arg.Spread {
				s.emit(diag.New(diag.InvalidSpread, arg.Span, "spread argument used against a non-variadic parameter"))
				continue
			}
			argTy, err := s.inferExpr(arg.Value)
			if err != nil {
				return nil, err
			}
			if err := types.Unify(s.Ctx, params[paramIdx].Ty, argTy); err != nil {
				s.emitMismatch(arg.Span, err)
			}
			finalArgs = append(finalArgs, arg.Value)
			finalTys = append(finalTys, argTy)
			continue
		}

		if !fn.Variadic {
			s.emit(diag.New(diag.ArityMismatch, call.Span,
				fmt.Sprintf("too many arguments: function takes %d, got %d", len(params), len(args))))
			break
		}

		if err := s.stepVariadic(&vs, arg, i == len(args)-1, variadicElemTy(fn)); err != nil {
			s.emitMismatch(arg.Span, err)
		}
	}

	// Step 3: flush the trailing collector.
	switch vs.kind {
	case varargsIndividual:
		arr := &ast.ArrayLit{Elements: vs.individual, Span: call.Span}
		finalArgs = append(finalArgs, &ast.UnaryOp{Op: "&", X: arr, Span: call.Span})
		finalTys = append(finalTys, types.TPointer{Elem: types.TArray{Elem: variadicElemTy(fn), N: len(vs.individual)}})
	case varargsSpread:
		finalArgs = append(finalArgs, vs.spread)
		finalTys = append(finalTys, vs.spreadTy)
	}

	// Step 4: report non-variadic params left without an argument.
	consumed := offset + len(finalArgs)
	if !fn.Variadic {
		consumed = offset + minInt(len(finalArgs), len(params)-offset)
	}
	if consumed < fixed {
		// Default values are not filled in: TFn (the checked function
		// type) carries only parameter types, not their source-level
		// default expressions — those live on ast.FuncLit, which
		// checkCall never sees — and lowering emits only the arguments
		// the call site wrote. A parameter left without an argument is
		// reported here whether or not it declares a default.
		missing := fixed - consumed
		s.emit(diag.New(diag.ArityMismatch, call.Span,
			fmt.Sprintf("missing %d argument(s) with no value supplied", missing)))
	}

	// Step 5: reject compile-time-only argument kinds, reusing each
	// argument's type from the walk above rather than re-inferring it (a
	// second inferExpr would double-count use-counts and could re-emit
	// diagnostics for the same argument).
	for _, ty := range finalTys {
		if isCompileTimeOnly(types.Normalize(s.Ctx, ty)) {
			s.emit(diag.New(diag.PassedNonValue, call.Span, "a type, any-type, or module value cannot be passed as an ordinary argument"))
		}
	}

	return fn.Ret, nil
}

// stepVariadic implements spec §4.7's "Variadic state" sub-machine for one
// argument position.
func (s *Session) stepVariadic(vs *varargsState, arg *ast.Argument, isLast bool, elemTy types.Type) error {
	if arg.Spread {
		if !isLast {
			return fmt.Errorf("spread argument must be the last argument (SpreadNotLast)")
		}
		if vs.kind != varargsEmpty {
			return fmt.Errorf("double spread or spread after individual variadic arguments")
		}
		argTy, err := s.inferExpr(arg.Value)
		if err != nil {
			return err
		}
		norm := types.Normalize(s.Ctx, argTy)
		var elem types.Type
		switch t := norm.(type) {
		case types.TPointer:
			if sl, ok := types.Normalize(s.Ctx, t.Elem).(types.TSlice); ok {
				elem = sl.Elem
			}
		case types.TSlice:
			elem = t.Elem
		case types.TArray:
			elem = t.Elem
		}
		if elem == nil {
			return &types.MismatchError{Expected: types.TSlice{Elem: elemTy}, Found: norm}
		}
		if err := types.Unify(s.Ctx, elemTy, elem); err != nil {
			return err
		}
		vs.kind = varargsSpread
		vs.spread = arg.Value
		vs.spreadTy = argTy
		return nil
	}

	argTy, err := s.inferExpr(arg.Value)
	if err != nil {
		return err
	}
	if err := types.Unify(s.Ctx, elemTy, argTy); err != nil {
		return err
	}
	vs.kind = varargsIndividual
	vs.individual = append(vs.individual, arg.Value)
	return nil
}

// variadicElemTy recovers the variadic tail's element type from the
// callee's last declared parameter, which lowering/the parser represents
// as a slice-of-elem type (spec §4.7's vararg element type).
func variadicElemTy(fn types.TFn) types.Type {
	if len(fn.Params) == 0 {
		return types.TNever{}
	}
	last := fn.Params[len(fn.Params)-1].Ty
	if sl, ok := last.(types.TSlice); ok {
		return sl.Elem
	}
	return last
}

func isCompileTimeOnly(t types.Type) bool {
	_, ok := t.(types.TType)
	return ok
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
