package interp

import (
	"fmt"

	"exo/internal/ir"
)

// Evaluator runs one procedure invocation's body against an Env of
// already-bound argument values. config holds every WriteConfig'd field,
// keyed the same way internal/lower's ctxt struct groups them (by config
// name, then field), shared across every nested call the top-level Run
// makes so a callee's WriteConfig is visible to its caller's later
// ReadConfig, matching the single shared context struct instance a compiled
// translation unit threads through every call.
type Evaluator struct {
	env    *Env
	config map[string]map[string]Value
}

func newEvaluator(env *Env, config map[string]map[string]Value) *Evaluator {
	return &Evaluator{env: env, config: config}
}

// evalAExpr evaluates the affine sublanguage to a concrete int64, the same
// sublanguage internal/lower's emitAExpr renders to C text instead.
func (ev *Evaluator) evalAExpr(e ir.AExpr) int64 {
	switch n := e.(type) {
	case *ir.AVar:
		v, _ := ev.env.Lookup(n.Sym)
		return int64(v.(float64))
	case *ir.ASize:
		v, _ := ev.env.Lookup(n.Sym)
		return int64(v.(float64))
	case *ir.AConst:
		return n.Val
	case *ir.AAdd:
		return ev.evalAExpr(n.LHS) + ev.evalAExpr(n.RHS)
	case *ir.ASub:
		return ev.evalAExpr(n.LHS) - ev.evalAExpr(n.RHS)
	case *ir.AScale:
		return n.K * ev.evalAExpr(n.E)
	case *ir.AScaleDiv:
		return floorDiv(ev.evalAExpr(n.E), n.K)
	default:
		panic(fmt.Sprintf("interp: unrecognized affine expression %T", e))
	}
}

// floorDiv matches the compiled floor_div helper exactly (spec section 6):
// division truncated toward negative infinity, not toward zero.
func floorDiv(n, q int64) int64 {
	off := int64(0)
	if n < 0 {
		off = q - 1
	}
	return (n - off) / q
}

func (ev *Evaluator) evalPred(p ir.Pred) bool {
	switch n := p.(type) {
	case *ir.BConst:
		return n.Val
	case *ir.And:
		return ev.evalPred(n.LHS) && ev.evalPred(n.RHS)
	case *ir.Or:
		return ev.evalPred(n.LHS) || ev.evalPred(n.RHS)
	case *ir.Cmp:
		l, r := ev.evalAExpr(n.LHS), ev.evalAExpr(n.RHS)
		switch n.Op {
		case ir.CmpLt:
			return l < r
		case ir.CmpGt:
			return l > r
		case ir.CmpLe:
			return l <= r
		case ir.CmpGe:
			return l >= r
		case ir.CmpEq:
			return l == r
		default:
			panic(fmt.Sprintf("interp: unrecognized comparison operator %s", n.Op))
		}
	default:
		panic(fmt.Sprintf("interp: unrecognized predicate %T", p))
	}
}

// evalValExpr evaluates the scalar/tensor value sublanguage. A Read with no
// index positions yields the buffer or window binding itself (a whole-value
// reference, the form a Call argument takes), not a scalar.
func (ev *Evaluator) evalValExpr(e ir.ValExpr) Value {
	switch n := e.(type) {
	case *ir.Read:
		bound, ok := ev.env.Lookup(n.Buf)
		if !ok {
			panic(fmt.Sprintf("interp: %s is not bound", n.Buf.Name()))
		}
		if len(n.Idx) == 0 {
			return bound
		}
		idx := ev.evalIndex(n.Idx)
		switch b := bound.(type) {
		case *Buffer:
			return b.Data[flatOffset(idx, denseStrides(b.Shape))]
		case *Window:
			return b.Buf.Data[b.at(idx)]
		default:
			panic(fmt.Sprintf("interp: %s is not a buffer or window", n.Buf.Name()))
		}

	case *ir.ValConst:
		return toValue(n.Val)

	case *ir.BinOp:
		return ev.evalBinOp(n)

	case *ir.USub:
		return roundResult(n.ExprType(), -ev.evalValExpr(n.E).(float64))

	case *ir.StrideExpr:
		bound, _ := ev.env.Lookup(n.Buf)
		switch b := bound.(type) {
		case *Buffer:
			return float64(denseStrides(b.Shape)[n.Dim])
		case *Window:
			return float64(b.Strides[n.Dim])
		default:
			panic(fmt.Sprintf("interp: %s is not a buffer or window", n.Buf.Name()))
		}

	case *ir.ReadConfig:
		fields := ev.config[n.Config]
		if fields == nil {
			panic(fmt.Sprintf("interp: config %q has no field %q set", n.Config, n.Field))
		}
		return fields[n.Field]

	case *ir.Extern:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			args[i] = ev.evalValExpr(a).(float64)
		}
		r, ok := callExtern(n.Name, args)
		if !ok {
			panic(fmt.Sprintf("interp: unknown extern %q", n.Name))
		}
		return roundScalar(n.ExprType().Scalar, r)

	case *ir.WindowExpr:
		return ev.evalWindow(n)

	case *ir.Select:
		if ev.evalPred(n.Pred) {
			return ev.evalValExpr(n.Then)
		}
		return ev.evalValExpr(n.Else)

	default:
		panic(fmt.Sprintf("interp: unrecognized value expression %T", e))
	}
}

func (ev *Evaluator) evalIndex(idx []ir.AExpr) []int64 {
	out := make([]int64, len(idx))
	for i, a := range idx {
		out[i] = ev.evalAExpr(a)
	}
	return out
}

func (ev *Evaluator) evalBinOp(n *ir.BinOp) Value {
	switch n.Op {
	case "and":
		return ev.evalValExpr(n.LHS).(bool) && ev.evalValExpr(n.RHS).(bool)
	case "or":
		return ev.evalValExpr(n.LHS).(bool) || ev.evalValExpr(n.RHS).(bool)
	case "<", ">", "<=", ">=", "==":
		l, r := ev.evalValExpr(n.LHS).(float64), ev.evalValExpr(n.RHS).(float64)
		switch n.Op {
		case "<":
			return l < r
		case ">":
			return l > r
		case "<=":
			return l <= r
		case ">=":
			return l >= r
		default:
			return l == r
		}
	default:
		l, r := ev.evalValExpr(n.LHS).(float64), ev.evalValExpr(n.RHS).(float64)
		var f float64
		switch n.Op {
		case "+":
			f = l + r
		case "-":
			f = l - r
		case "*":
			f = l * r
		case "/":
			f = l / r
		case "%":
			f = float64(int64(l) % int64(r))
		default:
			panic(fmt.Sprintf("interp: unrecognized binary operator %q", n.Op))
		}
		return roundResult(n.ExprType(), f)
	}
}

// roundResult re-quantizes an arithmetic result to the width its static TIR
// type declares: a scalar's declared precision, or int32_t for an
// index/size/stride result.
func roundResult(t ir.Type, f float64) float64 {
	if t.Kind == ir.KindScalar {
		return roundScalar(t.Scalar, f)
	}
	return truncateInt32(f)
}

// evalWindow narrows a bound Buffer or Window by w's slices, collapsing any
// point (Hi == nil) dimension out of the result's stride list. A window of
// a window always resolves to the same root Buffer (no indirection chain),
// matching the compiled window struct's single raw data pointer.
func (ev *Evaluator) evalWindow(w *ir.WindowExpr) *Window {
	bound, ok := ev.env.Lookup(w.Buf)
	if !ok {
		panic(fmt.Sprintf("interp: %s is not bound", w.Buf.Name()))
	}
	var buf *Buffer
	var baseOffset int64
	var baseStrides []int64
	switch b := bound.(type) {
	case *Buffer:
		buf = b
		baseStrides = denseStrides(b.Shape)
	case *Window:
		buf = b.Buf
		baseOffset = b.Offset
		baseStrides = b.Strides
	default:
		panic(fmt.Sprintf("interp: %s is not a buffer or window", w.Buf.Name()))
	}

	offset := baseOffset
	var strides []int64
	for i, sl := range w.Slices {
		lo := ev.evalAExpr(sl.Lo)
		offset += lo * baseStrides[i]
		if sl.Hi != nil {
			strides = append(strides, baseStrides[i])
		}
	}
	return &Window{Buf: buf, Offset: offset, Strides: strides}
}
