package affine

import (
	"exo/internal/ir"
	"exo/internal/symbol"
)

// Interval is an inclusive-exclusive-agnostic bound pair [Lo, Hi]; a nil
// bound means unbounded in that direction.
type Interval struct {
	Lo, Hi *int64
}

func unbounded() Interval { return Interval{} }

func point(v int64) Interval { return Interval{Lo: &v, Hi: &v} }

// RangeEnv is the stacked symbolic interval context accumulated by entering
// for-loops: entering `for i in [lo, hi)` records the inclusive-exclusive
// bound [lo, hi-1]; exiting pops it.
type RangeEnv struct {
	scopes []map[uint64]Interval
}

func NewRangeEnv() *RangeEnv {
	return &RangeEnv{scopes: []map[uint64]Interval{{}}}
}

func (r *RangeEnv) Push() { r.scopes = append(r.scopes, map[uint64]Interval{}) }

func (r *RangeEnv) Pop() {
	if len(r.scopes) == 1 {
		panic("affine: Pop called on root scope")
	}
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// EnterFor records iter's bound for the duration of the loop body. hi is
// exclusive; the recorded interval is [lo, hi-1] when both bounds are known
// constants, else the known side alone.
func (r *RangeEnv) EnterFor(iter symbol.Symbol, lo, hi ir.AExpr) {
	r.Push()
	loI := r.Eval(lo)
	hiI := r.Eval(hi)
	var ivl Interval
	ivl.Lo = loI.Lo
	if hiI.Hi != nil {
		h := *hiI.Hi - 1
		ivl.Hi = &h
	} else if hiI.Lo != nil {
		h := *hiI.Lo - 1
		ivl.Hi = &h
	}
	r.scopes[len(r.scopes)-1][iter.ID()] = ivl
}

// Bind records an arbitrary known interval for sym in the current scope
// (used for size arguments, which are known to be >= 1).
func (r *RangeEnv) Bind(sym symbol.Symbol, ivl Interval) {
	r.scopes[len(r.scopes)-1][sym.ID()] = ivl
}

func (r *RangeEnv) lookup(id uint64) (Interval, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if ivl, ok := r.scopes[i][id]; ok {
			return ivl, true
		}
	}
	return Interval{}, false
}

// Eval evaluates expr to an interval bound via interval arithmetic over
// affine terms, specializing multiplication to the case where one operand
// is a constant or a provably non-negative sub-expression.
func (r *RangeEnv) Eval(e ir.AExpr) Interval {
	switch ex := e.(type) {
	case *ir.AConst:
		return point(ex.Val)
	case *ir.AVar:
		if ivl, ok := r.lookup(ex.Sym.ID()); ok {
			return ivl
		}
		return unbounded()
	case *ir.ASize:
		if ivl, ok := r.lookup(ex.Sym.ID()); ok {
			return ivl
		}
		one := int64(1)
		return Interval{Lo: &one}
	case *ir.AAdd:
		return addI(r.Eval(ex.LHS), r.Eval(ex.RHS))
	case *ir.ASub:
		return subI(r.Eval(ex.LHS), r.Eval(ex.RHS))
	case *ir.AScale:
		return scaleI(r.Eval(ex.E), ex.K)
	case *ir.AScaleDiv:
		return divFloorI(r.Eval(ex.E), ex.K)
	default:
		return unbounded()
	}
}

func addI(a, b Interval) Interval {
	var out Interval
	if a.Lo != nil && b.Lo != nil {
		v := *a.Lo + *b.Lo
		out.Lo = &v
	}
	if a.Hi != nil && b.Hi != nil {
		v := *a.Hi + *b.Hi
		out.Hi = &v
	}
	return out
}

func subI(a, b Interval) Interval {
	var out Interval
	if a.Lo != nil && b.Hi != nil {
		v := *a.Lo - *b.Hi
		out.Lo = &v
	}
	if a.Hi != nil && b.Lo != nil {
		v := *a.Hi - *b.Lo
		out.Hi = &v
	}
	return out
}

func scaleI(a Interval, k int64) Interval {
	if k == 0 {
		return point(0)
	}
	if k > 0 {
		var out Interval
		if a.Lo != nil {
			v := *a.Lo * k
			out.Lo = &v
		}
		if a.Hi != nil {
			v := *a.Hi * k
			out.Hi = &v
		}
		return out
	}
	// k < 0: bounds flip.
	var out Interval
	if a.Hi != nil {
		v := *a.Hi * k
		out.Lo = &v
	}
	if a.Lo != nil {
		v := *a.Lo * k
		out.Hi = &v
	}
	return out
}

func divFloorI(a Interval, k int64) Interval {
	if k == 0 {
		return unbounded()
	}
	floordiv := func(n, d int64) int64 {
		q := n / d
		if (n%d != 0) && ((n < 0) != (d < 0)) {
			q--
		}
		return q
	}
	var out Interval
	if k > 0 {
		if a.Lo != nil {
			v := floordiv(*a.Lo, k)
			out.Lo = &v
		}
		if a.Hi != nil {
			v := floordiv(*a.Hi, k)
			out.Hi = &v
		}
	} else {
		if a.Hi != nil {
			v := floordiv(*a.Hi, k)
			out.Lo = &v
		}
		if a.Lo != nil {
			v := floordiv(*a.Lo, k)
			out.Hi = &v
		}
	}
	return out
}

// Op is the comparison a query asks the range environment to prove.
type Op = ir.CmpOp

// Check answers whether expr op bound is provable unconditionally given the
// current bounds: it evaluates expr to an interval [L, H] and checks
// whether every value in that interval satisfies the comparison.
func (r *RangeEnv) Check(expr ir.AExpr, op Op, bound ir.AExpr) bool {
	e := r.Eval(expr)
	b := r.Eval(bound)
	switch op {
	case ir.CmpLt:
		return e.Hi != nil && b.Lo != nil && *e.Hi < *b.Lo
	case ir.CmpLe:
		return e.Hi != nil && b.Lo != nil && *e.Hi <= *b.Lo
	case ir.CmpGt:
		return e.Lo != nil && b.Hi != nil && *e.Lo > *b.Hi
	case ir.CmpGe:
		return e.Lo != nil && b.Hi != nil && *e.Lo >= *b.Hi
	case ir.CmpEq:
		return e.Lo != nil && e.Hi != nil && b.Lo != nil && b.Hi != nil &&
			*e.Lo == *e.Hi && *b.Lo == *b.Hi && *e.Lo == *b.Lo
	default:
		return false
	}
}

// NonNegative reports whether expr is provably >= 0 under the current
// bounds; the compiler uses this to choose between native / and the
// signed floor_div helper.
func (r *RangeEnv) NonNegative(expr ir.AExpr) bool {
	return r.Check(expr, ir.CmpGe, &ir.AConst{Val: 0})
}
