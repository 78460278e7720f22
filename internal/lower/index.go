package lower

import (
	"fmt"
	"strings"

	"exo/internal/affine"
	"exo/internal/extern"
	"exo/internal/ir"
	"exo/internal/memory"
	"exo/internal/symbol"
)

// floorDivHelper is emitted once per translation unit that needs it, text
// taken verbatim from spec section 6.
const floorDivHelper = `static int32_t floor_div(int32_t n, int32_t q) { int32_t off = (n>=0)?0:q-1; return (n-off)/q; }`

// stage carries the per-procedure state the emission walk threads through:
// assigned C identifiers, the bounds environment used to elide floor_div,
// known-constant strides captured from preconditions, the window-struct and
// config registries shared across the whole translation unit, and whether
// floor_div has been requested yet.
type stage struct {
	names        *cNames
	ranges       *affine.RangeEnv
	constStrides map[string]int64 // "<buf symbol's original name>:<dim>" -> compile-time stride
	windows      *windowStructs
	cfg          *configSet
	mems         *memory.Registry
	externs      *extern.Table
	needFloorDiv *bool

	// usedMems/usedExterns record, per translation unit, which memory kinds
	// and (extern, ctype) pairs were actually exercised, so renderSource only
	// emits the globals a kind or extern actually needs for the types it was
	// called with.
	usedMems    map[string]bool
	usedExterns map[string]map[string]bool
}

func (s *stage) noteMem(name string) { s.usedMems[name] = true }

func (s *stage) noteExtern(name, ctype string) {
	set, ok := s.usedExterns[name]
	if !ok {
		set = map[string]bool{}
		s.usedExterns[name] = set
	}
	set[ctype] = true
}

// emitAExpr renders an affine expression to a C expression string. AExpr is
// already known affine by construction (package affine never introduces a
// non-affine sub-term), so this is a direct structural translation with no
// further validation.
func (s *stage) emitAExpr(e ir.AExpr) string {
	switch a := e.(type) {
	case *ir.AVar:
		return s.names.ident(a.Sym)
	case *ir.ASize:
		return s.names.ident(a.Sym)
	case *ir.AConst:
		return fmt.Sprintf("%d", a.Val)
	case *ir.AAdd:
		return fmt.Sprintf("(%s + %s)", s.emitAExpr(a.LHS), s.emitAExpr(a.RHS))
	case *ir.ASub:
		return fmt.Sprintf("(%s - %s)", s.emitAExpr(a.LHS), s.emitAExpr(a.RHS))
	case *ir.AScale:
		return fmt.Sprintf("(%d * %s)", a.K, s.emitAExpr(a.E))
	case *ir.AScaleDiv:
		return s.emitFloorDiv(a.E, a.K)
	default:
		return "/* unknown aexpr */"
	}
}

// emitFloorDiv decides, per spec section 4.6 / testable property S4,
// between native "/" (when the range environment proves the dividend
// non-negative) and the shared floor_div helper.
func (s *stage) emitFloorDiv(e ir.AExpr, k int64) string {
	num := s.emitAExpr(e)
	if k > 0 && s.ranges.NonNegative(e) {
		return fmt.Sprintf("(%s / %d)", num, k)
	}
	*s.needFloorDiv = true
	return fmt.Sprintf("floor_div(%s, %d)", num, k)
}

// denseStrides computes the suffix-product strides of a dense tensor shape:
// innermost stride is 1, each outer stride is the product of every inner
// dimension (spec section 4.5's "For a dense tensor, strides are the suffix
// product of the shape").
func (s *stage) denseStrides(shape []ir.AExpr) []string {
	n := len(shape)
	strides := make([]string, n)
	if n == 0 {
		return strides
	}
	strides[n-1] = "1"
	acc := s.emitAExpr(shape[n-1])
	for i := n - 2; i >= 0; i-- {
		strides[i] = acc
		acc = fmt.Sprintf("(%s * %s)", acc, s.emitAExpr(shape[i]))
	}
	return strides
}

// strideText returns dim's stride for buf as a C expression: the
// compile-time constant captured from a stride-equality precondition when
// present (spec: "unless a proc precondition asserts a stride constant, in
// which case the constant is substituted"), else the dynamic window-struct
// field, else (dense tensor) a precomputed suffix product. The constant
// lookup keys on buf's original (pre-casing) symbol name, since that is the
// name embedded in the stride_<buf>_<dim> precondition-argument convention
// (see precondition.go); cName is the already-emitted C identifier used to
// render the dynamic fallback.
func (s *stage) strideText(buf symbol.Symbol, cName string, dim int, dense []string) string {
	if k, ok := s.constStrides[fmt.Sprintf("%s:%d", buf.Name(), dim)]; ok {
		return fmt.Sprintf("%d", k)
	}
	if dense != nil {
		return dense[dim]
	}
	return fmt.Sprintf("%s.strides[%d]", cName, dim)
}

// flatIndex composes a multi-dimensional index against per-dimension
// strides into one linear C offset expression.
func flatIndex(idx, strides []string) string {
	if len(idx) == 0 {
		return "0"
	}
	terms := make([]string, len(idx))
	for i := range idx {
		terms[i] = fmt.Sprintf("(%s) * (%s)", idx[i], strides[i])
	}
	return strings.Join(terms, " + ")
}
