package lower

import (
	"fmt"
	"strconv"
	"strings"

	"exo/internal/ir"
)

// strideClassSyms returns the set of argument symbol ids declared with
// index class "stride".
func strideClassSyms(proc *ir.Proc) map[uint64]bool {
	out := map[uint64]bool{}
	for _, a := range proc.Args {
		if a.Type.IsIndexable() && a.Type.Class == ir.ClassStride {
			out[a.Sym.ID()] = true
		}
	}
	return out
}

// strideConstName is the naming convention a stride-class argument must
// follow to be recognized as asserting a specific buffer dimension's
// stride: stride_<buf>_<dim>. ir.AExpr has no field-access term (a
// precondition's Cmp operands are bare AExpr), so there is no way to write
// "stride(buf, dim) == k" directly in the IR; this convention is the
// decided stand-in, documented as an open question resolution.
func strideConstName(sym string) (buf string, dim int, ok bool) {
	const prefix = "stride_"
	if !strings.HasPrefix(sym, prefix) {
		return "", 0, false
	}
	rest := sym[len(prefix):]
	i := strings.LastIndex(rest, "_")
	if i < 0 {
		return "", 0, false
	}
	d, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:i], d, true
}

// splitPreconditions partitions proc's preconditions into the
// stride-equality facts captured into the known-strides table (never
// emitted as a runtime check) and the rest, which lower emits verbatim as
// assume() compiler hints (spec section 4.5: "precondition predicates are
// emitted as compiler hints (assume(expr) macro); stride-equality
// preconditions are captured into the known-strides table and not emitted
// as runtime checks").
func splitPreconditions(proc *ir.Proc) (constStrides map[string]int64, rest []ir.Pred) {
	constStrides = map[string]int64{}
	strideSyms := strideClassSyms(proc)
	for _, p := range proc.Preconditions {
		cmp, ok := p.(*ir.Cmp)
		if ok && cmp.Op == ir.CmpEq {
			if buf, dim, k, matched := strideEqualityFact(cmp, strideSyms); matched {
				constStrides[fmt.Sprintf("%s:%d", buf, dim)] = k
				continue
			}
		}
		rest = append(rest, p)
	}
	return constStrides, rest
}

func strideEqualityFact(cmp *ir.Cmp, strideSyms map[uint64]bool) (buf string, dim int, k int64, ok bool) {
	v, c, matched := asVarConst(cmp.LHS, cmp.RHS)
	if !matched {
		v, c, matched = asVarConst(cmp.RHS, cmp.LHS)
	}
	if !matched || !strideSyms[v.Sym.ID()] {
		return "", 0, 0, false
	}
	buf, dim, ok = strideConstName(v.Sym.Name())
	if !ok {
		return "", 0, 0, false
	}
	return buf, dim, c.Val, true
}

func asVarConst(a, b ir.AExpr) (*ir.AVar, *ir.AConst, bool) {
	v, ok1 := a.(*ir.AVar)
	c, ok2 := b.(*ir.AConst)
	return v, c, ok1 && ok2
}
