// Package affine implements normalization and simplification of the TIR
// affine sublanguage, plus the index-range environment used by both the
// schedule rewrites and the lowering pass to prove bounds facts.
package affine

import (
	"sort"

	"exo/internal/ir"
)

// term is one scaled variable in a canonical sum-of-scaled-terms form.
type term struct {
	key   string // canonical ordering key: the variable's symbol name
	varE  ir.AExpr
	coeff int64
}

// Normalize rewrites e to the canonical form sum(k_i * x_i) + c, with terms
// ordered by a canonical key and zero-coefficient terms dropped, folding
// constants along the way.
func Normalize(e ir.AExpr) ir.AExpr {
	terms, c := linearize(e, 1)
	terms = fold(terms)
	return rebuild(terms, c)
}

func linearize(e ir.AExpr, scale int64) ([]term, int64) {
	switch ex := e.(type) {
	case *ir.AConst:
		return nil, scale * ex.Val
	case *ir.AVar:
		return []term{{key: "v:" + ex.Sym.Name(), varE: ex, coeff: scale}}, 0
	case *ir.ASize:
		return []term{{key: "s:" + ex.Sym.Name(), varE: ex, coeff: scale}}, 0
	case *ir.AAdd:
		lt, lc := linearize(ex.LHS, scale)
		rt, rc := linearize(ex.RHS, scale)
		return append(lt, rt...), lc + rc
	case *ir.ASub:
		lt, lc := linearize(ex.LHS, scale)
		rt, rc := linearize(ex.RHS, -scale)
		return append(lt, rt...), lc + rc
	case *ir.AScale:
		return linearize(ex.E, scale*ex.K)
	case *ir.AScaleDiv:
		// Floor-division by a constant is not distributive over addition;
		// normalize only the dividend and keep the division as an opaque
		// affine atom at this scale.
		inner := Normalize(ex.E)
		atom := &ir.AScaleDiv{E: inner, K: ex.K}
		return []term{{key: "d:" + atom.String(), varE: atom, coeff: scale}}, 0
	default:
		return []term{{key: "?:" + e.String(), varE: e, coeff: scale}}, 0
	}
}

// fold combines terms that share a key and removes zero-coefficient terms,
// then sorts by key for a canonical order.
func fold(terms []term) []term {
	byKey := map[string]*term{}
	var order []string
	for _, t := range terms {
		if existing, ok := byKey[t.key]; ok {
			existing.coeff += t.coeff
		} else {
			cp := t
			byKey[t.key] = &cp
			order = append(order, t.key)
		}
	}
	sort.Strings(order)
	var out []term
	for _, k := range order {
		t := byKey[k]
		if t.coeff != 0 {
			out = append(out, *t)
		}
	}
	return out
}

func rebuild(terms []term, c int64) ir.AExpr {
	var result ir.AExpr
	for _, t := range terms {
		var part ir.AExpr = t.varE
		if t.coeff != 1 {
			part = &ir.AScale{K: t.coeff, E: t.varE}
		}
		if result == nil {
			result = part
		} else {
			result = &ir.AAdd{LHS: result, RHS: part}
		}
	}
	if c != 0 || result == nil {
		if result == nil {
			return &ir.AConst{Val: c}
		}
		if c > 0 {
			result = &ir.AAdd{LHS: result, RHS: &ir.AConst{Val: c}}
		} else {
			result = &ir.ASub{LHS: result, RHS: &ir.AConst{Val: -c}}
		}
	}
	return result
}

// Simplify applies Normalize plus the specific identities required by the
// spec: 0+x=x, x-0=x, 0*x=0, 1*x=x, x/1=x, -(-x)=x, and fusing constant USub
// (AScale by -1 applied twice cancels). Simplify is idempotent:
// Simplify(Simplify(e)) is structurally equal to Simplify(e), since
// Normalize's canonical form is a fixed point once identities are applied.
func Simplify(e ir.AExpr) ir.AExpr {
	return Normalize(simplifyIdentities(e))
}

func simplifyIdentities(e ir.AExpr) ir.AExpr {
	switch ex := e.(type) {
	case *ir.AAdd:
		l, r := simplifyIdentities(ex.LHS), simplifyIdentities(ex.RHS)
		if isZero(l) {
			return r
		}
		if isZero(r) {
			return l
		}
		return &ir.AAdd{LHS: l, RHS: r}
	case *ir.ASub:
		l, r := simplifyIdentities(ex.LHS), simplifyIdentities(ex.RHS)
		if isZero(r) {
			return l
		}
		return &ir.ASub{LHS: l, RHS: r}
	case *ir.AScale:
		inner := simplifyIdentities(ex.E)
		if ex.K == 0 {
			return &ir.AConst{Val: 0}
		}
		if ex.K == 1 {
			return inner
		}
		if neg, ok := inner.(*ir.AScale); ok && neg.K == -1 {
			return &ir.AScale{K: -ex.K, E: neg.E}
		}
		return &ir.AScale{K: ex.K, E: inner}
	case *ir.AScaleDiv:
		inner := simplifyIdentities(ex.E)
		if ex.K == 1 {
			return inner
		}
		return &ir.AScaleDiv{E: inner, K: ex.K}
	default:
		return e
	}
}

func isZero(e ir.AExpr) bool {
	c, ok := e.(*ir.AConst)
	return ok && c.Val == 0
}

// Equal reports whether two affine expressions normalize to the same
// canonical value, used by fission/fusion preconditions to compare bounds.
func Equal(a, b ir.AExpr) bool {
	return Normalize(a).String() == Normalize(b).String()
}
