package affine

import "exo/internal/ir"

// DependsOn reports whether expr's tree references the symbol identified by
// symID anywhere — the primitive schedule rewrites need to decide whether a
// bound, guard, or condition is independent of a given iterator.
func DependsOn(expr ir.AExpr, symID uint64) bool {
	switch e := expr.(type) {
	case nil:
		return false
	case *ir.AVar:
		return e.Sym.ID() == symID
	case *ir.ASize:
		return e.Sym.ID() == symID
	case *ir.AConst:
		return false
	case *ir.AAdd:
		return DependsOn(e.LHS, symID) || DependsOn(e.RHS, symID)
	case *ir.ASub:
		return DependsOn(e.LHS, symID) || DependsOn(e.RHS, symID)
	case *ir.AScale:
		return DependsOn(e.E, symID)
	case *ir.AScaleDiv:
		return DependsOn(e.E, symID)
	default:
		return false
	}
}

// PredDependsOn reports whether pred's tree references the symbol
// identified by symID anywhere, recursing through And/Or into each Cmp's
// affine operands.
func PredDependsOn(pred ir.Pred, symID uint64) bool {
	switch p := pred.(type) {
	case nil:
		return false
	case *ir.BConst:
		return false
	case *ir.And:
		return PredDependsOn(p.LHS, symID) || PredDependsOn(p.RHS, symID)
	case *ir.Or:
		return PredDependsOn(p.LHS, symID) || PredDependsOn(p.RHS, symID)
	case *ir.Cmp:
		return DependsOn(p.LHS, symID) || DependsOn(p.RHS, symID)
	default:
		return false
	}
}
