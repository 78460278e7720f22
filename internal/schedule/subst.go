package schedule

import (
	"exo/internal/ir"
	"exo/internal/symbol"
)

// subst is a substitution environment for alpha-renaming (inline,
// unroll_loop) and for constant substitution (partial_eval): it maps a
// symbol id either to a replacement AExpr (for index/size positions) and/or
// to a replacement Symbol (for binder renaming).
type subst struct {
	aexpr map[uint64]ir.AExpr
	rebnd map[uint64]symbol.Symbol
}

func newSubst() *subst {
	return &subst{aexpr: map[uint64]ir.AExpr{}, rebnd: map[uint64]symbol.Symbol{}}
}

// substAExpr builds a one-entry constant substitution, the shape
// PartialEval needs for a single size/index argument.
func substAExpr(id uint64, val int64) *subst {
	s := newSubst()
	s.aexpr[id] = &ir.AConst{Val: val}
	return s
}

// renameSubst builds a substitution that only alpha-renames one binder.
// No rewrite in this package calls it at present.
func renameSubst(from, to symbol.Symbol) *subst {
	s := newSubst()
	s.rebnd[from.ID()] = to
	return s
}

func (s *subst) addAExpr(id uint64, e ir.AExpr) { s.aexpr[id] = e }
func (s *subst) addRebind(from, to symbol.Symbol) { s.rebnd[from.ID()] = to }

func (s *subst) sym(sy symbol.Symbol) symbol.Symbol {
	if r, ok := s.rebnd[sy.ID()]; ok {
		return r
	}
	return sy
}

func mapAExpr(e ir.AExpr, s *subst) ir.AExpr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ir.AVar:
		if r, ok := s.aexpr[n.Sym.ID()]; ok {
			return r
		}
		return &ir.AVar{Sym: s.sym(n.Sym)}
	case *ir.ASize:
		if r, ok := s.aexpr[n.Sym.ID()]; ok {
			return r
		}
		return &ir.ASize{Sym: s.sym(n.Sym)}
	case *ir.AConst:
		return n
	case *ir.AAdd:
		return &ir.AAdd{LHS: mapAExpr(n.LHS, s), RHS: mapAExpr(n.RHS, s)}
	case *ir.ASub:
		return &ir.ASub{LHS: mapAExpr(n.LHS, s), RHS: mapAExpr(n.RHS, s)}
	case *ir.AScale:
		return &ir.AScale{K: n.K, E: mapAExpr(n.E, s)}
	case *ir.AScaleDiv:
		return &ir.AScaleDiv{E: mapAExpr(n.E, s), K: n.K}
	default:
		return e
	}
}

func mapAExprs(es []ir.AExpr, s *subst) []ir.AExpr {
	out := make([]ir.AExpr, len(es))
	for i, e := range es {
		out[i] = mapAExpr(e, s)
	}
	return out
}

func mapPred(p ir.Pred, s *subst) ir.Pred {
	if p == nil {
		return nil
	}
	switch n := p.(type) {
	case *ir.BConst:
		return n
	case *ir.And:
		return &ir.And{LHS: mapPred(n.LHS, s), RHS: mapPred(n.RHS, s)}
	case *ir.Or:
		return &ir.Or{LHS: mapPred(n.LHS, s), RHS: mapPred(n.RHS, s)}
	case *ir.Cmp:
		return &ir.Cmp{Op: n.Op, LHS: mapAExpr(n.LHS, s), RHS: mapAExpr(n.RHS, s)}
	default:
		return p
	}
}

func mapPreds(ps []ir.Pred, s *subst) []ir.Pred {
	out := make([]ir.Pred, len(ps))
	for i, p := range ps {
		out[i] = mapPred(p, s)
	}
	return out
}

func mapValExpr(e ir.ValExpr, s *subst) ir.ValExpr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ir.Read:
		return ir.NewRead(n.Loc(), n.ExprType(), s.sym(n.Buf), mapAExprs(n.Idx, s))
	case *ir.ValConst:
		return n
	case *ir.BinOp:
		return ir.NewBinOp(n.Loc(), n.ExprType(), n.Op, mapValExpr(n.LHS, s), mapValExpr(n.RHS, s))
	case *ir.USub:
		return ir.NewUSub(n.Loc(), n.ExprType(), mapValExpr(n.E, s))
	case *ir.StrideExpr:
		return ir.NewStrideExpr(n.Loc(), s.sym(n.Buf), n.Dim)
	case *ir.ReadConfig:
		return n
	case *ir.Extern:
		args := make([]ir.ValExpr, len(n.Args))
		for i, a := range n.Args {
			args[i] = mapValExpr(a, s)
		}
		return ir.NewExtern(n.Loc(), n.ExprType(), n.Name, args)
	case *ir.WindowExpr:
		return ir.NewWindowExpr(n.Loc(), n.ExprType(), s.sym(n.Buf), mapSlices(n.Slices, s))
	case *ir.Select:
		return ir.NewSelect(n.Loc(), n.ExprType(), mapPred(n.Pred, s), mapValExpr(n.Then, s), mapValExpr(n.Else, s))
	default:
		return e
	}
}

func mapSlices(slices []ir.WSlice, s *subst) []ir.WSlice {
	out := make([]ir.WSlice, len(slices))
	for i, sl := range slices {
		hi := sl.Hi
		if hi != nil {
			hi = mapAExpr(hi, s)
		}
		out[i] = ir.WSlice{Lo: mapAExpr(sl.Lo, s), Hi: hi}
	}
	return out
}

func mapStmt(st ir.Stmt, s *subst) ir.Stmt {
	switch n := st.(type) {
	case *ir.PassStmt:
		return n
	case *ir.AssignStmt:
		return ir.NewAssignStmt(n.Loc(), s.sym(n.Buf), mapAExprs(n.Idx, s), mapValExpr(n.RHS, s))
	case *ir.ReduceStmt:
		return ir.NewReduceStmt(n.Loc(), s.sym(n.Buf), mapAExprs(n.Idx, s), mapValExpr(n.RHS, s))
	case *ir.AllocStmt:
		return ir.NewAllocStmt(n.Loc(), s.sym(n.Buf), retypeShape(n.Type, s), n.Mem)
	case *ir.FreeStmt:
		return ir.NewFreeStmt(n.Loc(), s.sym(n.Buf), retypeShape(n.Type, s), n.Mem)
	case *ir.IfStmt:
		return ir.NewIfStmt(n.Loc(), mapPred(n.Cond, s), mapBlock(n.Body, s), mapBlock(n.OrElse, s))
	case *ir.ForStmt:
		return ir.NewForStmt(n.Loc(), s.sym(n.Iter), mapAExpr(n.Lo, s), mapAExpr(n.Hi, s), n.Mode, mapBlock(n.Body, s))
	case *ir.CallStmt:
		args := make([]ir.ValExpr, len(n.Args))
		for i, a := range n.Args {
			args[i] = mapValExpr(a, s)
		}
		return ir.NewCallStmt(n.Loc(), n.Callee, args)
	case *ir.WindowStmt:
		w := mapValExpr(n.Window, s).(*ir.WindowExpr)
		return ir.NewWindowStmt(n.Loc(), s.sym(n.Name), w)
	case *ir.WriteConfig:
		return ir.NewWriteConfig(n.Loc(), n.Config, n.Field, mapValExpr(n.RHS, s))
	case *ir.SyncStmt:
		return n
	default:
		return st
	}
}

func mapBlock(block []ir.Stmt, s *subst) []ir.Stmt {
	out := make([]ir.Stmt, len(block))
	for i, st := range block {
		out[i] = mapStmt(st, s)
	}
	return out
}

func retypeShape(t ir.Type, s *subst) ir.Type {
	t.Shape = mapAExprs(t.Shape, s)
	return t
}
