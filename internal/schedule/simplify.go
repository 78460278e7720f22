package schedule

import (
	"exo/internal/affine"
	"exo/internal/ir"
)

// Simplify implements the `simplify` rewrite: apply affine normalization
// throughout every index, shape, and loop-bound position in the procedure.
// It has no target/args (the whole-proc scope matches the rewrite table's
// "—" precondition) and is idempotent: Simplify(Simplify(p)) structurally
// equals Simplify(p), since internal/affine.Normalize already is.
func (p Proc) Simplify() (Proc, error) {
	next := p.ir.WithBody(simplifyBlock(p.ir.Body))
	return New(next), nil
}

func simplifyAExpr(e ir.AExpr) ir.AExpr {
	if e == nil {
		return nil
	}
	return affine.Simplify(e)
}

func simplifyAExprs(es []ir.AExpr) []ir.AExpr {
	out := make([]ir.AExpr, len(es))
	for i, e := range es {
		out[i] = simplifyAExpr(e)
	}
	return out
}

func simplifyPred(p ir.Pred) ir.Pred {
	if p == nil {
		return nil
	}
	switch n := p.(type) {
	case *ir.BConst:
		return n
	case *ir.And:
		return &ir.And{LHS: simplifyPred(n.LHS), RHS: simplifyPred(n.RHS)}
	case *ir.Or:
		return &ir.Or{LHS: simplifyPred(n.LHS), RHS: simplifyPred(n.RHS)}
	case *ir.Cmp:
		return &ir.Cmp{Op: n.Op, LHS: simplifyAExpr(n.LHS), RHS: simplifyAExpr(n.RHS)}
	default:
		return p
	}
}

func simplifyValExpr(e ir.ValExpr) ir.ValExpr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ir.Read:
		return ir.NewRead(n.Loc(), n.ExprType(), n.Buf, simplifyAExprs(n.Idx))
	case *ir.ValConst:
		return n
	case *ir.BinOp:
		return ir.NewBinOp(n.Loc(), n.ExprType(), n.Op, simplifyValExpr(n.LHS), simplifyValExpr(n.RHS))
	case *ir.USub:
		return ir.NewUSub(n.Loc(), n.ExprType(), simplifyValExpr(n.E))
	case *ir.StrideExpr:
		return n
	case *ir.ReadConfig:
		return n
	case *ir.Extern:
		args := make([]ir.ValExpr, len(n.Args))
		for i, a := range n.Args {
			args[i] = simplifyValExpr(a)
		}
		return ir.NewExtern(n.Loc(), n.ExprType(), n.Name, args)
	case *ir.WindowExpr:
		slices := make([]ir.WSlice, len(n.Slices))
		for i, s := range n.Slices {
			hi := s.Hi
			if hi != nil {
				hi = simplifyAExpr(hi)
			}
			slices[i] = ir.WSlice{Lo: simplifyAExpr(s.Lo), Hi: hi}
		}
		return ir.NewWindowExpr(n.Loc(), n.ExprType(), n.Buf, slices)
	case *ir.Select:
		return ir.NewSelect(n.Loc(), n.ExprType(), simplifyPred(n.Pred), simplifyValExpr(n.Then), simplifyValExpr(n.Else))
	default:
		return e
	}
}

func simplifyStmt(st ir.Stmt) ir.Stmt {
	switch s := st.(type) {
	case *ir.AssignStmt:
		return ir.NewAssignStmt(s.Src, s.Buf, simplifyAExprs(s.Idx), simplifyValExpr(s.RHS))
	case *ir.ReduceStmt:
		return ir.NewReduceStmt(s.Src, s.Buf, simplifyAExprs(s.Idx), simplifyValExpr(s.RHS))
	case *ir.AllocStmt:
		t := s.Type
		t.Shape = simplifyAExprs(t.Shape)
		return ir.NewAllocStmt(s.Src, s.Buf, t, s.Mem)
	case *ir.FreeStmt:
		t := s.Type
		t.Shape = simplifyAExprs(t.Shape)
		return ir.NewFreeStmt(s.Src, s.Buf, t, s.Mem)
	case *ir.IfStmt:
		return ir.NewIfStmt(s.Src, simplifyPred(s.Cond), simplifyBlock(s.Body), simplifyBlock(s.OrElse))
	case *ir.ForStmt:
		return ir.NewForStmt(s.Src, s.Iter, simplifyAExpr(s.Lo), simplifyAExpr(s.Hi), s.Mode, simplifyBlock(s.Body))
	case *ir.CallStmt:
		args := make([]ir.ValExpr, len(s.Args))
		for i, a := range s.Args {
			args[i] = simplifyValExpr(a)
		}
		return ir.NewCallStmt(s.Src, s.Callee, args)
	case *ir.WindowStmt:
		w := simplifyValExpr(s.Window).(*ir.WindowExpr)
		return ir.NewWindowStmt(s.Src, s.Name, w)
	case *ir.WriteConfig:
		return ir.NewWriteConfig(s.Src, s.Config, s.Field, simplifyValExpr(s.RHS))
	default:
		return st
	}
}

func simplifyBlock(body []ir.Stmt) []ir.Stmt {
	out := make([]ir.Stmt, len(body))
	for i, s := range body {
		out[i] = simplifyStmt(s)
	}
	return out
}
