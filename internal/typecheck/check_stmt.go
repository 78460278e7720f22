package typecheck

import (
	"fmt"

	"exo/internal/affine"
	"exo/internal/ast"
	"exo/internal/errors"
	"exo/internal/ir"
)

func (a *Analyzer) checkBlock(stmts []ast.Stmt, sc *Scope) ([]ir.Stmt, error) {
	out := make([]ir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		st, err := a.checkStmt(s, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// resolveMem defaults an unannotated buffer to DRAM (spec section 6) and
// rejects a name the registry does not recognize.
func (a *Analyzer) resolveMem(mem string, pos ast.Pos) (string, error) {
	if mem == "" {
		mem = "DRAM"
	}
	if _, ok := a.mems.Lookup(mem); !ok {
		return "", errors.NewTypeError(errors.ErrUnknownSymbol, pos, fmt.Sprintf("unknown memory kind %q", mem))
	}
	return mem, nil
}

func (a *Analyzer) checkStmt(s ast.Stmt, sc *Scope) (ir.Stmt, error) {
	switch n := s.(type) {
	case *ast.Pass:
		return ir.NewPassStmt(toSrcInfo(n.Pos)), nil

	case *ast.Assign:
		sym, bnd, ok := sc.lookup(n.Name)
		if !ok {
			return nil, sc.unknownSymbol(n.Pos, n.Name)
		}
		if !bnd.effect.Writable() {
			return nil, errors.NewTypeError(errors.ErrWriteToConst, n.Pos, fmt.Sprintf("%q is not writable here", n.Name))
		}
		idx, err := checkAExprs(n.Idx, sc)
		if err != nil {
			return nil, err
		}
		if err := checkIndexArity(n.Pos, n.Name, bnd.typ, idx); err != nil {
			return nil, err
		}
		rhs, err := checkValExpr(n.RHS, sc)
		if err != nil {
			return nil, err
		}
		return ir.NewAssignStmt(toSrcInfo(n.Pos), sym, idx, rhs), nil

	case *ast.Reduce:
		sym, bnd, ok := sc.lookup(n.Name)
		if !ok {
			return nil, sc.unknownSymbol(n.Pos, n.Name)
		}
		if !bnd.effect.Writable() {
			return nil, errors.NewTypeError(errors.ErrWriteToConst, n.Pos, fmt.Sprintf("%q is not writable here", n.Name))
		}
		idx, err := checkAExprs(n.Idx, sc)
		if err != nil {
			return nil, err
		}
		if err := checkIndexArity(n.Pos, n.Name, bnd.typ, idx); err != nil {
			return nil, err
		}
		rhs, err := checkValExpr(n.RHS, sc)
		if err != nil {
			return nil, err
		}
		return ir.NewReduceStmt(toSrcInfo(n.Pos), sym, idx, rhs), nil

	case *ast.Alloc:
		t, err := a.checkType(n.Type, sc, n.Pos)
		if err != nil {
			return nil, err
		}
		mem, err := a.resolveMem(n.Mem, n.Pos)
		if err != nil {
			return nil, err
		}
		sym := sc.declare(n.Name, t, mem, ir.INOUT)
		return ir.NewAllocStmt(toSrcInfo(n.Pos), sym, t, mem), nil

	case *ast.Free:
		sym, bnd, ok := sc.lookup(n.Name)
		if !ok {
			return nil, sc.unknownSymbol(n.Pos, n.Name)
		}
		return ir.NewFreeStmt(toSrcInfo(n.Pos), sym, bnd.typ, bnd.mem), nil

	case *ast.If:
		cond, err := checkPred(n.Cond, sc)
		if err != nil {
			return nil, err
		}
		sc.push()
		body, err := a.checkBlock(n.Body, sc)
		sc.pop()
		if err != nil {
			return nil, err
		}
		sc.push()
		orelse, err := a.checkBlock(n.OrElse, sc)
		sc.pop()
		if err != nil {
			return nil, err
		}
		return ir.NewIfStmt(toSrcInfo(n.Pos), cond, body, orelse), nil

	case *ast.For:
		lo, err := checkAExpr(n.Lo, sc)
		if err != nil {
			return nil, err
		}
		hi, err := checkAExpr(n.Hi, sc)
		if err != nil {
			return nil, err
		}
		lo, hi = affine.Normalize(lo), affine.Normalize(hi)
		sc.push()
		iterSym := sc.declare(n.Iter, ir.IndexType(ir.ClassIndex), "", ir.IN)
		mode := ir.Seq
		if n.Mode == ast.ForPar {
			mode = ir.Par
		}
		body, err := a.checkBlock(n.Body, sc)
		sc.pop()
		if err != nil {
			return nil, err
		}
		return ir.NewForStmt(toSrcInfo(n.Pos), iterSym, lo, hi, mode, body), nil

	case *ast.Call:
		return a.checkCall(n, sc)

	case *ast.WindowStmt:
		we, err := checkWindowExpr(n.Window, sc)
		if err != nil {
			return nil, err
		}
		sym := sc.declare(n.Name, we.ExprType(), "", ir.IN)
		return ir.NewWindowStmt(toSrcInfo(n.Pos), sym, we), nil

	case *ast.WriteConfig:
		rhs, err := checkValExpr(n.RHS, sc)
		if err != nil {
			return nil, err
		}
		return ir.NewWriteConfig(toSrcInfo(n.Pos), n.Config, n.Field, rhs), nil

	case *ast.SyncStmt:
		return ir.NewSyncStmt(toSrcInfo(n.Pos), n.Code), nil

	default:
		return nil, errors.NewTypeError(errors.ErrTypeMismatch, s.NodePos(), "unrecognized statement")
	}
}

// checkCall resolves Callee against the batch (checking it first if it has
// not been checked yet, detecting a call cycle along the way), then
// verifies arity, positional type compatibility, and that any OUT/INOUT
// parameter is bound to an argument that is itself writable here.
func (a *Analyzer) checkCall(n *ast.Call, sc *Scope) (ir.Stmt, error) {
	callee, err := a.checkProc(n.Callee)
	if err != nil {
		return nil, err
	}
	if len(n.Args) != len(callee.Args) {
		return nil, errors.NewTypeError(errors.ErrArityMismatch, n.Pos,
			fmt.Sprintf("call to %q: expected %d arguments, got %d", n.Callee, len(callee.Args), len(n.Args)))
	}
	args := make([]ir.ValExpr, 0, len(n.Args))
	for i, argExpr := range n.Args {
		v, err := checkValExpr(argExpr, sc)
		if err != nil {
			return nil, err
		}
		want := callee.Args[i]
		if !typesCompatible(v.ExprType(), want.Type) {
			return nil, errors.NewTypeError(errors.ErrTypeMismatch, argExpr.NodePos(),
				fmt.Sprintf("call to %q: argument %d has type %s, expected %s", n.Callee, i, v.ExprType(), want.Type))
		}
		if want.Effect.Writable() {
			if read, ok := argExpr.(*ast.Read); ok {
				_, bnd, ok2 := sc.lookup(read.Name)
				if ok2 && !bnd.effect.Writable() {
					return nil, errors.NewTypeError(errors.ErrWriteToConst, argExpr.NodePos(),
						fmt.Sprintf("call to %q: parameter %d is %s but %q is not writable here", n.Callee, i, want.Effect, read.Name))
				}
			}
		}
		args = append(args, v)
	}
	return ir.NewCallStmt(toSrcInfo(n.Pos), callee, args), nil
}
