package schedule

import (
	"exo/internal/affine"
	"exo/internal/cursor"
	"exo/internal/ir"
)

// LiftIf implements `lift_if(if, n_lifts)`: hoist an If outside its
// n_lifts immediately enclosing loops, duplicating the enclosing loop nest
// into the then- and else- branches. The condition must not depend on any
// of the lifted loops' iterators, checked below via affine.PredDependsOn —
// otherwise the duplicated branches would each run the condition's original
// per-iteration value under a now-constant guard, changing which branch
// fires on which iteration.
func (p Proc) LiftIf(target cursor.Cursor, nLifts int) (Proc, cursor.Forward, error) {
	node, err := requireNode("lift_if", target)
	if err != nil {
		return Proc{}, nil, err
	}
	ifStmt, ok := node.(*ir.IfStmt)
	if !ok {
		return Proc{}, nil, schedErr("lift_if", node.Loc(), "target is not an if statement")
	}
	path := target.PathOf()
	if len(path) < nLifts {
		return Proc{}, nil, schedErr("lift_if", ifStmt.Loc(), "n_lifts exceeds nesting depth")
	}
	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}

	enclosing, err := enclosingChain(p.ir, path, nLifts)
	if err != nil {
		return Proc{}, nil, err
	}
	for _, s := range enclosing {
		if f, ok := s.(*ir.ForStmt); ok && affine.PredDependsOn(ifStmt.Cond, f.Iter.ID()) {
			return Proc{}, nil, schedErr("lift_if", ifStmt.Loc(), "condition depends on a lifted loop's iterator")
		}
	}

	thenBlock := replaceStmtAt(block, idx, ifStmt.Body)
	elseBlock := replaceStmtAt(block, idx, ifStmt.OrElse)

	thenStmts, elseStmts := []ir.Stmt(thenBlock), []ir.Stmt(elseBlock)
	for i := len(enclosing) - 1; i >= 0; i-- {
		switch s := enclosing[i].(type) {
		case *ir.ForStmt:
			thenStmts = []ir.Stmt{ir.NewForStmt(s.Src, s.Iter, s.Lo, s.Hi, s.Mode, thenStmts)}
			elseStmts = []ir.Stmt{ir.NewForStmt(s.Src, s.Iter, s.Lo, s.Hi, s.Mode, elseStmts)}
		case *ir.IfStmt:
			thenStmts = []ir.Stmt{ir.NewIfStmt(s.Src, s.Cond, thenStmts, nil)}
			elseStmts = []ir.Stmt{ir.NewIfStmt(s.Src, s.Cond, elseStmts, nil)}
		}
	}

	pivotPath := path[:len(path)-nLifts]
	pivotIdx := path[len(pivotPath)].Index
	outerBlock, err := blockAtPath(p.ir, pivotPath)
	if err != nil {
		return Proc{}, nil, err
	}
	lifted := ir.NewIfStmt(ifStmt.Src, ifStmt.Cond, thenStmts, elseStmts)
	newOuterBlock := replaceStmtAt(outerBlock, pivotIdx, []ir.Stmt{lifted})
	next := withNewBlock(p.ir, pivotPath, newOuterBlock)
	fwd := restructureForward(next, pivotPath, pivotIdx, 1, 1)
	return New(next), fwd, nil
}

// Specialize implements `specialize(stmt, conds)`: wrap the target
// statement in a chain of If copies, one per condition, the caller having
// verified conds are mutually exclusive and exhaustive over the covered
// domain.
func (p Proc) Specialize(target cursor.Cursor, conds []ir.Pred) (Proc, cursor.Forward, error) {
	if len(conds) == 0 {
		return Proc{}, nil, schedErr("specialize", ir.SrcInfo{}, "specialize requires at least one condition")
	}
	node, err := requireNode("specialize", target)
	if err != nil {
		return Proc{}, nil, err
	}
	chain := node
	for i := len(conds) - 1; i >= 0; i-- {
		chain = ir.NewIfStmt(node.Loc(), conds[i], []ir.Stmt{node}, []ir.Stmt{chain})
	}
	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{chain})
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, idx, 1, 1)
	return New(next), fwd, nil
}
