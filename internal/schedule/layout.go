package schedule

import (
	"fmt"

	"exo/internal/affine"
	"exo/internal/cursor"
	"exo/internal/ir"
)

// allocTarget resolves a target cursor to the AllocStmt it names, plus its
// position, for the three Data layout rewrites (they all retype one Alloc
// and then rewrite every access to the affected buffer throughout the
// body).
func allocTarget(rewrite string, target cursor.Cursor) (*ir.AllocStmt, int, []cursor.Path, []ir.Stmt, error) {
	node, err := requireNode(rewrite, target)
	if err != nil {
		return nil, 0, nil, nil, err
	}
	alloc, ok := node.(*ir.AllocStmt)
	if !ok {
		return nil, 0, nil, nil, schedErr(rewrite, node.Loc(), "target is not an Alloc statement")
	}
	idx, err := target.Index()
	if err != nil {
		return nil, 0, nil, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return nil, 0, nil, nil, err
	}
	return alloc, idx, target.PathOf(), block, nil
}

// DivideDim implements `divide_dim(alloc, dim, k)`: split dimension dim of
// alloc's shape into an outer size/k and an inner k, and every index
// expression addressing that dimension throughout the procedure's body into
// the equivalent pair (idx/k, idx%k).
func (p Proc) DivideDim(target cursor.Cursor, dim int, k int64) (Proc, cursor.Forward, error) {
	alloc, idx, path, block, err := allocTarget("divide_dim", target)
	if err != nil {
		return Proc{}, nil, err
	}
	if dim < 0 || dim >= len(alloc.Type.Shape) {
		return Proc{}, nil, schedErr("divide_dim", alloc.Loc(), "dim out of range")
	}
	if k < 1 {
		return Proc{}, nil, schedErr("divide_dim", alloc.Loc(), "k must be >= 1")
	}
	outer := &ir.AScaleDiv{E: alloc.Type.Shape[dim], K: k}
	newShape := make([]ir.AExpr, 0, len(alloc.Type.Shape)+1)
	newShape = append(newShape, alloc.Type.Shape[:dim]...)
	newShape = append(newShape, outer, &ir.AConst{Val: k})
	newShape = append(newShape, alloc.Type.Shape[dim+1:]...)
	newAlloc := ir.NewAllocStmt(alloc.Src, alloc.Buf, ir.Type{Kind: alloc.Type.Kind, Scalar: alloc.Type.Scalar, Shape: newShape}, alloc.Mem)

	rewriteIdx := func(idxList []ir.AExpr) []ir.AExpr {
		if dim >= len(idxList) {
			return idxList
		}
		out := append([]ir.AExpr{}, idxList...)
		orig := out[dim]
		q := &ir.AScaleDiv{E: orig, K: k}
		r := &ir.ASub{LHS: orig, RHS: &ir.AScale{K: k, E: q}}
		out = append(out[:dim], append([]ir.AExpr{q, r}, out[dim+1:]...)...)
		return out
	}
	newBody := rewriteBufferAccesses(p.ir.Body, alloc.Buf.ID(), rewriteIdx)

	newBlock := replaceStmtAt(block, idx, []ir.Stmt{newAlloc})
	next := withNewBlock(p.ir.WithBody(newBody), path, newBlock)
	return New(next), cursor.Identity(next), nil
}

// BoundAlloc implements `bound_alloc(alloc, bounds)`: tighten an
// allocation's declared shape to bounds. Every access to the buffer
// throughout the procedure must be provably within bounds, checked below
// via affine.RangeEnv (the same interval-proof machinery internal/lower
// uses for floor_div elision).
func (p Proc) BoundAlloc(target cursor.Cursor, bounds []ir.AExpr) (Proc, cursor.Forward, error) {
	alloc, idx, path, block, err := allocTarget("bound_alloc", target)
	if err != nil {
		return Proc{}, nil, err
	}
	if len(bounds) != len(alloc.Type.Shape) {
		return Proc{}, nil, schedErr("bound_alloc", alloc.Loc(), "bounds rank does not match alloc shape")
	}
	if d, ok := firstUnprovenAccess(p.ir.Body, alloc.Buf.ID(), bounds); ok {
		return Proc{}, nil, schedErr("bound_alloc", alloc.Loc(), fmt.Sprintf("dimension %d is not provably within the requested bound at every access", d))
	}
	newAlloc := ir.NewAllocStmt(alloc.Src, alloc.Buf, ir.Type{Kind: alloc.Type.Kind, Scalar: alloc.Type.Scalar, Shape: bounds}, alloc.Mem)
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{newAlloc})
	next := withNewBlock(p.ir, path, newBlock)
	return New(next), cursor.Identity(next), nil
}

// ExpandDim implements `expand_dim(alloc, size, idx)`: add a new outermost
// dimension of extent size, addressed by idx wherever the buffer is
// accessed (idx must be in scope at the Alloc, per spec's precondition —
// typically an enclosing loop's iterator, used to privatize a buffer per
// iteration).
func (p Proc) ExpandDim(target cursor.Cursor, size ir.AExpr, idx ir.AExpr) (Proc, cursor.Forward, error) {
	alloc, i, path, block, err := allocTarget("expand_dim", target)
	if err != nil {
		return Proc{}, nil, err
	}
	newShape := append([]ir.AExpr{size}, alloc.Type.Shape...)
	newAlloc := ir.NewAllocStmt(alloc.Src, alloc.Buf, ir.Type{Kind: alloc.Type.Kind, Scalar: alloc.Type.Scalar, Shape: newShape}, alloc.Mem)

	rewriteIdx := func(idxList []ir.AExpr) []ir.AExpr {
		return append([]ir.AExpr{idx}, idxList...)
	}
	newBody := rewriteBufferAccesses(p.ir.Body, alloc.Buf.ID(), rewriteIdx)

	newBlock := replaceStmtAt(block, i, []ir.Stmt{newAlloc})
	next := withNewBlock(p.ir.WithBody(newBody), path, newBlock)
	return New(next), cursor.Identity(next), nil
}

// rewriteBufferAccesses walks body, applying f to the index list of every
// Read, AssignStmt, and ReduceStmt that addresses bufID.
func rewriteBufferAccesses(body []ir.Stmt, bufID uint64, f func([]ir.AExpr) []ir.AExpr) []ir.Stmt {
	out := make([]ir.Stmt, len(body))
	for i, st := range body {
		out[i] = rewriteStmtAccesses(st, bufID, f)
	}
	return out
}

func rewriteStmtAccesses(st ir.Stmt, bufID uint64, f func([]ir.AExpr) []ir.AExpr) ir.Stmt {
	switch s := st.(type) {
	case *ir.AssignStmt:
		idx := s.Idx
		if s.Buf.ID() == bufID {
			idx = f(idx)
		}
		return ir.NewAssignStmt(s.Src, s.Buf, idx, rewriteValAccesses(s.RHS, bufID, f))
	case *ir.ReduceStmt:
		idx := s.Idx
		if s.Buf.ID() == bufID {
			idx = f(idx)
		}
		return ir.NewReduceStmt(s.Src, s.Buf, idx, rewriteValAccesses(s.RHS, bufID, f))
	case *ir.IfStmt:
		return ir.NewIfStmt(s.Src, s.Cond, rewriteBufferAccesses(s.Body, bufID, f), rewriteBufferAccesses(s.OrElse, bufID, f))
	case *ir.ForStmt:
		return ir.NewForStmt(s.Src, s.Iter, s.Lo, s.Hi, s.Mode, rewriteBufferAccesses(s.Body, bufID, f))
	default:
		return st
	}
}

// firstUnprovenAccess walks every statement in body, tracking an
// affine.RangeEnv through enclosing for-loops, and reports the first
// dimension of bufID's accesses that the range environment cannot prove
// stays below the corresponding entry of bounds — bound_alloc's "bounds
// must be >= the range analysis proves is ever accessed" precondition.
func firstUnprovenAccess(body []ir.Stmt, bufID uint64, bounds []ir.AExpr) (int, bool) {
	env := affine.NewRangeEnv()
	return scanBlockBounds(body, bufID, bounds, env)
}

func scanBlockBounds(body []ir.Stmt, bufID uint64, bounds []ir.AExpr, env *affine.RangeEnv) (int, bool) {
	for _, st := range body {
		switch n := st.(type) {
		case *ir.AssignStmt:
			if n.Buf.ID() == bufID {
				if d, bad := firstBadDim(n.Idx, bounds, env); bad {
					return d, true
				}
			}
			if d, bad := scanExprBounds(n.RHS, bufID, bounds, env); bad {
				return d, true
			}
		case *ir.ReduceStmt:
			if n.Buf.ID() == bufID {
				if d, bad := firstBadDim(n.Idx, bounds, env); bad {
					return d, true
				}
			}
			if d, bad := scanExprBounds(n.RHS, bufID, bounds, env); bad {
				return d, true
			}
		case *ir.IfStmt:
			if d, bad := scanBlockBounds(n.Body, bufID, bounds, env); bad {
				return d, true
			}
			if d, bad := scanBlockBounds(n.OrElse, bufID, bounds, env); bad {
				return d, true
			}
		case *ir.ForStmt:
			env.EnterFor(n.Iter, n.Lo, n.Hi)
			d, bad := scanBlockBounds(n.Body, bufID, bounds, env)
			env.Pop()
			if bad {
				return d, true
			}
		case *ir.CallStmt:
			for _, a := range n.Args {
				if d, bad := scanExprBounds(a, bufID, bounds, env); bad {
					return d, true
				}
			}
		}
	}
	return 0, false
}

func scanExprBounds(e ir.ValExpr, bufID uint64, bounds []ir.AExpr, env *affine.RangeEnv) (int, bool) {
	var bad bool
	var badDim int
	v := &ir.Visitor{PreExpr: func(x ir.ValExpr) bool {
		if r, ok := x.(*ir.Read); ok && r.Buf.ID() == bufID {
			if d, thisBad := firstBadDim(r.Idx, bounds, env); thisBad {
				bad, badDim = true, d
			}
		}
		return true
	}}
	ir.WalkExpr(e, v)
	return badDim, bad
}

func firstBadDim(idx []ir.AExpr, bounds []ir.AExpr, env *affine.RangeEnv) (int, bool) {
	for d := range idx {
		if d >= len(bounds) {
			continue
		}
		if !env.Check(idx[d], ir.CmpLt, bounds[d]) {
			return d, true
		}
	}
	return 0, false
}

func rewriteValAccesses(e ir.ValExpr, bufID uint64, f func([]ir.AExpr) []ir.AExpr) ir.ValExpr {
	switch n := e.(type) {
	case *ir.Read:
		idx := n.Idx
		if n.Buf.ID() == bufID {
			idx = f(idx)
		}
		return ir.NewRead(n.Loc(), n.ExprType(), n.Buf, idx)
	case *ir.BinOp:
		return ir.NewBinOp(n.Loc(), n.ExprType(), n.Op, rewriteValAccesses(n.LHS, bufID, f), rewriteValAccesses(n.RHS, bufID, f))
	case *ir.USub:
		return ir.NewUSub(n.Loc(), n.ExprType(), rewriteValAccesses(n.E, bufID, f))
	case *ir.Select:
		return ir.NewSelect(n.Loc(), n.ExprType(), n.Pred, rewriteValAccesses(n.Then, bufID, f), rewriteValAccesses(n.Else, bufID, f))
	default:
		return e
	}
}
