package schedule

import (
	"exo/internal/affine"
	"exo/internal/cursor"
	"exo/internal/ir"
	"exo/internal/symbol"
)

// TailPolicy selects how divide_loop handles a trip count not evenly
// divisible by the tile size.
type TailPolicy int

const (
	TailCut TailPolicy = iota
	TailGuard
	TailCutAndGuard
	TailPerfect
)

// DivideLoopArgs parametrizes divide_loop: split `for i in [lo, hi)` into an
// outer loop of trip size ceil/floor((hi-lo)/k) and an inner loop of trip
// size k, per the chosen TailPolicy.
type DivideLoopArgs struct {
	K                  int64
	OuterName, InnerName string
	Tail               TailPolicy
}

// DivideLoop implements the rewrite table's `divide_loop(loop, k,
// [outer,inner], tail)`.
func (p Proc) DivideLoop(target cursor.Cursor, a DivideLoopArgs) (Proc, cursor.Forward, error) {
	if a.K < 1 {
		return Proc{}, nil, schedErr("divide_loop", p.ir.Src, "k must be >= 1")
	}
	node, err := requireNode("divide_loop", target)
	if err != nil {
		return Proc{}, nil, err
	}
	loop, ok := node.(*ir.ForStmt)
	if !ok {
		return Proc{}, nil, schedErr("divide_loop", node.Loc(), "target is not a for loop")
	}
	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}

	outerIter := symbol.New(a.OuterName)
	innerIter := symbol.New(a.InnerName)
	k := &ir.AConst{Val: a.K}
	n := affine.Normalize(&ir.ASub{LHS: loop.Hi, RHS: loop.Lo})

	// body substitution: original iterator i -> lo + (io*k + ii)
	combined := affine.Normalize(&ir.AAdd{
		LHS: loop.Lo,
		RHS: &ir.AAdd{LHS: &ir.AScale{K: a.K, E: &ir.AVar{Sym: outerIter}}, RHS: &ir.AVar{Sym: innerIter}},
	})
	s := newSubst()
	s.addAExpr(loop.Iter.ID(), combined)
	newBody := mapBlock(loop.Body, s)

	var newStmts []ir.Stmt
	switch a.Tail {
	case TailPerfect:
		outerHi := affine.Normalize(&ir.AScaleDiv{E: n, K: a.K})
		inner := ir.NewForStmt(loop.Src, innerIter, &ir.AConst{Val: 0}, k, loop.Mode, newBody)
		outer := ir.NewForStmt(loop.Src, outerIter, &ir.AConst{Val: 0}, outerHi, loop.Mode, []ir.Stmt{inner})
		newStmts = []ir.Stmt{outer}

	case TailGuard:
		outerHi := affine.Normalize(&ir.AScaleDiv{E: &ir.AAdd{LHS: n, RHS: &ir.AConst{Val: a.K - 1}}, K: a.K})
		guardIdx := affine.Normalize(&ir.AAdd{LHS: &ir.AScale{K: a.K, E: &ir.AVar{Sym: outerIter}}, RHS: &ir.AVar{Sym: innerIter}})
		guard := ir.NewIfStmt(loop.Src, &ir.Cmp{Op: ir.CmpLt, LHS: guardIdx, RHS: n}, newBody, nil)
		inner := ir.NewForStmt(loop.Src, innerIter, &ir.AConst{Val: 0}, k, loop.Mode, []ir.Stmt{guard})
		outer := ir.NewForStmt(loop.Src, outerIter, &ir.AConst{Val: 0}, outerHi, loop.Mode, []ir.Stmt{inner})
		newStmts = []ir.Stmt{outer}

	case TailCut:
		outerHi := affine.Normalize(&ir.AScaleDiv{E: n, K: a.K})
		inner := ir.NewForStmt(loop.Src, innerIter, &ir.AConst{Val: 0}, k, loop.Mode, newBody)
		outer := ir.NewForStmt(loop.Src, outerIter, &ir.AConst{Val: 0}, outerHi, loop.Mode, []ir.Stmt{inner})

		tailIter := symbol.New(a.InnerName + "_tail")
		tailLo := affine.Normalize(&ir.AAdd{LHS: loop.Lo, RHS: &ir.AScale{K: a.K, E: outerHi}})
		tailS := newSubst()
		tailS.addAExpr(loop.Iter.ID(), &ir.AVar{Sym: tailIter})
		tailBody := mapBlock(loop.Body, tailS)
		// Exact-sized remainder loop: [tailLo, hi) covers precisely the
		// elements the main kxouterHi loop didn't, so no per-iteration
		// guard is needed.
		tail := ir.NewForStmt(loop.Src, tailIter, tailLo, loop.Hi, loop.Mode, tailBody)
		newStmts = []ir.Stmt{outer, tail}

	case TailCutAndGuard:
		outerHi := affine.Normalize(&ir.AScaleDiv{E: n, K: a.K})
		inner := ir.NewForStmt(loop.Src, innerIter, &ir.AConst{Val: 0}, k, loop.Mode, newBody)
		outer := ir.NewForStmt(loop.Src, outerIter, &ir.AConst{Val: 0}, outerHi, loop.Mode, []ir.Stmt{inner})

		// Fixed-width (k-sized) tail loop, structurally uniform with the
		// main inner loop, guarded per-iteration against overshooting hi.
		tailIter := symbol.New(a.InnerName + "_tail")
		tailLo := affine.Normalize(&ir.AAdd{LHS: loop.Lo, RHS: &ir.AScale{K: a.K, E: outerHi}})
		tailIdx := affine.Normalize(&ir.AAdd{LHS: tailLo, RHS: &ir.AVar{Sym: tailIter}})
		tailS := newSubst()
		tailS.addAExpr(loop.Iter.ID(), tailIdx)
		tailBody := mapBlock(loop.Body, tailS)
		guard := ir.NewIfStmt(loop.Src, &ir.Cmp{Op: ir.CmpLt, LHS: tailIdx, RHS: loop.Hi}, tailBody, nil)
		tail := ir.NewForStmt(loop.Src, tailIter, &ir.AConst{Val: 0}, k, loop.Mode, []ir.Stmt{guard})
		newStmts = []ir.Stmt{outer, tail}
	}

	newBlock := replaceStmtAt(block, idx, newStmts)
	path := target.PathOf()
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, idx, 1, len(newStmts))
	return New(next), fwd, nil
}

// ReorderLoops implements `reorder_loops(a, b)`: swap two perfectly nested
// adjacent loops (target names the outer one; its sole body statement must
// be the inner loop).
func (p Proc) ReorderLoops(target cursor.Cursor) (Proc, cursor.Forward, error) {
	node, err := requireNode("reorder_loops", target)
	if err != nil {
		return Proc{}, nil, err
	}
	outer, ok := node.(*ir.ForStmt)
	if !ok {
		return Proc{}, nil, schedErr("reorder_loops", ir.SrcInfo{}, "target is not a for loop")
	}
	if len(outer.Body) != 1 {
		return Proc{}, nil, schedErr("reorder_loops", outer.Loc(), "outer loop is not perfectly nested (body must be exactly the inner loop)")
	}
	inner, ok := outer.Body[0].(*ir.ForStmt)
	if !ok {
		return Proc{}, nil, schedErr("reorder_loops", outer.Loc(), "outer loop's sole statement is not a for loop")
	}
	if affine.DependsOn(inner.Lo, outer.Iter.ID()) || affine.DependsOn(inner.Hi, outer.Iter.ID()) {
		return Proc{}, nil, schedErr("reorder_loops", inner.Loc(), "inner loop's bounds depend on the outer iterator: iteration domain is not rectangular")
	}
	writes, reads := collectAccesses(inner.Body)
	if accessesConflict(writes, reads) {
		return Proc{}, nil, schedErr("reorder_loops", inner.Loc(), "loop body reads a buffer it writes at a different index: reordering may change the result")
	}
	newOuter := ir.NewForStmt(inner.Src, inner.Iter, inner.Lo, inner.Hi, inner.Mode,
		[]ir.Stmt{ir.NewForStmt(outer.Src, outer.Iter, outer.Lo, outer.Hi, outer.Mode, inner.Body)})

	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{newOuter})
	next := withNewBlock(p.ir, path, newBlock)
	// Same statement count at this position and one level down; interior
	// cursors into the swapped loops no longer have a stable image since
	// their enclosing iterator changed, so fall back to the conservative
	// restructureForward with oldCount==newCount==1 (still invalidates
	// cursors naming the loop itself or anything nested under it).
	fwd := restructureForward(next, path, idx, 1, 1)
	return New(next), fwd, nil
}

// Fission implements `fission(gap, n_lifts)`: split the loop(s) enclosing a
// gap into two sibling nests at that point, lifting the split n_lifts
// levels up through perfectly nested loops.
func (p Proc) Fission(gap cursor.Cursor, nLifts int) (Proc, cursor.Forward, error) {
	if gap.CursorKind() != cursor.KindGap {
		return Proc{}, nil, schedErr("fission", ir.SrcInfo{}, "target must be a gap")
	}
	splitPath := gap.PathOf()
	if len(splitPath) < nLifts {
		return Proc{}, nil, schedErr("fission", ir.SrcInfo{}, "n_lifts exceeds nesting depth at gap")
	}
	splitIdx, err := gap.Index()
	if err != nil {
		return Proc{}, nil, err
	}

	// Split the innermost block at splitIdx into (before, after).
	block, err := gap.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	before := append([]ir.Stmt{}, block[:splitIdx]...)
	after := append([]ir.Stmt{}, block[splitIdx:]...)
	if len(before) == 0 || len(after) == 0 {
		return Proc{}, nil, schedErr("fission", ir.SrcInfo{}, "gap is at a block boundary, nothing to split")
	}
	bw, br := collectAccesses(before)
	aw, ar := collectAccesses(after)
	if accessesConflict(bw, ar) || accessesConflict(aw, br) {
		return Proc{}, nil, schedErr("fission", ir.SrcInfo{}, "loop-carried dependency between the two halves: fission would change the result")
	}

	// Lift: wrap each half in copies of the nLifts enclosing loops, from
	// innermost enclosing loop outward, using splitPath's last nLifts steps.
	beforeStmts, afterStmts := before, after
	pivotPath := splitPath[:len(splitPath)-nLifts]

	// Reconstruct by walking outward from the deepest enclosing For/If,
	// re-wrapping each half with a copy of that enclosing statement.
	enclosing, err := enclosingChain(p.ir, splitPath, nLifts)
	if err != nil {
		return Proc{}, nil, err
	}
	for i := len(enclosing) - 1; i >= 0; i-- {
		switch s := enclosing[i].(type) {
		case *ir.ForStmt:
			beforeStmts = []ir.Stmt{ir.NewForStmt(s.Src, s.Iter, s.Lo, s.Hi, s.Mode, beforeStmts)}
			afterStmts = []ir.Stmt{ir.NewForStmt(s.Src, s.Iter, s.Lo, s.Hi, s.Mode, afterStmts)}
		case *ir.IfStmt:
			beforeStmts = []ir.Stmt{ir.NewIfStmt(s.Src, s.Cond, beforeStmts, nil)}
			afterStmts = []ir.Stmt{ir.NewIfStmt(s.Src, s.Cond, afterStmts, nil)}
		}
	}

	pivotIdx := splitPath[len(pivotPath)].Index
	outerBlock, err := blockAtPath(p.ir, pivotPath)
	if err != nil {
		return Proc{}, nil, err
	}
	newOuterBlock := replaceStmtAt(outerBlock, pivotIdx, append(beforeStmts, afterStmts...))
	next := withNewBlock(p.ir, pivotPath, newOuterBlock)
	fwd := restructureForward(next, pivotPath, pivotIdx, 1, 2)
	return New(next), fwd, nil
}

// Fuse implements `fuse(l1, l2)`: merge two adjacent loops with identical
// bounds into one, concatenating their bodies. l2's iterator is renamed to
// l1's throughout its body.
func (p Proc) Fuse(l1, l2 cursor.Cursor) (Proc, cursor.Forward, error) {
	n1, err := requireNode("fuse", l1)
	if err != nil {
		return Proc{}, nil, err
	}
	n2, err := requireNode("fuse", l2)
	if err != nil {
		return Proc{}, nil, err
	}
	f1, ok1 := n1.(*ir.ForStmt)
	f2, ok2 := n2.(*ir.ForStmt)
	if !ok1 || !ok2 {
		return Proc{}, nil, schedErr("fuse", ir.SrcInfo{}, "both targets must be for loops")
	}
	if !affine.Equal(f1.Lo, f2.Lo) || !affine.Equal(f1.Hi, f2.Hi) {
		return Proc{}, nil, schedErr("fuse", f2.Loc(), "loop bounds do not match")
	}
	i1, err := l1.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	i2, err := l2.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	if i2 != i1+1 {
		return Proc{}, nil, schedErr("fuse", f2.Loc(), "loops are not adjacent")
	}
	block, err := l1.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	s := newSubst()
	s.addRebind(f2.Iter, f1.Iter)
	body2 := mapBlock(f2.Body, s)

	w1, r1 := collectAccesses(f1.Body)
	w2, r2 := collectAccesses(body2)
	if accessesConflict(w1, r2) || accessesConflict(w2, r1) {
		return Proc{}, nil, schedErr("fuse", f2.Loc(), "cross dependency between the two loop bodies: fusing would change the result")
	}

	fused := ir.NewForStmt(f1.Src, f1.Iter, f1.Lo, f1.Hi, f1.Mode, append(append([]ir.Stmt{}, f1.Body...), body2...))

	path := l1.PathOf()
	newBlock := make([]ir.Stmt, 0, len(block)-1)
	newBlock = append(newBlock, block[:i1]...)
	newBlock = append(newBlock, fused)
	newBlock = append(newBlock, block[i2+1:]...)
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, i1, 2, 1)
	return New(next), fwd, nil
}

// UnrollLoop implements `unroll_loop(loop)`: the loop's trip count must be a
// known constant; the body is replicated once per iteration with the
// iterator substituted by the literal index.
func (p Proc) UnrollLoop(target cursor.Cursor) (Proc, cursor.Forward, error) {
	node, err := requireNode("unroll_loop", target)
	if err != nil {
		return Proc{}, nil, err
	}
	loop, ok := node.(*ir.ForStmt)
	if !ok {
		return Proc{}, nil, schedErr("unroll_loop", ir.SrcInfo{}, "target is not a for loop")
	}
	lo, loOk := loop.Lo.(*ir.AConst)
	hi, hiOk := loop.Hi.(*ir.AConst)
	if !loOk || !hiOk {
		return Proc{}, nil, schedErr("unroll_loop", loop.Loc(), "loop does not have a constant trip count")
	}
	var newStmts []ir.Stmt
	for i := lo.Val; i < hi.Val; i++ {
		s := substAExpr(loop.Iter.ID(), i)
		newStmts = append(newStmts, mapBlock(loop.Body, s)...)
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
	newBlock := replaceStmtAt(block, idx, newStmts)
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, idx, 1, len(newStmts))
	return New(next), fwd, nil
}

// blockAtPath returns the statement slice the given path descends to,
// starting from proc's top-level body.
func blockAtPath(proc *ir.Proc, path []cursor.Path) ([]ir.Stmt, error) {
	block := proc.Body
	for _, step := range path {
		switch s := block[step.Index].(type) {
		case *ir.ForStmt:
			block = s.Body
		case *ir.IfStmt:
			if step.Field == "orelse" {
				block = s.OrElse
			} else {
				block = s.Body
			}
		default:
			return nil, schedErr("fission", ir.SrcInfo{}, "malformed path")
		}
	}
	return block, nil
}

// enclosingChain returns the n statements enclosing the gap/node at path,
// innermost first, starting from the deepest of path's last n steps.
func enclosingChain(proc *ir.Proc, path []cursor.Path, n int) ([]ir.Stmt, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]ir.Stmt, n)
	block := proc.Body
	var chain []ir.Stmt
	for _, step := range path {
		stmt := block[step.Index]
		chain = append(chain, stmt)
		switch s := stmt.(type) {
		case *ir.ForStmt:
			block = s.Body
		case *ir.IfStmt:
			if step.Field == "orelse" {
				block = s.OrElse
			} else {
				block = s.Body
			}
		}
	}
	for i := 0; i < n; i++ {
		out[i] = chain[len(chain)-1-i]
	}
	return out, nil
}
