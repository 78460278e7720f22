package schedule

import (
	"exo/internal/cursor"
	"exo/internal/ir"
	"exo/internal/symbol"
)

// StageMemArgs parametrizes stage_mem: the affine region [Lo, Lo+Shape) of
// SrcBuf is copied into a freshly allocated local buffer Name before target
// runs, and copied back out after, with every access to that region inside
// target redirected to the local buffer.
type StageMemArgs struct {
	SrcBuf       symbol.Symbol
	Name         string
	Scalar       ir.Scalar
	Shape        []ir.AExpr
	Lo           []ir.AExpr
	Mem          string
	NLifts       int
}

// StageMem implements `stage_mem(expr, name, n_lifts)`. target names the
// statement (typically a loop nest) whose body reads/writes the staged
// region; the copy-in/copy-out pair and the Alloc/Free are placed n_lifts
// levels above target, preserving the enclosing loop structure between
// them and target unchanged apart from the redirected accesses.
func (p Proc) StageMem(target cursor.Cursor, a StageMemArgs) (Proc, cursor.Forward, error) {
	node, err := requireNode("stage_mem", target)
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	if len(path) < a.NLifts {
		return Proc{}, nil, schedErr("stage_mem", node.Loc(), "n_lifts exceeds nesting depth")
	}
	local := symbol.New(a.Name)
	rewriteIdx := func(idx []ir.AExpr) []ir.AExpr {
		out := make([]ir.AExpr, len(idx))
		for i, e := range idx {
			if i < len(a.Lo) {
				out[i] = &ir.ASub{LHS: e, RHS: a.Lo[i]}
			} else {
				out[i] = e
			}
		}
		return out
	}
	rewritten := rewriteStmtAccesses(node, a.SrcBuf.ID(), rewriteIdx)
	renamed := rewriteBufSymbol(rewritten, a.SrcBuf.ID(), local)

	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	preservedBlock := replaceStmtAt(block, idx, []ir.Stmt{renamed})

	var preservedStmts []ir.Stmt = preservedBlock
	pivotPath := path
	pivotIdx := idx
	if a.NLifts > 0 {
		enclosing, err := enclosingChain(p.ir, path, a.NLifts)
		if err != nil {
			return Proc{}, nil, err
		}
		wrapped := []ir.Stmt(preservedBlock)
		for i := len(enclosing) - 1; i >= 0; i-- {
			switch s := enclosing[i].(type) {
			case *ir.ForStmt:
				wrapped = []ir.Stmt{ir.NewForStmt(s.Src, s.Iter, s.Lo, s.Hi, s.Mode, wrapped)}
			case *ir.IfStmt:
				wrapped = []ir.Stmt{ir.NewIfStmt(s.Src, s.Cond, wrapped, nil)}
			}
		}
		preservedStmts = wrapped
		pivotPath = path[:len(path)-a.NLifts]
		pivotIdx = path[len(pivotPath)].Index
	}

	allocT := ir.TensorType(a.Scalar, a.Shape)
	alloc := ir.NewAllocStmt(node.Loc(), local, allocT, a.Mem)
	free := ir.NewFreeStmt(node.Loc(), local, allocT, a.Mem)
	copyIn := buildCopyLoop(node.Loc(), a.Scalar, a.Shape, local, a.SrcBuf, a.Lo, true)
	copyOut := buildCopyLoop(node.Loc(), a.Scalar, a.Shape, local, a.SrcBuf, a.Lo, false)

	newStmts := append([]ir.Stmt{alloc, copyIn}, preservedStmts...)
	newStmts = append(newStmts, copyOut, free)

	outerBlock, err := blockAtPath(p.ir, pivotPath)
	if err != nil {
		return Proc{}, nil, err
	}
	newOuterBlock := replaceStmtAt(outerBlock, pivotIdx, newStmts)
	next := withNewBlock(p.ir, pivotPath, newOuterBlock)
	fwd := restructureForward(next, pivotPath, pivotIdx, 1, len(newStmts))
	return New(next), fwd, nil
}

// buildCopyLoop builds a rank-len(shape) nested loop that copies between
// local (indices [0,shape)) and src (indices [lo, lo+shape)); in==true
// copies src into local (copy-in), in==false copies local back into src.
func buildCopyLoop(src ir.SrcInfo, scalar ir.Scalar, shape []ir.AExpr, local, buf symbol.Symbol, lo []ir.AExpr, in bool) ir.Stmt {
	iters := make([]symbol.Symbol, len(shape))
	for i := range shape {
		iters[i] = symbol.New("_si")
	}
	localIdx := make([]ir.AExpr, len(shape))
	srcIdx := make([]ir.AExpr, len(shape))
	for i, it := range iters {
		localIdx[i] = &ir.AVar{Sym: it}
		loE := ir.AExpr(&ir.AConst{Val: 0})
		if i < len(lo) {
			loE = lo[i]
		}
		srcIdx[i] = &ir.AAdd{LHS: loE, RHS: &ir.AVar{Sym: it}}
	}
	var body ir.Stmt
	scalarT := ir.ScalarType(scalar)
	if in {
		body = ir.NewAssignStmt(src, local, localIdx, ir.NewRead(src, scalarT, buf, srcIdx))
	} else {
		body = ir.NewAssignStmt(src, buf, srcIdx, ir.NewRead(src, scalarT, local, localIdx))
	}
	stmts := []ir.Stmt{body}
	for i := len(shape) - 1; i >= 0; i-- {
		stmts = []ir.Stmt{ir.NewForStmt(src, iters[i], &ir.AConst{Val: 0}, shape[i], ir.Seq, stmts)}
	}
	return stmts[0]
}

// rewriteBufSymbol walks st, replacing every Buf reference to oldID with
// newSym (used after stage_mem/stage_window redirect indices, to also
// redirect the symbol identity).
func rewriteBufSymbol(st ir.Stmt, oldID uint64, newSym symbol.Symbol) ir.Stmt {
	s := newSubst()
	s.aexpr = map[uint64]ir.AExpr{}
	s.rebnd[oldID] = newSym
	return mapStmt(st, s)
}

// StageWindowArgs parametrizes stage_window: name becomes a window alias
// over SrcBuf's region described by Slices, with no physical copy.
type StageWindowArgs struct {
	SrcBuf symbol.Symbol
	Name   string
	Slices []ir.WSlice
	Mem    string
}

// StageWindow implements `stage_window(read, name, mem)`: introduces a
// window binding over the addressed region and redirects accesses inside
// target to read through it instead of the original buffer.
func (p Proc) StageWindow(target cursor.Cursor, a StageWindowArgs) (Proc, cursor.Forward, error) {
	node, err := requireNode("stage_window", target)
	if err != nil {
		return Proc{}, nil, err
	}
	winSym := symbol.New(a.Name)
	srcArg := findArg(p.ir, a.SrcBuf)
	if srcArg == nil {
		return Proc{}, nil, schedErr("stage_window", node.Loc(), "source buffer is not a procedure argument")
	}
	winType := ir.WindowType(srcArg.Type.Scalar, shapeOfSlices(a.Slices), a.SrcBuf.Name(), a.SrcBuf.ID(), !srcArg.Effect.Writable())
	winExpr := ir.NewWindowExpr(node.Loc(), winType, a.SrcBuf, a.Slices)
	winStmt := ir.NewWindowStmt(node.Loc(), winSym, winExpr)

	renamed := rewriteBufSymbol(node, a.SrcBuf.ID(), winSym)

	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{winStmt, renamed})
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, idx, 1, 2)
	return New(next), fwd, nil
}

func findArg(proc *ir.Proc, sym symbol.Symbol) *ir.Arg {
	for i := range proc.Args {
		if proc.Args[i].Sym.Equal(sym) {
			return &proc.Args[i]
		}
	}
	return nil
}

func shapeOfSlices(slices []ir.WSlice) []ir.AExpr {
	var shape []ir.AExpr
	for _, s := range slices {
		if s.Hi != nil {
			shape = append(shape, &ir.ASub{LHS: s.Hi, RHS: s.Lo})
		}
	}
	return shape
}
