package schedule

import (
	"testing"

	"exo/internal/cursor"
	"exo/internal/ir"
	"exo/internal/symbol"
)

// copyAddProc builds:
//
//	proc copy_add(n: f32, A: f32[n], B: f32[n], C: f32[n]) :
//	  for i in [0, n):
//	    C[i] = A[i] + B[i]
func copyAddProc(n int64) (*ir.Proc, symbol.Symbol, symbol.Symbol, symbol.Symbol, symbol.Symbol) {
	nSym := symbol.New("n")
	aSym := symbol.New("A")
	bSym := symbol.New("B")
	cSym := symbol.New("C")
	iSym := symbol.New("i")

	src := ir.SrcInfo{}
	shape := []ir.AExpr{&ir.AVar{Sym: nSym}}
	if n >= 0 {
		shape = []ir.AExpr{&ir.AConst{Val: n}}
	}
	scalarT := ir.ScalarType(ir.F32)
	tensorT := ir.TensorType(ir.F32, shape)

	idx := []ir.AExpr{&ir.AVar{Sym: iSym}}
	rhs := ir.NewBinOp(src, scalarT, "+",
		ir.NewRead(src, scalarT, aSym, idx),
		ir.NewRead(src, scalarT, bSym, idx))
	assign := ir.NewAssignStmt(src, cSym, idx, rhs)
	loop := ir.NewForStmt(src, iSym, &ir.AConst{Val: 0}, shape[0], ir.Seq, []ir.Stmt{assign})

	args := []ir.Arg{
		{Sym: nSym, Type: ir.ScalarType(ir.F32), Effect: ir.IN},
		{Sym: aSym, Type: tensorT, Effect: ir.IN},
		{Sym: bSym, Type: tensorT, Effect: ir.IN},
		{Sym: cSym, Type: tensorT, Effect: ir.OUT},
	}
	proc := ir.NewProc("copy_add", args, nil, []ir.Stmt{loop}, nil, src)
	return proc, nSym, aSym, bSym, cSym
}

func loopCursor(proc *ir.Proc) cursor.Cursor {
	root := cursor.Root(proc)
	children, err := root.Children()
	if err != nil || len(children) == 0 {
		panic("no children")
	}
	return children[0]
}

func TestDivideLoopTailPerfect(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(64)
	p := New(proc)
	target := loopCursor(proc)

	next, fwd, err := p.DivideLoop(target, DivideLoopArgs{
		K: 16, OuterName: "io", InnerName: "ii", Tail: TailPerfect,
	})
	if err != nil {
		t.Fatalf("DivideLoop: %v", err)
	}
	if len(next.IR().Body) != 1 {
		t.Fatalf("expected a single outer loop statement, got %d", len(next.IR().Body))
	}
	outer, ok := next.IR().Body[0].(*ir.ForStmt)
	if !ok {
		t.Fatalf("expected outer statement to be a for loop, got %T", next.IR().Body[0])
	}
	if len(outer.Body) != 1 {
		t.Fatalf("expected outer loop to contain exactly the inner loop")
	}
	if _, ok := outer.Body[0].(*ir.ForStmt); !ok {
		t.Fatalf("expected inner statement to be a for loop, got %T", outer.Body[0])
	}
	if fwd == nil {
		t.Fatalf("expected a non-nil forward map")
	}
}

func TestDivideLoopCutAndGuardScenarioS1(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(-1) // symbolic trip count, like SGEMM's N
	p := New(proc)
	target := loopCursor(proc)

	next, _, err := p.DivideLoop(target, DivideLoopArgs{
		K: 16, OuterName: "jo", InnerName: "ji", Tail: TailCutAndGuard,
	})
	if err != nil {
		t.Fatalf("DivideLoop: %v", err)
	}
	if len(next.IR().Body) != 2 {
		t.Fatalf("cut_and_guard must produce an outer-tiled loop plus a separate tail loop, got %d statements", len(next.IR().Body))
	}
	outer, ok := next.IR().Body[0].(*ir.ForStmt)
	if !ok || outer.Iter.Name() != "jo" {
		t.Fatalf("expected first statement to be the outer tiled loop named jo")
	}
	tail, ok := next.IR().Body[1].(*ir.ForStmt)
	if !ok {
		t.Fatalf("expected second statement to be the tail loop, got %T", next.IR().Body[1])
	}
	var guardHi ir.AExpr
	if len(tail.Body) == 1 {
		if guard, ok := tail.Body[0].(*ir.IfStmt); ok {
			if cmp, ok := guard.Cond.(*ir.Cmp); ok && cmp.Op == ir.CmpLt {
				guardHi = cmp.RHS
			}
		}
	}
	if guardHi != proc.Body[0].(*ir.ForStmt).Hi {
		t.Fatalf("tail loop body must be guarded by index < the original loop's Hi bound")
	}
}

func TestDivideLoopRejectsNonPositiveK(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(64)
	p := New(proc)
	target := loopCursor(proc)
	if _, _, err := p.DivideLoop(target, DivideLoopArgs{K: 0, OuterName: "jo", InnerName: "ji", Tail: TailPerfect}); err == nil {
		t.Fatalf("expected an error for k < 1")
	}
}

func TestFissionSplitsLoopBody(t *testing.T) {
	nSym := symbol.New("n")
	aSym := symbol.New("A")
	bSym := symbol.New("B")
	iSym := symbol.New("i")
	src := ir.SrcInfo{}
	scalarT := ir.ScalarType(ir.F32)
	idx := []ir.AExpr{&ir.AVar{Sym: iSym}}

	s1 := ir.NewAssignStmt(src, aSym, idx, ir.NewRead(src, scalarT, bSym, idx))
	s2 := ir.NewAssignStmt(src, bSym, idx, ir.NewRead(src, scalarT, aSym, idx))
	loop := ir.NewForStmt(src, iSym, &ir.AConst{Val: 0}, &ir.AVar{Sym: nSym}, ir.Seq, []ir.Stmt{s1, s2})
	proc := ir.NewProc("fission_target", nil, nil, []ir.Stmt{loop}, nil, src)

	p := New(proc)
	loopChild := loopCursor(proc)
	body, err := loopChild.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	children, err := body.Children()
	if err != nil || len(children) != 2 {
		t.Fatalf("expected 2 children in loop body, got %d, err=%v", len(children), err)
	}
	gap, err := children[0].After()
	if err != nil {
		t.Fatalf("After: %v", err)
	}

	next, fwd, err := p.Fission(gap, 1)
	if err != nil {
		t.Fatalf("Fission: %v", err)
	}
	if len(next.IR().Body) != 2 {
		t.Fatalf("expected fission to produce two sibling loops, got %d", len(next.IR().Body))
	}
	for i, st := range next.IR().Body {
		loop, ok := st.(*ir.ForStmt)
		if !ok {
			t.Fatalf("statement %d is not a for loop: %T", i, st)
		}
		if len(loop.Body) != 1 {
			t.Fatalf("statement %d: expected exactly one statement after fission, got %d", i, len(loop.Body))
		}
	}
	if fwd == nil {
		t.Fatalf("expected a non-nil forward map")
	}
}

func TestEliminateDeadCodeDropsUnreadAlloc(t *testing.T) {
	src := ir.SrcInfo{}
	deadBuf := symbol.New("dead")
	liveBuf := symbol.New("live")
	scalarT := ir.ScalarType(ir.F32)
	allocType := ir.TensorType(ir.F32, []ir.AExpr{&ir.AConst{Val: 4}})

	body := []ir.Stmt{
		ir.NewAllocStmt(src, deadBuf, allocType, "DRAM"),
		ir.NewAssignStmt(src, deadBuf, []ir.AExpr{&ir.AConst{Val: 0}}, ir.NewRead(src, scalarT, liveBuf, []ir.AExpr{&ir.AConst{Val: 0}})),
		ir.NewFreeStmt(src, deadBuf, allocType, "DRAM"),
	}
	proc := ir.NewProc("dce_target", nil, nil, body, nil, src)
	p := New(proc)

	next, err := p.EliminateDeadCode()
	if err != nil {
		t.Fatalf("EliminateDeadCode: %v", err)
	}
	for _, st := range next.IR().Body {
		if _, ok := st.(*ir.AllocStmt); ok {
			t.Fatalf("expected the dead Alloc to be removed, found %v", st)
		}
	}
}

func TestSimplifyIsIdempotent(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(64)
	p := New(proc)

	once, err := p.Simplify()
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	twice, err := once.Simplify()
	if err != nil {
		t.Fatalf("Simplify (second pass): %v", err)
	}
	if once.IR().String() != twice.IR().String() {
		t.Fatalf("simplify is not idempotent:\n%s\nvs\n%s", once.IR().String(), twice.IR().String())
	}
}

func TestUnrollLoopRequiresConstantBounds(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(-1)
	p := New(proc)
	target := loopCursor(proc)
	if _, _, err := p.UnrollLoop(target); err == nil {
		t.Fatalf("expected an error for a symbolic trip count")
	}
}

func TestUnrollLoopReplicatesConstantTripCount(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(4)
	p := New(proc)
	target := loopCursor(proc)

	next, _, err := p.UnrollLoop(target)
	if err != nil {
		t.Fatalf("UnrollLoop: %v", err)
	}
	if len(next.IR().Body) != 4 {
		t.Fatalf("expected 4 unrolled statements, got %d", len(next.IR().Body))
	}
	for _, st := range next.IR().Body {
		if _, ok := st.(*ir.AssignStmt); !ok {
			t.Fatalf("expected unrolled statements to be assignments, got %T", st)
		}
	}
}
