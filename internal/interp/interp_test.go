package interp

import (
	"testing"

	"exo/internal/ir"
	"exo/internal/symbol"
)

// accProc builds the TIR for:
//
//	def acc(N: size, A: f32[N] @IN, r: f32[1] @OUT):
//	  r[0] = 0
//	  for i in [0, N):
//	    r[0] += A[i]
//
// the testable-property-S6 kernel from spec section 8.
func accProc() *ir.Proc {
	n := symbol.New("N")
	a := symbol.New("A")
	r := symbol.New("r")
	i := symbol.New("i")
	f32 := ir.F32

	initR := ir.NewAssignStmt(ir.SrcInfo{}, r, []ir.AExpr{&ir.AConst{Val: 0}}, ir.NewConst(ir.SrcInfo{}, ir.ScalarType(f32), float64(0)))
	reduce := ir.NewReduceStmt(ir.SrcInfo{}, r, []ir.AExpr{&ir.AConst{Val: 0}},
		ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), a, []ir.AExpr{&ir.AVar{Sym: i}}))
	loop := ir.NewForStmt(ir.SrcInfo{}, i, &ir.AConst{Val: 0}, &ir.ASize{Sym: n}, ir.Seq, []ir.Stmt{reduce})

	return ir.NewProc("acc", []ir.Arg{
		{Sym: n, Type: ir.IndexType(ir.ClassSize), Mem: "DRAM", Effect: ir.IN},
		{Sym: a, Type: ir.TensorType(f32, []ir.AExpr{&ir.ASize{Sym: n}}), Mem: "DRAM", Effect: ir.IN},
		{Sym: r, Type: ir.TensorType(f32, []ir.AExpr{&ir.AConst{Val: 1}}), Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{initR, loop}, nil, ir.SrcInfo{})
}

func TestRunAccumulatesSum(t *testing.T) {
	a := NewBuffer(ir.F32, []int64{3})
	copy(a.Data, []float64{0, 1, 2})
	r := NewBuffer(ir.F32, []int64{1})

	if err := Run(accProc(), []Value{float64(3), a, r}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Data[0] != 3.0 {
		t.Fatalf("expected r=3.0, got %v", r.Data[0])
	}
}

func TestFloorDivMatchesCompiledHelper(t *testing.T) {
	cases := []struct{ n, q, want int64 }{
		{7, 4, 1},
		{-1, 4, -1},
		{-5, 4, -2},
		{8, 4, 2},
	}
	for _, c := range cases {
		if got := floorDiv(c.n, c.q); got != c.want {
			t.Fatalf("floorDiv(%d, %d) = %d, want %d", c.n, c.q, got, c.want)
		}
	}
}

// reluWindowProc builds the TIR for:
//
//	def relu_win(A: f32[8] @IN, B: f32[8] @OUT):
//	  w = A[2:6]
//	  for i in [0, 4):
//	    B[i] = relu(w[i])
func reluWindowProc() *ir.Proc {
	a := symbol.New("A")
	b := symbol.New("B")
	w := symbol.New("w")
	i := symbol.New("i")
	f32 := ir.F32

	winType := ir.WindowType(f32, []ir.AExpr{&ir.AConst{Val: 4}}, "A", a.ID(), false)
	windowExpr := ir.NewWindowExpr(ir.SrcInfo{}, winType, a, []ir.WSlice{
		{Lo: &ir.AConst{Val: 2}, Hi: &ir.AConst{Val: 6}},
	})
	windowStmt := ir.NewWindowStmt(ir.SrcInfo{}, w, windowExpr)

	reluCall := ir.NewExtern(ir.SrcInfo{}, ir.ScalarType(f32), "relu", []ir.ValExpr{
		ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), w, []ir.AExpr{&ir.AVar{Sym: i}}),
	})
	assign := ir.NewAssignStmt(ir.SrcInfo{}, b, []ir.AExpr{&ir.AVar{Sym: i}}, reluCall)
	loop := ir.NewForStmt(ir.SrcInfo{}, i, &ir.AConst{Val: 0}, &ir.AConst{Val: 4}, ir.Seq, []ir.Stmt{assign})

	srcShape := []ir.AExpr{&ir.AConst{Val: 8}}
	return ir.NewProc("relu_win", []ir.Arg{
		{Sym: a, Type: ir.TensorType(f32, srcShape), Mem: "DRAM", Effect: ir.IN},
		{Sym: b, Type: ir.TensorType(f32, srcShape), Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{windowStmt, loop}, nil, ir.SrcInfo{})
}

func TestRunWindowNarrowingAndExternCall(t *testing.T) {
	a := NewBuffer(ir.F32, []int64{8})
	copy(a.Data, []float64{-4, -3, -2, -1, 0, 1, 2, 3})
	b := NewBuffer(ir.F32, []int64{8})

	if err := Run(reluWindowProc(), []Value{a, b}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []float64{0, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if b.Data[i] != w {
			t.Fatalf("B[%d] = %v, want %v (got %v)", i, b.Data[i], w, b.Data)
		}
	}
}

// doubleProc/doubleCallerProc exercise CallStmt: the callee receives a
// scalar element read out of the caller's buffer by value, and the whole
// output buffer by reference, matching the by-value/by-pointer split the
// compiled C signature uses.
func doubleProc() *ir.Proc {
	x := symbol.New("x")
	y := symbol.New("y")
	f32 := ir.F32

	assign := ir.NewAssignStmt(ir.SrcInfo{}, y, []ir.AExpr{&ir.AConst{Val: 0}},
		ir.NewBinOp(ir.SrcInfo{}, ir.ScalarType(f32), "*",
			ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), x, nil),
			ir.NewConst(ir.SrcInfo{}, ir.ScalarType(f32), float64(2)),
		))

	return ir.NewProc("double", []ir.Arg{
		{Sym: x, Type: ir.ScalarType(f32), Mem: "DRAM", Effect: ir.IN},
		{Sym: y, Type: ir.TensorType(f32, []ir.AExpr{&ir.AConst{Val: 1}}), Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{assign}, nil, ir.SrcInfo{})
}

func doubleCallerProc(callee *ir.Proc) *ir.Proc {
	a := symbol.New("a")
	b := symbol.New("b")
	f32 := ir.F32
	tensor := ir.TensorType(f32, []ir.AExpr{&ir.AConst{Val: 1}})

	call := ir.NewCallStmt(ir.SrcInfo{}, callee, []ir.ValExpr{
		ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), a, []ir.AExpr{&ir.AConst{Val: 0}}),
		ir.NewRead(ir.SrcInfo{}, tensor, b, nil),
	})

	return ir.NewProc("double_caller", []ir.Arg{
		{Sym: a, Type: tensor, Mem: "DRAM", Effect: ir.IN},
		{Sym: b, Type: tensor, Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{call}, nil, ir.SrcInfo{})
}

func TestRunCallBindsCalleeFrameAndSharesBuffers(t *testing.T) {
	a := NewBuffer(ir.F32, []int64{1})
	a.Data[0] = 5
	b := NewBuffer(ir.F32, []int64{1})

	caller := doubleCallerProc(doubleProc())
	if err := Run(caller, []Value{a, b}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.Data[0] != 10 {
		t.Fatalf("expected b[0]=10, got %v", b.Data[0])
	}
}
