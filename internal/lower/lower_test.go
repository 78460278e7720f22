package lower

import (
	"strings"
	"testing"

	"exo/internal/extern"
	"exo/internal/ir"
	"exo/internal/memory"
	"exo/internal/symbol"
)

// copyAddProc builds the TIR for:
//
//	def copy_add(n: size, A: f32[n] @IN, B: f32[n] @IN, C: f32[n] @OUT):
//	  for i in [0, n):
//	    C[i] = A[i] + B[i]
func copyAddProc() *ir.Proc {
	n := symbol.New("n")
	a := symbol.New("A")
	b := symbol.New("B")
	c := symbol.New("C")
	i := symbol.New("i")

	shape := []ir.AExpr{&ir.ASize{Sym: n}}
	f32 := ir.F32
	tensor := ir.TensorType(f32, shape)

	idx := []ir.AExpr{&ir.AVar{Sym: i}}
	rhs := ir.NewBinOp(ir.SrcInfo{}, ir.ScalarType(f32), "+",
		ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), a, idx),
		ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), b, idx),
	)
	assign := ir.NewAssignStmt(ir.SrcInfo{}, c, idx, rhs)
	loop := ir.NewForStmt(ir.SrcInfo{}, i, &ir.AConst{Val: 0}, &ir.ASize{Sym: n}, ir.Seq, []ir.Stmt{assign})

	return ir.NewProc("copy_add", []ir.Arg{
		{Sym: n, Type: ir.IndexType(ir.ClassSize), Mem: "DRAM", Effect: ir.IN},
		{Sym: a, Type: tensor, Mem: "DRAM", Effect: ir.IN},
		{Sym: b, Type: tensor, Mem: "DRAM", Effect: ir.IN},
		{Sym: c, Type: tensor, Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{loop}, nil, ir.SrcInfo{})
}

func lowerOne(t *testing.T, proc *ir.Proc) Output {
	t.Helper()
	out, err := Lower([]*ir.Proc{proc}, memory.NewRegistry(), extern.NewMathTable(), "kernels")
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	return out
}

func TestLowerCopyAddSignature(t *testing.T) {
	out := lowerOne(t, copyAddProc())
	if !strings.Contains(out.Header, "void copy_add(ExoKernelsCtx* ctxt, int32_t n, const float* restrict a, const float* restrict b, float* restrict c);") {
		t.Fatalf("unexpected header prototype:\n%s", out.Header)
	}
	if !strings.Contains(out.Source, "void copy_add(ExoKernelsCtx* ctxt, int32_t n, const float* restrict a, const float* restrict b, float* restrict c) {") {
		t.Fatalf("unexpected source definition:\n%s", out.Source)
	}
}

func TestLowerCopyAddBody(t *testing.T) {
	out := lowerOne(t, copyAddProc())
	if !strings.Contains(out.Source, "for (int32_t i = 0; i < n; i++) {") {
		t.Fatalf("expected a rendered for loop, got:\n%s", out.Source)
	}
	if !strings.Contains(out.Source, "c[(i) * (1)] = (a[(i) * (1)] + b[(i) * (1)]);") {
		t.Fatalf("expected a flattened dense assignment, got:\n%s", out.Source)
	}
}

func TestLowerHeaderHasIncludeGuardAndAssume(t *testing.T) {
	out := lowerOne(t, copyAddProc())
	if !strings.Contains(out.Header, "#ifndef EXO_KERNELS_H") {
		t.Fatalf("expected an include guard, got:\n%s", out.Header)
	}
	if !strings.Contains(out.Header, "#define assume(cond)") {
		t.Fatalf("expected the assume() macro, got:\n%s", out.Header)
	}
}

// divideLoopProc builds a TIR proc exercising floor-division elision
// (testable property S4): y[i] = x[i / 4], where i ranges over [0, n) and
// is therefore provably non-negative, so AScaleDiv should elide to native
// "/" instead of the floor_div helper.
func divideLoopProc() *ir.Proc {
	n := symbol.New("n")
	x := symbol.New("x")
	y := symbol.New("y")
	i := symbol.New("i")

	shape := []ir.AExpr{&ir.ASize{Sym: n}}
	f32 := ir.F32
	tensor := ir.TensorType(f32, shape)

	divIdx := []ir.AExpr{&ir.AScaleDiv{E: &ir.AVar{Sym: i}, K: 4}}
	rhs := ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), x, divIdx)
	assign := ir.NewAssignStmt(ir.SrcInfo{}, y, []ir.AExpr{&ir.AVar{Sym: i}}, rhs)
	loop := ir.NewForStmt(ir.SrcInfo{}, i, &ir.AConst{Val: 0}, &ir.ASize{Sym: n}, ir.Seq, []ir.Stmt{assign})

	return ir.NewProc("divide_loop", []ir.Arg{
		{Sym: n, Type: ir.IndexType(ir.ClassSize), Mem: "DRAM", Effect: ir.IN},
		{Sym: x, Type: tensor, Mem: "DRAM", Effect: ir.IN},
		{Sym: y, Type: tensor, Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{loop}, nil, ir.SrcInfo{})
}

func TestLowerElidesFloorDivWhenRangeProvesNonNegative(t *testing.T) {
	out := lowerOne(t, divideLoopProc())
	if strings.Contains(out.Source, "floor_div") {
		t.Fatalf("expected floor_div to be elided for a provably non-negative dividend, got:\n%s", out.Source)
	}
	if !strings.Contains(out.Source, "i / 4") {
		t.Fatalf("expected a native C division, got:\n%s", out.Source)
	}
}

// negativeDivideProc divides a plain int32 argument (no known lower bound),
// so floor_div must NOT be elided.
func negativeDivideProc() *ir.Proc {
	k := symbol.New("k")
	x := symbol.New("x")
	y := symbol.New("y")

	shape := []ir.AExpr{&ir.AConst{Val: 8}}
	i32 := ir.I32
	tensor := ir.TensorType(i32, shape)

	divIdx := []ir.AExpr{&ir.AScaleDiv{E: &ir.AVar{Sym: k}, K: 4}}
	rhs := ir.NewRead(ir.SrcInfo{}, ir.ScalarType(i32), x, divIdx)
	assign := ir.NewAssignStmt(ir.SrcInfo{}, y, []ir.AExpr{&ir.AConst{Val: 0}}, rhs)

	return ir.NewProc("unelided_divide", []ir.Arg{
		{Sym: k, Type: ir.IndexType(ir.ClassIndex), Mem: "DRAM", Effect: ir.IN},
		{Sym: x, Type: tensor, Mem: "DRAM", Effect: ir.IN},
		{Sym: y, Type: tensor, Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{assign}, nil, ir.SrcInfo{})
}

func TestLowerKeepsFloorDivWhenRangeIsUnproven(t *testing.T) {
	out := lowerOne(t, negativeDivideProc())
	if !strings.Contains(out.Source, "floor_div(k, 4)") {
		t.Fatalf("expected floor_div to be kept for an unbounded index, got:\n%s", out.Source)
	}
	if !strings.Contains(out.Source, floorDivHelper) {
		t.Fatalf("expected the floor_div helper to be emitted, got:\n%s", out.Source)
	}
}

// reluWindowProc exercises a window narrowing plus an extern call, so the
// window-struct synthesis and extern-table wiring are both covered:
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
	srcShape := []ir.AExpr{&ir.AConst{Val: 8}}
	winShape := []ir.AExpr{&ir.AConst{Val: 4}}
	winType := ir.WindowType(f32, winShape, "A", a.ID(), false)

	windowExpr := ir.NewWindowExpr(ir.SrcInfo{}, winType, a, []ir.WSlice{
		{Lo: &ir.AConst{Val: 2}, Hi: &ir.AConst{Val: 6}},
	})
	windowStmt := ir.NewWindowStmt(ir.SrcInfo{}, w, windowExpr)

	reluCall := ir.NewExtern(ir.SrcInfo{}, ir.ScalarType(f32), "relu", []ir.ValExpr{
		ir.NewRead(ir.SrcInfo{}, ir.ScalarType(f32), w, []ir.AExpr{&ir.AVar{Sym: i}}),
	})
	assign := ir.NewAssignStmt(ir.SrcInfo{}, b, []ir.AExpr{&ir.AVar{Sym: i}}, reluCall)
	loop := ir.NewForStmt(ir.SrcInfo{}, i, &ir.AConst{Val: 0}, &ir.AConst{Val: 4}, ir.Seq, []ir.Stmt{assign})

	return ir.NewProc("relu_win", []ir.Arg{
		{Sym: a, Type: ir.TensorType(f32, srcShape), Mem: "DRAM", Effect: ir.IN},
		{Sym: b, Type: ir.TensorType(f32, srcShape), Mem: "DRAM", Effect: ir.OUT},
	}, nil, []ir.Stmt{windowStmt, loop}, nil, ir.SrcInfo{})
}

func TestLowerWindowStructAndExternCall(t *testing.T) {
	out := lowerOne(t, reluWindowProc())
	if !strings.Contains(out.Header, "struct exo_win_1f32 {") {
		t.Fatalf("expected a rank-1 f32 window struct, got:\n%s", out.Header)
	}
	if !strings.Contains(out.Source, "w = (struct exo_win_1f32){ .data = (float*) (a + (2) * (1)), .strides = {1} };") {
		t.Fatalf("unexpected window literal, got:\n%s", out.Source)
	}
	if !strings.Contains(out.Source, "(w.data[(i) * (w.strides[0])] > (float)0 ? w.data[(i) * (w.strides[0])] : (float)0)") {
		t.Fatalf("expected the relu extern inlined, got:\n%s", out.Source)
	}
}
