package typecheck

import (
	"strings"
	"testing"

	"exo/internal/ast"
	"exo/internal/memory"
)

// copyAddAST builds:
//
//	proc copy_add(n: size, A: f32[n] @IN, B: f32[n] @IN, C: f32[n] @OUT):
//	  for i in [0, n):
//	    C[i] = A[i] + B[i]
func copyAddAST() *ast.Proc {
	shape := []ast.Expr{&ast.Read{Name: "n"}}
	body := []ast.Stmt{
		&ast.For{
			Iter: "i",
			Lo:   &ast.Const{Val: int64(0)},
			Hi:   &ast.Read{Name: "n"},
			Mode: ast.ForSeq,
			Body: []ast.Stmt{
				&ast.Assign{
					Name: "C",
					Idx:  []ast.Expr{&ast.Read{Name: "i"}},
					RHS: &ast.BinOp{
						Op:  "+",
						LHS: &ast.Read{Name: "A", Idx: []ast.Expr{&ast.Read{Name: "i"}}},
						RHS: &ast.Read{Name: "B", Idx: []ast.Expr{&ast.Read{Name: "i"}}},
					},
				},
			},
		},
	}
	return &ast.Proc{
		Name: "copy_add",
		Args: []ast.Arg{
			{Name: "n", Type: ast.Type{Base: "size"}, Effect: ast.IN},
			{Name: "A", Type: ast.Type{Base: "f32", Shape: shape}, Effect: ast.IN},
			{Name: "B", Type: ast.Type{Base: "f32", Shape: shape}, Effect: ast.IN},
			{Name: "C", Type: ast.Type{Base: "f32", Shape: shape}, Effect: ast.OUT},
		},
		Body: body,
	}
}

func TestCheckCopyAddProducesExpectedShape(t *testing.T) {
	proc, err := Check(copyAddAST())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if proc.Name != "copy_add" {
		t.Fatalf("expected name copy_add, got %q", proc.Name)
	}
	if len(proc.Args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(proc.Args))
	}
	if proc.Args[1].Mem != "DRAM" {
		t.Fatalf("expected default memory DRAM, got %q", proc.Args[1].Mem)
	}
	if len(proc.Body) != 1 {
		t.Fatalf("expected a single top-level for loop, got %d statements", len(proc.Body))
	}
}

func TestCheckRejectsUnknownSymbol(t *testing.T) {
	proc := copyAddAST()
	assign := proc.Body[0].(*ast.For).Body[0].(*ast.Assign)
	assign.RHS = &ast.Read{Name: "Z"}
	if _, err := Check(proc); err == nil {
		t.Fatalf("expected an unknown-symbol error")
	}
}

func TestCheckRejectsWriteToConstArg(t *testing.T) {
	proc := copyAddAST()
	// A is IN; writing through it must fail.
	proc.Body[0].(*ast.For).Body = append(proc.Body[0].(*ast.For).Body, &ast.Assign{
		Name: "A",
		Idx:  []ast.Expr{&ast.Read{Name: "i"}},
		RHS:  &ast.Const{Val: int64(0)},
	})
	if _, err := Check(proc); err == nil {
		t.Fatalf("expected a write-to-const error")
	}
}

func TestCheckRejectsNonAffineIndex(t *testing.T) {
	proc := copyAddAST()
	assign := proc.Body[0].(*ast.For).Body[0].(*ast.Assign)
	// Index C by a scalar-tensor-read expression instead of the loop var.
	assign.Idx = []ast.Expr{&ast.Read{Name: "A", Idx: []ast.Expr{&ast.Read{Name: "i"}}}}
	if _, err := Check(proc); err == nil {
		t.Fatalf("expected a non-affine-index error")
	}
}

func TestCheckDetectsCallCycle(t *testing.T) {
	a := &ast.Proc{
		Name: "a",
		Body: []ast.Stmt{&ast.Call{Callee: "b"}},
	}
	b := &ast.Proc{
		Name: "b",
		Body: []ast.Stmt{&ast.Call{Callee: "a"}},
	}
	_, err := NewAnalyzer([]*ast.Proc{a, b}, memory.NewRegistry()).CheckAll()
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected a cyclic-call-graph error, got %v", err)
	}
}

func TestCheckCallArityMismatch(t *testing.T) {
	callee := &ast.Proc{
		Name: "leaf",
		Args: []ast.Arg{{Name: "x", Type: ast.Type{Base: "i32"}, Effect: ast.IN}},
	}
	caller := &ast.Proc{
		Name: "caller",
		Body: []ast.Stmt{&ast.Call{Callee: "leaf", Args: nil}},
	}
	if _, err := NewAnalyzer([]*ast.Proc{callee, caller}, memory.NewRegistry()).CheckAll(); err == nil {
		t.Fatalf("expected an arity-mismatch error")
	}
}

func TestCheckWindowArityMismatch(t *testing.T) {
	proc := &ast.Proc{
		Name: "window_bad",
		Args: []ast.Arg{
			{Name: "A", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Const{Val: int64(4)}, &ast.Const{Val: int64(4)}}}, Effect: ast.IN},
		},
		Body: []ast.Stmt{
			&ast.WindowStmt{
				Name: "w",
				Window: &ast.WindowExpr{
					Name:   "A",
					Slices: []ast.Slice{{Lo: &ast.Const{Val: int64(0)}, Hi: &ast.Const{Val: int64(2)}}},
				},
			},
		},
	}
	if _, err := Check(proc); err == nil {
		t.Fatalf("expected a window-arity error for a rank-2 tensor narrowed by one slice")
	}
}
