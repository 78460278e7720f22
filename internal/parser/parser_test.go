package parser

import (
	"testing"

	"exo/internal/ast"
)

// accProc is the UAST counterpart of internal/interp's accProc test fixture:
//
//	def acc(N: size, A: f32[N] @IN, r: f32[1] @OUT):
//	  r[0] = 0
//	  for i in [0, N): r[0] += A[i]
func accProc() *ast.Proc {
	return &ast.Proc{
		Name: "acc",
		Args: []ast.Arg{
			{Name: "N", Type: ast.Type{Base: "size"}, Effect: ast.IN},
			{Name: "A", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Read{Name: "N"}}}, Effect: ast.IN},
			{Name: "r", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Const{Val: int64(1)}}}, Effect: ast.OUT},
		},
		Body: []ast.Stmt{
			&ast.Assign{Name: "r", Idx: []ast.Expr{&ast.Const{Val: int64(0)}}, RHS: &ast.Const{Val: int64(0)}},
			&ast.For{
				Iter: "i",
				Lo:   &ast.Const{Val: int64(0)},
				Hi:   &ast.Read{Name: "N"},
				Body: []ast.Stmt{
					&ast.Reduce{
						Name: "r",
						Idx:  []ast.Expr{&ast.Const{Val: int64(0)}},
						RHS:  &ast.Read{Name: "A", Idx: []ast.Expr{&ast.Read{Name: "i"}}},
					},
				},
			},
		},
	}
}

// reprint parses src (expected to hold exactly one procedure) and prints
// the result back out, the fixed-point check testable property 2 asks for:
// a canonical printer/parser pair should reach a stable point after one
// round trip, not merely produce *some* parseable text.
func reprint(t *testing.T, src string) string {
	t.Helper()
	proc, err := ParseProc("<test>", src)
	if err != nil {
		t.Fatalf("ParseProc: %v\nsource:\n%s", err, src)
	}
	return proc.String()
}

func TestRoundTripAccKernel(t *testing.T) {
	printed := accProc().String()
	again := reprint(t, printed)
	if again != printed {
		t.Fatalf("round trip not stable:\n--- first ---\n%s\n--- second ---\n%s", printed, again)
	}
}

func TestRoundTripIfElseAndWindowAndExternAndConfig(t *testing.T) {
	proc := &ast.Proc{
		Name: "relu_win",
		Args: []ast.Arg{
			{Name: "A", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Const{Val: int64(8)}}}, Mem: "DRAM", Effect: ast.IN},
			{Name: "B", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Const{Val: int64(8)}}}, Mem: "DRAM", Effect: ast.OUT},
		},
		Preconditions: []ast.Expr{
			&ast.BinOp{Op: ">", LHS: &ast.Read{Name: "A"}, RHS: &ast.Const{Val: int64(0)}},
		},
		Body: []ast.Stmt{
			&ast.WindowStmt{
				Name: "w",
				Window: &ast.WindowExpr{
					Name: "A",
					Slices: []ast.Slice{
						{Lo: &ast.Const{Val: int64(2)}, Hi: &ast.Const{Val: int64(6)}},
					},
				},
			},
			&ast.For{
				Iter: "i",
				Lo:   &ast.Const{Val: int64(0)},
				Hi:   &ast.Const{Val: int64(4)},
				Mode: ast.ForPar,
				Body: []ast.Stmt{
					&ast.If{
						Cond: &ast.BinOp{Op: ">=", LHS: &ast.Read{Name: "w", Idx: []ast.Expr{&ast.Read{Name: "i"}}}, RHS: &ast.Const{Val: int64(0)}},
						Body: []ast.Stmt{
							&ast.Assign{
								Name: "B",
								Idx:  []ast.Expr{&ast.Read{Name: "i"}},
								RHS: &ast.Extern{Name: "relu", Args: []ast.Expr{
									&ast.Read{Name: "w", Idx: []ast.Expr{&ast.Read{Name: "i"}}},
								}},
							},
						},
						OrElse: []ast.Stmt{
							&ast.Assign{Name: "B", Idx: []ast.Expr{&ast.Read{Name: "i"}}, RHS: &ast.Const{Val: int64(0)}},
						},
					},
					&ast.WriteConfig{Config: "stats", Field: "count", RHS: &ast.ReadConfig{Config: "stats", Field: "count"}},
				},
			},
			&ast.Free{Name: "w"},
		},
	}

	printed := proc.String()
	again := reprint(t, printed)
	if again != printed {
		t.Fatalf("round trip not stable:\n--- first ---\n%s\n--- second ---\n%s", printed, again)
	}
}

func TestRoundTripSelectStrideAndCall(t *testing.T) {
	proc := &ast.Proc{
		Name: "caller",
		Args: []ast.Arg{
			{Name: "A", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Const{Val: int64(4)}}}, Effect: ast.IN},
			{Name: "B", Type: ast.Type{Base: "f32", Shape: []ast.Expr{&ast.Const{Val: int64(4)}}}, Effect: ast.OUT},
		},
		Body: []ast.Stmt{
			&ast.Assign{
				Name: "B",
				Idx:  []ast.Expr{&ast.Const{Val: int64(0)}},
				RHS: &ast.Select{
					Pred: &ast.BinOp{Op: "<", LHS: &ast.StrideExpr{Name: "A", Dim: 0}, RHS: &ast.Const{Val: int64(4)}},
					Then: &ast.Read{Name: "A", Idx: []ast.Expr{&ast.Const{Val: int64(0)}}},
					Else: &ast.USub{E: &ast.Const{Val: float64(1.5)}},
				},
			},
			&ast.Call{Callee: "double", Args: []ast.Expr{&ast.Read{Name: "A"}, &ast.Read{Name: "B"}}},
		},
	}

	printed := proc.String()
	again := reprint(t, printed)
	if again != printed {
		t.Fatalf("round trip not stable:\n--- first ---\n%s\n--- second ---\n%s", printed, again)
	}
}

func TestParseSourceMultipleProcs(t *testing.T) {
	src := accProc().String() + "\n" + (&ast.Proc{
		Name: "noop",
		Body: []ast.Stmt{&ast.Pass{}},
	}).String()

	procs, err := ParseSource("<test>", src)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	if len(procs) != 2 {
		t.Fatalf("expected 2 procedures, got %d", len(procs))
	}
	if procs[0].Name != "acc" || procs[1].Name != "noop" {
		t.Fatalf("unexpected names: %s, %s", procs[0].Name, procs[1].Name)
	}
}
