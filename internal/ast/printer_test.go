package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprStrings(t *testing.T) {
	cases := []struct {
		name string
		expr Expr
		want string
	}{
		{"read no index", &Read{Name: "A"}, "A"},
		{"read with index", &Read{Name: "A", Idx: []Expr{&Const{Val: int64(0)}, &Read{Name: "i"}}}, "A[0, i]"},
		{"int const", &Const{Val: int64(3)}, "3"},
		{"bool const", &Const{Val: true}, "true"},
		{"binop", &BinOp{Op: "+", LHS: &Read{Name: "A"}, RHS: &Const{Val: int64(1)}}, "(A + 1)"},
		{"nested binop fully parenthesizes", &BinOp{Op: "*", LHS: &BinOp{Op: "+", LHS: &Read{Name: "a"}, RHS: &Read{Name: "b"}}, RHS: &Read{Name: "c"}}, "((a + b) * c)"},
		{"unary negation", &USub{E: &Read{Name: "x"}}, "-x"},
		{"stride", &StrideExpr{Name: "A", Dim: 1}, "stride(A, 1)"},
		{"read config", &ReadConfig{Config: "cfg", Field: "tile"}, "cfg.tile"},
		{"extern call", &Extern{Name: "relu", Args: []Expr{&Read{Name: "x"}}}, "relu(x)"},
		{"window point index", &WindowExpr{Name: "A", Slices: []Slice{{Lo: &Const{Val: int64(2)}}}}, "A[2]"},
		{"window range", &WindowExpr{Name: "A", Slices: []Slice{{Lo: &Const{Val: int64(2)}, Hi: &Const{Val: int64(6)}}}}, "A[2:6]"},
		{"select", &Select{Pred: &Read{Name: "p"}, Then: &Const{Val: int64(1)}, Else: &Const{Val: int64(0)}}, "select(p, 1, 0)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.expr.String())
		})
	}
}

func TestStmtStrings(t *testing.T) {
	cases := []struct {
		name string
		stmt Stmt
		want string
	}{
		{"pass", &Pass{}, "pass;"},
		{"assign", &Assign{Name: "C", Idx: []Expr{&Read{Name: "i"}}, RHS: &Read{Name: "x"}}, "C[i] = x;"},
		{"reduce", &Reduce{Name: "r", RHS: &Read{Name: "x"}}, "r += x;"},
		{"alloc default mem", &Alloc{Name: "buf", Type: Type{Base: "f32", Shape: []Expr{&Const{Val: int64(8)}}}}, "buf: f32[8] @DRAM;"},
		{"alloc explicit mem", &Alloc{Name: "buf", Type: Type{Base: "f32"}, Mem: "Stack"}, "buf: f32 @Stack;"},
		{"free", &Free{Name: "buf"}, "free(buf);"},
		{"if without else", &If{Cond: &Read{Name: "p"}, Body: []Stmt{&Pass{}}}, "if p { pass; }"},
		{"if with else", &If{Cond: &Read{Name: "p"}, Body: []Stmt{&Pass{}}, OrElse: []Stmt{&Pass{}}}, "if p { pass; } else { pass; }"},
		{"for sequential", &For{Iter: "i", Lo: &Const{Val: int64(0)}, Hi: &Read{Name: "N"}, Body: []Stmt{&Pass{}}}, "for i in [0, N) { pass; }"},
		{"for parallel", &For{Iter: "i", Lo: &Const{Val: int64(0)}, Hi: &Read{Name: "N"}, Mode: ForPar, Body: []Stmt{&Pass{}}}, "for par i in [0, N) { pass; }"},
		{"call", &Call{Callee: "relu", Args: []Expr{&Read{Name: "x"}}}, "relu(x);"},
		{"window stmt", &WindowStmt{Name: "w", Window: &WindowExpr{Name: "A", Slices: []Slice{{Lo: &Const{Val: int64(2)}, Hi: &Const{Val: int64(6)}}}}}, "w = A[2:6];"},
		{"write config", &WriteConfig{Config: "cfg", Field: "tile", RHS: &Const{Val: int64(16)}}, "cfg.tile = 16;"},
		{"sync stmt passes through raw code", &SyncStmt{Code: "barrier();"}, "barrier();"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.stmt.String())
		})
	}
}

func TestProcString(t *testing.T) {
	proc := &Proc{
		Name: "copy_add",
		Args: []Arg{
			{Name: "n", Type: Type{Base: "size"}, Effect: IN},
			{Name: "A", Type: Type{Base: "f32", Shape: []Expr{&Read{Name: "n"}}}, Effect: IN},
			{Name: "C", Type: Type{Base: "f32", Shape: []Expr{&Read{Name: "n"}}}, Mem: "Stack", Effect: OUT},
		},
		Preconditions: []Expr{&BinOp{Op: ">", LHS: &Read{Name: "n"}, RHS: &Const{Val: int64(0)}}},
		Body: []Stmt{
			&For{Iter: "i", Lo: &Const{Val: int64(0)}, Hi: &Read{Name: "n"}, Body: []Stmt{
				&Assign{Name: "C", Idx: []Expr{&Read{Name: "i"}}, RHS: &Read{Name: "A", Idx: []Expr{&Read{Name: "i"}}}},
			}},
		},
	}

	want := "def copy_add(n: size @DRAM IN, A: f32[n] @DRAM IN, C: f32[n] @Stack OUT) {\n" +
		"  assert (n > 0);\n" +
		"  for i in [0, n) { C[i] = A[i]; }\n" +
		"}\n"
	assert.Equal(t, want, proc.String())
}

func TestTypeStringOmitsBracketsForScalars(t *testing.T) {
	assert.Equal(t, "size", Type{Base: "size"}.String())
	assert.Equal(t, "f32[8]", Type{Base: "f32", Shape: []Expr{&Const{Val: int64(8)}}}.String())
	assert.Equal(t, "f32[N,M]", Type{Base: "f32", Shape: []Expr{&Read{Name: "N"}, &Read{Name: "M"}}}.String())
}

func TestEffectString(t *testing.T) {
	assert.Equal(t, "IN", IN.String())
	assert.Equal(t, "OUT", OUT.String())
	assert.Equal(t, "INOUT", INOUT.String())
}
