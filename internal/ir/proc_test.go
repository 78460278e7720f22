package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"exo/internal/symbol"
)

func TestWritesOfFindsAssignedArgs(t *testing.T) {
	buf := symbol.New("C")
	i := symbol.New("i")
	body := []Stmt{
		&ForStmt{
			Iter: i, Lo: &AConst{0}, Hi: &AConst{10}, Mode: Seq,
			Body: []Stmt{
				&ReduceStmt{Buf: buf, Idx: []AExpr{&AVar{i}}, RHS: &ValConst{Val: 1.0}},
			},
		},
	}
	p := NewProc("f", []Arg{{Sym: buf, Type: TensorType(F32, []AExpr{&AConst{10}}), Mem: "DRAM", Effect: INOUT}}, nil, body, nil, SrcInfo{})

	written := p.WritesOf()
	require.True(t, written[buf.ID()])
}

func TestProcVersionsAreDistinctArenaGens(t *testing.T) {
	p1 := NewProc("f", nil, nil, nil, nil, SrcInfo{})
	p2 := p1.WithName("g")
	require.NotEqual(t, p1.ArenaGen(), p2.ArenaGen())
}
