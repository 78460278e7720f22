package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"exo/internal/ir"
	"exo/internal/symbol"
)

func fourStmtProc() *ir.Proc {
	mk := func(name string) ir.Stmt {
		return &ir.AssignStmt{Buf: symbol.New(name), RHS: &ir.ValConst{Val: 0}}
	}
	body := []ir.Stmt{mk("s0"), mk("s1"), mk("s2"), mk("s3")}
	return ir.NewProc("p", nil, nil, body, nil, ir.SrcInfo{})
}

// TestCursorNavigationS3 grounds spec scenario S3: for body [s0,s1,s2,s3],
// root.body()[0].next()==body[1], body[2].prev(2)==body[0],
// body[1].before()==body[0].after()==(body,1), body[0:3].after()==body[2].after().
func TestCursorNavigationS3(t *testing.T) {
	proc := fourStmtProc()
	root := Root(proc)
	kids, err := root.Children()
	require.NoError(t, err)
	require.Len(t, kids, 4)

	s0, s1, s2, s3 := kids[0], kids[1], kids[2], kids[3]

	next0, err := s0.Next(1)
	require.NoError(t, err)
	require.True(t, next0.Equal(s1))

	prev2, err := s2.Prev(2)
	require.NoError(t, err)
	require.True(t, prev2.Equal(s0))

	before1, err := s1.Before()
	require.NoError(t, err)
	after0, err := s0.After()
	require.NoError(t, err)
	require.True(t, before1.Equal(after0))

	sel := root.WithRange(0, 3)
	selAfter, err := sel.After()
	require.NoError(t, err)
	after2, err := s2.After()
	require.NoError(t, err)
	require.True(t, selAfter.Equal(after2))
}

func TestCursorInvalidOutOfRange(t *testing.T) {
	proc := fourStmtProc()
	root := Root(proc)
	kids, _ := root.Children()
	_, err := kids[0].Prev(1)
	require.Error(t, err)
}

func TestForwardShiftsIndicesAfterInsertion(t *testing.T) {
	proc := fourStmtProc()
	root := Root(proc)
	kids, _ := root.Children()
	s2 := kids[2]

	// Simulate inserting one statement before index 2.
	newBody := append(append(append([]ir.Stmt{}, proc.Body[:2]...), &ir.PassStmt{}), proc.Body[2:]...)
	newProc := proc.WithBody(newBody)

	fwd := ShiftInBlock(newProc, root.PathOf(), 2, 1)
	moved, err := fwd(s2)
	require.NoError(t, err)
	node, err := moved.Node()
	require.NoError(t, err)
	require.Equal(t, "s2", node.(*ir.AssignStmt).Buf.Name())
}
