package schedule

import (
	"exo/internal/affine"
	"exo/internal/ir"
)

// bufAccess is one read or write of a tensor buffer at a particular
// (possibly multi-dimensional) affine index.
type bufAccess struct {
	buf uint64
	idx []ir.AExpr
}

// collectAccesses walks body and everything nested under it, returning
// every write (an AssignStmt or ReduceStmt target) and every read (a Read
// expression, wherever it occurs — including a ReduceStmt's own target,
// since buf[idx] += rhs both reads and writes buf[idx]) to a tensor buffer.
func collectAccesses(body []ir.Stmt) (writes, reads []bufAccess) {
	v := &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			switch n := s.(type) {
			case *ir.AssignStmt:
				writes = append(writes, bufAccess{buf: n.Buf.ID(), idx: n.Idx})
			case *ir.ReduceStmt:
				writes = append(writes, bufAccess{buf: n.Buf.ID(), idx: n.Idx})
				reads = append(reads, bufAccess{buf: n.Buf.ID(), idx: n.Idx})
			}
			return true
		},
		PreExpr: func(e ir.ValExpr) bool {
			if r, ok := e.(*ir.Read); ok && len(r.Idx) > 0 {
				reads = append(reads, bufAccess{buf: r.Buf.ID(), idx: r.Idx})
			}
			return true
		},
	}
	ir.WalkBlock(body, v)
	return writes, reads
}

// accessesConflict reports whether any write in ws touches the same buffer
// as any read in rs at a different (non-affine-equal) index. This is the
// conservative cross-iteration dependence signal reorder_loops, fission,
// and fuse all need: when every read of a buffer that some statement also
// writes occurs at exactly that write's index, reordering, splitting, or
// merging the enclosing iteration cannot make that read observe a value it
// didn't already observe in the original program.
func accessesConflict(ws, rs []bufAccess) bool {
	for _, w := range ws {
		for _, r := range rs {
			if w.buf != r.buf {
				continue
			}
			if !indicesEqual(w.idx, r.idx) {
				return true
			}
		}
	}
	return false
}

func indicesEqual(a, b []ir.AExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !affine.Equal(affine.Normalize(a[i]), affine.Normalize(b[i])) {
			return false
		}
	}
	return true
}
