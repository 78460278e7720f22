package lower

import (
	"fmt"
	"strings"

	"exo/internal/ir"
)

// emitWindowLiteral compiles a WindowExpr to a struct literal: data points
// at the narrowed base address (memory.Kind.Window computes that pointer
// expression from the source buffer's own per-dimension strides), and
// strides keeps only the axes the window preserves — the range (not point)
// slices, per spec section 4.5's window-struct-synthesis rule.
func (s *stage) emitWindowLiteral(n *ir.WindowExpr, bufs map[uint64]bufInfo) (string, error) {
	info := bufs[n.Buf.ID()]
	name := s.names.ident(n.Buf)
	dense := s.denseStridesFor(info)

	allOffsets := make([]string, len(n.Slices))
	allStrides := make([]string, len(n.Slices))
	for i, sl := range n.Slices {
		allOffsets[i] = s.emitAExpr(sl.Lo)
		allStrides[i] = s.strideText(n.Buf, name, i, dense)
	}

	kind, ok := s.mems.Lookup(info.mem)
	if !ok {
		return "", newError("emit", "", fmt.Sprintf("unknown memory kind %q", info.mem))
	}
	s.noteMem(info.mem)
	ctype := n.ExprType().Scalar.CType()
	ptr, err := kind.Window(ctype, name, allOffsets, allStrides, n.Loc())
	if err != nil {
		return "", err
	}

	keptStrides := make([]string, 0, len(n.Slices))
	for i, sl := range n.Slices {
		if sl.Hi != nil {
			keptStrides = append(keptStrides, allStrides[i])
		}
	}

	structName := s.windows.register(n.ExprType())
	return fmt.Sprintf("(%s){ .data = %s, .strides = {%s} }", structName, ptr, strings.Join(keptStrides, ", ")), nil
}
