package lower

import (
	"fmt"

	"exo/internal/ir"
	"exo/internal/symbol"
)

// emitValExpr renders a scalar/tensor value expression to a C expression
// string, delegating buffer access to the buffer's resolved memory kind and
// opaque math calls to the extern table, so this function never hardcodes
// a storage or library assumption.
func (s *stage) emitValExpr(e ir.ValExpr, bufs map[uint64]bufInfo) (string, error) {
	switch n := e.(type) {
	case *ir.Read:
		return s.emitBufAccess(n.Buf, n.Idx, bufs)

	case *ir.ValConst:
		return constText(n.Val), nil

	case *ir.BinOp:
		lhs, err := s.emitValExpr(n.LHS, bufs)
		if err != nil {
			return "", err
		}
		rhs, err := s.emitValExpr(n.RHS, bufs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", lhs, cOp(n.Op), rhs), nil

	case *ir.USub:
		inner, err := s.emitValExpr(n.E, bufs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(-%s)", inner), nil

	case *ir.StrideExpr:
		name := s.names.ident(n.Buf)
		info := bufs[n.Buf.ID()]
		dense := s.denseStridesFor(info)
		return s.strideText(n.Buf, name, n.Dim, dense), nil

	case *ir.ReadConfig:
		s.cfg.noteRead(n.Config, n.Field, n.ExprType())
		return fmt.Sprintf("ctxt->%s", fieldIdent(n.Config, n.Field)), nil

	case *ir.Extern:
		fn, ok := s.externs.Lookup(n.Name)
		if !ok {
			return "", newError("emit", "", fmt.Sprintf("unknown extern %q", n.Name))
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			t, err := s.emitValExpr(a, bufs)
			if err != nil {
				return "", err
			}
			args[i] = t
		}
		ctype := n.ExprType().Scalar.CType()
		s.noteExtern(n.Name, ctype)
		return fn.Compile(args, ctype)

	case *ir.WindowExpr:
		return s.emitWindowLiteral(n, bufs)

	case *ir.Select:
		cond, err := s.emitPred(n.Pred)
		if err != nil {
			return "", err
		}
		then, err := s.emitValExpr(n.Then, bufs)
		if err != nil {
			return "", err
		}
		els, err := s.emitValExpr(n.Else, bufs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s ? %s : %s)", cond, then, els), nil

	default:
		return "", newError("emit", "", "unrecognized value expression")
	}
}

// emitBufAccess renders buf[idx...] as a C lvalue/rvalue expression: a flat
// array subscript for a dense tensor, a raw pointer subscript through a
// window's data field for a window.
func (s *stage) emitBufAccess(buf symbol.Symbol, idx []ir.AExpr, bufs map[uint64]bufInfo) (string, error) {
	info := bufs[buf.ID()]
	name := s.names.ident(buf)
	idxText := make([]string, len(idx))
	for i, a := range idx {
		idxText[i] = s.emitAExpr(a)
	}
	dense := s.denseStridesFor(info)
	strides := make([]string, len(idxText))
	for i := range idxText {
		strides[i] = s.strideText(buf, name, i, dense)
	}
	offset := flatIndex(idxText, strides)
	if info.typ.Kind == ir.KindWindow {
		return fmt.Sprintf("%s.data[%s]", name, offset), nil
	}
	return fmt.Sprintf("%s[%s]", name, offset), nil
}

// denseStridesFor returns nil (meaning "consult the window struct or a
// captured constant instead") for a window-typed buffer, and the
// precomputed suffix-product strides for a dense tensor.
func (s *stage) denseStridesFor(info bufInfo) []string {
	if info.typ.Kind == ir.KindWindow {
		return nil
	}
	return s.denseStrides(info.typ.Shape)
}

func cOp(op string) string {
	switch op {
	case "and":
		return "&&"
	case "or":
		return "||"
	default:
		return op
	}
}

func constText(v interface{}) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// emitPred renders a boolean predicate to a C expression string.
func (s *stage) emitPred(p ir.Pred) (string, error) {
	switch n := p.(type) {
	case *ir.BConst:
		if n.Val {
			return "true", nil
		}
		return "false", nil
	case *ir.And:
		l, err := s.emitPred(n.LHS)
		if err != nil {
			return "", err
		}
		r, err := s.emitPred(n.RHS)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s && %s)", l, r), nil
	case *ir.Or:
		l, err := s.emitPred(n.LHS)
		if err != nil {
			return "", err
		}
		r, err := s.emitPred(n.RHS)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s || %s)", l, r), nil
	case *ir.Cmp:
		return fmt.Sprintf("(%s %s %s)", s.emitAExpr(n.LHS), n.Op, s.emitAExpr(n.RHS)), nil
	default:
		return "", newError("emit", "", "unrecognized predicate")
	}
}
