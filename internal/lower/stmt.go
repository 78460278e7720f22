package lower

import (
	"fmt"
	"strings"

	"exo/internal/ir"
	"exo/internal/symbol"
)

// emitBlock walks one statement list, writing each statement's emitted
// text through e.
func (s *stage) emitBlock(e *Emitter, body []ir.Stmt, bufs map[uint64]bufInfo) error {
	for _, st := range body {
		if err := s.emitStmt(e, st, bufs); err != nil {
			return err
		}
	}
	return nil
}

func (s *stage) emitStmt(e *Emitter, st ir.Stmt, bufs map[uint64]bufInfo) error {
	switch n := st.(type) {
	case *ir.PassStmt:
		e.line(";")
		return nil

	case *ir.AssignStmt:
		return s.emitAssignLike(e, n.Buf, n.Idx, n.RHS, bufs, false)

	case *ir.ReduceStmt:
		return s.emitAssignLike(e, n.Buf, n.Idx, n.RHS, bufs, true)

	case *ir.AllocStmt:
		return s.emitAlloc(e, n, bufs)

	case *ir.FreeStmt:
		return s.emitFree(e, n)

	case *ir.IfStmt:
		cond, err := s.emitPred(n.Cond)
		if err != nil {
			return err
		}
		e.line("if (%s) {", cond)
		e.push()
		if err := s.emitBlock(e, n.Body, bufs); err != nil {
			return err
		}
		e.pop()
		if len(n.OrElse) == 0 {
			e.line("}")
			return nil
		}
		e.line("} else {")
		e.push()
		if err := s.emitBlock(e, n.OrElse, bufs); err != nil {
			return err
		}
		e.pop()
		e.line("}")
		return nil

	case *ir.ForStmt:
		return s.emitFor(e, n, bufs)

	case *ir.CallStmt:
		return s.emitCall(e, n, bufs)

	case *ir.WindowStmt:
		return s.emitWindowStmt(e, n, bufs)

	case *ir.WriteConfig:
		rhs, err := s.emitValExpr(n.RHS, bufs)
		if err != nil {
			return err
		}
		s.cfg.noteWrite(n.Config, n.Field, n.RHS.ExprType())
		e.line("ctxt->%s = %s;", fieldIdent(n.Config, n.Field), rhs)
		return nil

	case *ir.SyncStmt:
		e.line("%s", n.Code)
		return nil

	default:
		return newError("emit", "", "unrecognized statement")
	}
}

// emitAssignLike handles both AssignStmt and ReduceStmt: it composes the
// lvalue text, inserts a precision-analysis cast when the source scalar
// differs from the target's, and delegates the final snippet to the
// buffer's memory kind.
func (s *stage) emitAssignLike(e *Emitter, buf symbol.Symbol, idx []ir.AExpr, rhs ir.ValExpr, bufs map[uint64]bufInfo, reduce bool) error {
	info := bufs[buf.ID()]
	lhs, err := s.emitBufAccess(buf, idx, bufs)
	if err != nil {
		return err
	}
	rhsText, err := s.emitValExpr(rhs, bufs)
	if err != nil {
		return err
	}
	if rhs.ExprType().Kind == ir.KindScalar && rhs.ExprType().Scalar != info.typ.Scalar {
		rhsText = fmt.Sprintf("(%s) (%s)", info.typ.Scalar.CType(), rhsText)
	}
	kind, ok := s.mems.Lookup(info.mem)
	if !ok {
		return newError("emit", "", fmt.Sprintf("unknown memory kind %q", info.mem))
	}
	s.noteMem(info.mem)
	var snippet string
	if reduce {
		snippet, err = kind.Reduce(lhs, rhsText, rhs.Loc())
	} else {
		snippet, err = kind.Write(lhs, rhsText, rhs.Loc())
	}
	if err != nil {
		return err
	}
	e.line("%s", snippet)
	return nil
}

func (s *stage) emitAlloc(e *Emitter, n *ir.AllocStmt, bufs map[uint64]bufInfo) error {
	name := s.names.ident(n.Buf)
	kind, ok := s.mems.Lookup(n.Mem)
	if !ok {
		return newError("emit", "", fmt.Sprintf("unknown memory kind %q", n.Mem))
	}
	s.noteMem(n.Mem)
	shapeStrs := make([]string, len(n.Type.Shape))
	for i, d := range n.Type.Shape {
		shapeStrs[i] = s.emitAExpr(d)
	}
	snippet, err := kind.Alloc(name, n.Type.Scalar.CType(), shapeStrs, n.Loc())
	if err != nil {
		return err
	}
	e.line("%s", snippet)
	return nil
}

// ccaseName converts a UAST-level procedure name to its emitted C
// identifier, the proc-name analogue of cNames.ident (which covers
// variable symbols only).
func ccaseName(name string) string { return toSnake(name) }

// formatInstrTemplate substitutes an instruction macro's per-argument
// placeholders (spec section 4.5): a scalar or tensor argument supplies
// "&name" at "{name}"; a window argument supplies its data pointer at
// "{name_data}", the struct itself at "{name}", and the caller-rendered
// argument text again at "{name_int}" (the "original symbol").
func (s *stage) formatInstrTemplate(callee *ir.Proc, args []string) (string, error) {
	text := callee.Instr.Template
	for i, a := range callee.Args {
		pname := a.Sym.Name()
		argText := args[i]
		switch a.Type.Kind {
		case ir.KindWindow:
			text = strings.ReplaceAll(text, "{"+pname+"_data}", argText+".data")
			text = strings.ReplaceAll(text, "{"+pname+"_int}", argText)
			text = strings.ReplaceAll(text, "{"+pname+"}", argText)
		default:
			text = strings.ReplaceAll(text, "{"+pname+"}", "&"+argText)
		}
	}
	return text, nil
}

func (s *stage) emitFor(e *Emitter, n *ir.ForStmt, bufs map[uint64]bufInfo) error {
	iter := s.names.ident(n.Iter)
	lo := s.emitAExpr(n.Lo)
	hi := s.emitAExpr(n.Hi)
	if n.Mode == ir.Par {
		e.line("#pragma omp parallel for")
	}
	e.line("for (int32_t %s = %s; %s < %s; %s++) {", iter, lo, iter, hi, iter)
	e.push()
	s.ranges.EnterFor(n.Iter, n.Lo, n.Hi)
	err := s.emitBlock(e, n.Body, bufs)
	s.ranges.Pop()
	e.pop()
	e.line("}")
	return err
}

func (s *stage) emitFree(e *Emitter, n *ir.FreeStmt) error {
	name := s.names.ident(n.Buf)
	kind, ok := s.mems.Lookup(n.Mem)
	if !ok {
		return newError("emit", "", fmt.Sprintf("unknown memory kind %q", n.Mem))
	}
	s.noteMem(n.Mem)
	shapeStrs := make([]string, len(n.Type.Shape))
	for i, d := range n.Type.Shape {
		shapeStrs[i] = s.emitAExpr(d)
	}
	snippet, err := kind.Free(name, n.Type.Scalar.CType(), shapeStrs, n.Loc())
	if err != nil {
		return err
	}
	if snippet != "" {
		e.line("%s", snippet)
	}
	return nil
}

func (s *stage) emitWindowStmt(e *Emitter, n *ir.WindowStmt, bufs map[uint64]bufInfo) error {
	lit, err := s.emitWindowLiteral(n.Window, bufs)
	if err != nil {
		return err
	}
	typ := s.windows.register(n.Window.ExprType())
	e.line("%s %s = %s;", typ, s.names.ident(n.Name), lit)
	return nil
}

func (s *stage) emitCall(e *Emitter, n *ir.CallStmt, bufs map[uint64]bufInfo) error {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		text, err := s.emitValExpr(a, bufs)
		if err != nil {
			return err
		}
		args[i] = text
	}
	if n.Callee.Instr != nil {
		text, err := s.formatInstrTemplate(n.Callee, args)
		if err != nil {
			return err
		}
		e.line("%s", text)
		return nil
	}
	e.line("%s(ctxt, %s);", ccaseName(n.Callee.Name), strings.Join(args, ", "))
	return nil
}
