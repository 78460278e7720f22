package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"exo/internal/ast"
)

func toPos(p lexer.Position) ast.Pos {
	return ast.Pos{Filename: p.Filename, Line: p.Line, Column: p.Column}
}

func buildFile(f *FileCST) []*ast.Proc {
	procs := make([]*ast.Proc, len(f.Procs))
	for i, p := range f.Procs {
		procs[i] = buildProc(p)
	}
	return procs
}

func buildProc(p *ProcCST) *ast.Proc {
	args := make([]ast.Arg, len(p.Args))
	for i, a := range p.Args {
		args[i] = buildArg(a)
	}
	pre := make([]ast.Expr, len(p.Asserts))
	for i, a := range p.Asserts {
		pre[i] = buildExpr(a)
	}
	body := make([]ast.Stmt, len(p.Body))
	for i, s := range p.Body {
		body[i] = buildStmt(s)
	}
	return &ast.Proc{
		Pos:           toPos(p.Pos),
		Name:          p.Name,
		Args:          args,
		Preconditions: pre,
		Body:          body,
	}
}

func buildArg(a *ArgCST) ast.Arg {
	return ast.Arg{
		Pos:    toPos(a.Pos),
		Name:   a.Name,
		Type:   buildType(a.Type),
		Mem:    a.Mem,
		Effect: parseEffect(a.Effect),
	}
}

func parseEffect(s string) ast.Effect {
	switch s {
	case "OUT":
		return ast.OUT
	case "INOUT":
		return ast.INOUT
	default:
		return ast.IN
	}
}

func buildType(t *TypeCST) ast.Type {
	shape := make([]ast.Expr, len(t.Shape))
	for i, e := range t.Shape {
		shape[i] = buildExpr(e)
	}
	return ast.Type{Base: t.Base, Shape: shape}
}

func buildStmts(stmts []*StmtCST) []ast.Stmt {
	out := make([]ast.Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = buildStmt(s)
	}
	return out
}

func buildStmt(s *StmtCST) ast.Stmt {
	pos := toPos(s.Pos)
	switch {
	case s.Pass != nil:
		return &ast.Pass{Pos: pos}

	case s.Free != nil:
		return &ast.Free{Pos: pos, Name: s.Free.Name}

	case s.If != nil:
		return &ast.If{
			Pos:    pos,
			Cond:   buildExpr(s.If.Cond),
			Body:   buildStmts(s.If.Body),
			OrElse: buildStmts(s.If.Else),
		}

	case s.For != nil:
		mode := ast.ForSeq
		if s.For.Par != "" {
			mode = ast.ForPar
		}
		return &ast.For{
			Pos:  pos,
			Iter: s.For.Iter,
			Lo:   buildExpr(s.For.Lo),
			Hi:   buildExpr(s.For.Hi),
			Mode: mode,
			Body: buildStmts(s.For.Body),
		}

	case s.WriteConfig != nil:
		return &ast.WriteConfig{
			Pos:    pos,
			Config: s.WriteConfig.Config,
			Field:  s.WriteConfig.Field,
			RHS:    buildExpr(s.WriteConfig.RHS),
		}

	case s.Alloc != nil:
		return &ast.Alloc{
			Pos:  pos,
			Name: s.Alloc.Name,
			Type: buildType(s.Alloc.Type),
			Mem:  s.Alloc.Mem,
		}

	case s.Call != nil:
		args := make([]ast.Expr, len(s.Call.Args))
		for i, a := range s.Call.Args {
			args[i] = buildExpr(a)
		}
		return &ast.Call{Pos: pos, Callee: s.Call.Callee, Args: args}

	case s.AssignLike != nil:
		return buildAssignLike(pos, s.AssignLike)

	default:
		panic("parser: empty statement alternative")
	}
}

// buildAssignLike resolves the one genuine ambiguity in the grammar: an
// idx-less "=" assignment whose right-hand side is a bare bracketed
// reference with at least one range slice is a window binding (ast.
// WindowStmt), not a plain scalar copy (ast.Assign) — see asWindowExpr.
func buildAssignLike(pos ast.Pos, a *AssignLikeCST) ast.Stmt {
	idx := make([]ast.Expr, len(a.Idx))
	for i, e := range a.Idx {
		idx[i] = buildExpr(e)
	}
	rhs := buildExpr(a.RHS)

	if a.Op == "=" && len(idx) == 0 {
		if win, ok := rhs.(*ast.WindowExpr); ok {
			return &ast.WindowStmt{Pos: pos, Name: a.Name, Window: win}
		}
	}
	if a.Op == "+=" {
		return &ast.Reduce{Pos: pos, Name: a.Name, Idx: idx, RHS: rhs}
	}
	return &ast.Assign{Pos: pos, Name: a.Name, Idx: idx, RHS: rhs}
}

func buildExpr(e *ExprCST) ast.Expr { return buildOr(e.Value) }

func buildOr(o *OrExprCST) ast.Expr {
	expr := buildAnd(o.Left)
	for _, r := range o.Rest {
		expr = &ast.BinOp{Pos: expr.NodePos(), Op: "or", LHS: expr, RHS: buildAnd(r)}
	}
	return expr
}

func buildAnd(a *AndExprCST) ast.Expr {
	expr := buildCmp(a.Left)
	for _, r := range a.Rest {
		expr = &ast.BinOp{Pos: expr.NodePos(), Op: "and", LHS: expr, RHS: buildCmp(r)}
	}
	return expr
}

func buildCmp(c *CmpExprCST) ast.Expr {
	expr := buildAdd(c.Left)
	for _, op := range c.Ops {
		expr = &ast.BinOp{Pos: expr.NodePos(), Op: op.Op, LHS: expr, RHS: buildAdd(op.Right)}
	}
	return expr
}

func buildAdd(a *AddExprCST) ast.Expr {
	expr := buildMul(a.Left)
	for _, op := range a.Ops {
		expr = &ast.BinOp{Pos: expr.NodePos(), Op: op.Op, LHS: expr, RHS: buildMul(op.Right)}
	}
	return expr
}

func buildMul(m *MulExprCST) ast.Expr {
	expr := buildUnary(m.Left)
	for _, op := range m.Ops {
		expr = &ast.BinOp{Pos: expr.NodePos(), Op: op.Op, LHS: expr, RHS: buildUnary(op.Right)}
	}
	return expr
}

func buildUnary(u *UnaryExprCST) ast.Expr {
	expr := buildPrimary(u.Value)
	if u.Neg {
		return &ast.USub{Pos: expr.NodePos(), E: expr}
	}
	return expr
}

func buildPrimary(p *PrimaryExprCST) ast.Expr {
	switch {
	case p.Select != nil:
		return &ast.Select{
			Pred: buildExpr(p.Select.Pred),
			Then: buildExpr(p.Select.Then),
			Else: buildExpr(p.Select.Else),
		}

	case p.Stride != nil:
		dim, _ := strconv.Atoi(p.Stride.Dim)
		return &ast.StrideExpr{Name: p.Stride.Name, Dim: dim}

	case p.Extern != nil:
		args := make([]ast.Expr, len(p.Extern.Args))
		for i, a := range p.Extern.Args {
			args[i] = buildExpr(a)
		}
		return &ast.Extern{Name: p.Extern.Name, Args: args}

	case p.ReadConfig != nil:
		return &ast.ReadConfig{Config: p.ReadConfig.Config, Field: p.ReadConfig.Field}

	case p.Bracket != nil:
		return buildBracketRef(p.Bracket)

	case p.Bool != nil:
		return &ast.Const{Val: *p.Bool == "true"}

	case p.Number != nil:
		return &ast.Const{Val: parseNumber(*p.Number)}

	case p.Paren != nil:
		return buildExpr(p.Paren)

	case p.Bare != nil:
		return &ast.Read{Name: *p.Bare}

	default:
		panic("parser: empty primary expression alternative")
	}
}

// buildBracketRef produces a WindowExpr when any slice in brackets carries
// a range (Hi != nil), a plain Read otherwise. This is the one place the
// front end's surface syntax is genuinely ambiguous between "narrow a
// window" and "read an element" without it, so the two share one bracketed
// form and are told apart by whether a colon appears inside it.
func buildBracketRef(b *BracketRefCST) ast.Expr {
	hasRange := false
	for _, s := range b.Slices {
		if s.Hi != nil {
			hasRange = true
			break
		}
	}
	if hasRange {
		slices := make([]ast.Slice, len(b.Slices))
		for i, s := range b.Slices {
			slices[i] = ast.Slice{Lo: buildExpr(s.Lo)}
			if s.Hi != nil {
				slices[i].Hi = buildExpr(s.Hi)
			}
		}
		return &ast.WindowExpr{Name: b.Name, Slices: slices}
	}
	idx := make([]ast.Expr, len(b.Slices))
	for i, s := range b.Slices {
		idx[i] = buildExpr(s.Lo)
	}
	return &ast.Read{Name: b.Name, Idx: idx}
}

// parseNumber yields an int64 for an integer lexeme and a float64 for one
// with a decimal point, matching ast.Const.Val's documented int64/float64/
// bool possibilities.
func parseNumber(s string) interface{} {
	if strings.Contains(s, ".") {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
