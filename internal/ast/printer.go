package ast

import (
	"fmt"
	"strings"
)

// String implementations below give every UAST node a canonical textual
// form. This is deliberately simple (no indentation tracking; every simple
// statement ends in ";", every For/If body is wrapped in "{ ... }", and the
// statements of a block are joined by a single space): the UAST printer exists for error messages and
// for internal/parser's round-trip tests, not as the primary surface syntax
// (that belongs to the front end, out of scope here).

func (e *Read) String() string {
	return fmt.Sprintf("%s%s", e.Name, bracket(e.Idx))
}

func (e *Const) String() string {
	return fmt.Sprintf("%v", e.Val)
}

func (e *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", e.LHS, e.Op, e.RHS)
}

func (e *USub) String() string {
	return fmt.Sprintf("-%s", e.E)
}

func (e *StrideExpr) String() string {
	return fmt.Sprintf("stride(%s, %d)", e.Name, e.Dim)
}

func (e *ReadConfig) String() string {
	return fmt.Sprintf("%s.%s", e.Config, e.Field)
}

func (e *Extern) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

func (e *WindowExpr) String() string {
	parts := make([]string, len(e.Slices))
	for i, s := range e.Slices {
		if s.Hi == nil {
			parts[i] = s.Lo.String()
		} else {
			parts[i] = fmt.Sprintf("%s:%s", s.Lo, s.Hi)
		}
	}
	return fmt.Sprintf("%s[%s]", e.Name, strings.Join(parts, ", "))
}

func (e *Select) String() string {
	return fmt.Sprintf("select(%s, %s, %s)", e.Pred, e.Then, e.Else)
}

func bracket(idx []Expr) string {
	if len(idx) == 0 {
		return ""
	}
	parts := make([]string, len(idx))
	for i, e := range idx {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Every simple statement prints with a trailing ";" and every block
// (If/For body) is wrapped in "{ ... }" so internal/parser can tell where a
// nested statement list ends without relying on indentation.

func (s *Pass) String() string { return "pass;" }

func (s *Assign) String() string {
	return fmt.Sprintf("%s%s = %s;", s.Name, bracket(s.Idx), s.RHS)
}

func (s *Reduce) String() string {
	return fmt.Sprintf("%s%s += %s;", s.Name, bracket(s.Idx), s.RHS)
}

func (s *Alloc) String() string {
	return fmt.Sprintf("%s: %s @%s;", s.Name, s.Type, memOrDefault(s.Mem))
}

func (s *Free) String() string { return fmt.Sprintf("free(%s);", s.Name) }

func (s *If) String() string {
	if len(s.OrElse) == 0 {
		return fmt.Sprintf("if %s { %s }", s.Cond, joinStmts(s.Body))
	}
	return fmt.Sprintf("if %s { %s } else { %s }", s.Cond, joinStmts(s.Body), joinStmts(s.OrElse))
}

func (s *For) String() string {
	mode := ""
	if s.Mode == ForPar {
		mode = "par "
	}
	return fmt.Sprintf("for %s%s in [%s, %s) { %s }", mode, s.Iter, s.Lo, s.Hi, joinStmts(s.Body))
}

func (s *Call) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s);", s.Callee, strings.Join(parts, ", "))
}

func (s *WindowStmt) String() string {
	return fmt.Sprintf("%s = %s;", s.Name, s.Window)
}

func (s *WriteConfig) String() string {
	return fmt.Sprintf("%s.%s = %s;", s.Config, s.Field, s.RHS)
}

func (s *SyncStmt) String() string { return s.Code }

func joinStmts(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, st := range stmts {
		parts[i] = st.String()
	}
	return strings.Join(parts, " ")
}

// String renders the full procedure signature and body in canonical form.
func (p *Proc) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(", p.Name)
	for i, a := range p.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s @%s %s", a.Name, a.Type, memOrDefault(a.Mem), a.Effect)
	}
	b.WriteString(") {\n")
	for _, pre := range p.Preconditions {
		fmt.Fprintf(&b, "  assert %s;\n", pre)
	}
	for _, st := range p.Body {
		fmt.Fprintf(&b, "  %s\n", st)
	}
	b.WriteString("}\n")
	return b.String()
}

func memOrDefault(m string) string {
	if m == "" {
		return "DRAM"
	}
	return m
}
