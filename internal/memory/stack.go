package memory

import (
	"fmt"
	"strings"

	"exo/internal/ir"
	"exo/internal/errors"
)

// Stack is a static, VLA-free scratch kind: it declares a fixed-size local
// array on the C stack instead of calling malloc/free, and forbids use in a
// non-leaf procedure (one that itself issues Calls) — the lowering pass
// consults Static() before honoring a Stack annotation on such a procedure,
// per spec section 6's "a memory may declare itself static (forbids
// non-leaf allocation)".
type Stack struct{}

func (Stack) Name() string   { return "Stack" }
func (Stack) CanRead() bool  { return true }
func (Stack) CanWrite() bool { return true }
func (Stack) Static() bool   { return true }
func (Stack) Global() string { return "" }

// Alloc declares a single flat array sized to the element count, not one
// nested bracket per dimension, so a Stack buffer indexes exactly like a
// DRAM one: a single linear offset against suffix-product (or window)
// strides, the addressing scheme the rest of the compiler assumes uniformly
// regardless of memory kind.
func (Stack) Alloc(name, ctype string, shapeStrs []string, _ ir.SrcInfo) (string, error) {
	for _, s := range shapeStrs {
		if !isConstExpr(s) {
			return "", errors.NewMemGenError("Stack", "alloc "+name, fmt.Sprintf("shape dimension %q is not a compile-time constant", s))
		}
	}
	count := "1"
	if len(shapeStrs) > 0 {
		count = strings.Join(shapeStrs, "*")
	}
	return fmt.Sprintf("%s %s[%s];", ctype, name, count), nil
}

func (Stack) Free(_, _ string, _ []string, _ ir.SrcInfo) (string, error) {
	return "", nil
}

func (Stack) Read(lhs, rhs string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("%s = %s;", lhs, rhs), nil
}

func (Stack) Write(lhs, rhs string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("%s = %s;", lhs, rhs), nil
}

func (Stack) Reduce(lhs, rhs string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("%s += %s;", lhs, rhs), nil
}

func (Stack) Window(basetype, base string, offsets, strides []string, src ir.SrcInfo) (string, error) {
	return DRAM{}.Window(basetype, base, offsets, strides, src)
}

// isConstExpr is a conservative syntactic check: a shape dimension is
// "constant enough" for a fixed-size stack array if it contains no
// identifier characters at all (pure digits/parens/operators).
func isConstExpr(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' {
			return false
		}
	}
	return strings.TrimSpace(s) != ""
}

