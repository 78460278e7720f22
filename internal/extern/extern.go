// Package extern implements the Extern capability (spec section 6): a
// plug-in the lowering pass calls to emit a scalar math call without the
// compiler core knowing anything about the target library beyond a name and
// an argument list.
package extern

import "fmt"

// Extern is a host-supplied opaque instruction macro: a named function the
// lowering pass can call with already-lowered C argument expressions.
type Extern interface {
	Name() string
	// Globl returns any file-scope declaration this extern needs (e.g. an
	// #include), or "" if none.
	Globl(ctype string) string
	// Compile returns the C expression calling this extern with args.
	Compile(args []string, ctype string) (string, error)
}

// Table resolves an extern by name, the way the lowering pass looks up the
// callee named on an Extern ValExpr.
type Table struct {
	externs map[string]Extern
}

// NewMathTable builds a table seeded with the built-in math externs (sin,
// cos, exp, sqrt, relu), grounded on original_source's kernels calling
// scalar math libm functions inside the innermost loop body.
func NewMathTable() *Table {
	t := &Table{externs: map[string]Extern{}}
	for _, e := range []Extern{
		libmUnary{name: "sin", fn: "sinf"},
		libmUnary{name: "cos", fn: "cosf"},
		libmUnary{name: "exp", fn: "expf"},
		libmUnary{name: "sqrt", fn: "sqrtf"},
		reluExtern{},
	} {
		t.Register(e)
	}
	return t
}

func (t *Table) Register(e Extern) { t.externs[e.Name()] = e }

func (t *Table) Lookup(name string) (Extern, bool) {
	e, ok := t.externs[name]
	return e, ok
}

// libmUnary wraps a single-argument libm call (sinf, cosf, expf, sqrtf).
type libmUnary struct {
	name string
	fn   string
}

func (l libmUnary) Name() string { return l.name }

func (l libmUnary) Globl(string) string { return "#include <math.h>" }

func (l libmUnary) Compile(args []string, _ string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("extern %q takes exactly one argument, got %d", l.name, len(args))
	}
	return fmt.Sprintf("%s(%s)", l.fn, args[0]), nil
}

// reluExtern lowers to a branchless max-with-zero, the scalar relu every
// neural-network kernel in the pack's original sources inlines by hand.
type reluExtern struct{}

func (reluExtern) Name() string { return "relu" }

func (reluExtern) Globl(string) string { return "" }

func (reluExtern) Compile(args []string, ctype string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("extern %q takes exactly one argument, got %d", "relu", len(args))
	}
	return fmt.Sprintf("(%s > (%s)0 ? %s : (%s)0)", args[0], ctype, args[0], ctype), nil
}
