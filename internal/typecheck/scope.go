package typecheck

import (
	"fmt"

	"exo/internal/ast"
	"exo/internal/errors"
	"exo/internal/ir"
	"exo/internal/symbol"
)

// binding is everything the checker tracks about one declared name: its
// resolved type, its memory-kind annotation (meaningful for buffers only),
// and the effect governing whether it may be assigned to.
type binding struct {
	sym    symbol.Symbol
	typ    ir.Type
	mem    string
	effect ir.Effect
}

// Scope threads name resolution and per-symbol type/memory/effect metadata
// through the recursive checkStmt method and the checkAExpr/checkPred/
// checkValExpr functions, the context registry
// this package's Analyzer carries instead of a global table.
type Scope struct {
	env      *symbol.Env
	bindings map[uint64]binding

	// declaredLater holds every name an Alloc/For/WindowStmt anywhere in the
	// procedure body will eventually declare, collected in a pre-pass so a
	// failed lookup can distinguish "used before its declaration" from
	// "never declared at all" (spec section 4.1 names both rejections).
	declaredLater map[string]bool
}

func newScope() *Scope {
	return &Scope{env: symbol.NewEnv(), bindings: map[uint64]binding{}, declaredLater: map[string]bool{}}
}

func (s *Scope) push() { s.env.Push() }
func (s *Scope) pop()  { s.env.Pop() }

// declare allocates a fresh symbol for name, following the shadow-free
// collision policy of symbol.Env.Declare, and records its type/mem/effect.
func (s *Scope) declare(name string, t ir.Type, mem string, eff ir.Effect) symbol.Symbol {
	sym, _ := s.env.Declare(name)
	s.bindings[sym.ID()] = binding{sym: sym, typ: t, mem: mem, effect: eff}
	return sym
}

func (s *Scope) lookup(name string) (symbol.Symbol, binding, bool) {
	sym, ok := s.env.Lookup(name)
	if !ok {
		return symbol.Symbol{}, binding{}, false
	}
	return sym, s.bindings[sym.ID()], true
}

// unknownSymbol reports a failed lookup, distinguishing a forward reference
// to a name the body declares later (ErrUseBeforeDeclare) from a name never
// declared anywhere in the procedure (ErrUnknownSymbol).
func (s *Scope) unknownSymbol(pos ast.Pos, name string) error {
	if s.declaredLater[name] {
		return errors.NewTypeError(errors.ErrUseBeforeDeclare, pos, fmt.Sprintf("%q is used before it is declared", name))
	}
	return errors.NewTypeError(errors.ErrUnknownSymbol, pos, fmt.Sprintf("undeclared name %q", name))
}

// collectDeclaredNames walks body collecting every name an Alloc, For, or
// WindowStmt will bind, regardless of nesting — an over-approximation of
// what is actually visible at any one point, adequate for telling a forward
// reference apart from a genuinely undeclared name.
func collectDeclaredNames(body []ast.Stmt, out map[string]bool) {
	for _, s := range body {
		switch n := s.(type) {
		case *ast.Alloc:
			out[n.Name] = true
		case *ast.For:
			out[n.Iter] = true
			collectDeclaredNames(n.Body, out)
		case *ast.If:
			collectDeclaredNames(n.Body, out)
			collectDeclaredNames(n.OrElse, out)
		case *ast.WindowStmt:
			out[n.Name] = true
		}
	}
}
