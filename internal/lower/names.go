package lower

import (
	"fmt"

	"github.com/iancoleman/strcase"

	"exo/internal/symbol"
)

// cNames assigns every TIR symbol a unique emitted C identifier. It
// supplements, not replaces, symbol.Env's fresh-name policy: two distinct
// symbols already print as two distinct names, but casing a name through
// strcase can collapse two previously-distinct names onto the same text
// (e.g. "blockSize" and "block_size" both fold to "block_size"), so this
// type re-runs the same append-a-suffix collision policy over the
// case-converted text before handing out a final identifier.
type cNames struct {
	assigned map[uint64]string
	taken    map[string]bool
}

func newCNames() *cNames {
	return &cNames{assigned: map[uint64]string{}, taken: map[string]bool{}}
}

// ident returns the emitted C identifier for sym, assigning one on first
// use and caching it for every later reference to the same symbol.
func (n *cNames) ident(sym symbol.Symbol) string {
	if name, ok := n.assigned[sym.ID()]; ok {
		return name
	}
	base := strcase.ToSnake(sym.Name())
	name := base
	for i := 1; n.taken[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	n.taken[name] = true
	n.assigned[sym.ID()] = name
	return name
}

// reserve marks name as taken without binding it to a symbol, used for
// identifiers this package invents itself (the context struct type, the
// ctxt parameter, the floor_div helper) so a user symbol can never collide
// with one of them.
func (n *cNames) reserve(name string) { n.taken[name] = true }

// ctxTypeName derives the per-library context struct type name from the
// output file stem, upper-camelled and wrapped in an Exo prefix and a Ctx
// suffix (stem "kernels" gives ExoKernelsCtx).
func ctxTypeName(stem string) string {
	return "Exo" + strcase.ToCamel(stem) + "Ctx"
}

// toSnake converts a UAST-level procedure name to its emitted C spelling.
func toSnake(name string) string { return strcase.ToSnake(name) }
