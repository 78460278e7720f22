package lower

import (
	"fmt"
	"sort"

	"exo/internal/ir"
)

// windowKey identifies one distinct window struct shape: a struct is shared
// across every window of the same scalar type, rank, and constness (spec
// section 4.5: "one struct per (scalar type, rank, constness)").
type windowKey struct {
	scalar  ir.Scalar
	rank    int
	isConst bool
}

// windowStructName is the emitted struct tag: exo_win_<rank><type>[c], the
// trailing c marking a const (read-only) window, per spec section 6's
// public-signature rule "window args become struct exo_win_<rank><type>[c]
// by value".
func windowStructName(k windowKey) string {
	suffix := ""
	if k.isConst {
		suffix = "c"
	}
	return fmt.Sprintf("exo_win_%d%s%s", k.rank, k.scalar, suffix)
}

// windowStructs collects every distinct window shape referenced while
// lowering a translation unit, so each one is emitted exactly once.
type windowStructs struct {
	seen map[windowKey]bool
}

func newWindowStructs() *windowStructs { return &windowStructs{seen: map[windowKey]bool{}} }

// register records t (a Window-kind Type) as used and returns the C type
// reference ("struct exo_win_..."), the form usable directly in a
// declaration, parameter, or cast; t must already have Kind == ir.KindWindow.
func (w *windowStructs) register(t ir.Type) string {
	k := windowKey{scalar: t.Scalar, rank: t.Rank(), isConst: t.Const}
	w.seen[k] = true
	return "struct " + windowStructName(k)
}

// emit writes every registered window struct's definition, each guarded by
// an #ifndef so a struct shared across several translation units in the
// same header never redefines.
func (w *windowStructs) emit(e *Emitter) {
	keys := make([]windowKey, 0, len(w.seen))
	for k := range w.seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].rank != keys[j].rank {
			return keys[i].rank < keys[j].rank
		}
		if keys[i].scalar != keys[j].scalar {
			return keys[i].scalar < keys[j].scalar
		}
		return !keys[i].isConst && keys[j].isConst
	})
	for _, k := range keys {
		name := windowStructName(k)
		guard := "EXO_DEFINED_" + name
		e.line("#ifndef %s", guard)
		e.line("#define %s", guard)
		constTok := ""
		if k.isConst {
			constTok = "const "
		}
		e.line("struct %s {", name)
		e.push()
		e.line("%s%s* const data;", constTok, k.scalar.CType())
		e.line("const int32_t strides[%d];", k.rank)
		e.pop()
		e.line("};")
		e.line("#endif")
		e.blank()
	}
}
