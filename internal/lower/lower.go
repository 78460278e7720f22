package lower

import (
	"sort"
	"strings"

	"exo/internal/extern"
	"exo/internal/ir"
	"exo/internal/memory"
)

// Output is the pair of files the compiler emits for one translation unit
// (spec section 6: "given top-level procedures and a file stem S, the
// compiler emits S.h ... and S.c ...").
type Output struct {
	Header string
	Source string
}

// Lower compiles every procedure in procs into one translation unit named
// stem, delegating storage operations to mems and opaque math calls to
// externs. Procedures are compiled in the order given; the header and
// source each list their generated sections in that same order.
func Lower(procs []*ir.Proc, mems *memory.Registry, externs *extern.Table, stem string) (Output, error) {
	u := newLoweredUnit(mems, externs)
	ctxType := ctxTypeName(stem)
	u.names.reserve(ctxType)

	compiled := make([]compiledProc, len(procs))
	for i, proc := range procs {
		cp, err := lowerProc(u, proc, ctxType)
		if err != nil {
			return Output{}, err
		}
		compiled[i] = cp
	}

	header := u.renderHeader(stem, ctxType, compiled)
	source := u.renderSource(stem, compiled)
	return Output{Header: header, Source: source}, nil
}

// renderHeader writes the public surface: an include guard and includes,
// the assume() macro, every window struct referenced anywhere in the unit,
// the context struct type, and every procedure's public prototype, in that
// order (spec section 6).
func (u *loweredUnit) renderHeader(stem, ctxType string, compiled []compiledProc) string {
	guard := "EXO_" + strings.ToUpper(toSnake(stem)) + "_H"
	e := newEmitter()
	e.line("#ifndef %s", guard)
	e.line("#define %s", guard)
	e.blank()
	e.line("#include <stdbool.h>")
	e.line("#include <stdint.h>")
	e.blank()
	e.line("%s", assumeMacro)
	e.blank()

	u.windows.emit(e)
	u.cfg.emit(e, ctxType)
	e.blank()

	for _, cp := range compiled {
		e.line("%s", cp.prototype)
	}
	e.blank()
	e.line("#endif")
	return e.String()
}

// renderSource writes the translation unit's implementation: the stem's own
// header and the C library includes, the shared floor_div helper if any
// procedure needed it, any globals the memory kinds and extern table
// declare, and every procedure's definition, in that order (spec section 6).
func (u *loweredUnit) renderSource(stem string, compiled []compiledProc) string {
	e := newEmitter()
	e.line("#include \"%s.h\"", stem)
	e.line("#include <math.h>")
	e.line("#include <stdlib.h>")
	e.blank()

	if u.needFloorDiv {
		e.line("%s", floorDivHelper)
		e.blank()
	}

	for _, g := range u.memGlobals() {
		e.line("%s", g)
	}
	for _, g := range u.externGlobals() {
		e.line("%s", g)
	}
	e.blank()

	for i, cp := range compiled {
		if i > 0 {
			e.blank()
		}
		e.line("%s", cp.body)
	}
	return e.String()
}

// memGlobals returns the Global() text of every memory kind actually
// exercised while lowering the unit, deduplicated and stably ordered by
// kind name.
func (u *loweredUnit) memGlobals() []string {
	names := make([]string, 0, len(u.usedMems))
	for name := range u.usedMems {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []string
	for _, name := range names {
		k, ok := u.mems.Lookup(name)
		if !ok {
			continue
		}
		if g := k.Global(); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// externGlobals returns every (extern, ctype) pair's Globl() text actually
// exercised while lowering the unit, deduplicated by the rendered text
// itself (several scalar types often share the same "#include <math.h>").
func (u *loweredUnit) externGlobals() []string {
	names := make([]string, 0, len(u.usedExterns))
	for name := range u.usedExterns {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		fn, ok := u.externs.Lookup(name)
		if !ok {
			continue
		}
		ctypes := make([]string, 0, len(u.usedExterns[name]))
		for ctype := range u.usedExterns[name] {
			ctypes = append(ctypes, ctype)
		}
		sort.Strings(ctypes)
		for _, ctype := range ctypes {
			g := fn.Globl(ctype)
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// assumeMacro is the compiler-hint macro every non-captured precondition
// lowers to (spec section 4.5): "precondition predicates are emitted as
// compiler hints (assume(expr) macro)". It is declared in the header rather
// than folded into each call site since every procedure in the unit shares
// one definition.
const assumeMacro = `#define assume(cond) ((void) sizeof(char[1 - 2*!(cond)]))`
