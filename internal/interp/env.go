package interp

import "exo/internal/symbol"

// Env is a single call frame: a flat table from symbol identity to its
// currently bound Value. Unlike internal/typecheck's Scope, lookup is keyed
// by the already-resolved Symbol id rather than by name — TIR never needs
// name resolution again, since check() already turned every reference into
// a Symbol.
type Env struct {
	vars map[uint64]Value
}

func NewEnv() *Env { return &Env{vars: map[uint64]Value{}} }

func (e *Env) Bind(s symbol.Symbol, v Value) { e.vars[s.ID()] = v }

func (e *Env) Lookup(s symbol.Symbol) (Value, bool) {
	v, ok := e.vars[s.ID()]
	return v, ok
}
