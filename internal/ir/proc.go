package ir

import (
	"fmt"
	"strings"

	"exo/internal/symbol"
)

// Effect classifies how a procedure argument may be used by the body.
type Effect int

const (
	IN Effect = iota
	OUT
	INOUT
)

func (e Effect) String() string {
	switch e {
	case IN:
		return "IN"
	case OUT:
		return "OUT"
	case INOUT:
		return "INOUT"
	default:
		return "?"
	}
}

// Writable reports whether a statement may assign through an argument
// carrying this effect.
func (e Effect) Writable() bool { return e == OUT || e == INOUT }

// Arg is one positional procedure argument.
type Arg struct {
	Sym    symbol.Symbol
	Type   Type
	Mem    string
	Effect Effect
}

// InstrRecord is an opaque instruction-macro template: when present on a
// Proc, the lowering pass formats this template directly instead of walking
// the body, per spec section 4.5's Call emission rule.
type InstrRecord struct {
	Template string
}

// Proc is an immutable, named procedure: the unit every schedule rewrite and
// the lowering pass operate on. Two Procs are never the same value once
// constructed; a rewrite always returns a brand new *Proc (the "next
// version"), sharing unchanged subtrees by pointer with its predecessor.
type Proc struct {
	Name          string
	Args          []Arg
	Preconditions []Pred
	Body          []Stmt
	Instr         *InstrRecord
	Src           SrcInfo

	// arenaGen distinguishes Proc versions for Cursor generation checks
	// (package cursor); it has no semantic meaning of its own.
	arenaGen uint64
}

var nextArenaGen uint64

// NewProc constructs a procedure with a fresh arena generation. Callers
// never mutate a *Proc after construction; every edit method in package
// schedule returns a new *Proc built with NewProc (or WithBody, below).
func NewProc(name string, args []Arg, pre []Pred, body []Stmt, instr *InstrRecord, src SrcInfo) *Proc {
	nextArenaGen++
	return &Proc{
		Name: name, Args: args, Preconditions: pre, Body: body, Instr: instr, Src: src,
		arenaGen: nextArenaGen,
	}
}

// WithBody returns a new Proc identical to p except for its body, used by
// rewrites that only touch the statement tree.
func (p *Proc) WithBody(body []Stmt) *Proc {
	return NewProc(p.Name, p.Args, p.Preconditions, body, p.Instr, p.Src)
}

// WithName returns a new Proc with a different name (used by rename).
func (p *Proc) WithName(name string) *Proc {
	return NewProc(name, p.Args, p.Preconditions, p.Body, p.Instr, p.Src)
}

// WithArgs returns a new Proc with a different argument list (used by
// set_window/set_memory).
func (p *Proc) WithArgs(args []Arg) *Proc {
	return NewProc(p.Name, args, p.Preconditions, p.Body, p.Instr, p.Src)
}

// WithPreconditions returns a new Proc whose precondition list is pre
// (callers that add an assertion pass the old list with it appended).
func (p *Proc) WithPreconditions(pre []Pred) *Proc {
	return NewProc(p.Name, p.Args, pre, p.Body, p.Instr, p.Src)
}

// ArenaGen returns the generation token identifying this exact Proc value.
func (p *Proc) ArenaGen() uint64 { return p.arenaGen }

// WritesOf returns the set of argument symbol ids actually assigned to in
// the body, used by the compiler to confirm a Writable effect and mark the
// rest const in emitted signatures (spec section 3 invariants).
func (p *Proc) WritesOf() map[uint64]bool {
	written := map[uint64]bool{}
	var walk func([]Stmt)
	walk = func(body []Stmt) {
		for _, s := range body {
			switch st := s.(type) {
			case *AssignStmt:
				written[st.Buf.ID()] = true
			case *ReduceStmt:
				written[st.Buf.ID()] = true
			case *IfStmt:
				walk(st.Body)
				walk(st.OrElse)
			case *ForStmt:
				walk(st.Body)
			}
		}
	}
	walk(p.Body)
	return written
}

func (p *Proc) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(", p.Name)
	for i, a := range p.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s @%s %s", a.Sym.Name(), a.Type, a.Mem, a.Effect)
	}
	b.WriteString("):\n")
	for _, pre := range p.Preconditions {
		fmt.Fprintf(&b, "  assert %s\n", pre)
	}
	for _, s := range p.Body {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	return b.String()
}
