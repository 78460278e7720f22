// Package schedule implements the rewrite catalog: every operation listed
// in the rewrite table is a method with the signature
// (proc, target Cursor, args) (proc', fwd, error), returning a brand new
// procedure version, a Forward transporting old cursors to the new version,
// and a *errors.SchedulingError when the operation's precondition fails.
//
// Dead-code elimination, simplify, and the pass-pipeline shape of this
// package are grounded on the teacher's optimization-pipeline convention of
// splitting a large pass-based component into sibling files within one
// package, each covering one family of passes.
package schedule

import (
	"exo/internal/ast"
	"exo/internal/cursor"
	"exo/internal/errors"
	"exo/internal/ir"
)

// Proc is the schedule-facing procedure value: every rewrite, plus the
// small set of read-only accessors the host program uses to drive a
// schedule script (rename, find, find_loop, body, args, add_assertion,
// set_window, set_memory, unsafe_assert_eq, partial_eval), is a method on
// this type rather than on *ir.Proc directly, so the TIR model stays free
// of scheduling concerns.
type Proc struct {
	ir *ir.Proc
}

// New wraps an already type-checked procedure for scheduling.
func New(p *ir.Proc) Proc { return Proc{ir: p} }

// IR returns the underlying TIR procedure.
func (p Proc) IR() *ir.Proc { return p.ir }

// Root returns a cursor naming the whole body of this procedure version.
func (p Proc) Root() cursor.Cursor { return cursor.Root(p.ir) }

// Body returns cursors to every top-level statement.
func (p Proc) Body() ([]cursor.Cursor, error) { return p.Root().Children() }

// Args returns the procedure's argument list.
func (p Proc) Args() []ir.Arg { return p.ir.Args }

// Find locates the first statement whose printed form matches fragment.
func (p Proc) Find(fragment string) (cursor.Cursor, error) {
	return cursor.Find(p.Root(), fragment)
}

// FindLoop locates `for` loops matching fragment; pass many=true to get
// every match instead of just the first.
func (p Proc) FindLoop(fragment string, many bool) ([]cursor.Cursor, error) {
	return cursor.FindLoop(p.Root(), fragment, many)
}

// Rename returns a new procedure with a different name; its Forward is the
// identity since no statement position moves.
func (p Proc) Rename(name string) (Proc, cursor.Forward, error) {
	next := p.ir.WithName(name)
	return New(next), cursor.Identity(next), nil
}

// AddAssertion appends a precondition; no statement position moves.
func (p Proc) AddAssertion(pred ir.Pred) (Proc, cursor.Forward, error) {
	next := p.ir.WithPreconditions(append(append([]ir.Pred{}, p.ir.Preconditions...), pred))
	return New(next), cursor.Identity(next), nil
}

// UnsafeAssertEq reports whether two procedures print identically, the
// escape hatch a schedule script uses to assert two rewrites produced the
// same procedure without the engine proving it (spec section 4.4 Schedule
// API: "unsafe_assert_eq(other)").
func (p Proc) UnsafeAssertEq(other Proc) bool {
	return p.ir.String() == other.ir.String()
}

// PartialEval substitutes a concrete value for a procedure size/index
// argument and drops that argument, specializing the body. It is a thin,
// whole-tree substitution rather than a cursor-targeted rewrite, so it has
// no Forward: every statement position is preserved, only the argument
// list shrinks.
func (p Proc) PartialEval(sym ir.Arg, val int64) (Proc, error) {
	args := make([]ir.Arg, 0, len(p.ir.Args)-1)
	for _, a := range p.ir.Args {
		if a.Sym.Equal(sym.Sym) {
			continue
		}
		args = append(args, a)
	}
	sub := substAExpr(sym.Sym.ID(), val)
	next := ir.NewProc(p.ir.Name, args, mapPreds(p.ir.Preconditions, sub), mapBlock(p.ir.Body, sub), p.ir.Instr, p.ir.Src)
	return New(next), nil
}

func schedErr(rewrite string, src ir.SrcInfo, reason string) *errors.SchedulingError {
	return errors.NewSchedulingError(rewrite, ast.Pos{Filename: src.Filename, Line: src.Line, Column: src.Column}, reason)
}

// requireNode fetches the statement a target cursor names, failing with a
// SchedulingError tagged with rewrite's name if the cursor isn't a node.
func requireNode(rewrite string, target cursor.Cursor) (ir.Stmt, error) {
	node, err := target.Node()
	if err != nil {
		return nil, schedErr(rewrite, ir.SrcInfo{}, "target cursor does not name a statement: "+err.Error())
	}
	return node, nil
}

// replaceBlock walks path from the procedure root, cloning only the spine
// of statements that contain the edited block, and installs newBlock at the
// end of the path. Every statement not on the spine is shared by pointer
// with the previous version, matching the persistent-tree requirement.
func replaceBlock(block []ir.Stmt, path []cursor.Path, newBlock []ir.Stmt) []ir.Stmt {
	if len(path) == 0 {
		return newBlock
	}
	step := path[0]
	out := append([]ir.Stmt{}, block...)
	switch s := out[step.Index].(type) {
	case *ir.ForStmt:
		ns := *s
		ns.Body = replaceBlock(s.Body, path[1:], newBlock)
		out[step.Index] = &ns
	case *ir.IfStmt:
		ns := *s
		if step.Field == "orelse" {
			ns.OrElse = replaceBlock(s.OrElse, path[1:], newBlock)
		} else {
			ns.Body = replaceBlock(s.Body, path[1:], newBlock)
		}
		out[step.Index] = &ns
	}
	return out
}

func withNewBlock(proc *ir.Proc, path []cursor.Path, newBlock []ir.Stmt) *ir.Proc {
	return proc.WithBody(replaceBlock(proc.Body, path, newBlock))
}

// replaceStmtAt returns a copy of block with block[i] replaced by repl
// (a slice, so one statement can become zero, one, or many).
func replaceStmtAt(block []ir.Stmt, i int, repl []ir.Stmt) []ir.Stmt {
	out := make([]ir.Stmt, 0, len(block)-1+len(repl))
	out = append(out, block[:i]...)
	out = append(out, repl...)
	out = append(out, block[i+1:]...)
	return out
}

// insertAt returns a copy of block with stmts inserted before index i.
func insertAt(block []ir.Stmt, i int, stmts ...ir.Stmt) []ir.Stmt {
	out := make([]ir.Stmt, 0, len(block)+len(stmts))
	out = append(out, block[:i]...)
	out = append(out, stmts...)
	out = append(out, block[i:]...)
	return out
}

// restructureForward builds the Forward for a rewrite that replaces
// oldCount sibling statements at [pivot, pivot+oldCount) in the block named
// by path with newCount new ones, where the new statements may have an
// entirely different internal shape (e.g. divide_loop wrapping one loop in
// two, or lift_if duplicating a body). Cursors outside the touched range are
// shifted by the count delta, exactly like ShiftInBlock; cursors strictly
// inside the touched range, or naming the touched statement(s) themselves,
// do not have a well-defined image under such a restructuring and surface
// as CursorInvalid — callers that need precise interior forwarding (a
// cursor the schedule script captured just before this rewrite, still
// naming a kept sub-statement) should re-`find` it in the new procedure
// instead.
func restructureForward(newProc *ir.Proc, path []cursor.Path, pivot, oldCount, newCount int) cursor.Forward {
	return func(c cursor.Cursor) (cursor.Cursor, error) {
		nc := c.Reparent(newProc)
		if !samePathPrefix(nc, path) {
			return nc, nil
		}
		idx, err := indexAfterPrefix(nc, path)
		if err != nil {
			// deeper cursor with a shorter path than `path`; unaffected.
			return nc, nil
		}
		switch {
		case idx >= pivot && idx < pivot+oldCount:
			return cursor.Cursor{}, errors.NewCursorInvalid("cursor named a statement restructured by this rewrite")
		case idx >= pivot+oldCount:
			delta := newCount - oldCount
			return shiftCursorIndex(nc, delta), nil
		default:
			return nc, nil
		}
	}
}

func samePathPrefix(c cursor.Cursor, prefix []cursor.Path) bool {
	full := c.PathOf()
	if len(full) < len(prefix) {
		return len(full) == len(prefix)
	}
	for i, s := range prefix {
		if full[i] != s {
			return false
		}
	}
	return true
}

// indexAfterPrefix returns the Index the cursor's path carries at the step
// immediately following prefix (the sibling position within the rewritten
// block), or an error if the cursor's own path is exactly prefix (meaning
// it names a position within that block directly, handled by its own
// Index()/Selection() rather than a further path step).
func indexAfterPrefix(c cursor.Cursor, prefix []cursor.Path) (int, error) {
	full := c.PathOf()
	if len(full) == len(prefix) {
		if i, err := c.Index(); err == nil {
			return i, nil
		}
		i, _, err := c.Selection()
		return i, err
	}
	return full[len(prefix)].Index, nil
}

func shiftCursorIndex(c cursor.Cursor, delta int) cursor.Cursor {
	switch c.CursorKind() {
	case cursor.KindNode, cursor.KindGap:
		i, _ := c.Index()
		return c.WithIndex(i + delta)
	case cursor.KindSelection:
		i, j, _ := c.Selection()
		return c.WithRange(i+delta, j+delta)
	default:
		return c
	}
}
