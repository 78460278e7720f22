// Package cursor implements stable, position-valued references into TIR
// trees: a cursor names a statement, a gap between statements, or a
// contiguous selection within a block, and survives rewrites via an
// explicit forwarding relation (Forward) rather than by being a live
// pointer into a mutable tree (TIR trees are immutable).
package cursor

import (
	"fmt"

	"exo/internal/errors"
	"exo/internal/ir"
)

// blockStep descends from one statement block into a nested one: Index
// selects the For/If statement within the current block, Field selects
// which of its sub-blocks ("body" or "orelse") to enter next.
type blockStep struct {
	Index int
	Field string // "body" | "orelse"
}

// Kind discriminates what a Cursor currently names.
type Kind int

const (
	KindNode Kind = iota
	KindGap
	KindSelection
)

// Cursor is a (proc-version, path) pair. Two cursors are equal iff they
// reference the same proc version (by arena generation) and the same path.
type Cursor struct {
	proc  *ir.Proc
	steps []blockStep // path to the containing block, from the proc root
	kind  Kind
	i, j  int // KindNode/KindGap use i only; KindSelection uses [i, j)
}

// Root returns a cursor naming the whole top-level body as a selection
// spanning every statement.
func Root(proc *ir.Proc) Cursor {
	return Cursor{proc: proc, kind: KindSelection, i: 0, j: len(proc.Body)}
}

// Proc returns the procedure version this cursor was built against.
func (c Cursor) Proc() *ir.Proc { return c.proc }

func (c Cursor) block() []ir.Stmt {
	block := c.proc.Body
	for _, s := range c.steps {
		switch parent := block[s.Index].(type) {
		case *ir.ForStmt:
			block = parent.Body
		case *ir.IfStmt:
			if s.Field == "orelse" {
				block = parent.OrElse
			} else {
				block = parent.Body
			}
		default:
			panic("cursor: malformed path: step into non-block statement")
		}
	}
	return block
}

// valid reports whether c has a backing procedure. It does not check
// whether that procedure is still the latest version: a cursor always
// resolves against the exact immutable proc version it was built for, so a
// cursor left over from an older version is not rejected, and the arena
// generation is compared only by Equal (callers transport cursors across
// edits via Forward, never by re-deriving a path against a different Proc
// value).
func (c Cursor) valid() error {
	if c.proc == nil {
		return errors.NewCursorInvalid("cursor has no backing procedure")
	}
	return nil
}

// Node returns the statement this cursor names, requiring KindNode.
func (c Cursor) Node() (ir.Stmt, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	if c.kind != KindNode {
		return nil, errors.NewCursorInvalid("cursor does not name a single node")
	}
	block := c.block()
	if c.i < 0 || c.i >= len(block) {
		return nil, errors.NewCursorInvalid("node index out of range after edits")
	}
	return block[c.i], nil
}

// Children returns cursors to every direct statement child of the node this
// cursor names (its nested body/orelse blocks, flattened), or of the root
// block if this cursor is the whole-proc selection.
func (c Cursor) Children() ([]Cursor, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	var block []ir.Stmt
	var steps []blockStep
	switch c.kind {
	case KindNode:
		node, err := c.Node()
		if err != nil {
			return nil, err
		}
		switch n := node.(type) {
		case *ir.ForStmt:
			block, steps = n.Body, append(append([]blockStep{}, c.steps...), blockStep{c.i, "body"})
		case *ir.IfStmt:
			block, steps = n.Body, append(append([]blockStep{}, c.steps...), blockStep{c.i, "body"})
		default:
			return nil, nil
		}
	case KindSelection:
		block, steps = c.block(), c.steps
	default:
		return nil, errors.NewCursorInvalid("gap cursors have no children")
	}
	out := make([]Cursor, len(block))
	for i := range block {
		out[i] = Cursor{proc: c.proc, steps: steps, kind: KindNode, i: i}
	}
	return out, nil
}

// Parent returns a node cursor to the statement whose block contains this
// cursor's block (fails for the top-level block, which has no parent
// statement).
func (c Cursor) Parent() (Cursor, error) {
	if err := c.valid(); err != nil {
		return Cursor{}, err
	}
	if len(c.steps) == 0 {
		return Cursor{}, errors.NewCursorInvalid("root block has no parent statement")
	}
	last := c.steps[len(c.steps)-1]
	return Cursor{proc: c.proc, steps: c.steps[:len(c.steps)-1], kind: KindNode, i: last.Index}, nil
}

// Body returns the block cursor (a full selection) for a node that owns one
// ("body" by default; use OrElse for an If's else-branch).
func (c Cursor) Body() (Cursor, error) {
	return c.bodyField("body")
}

// OrElse returns the block cursor for an If node's else-branch.
func (c Cursor) OrElse() (Cursor, error) {
	return c.bodyField("orelse")
}

func (c Cursor) bodyField(field string) (Cursor, error) {
	node, err := c.Node()
	if err != nil {
		return Cursor{}, err
	}
	steps := append(append([]blockStep{}, c.steps...), blockStep{c.i, field})
	var n int
	switch s := node.(type) {
	case *ir.ForStmt:
		n = len(s.Body)
	case *ir.IfStmt:
		if field == "orelse" {
			n = len(s.OrElse)
		} else {
			n = len(s.Body)
		}
	default:
		return Cursor{}, errors.NewCursorInvalid("statement has no body block")
	}
	return Cursor{proc: c.proc, steps: steps, kind: KindSelection, i: 0, j: n}, nil
}

// Next returns the cursor k positions after this one within the same block.
func (c Cursor) Next(k int) (Cursor, error) {
	if c.kind != KindNode {
		return Cursor{}, errors.NewCursorInvalid("Next requires a node cursor")
	}
	block := c.block()
	ni := c.i + k
	if ni < 0 || ni >= len(block) {
		return Cursor{}, errors.NewCursorInvalid("Next walked out of block bounds")
	}
	return Cursor{proc: c.proc, steps: c.steps, kind: KindNode, i: ni}, nil
}

// Prev returns the cursor k positions before this one within the same block.
func (c Cursor) Prev(k int) (Cursor, error) { return c.Next(-k) }

// Before returns the gap immediately before this node (or, for a
// selection, before its first element).
func (c Cursor) Before() (Cursor, error) {
	i, err := c.firstIndex()
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{proc: c.proc, steps: c.steps, kind: KindGap, i: i}, nil
}

// After returns the gap immediately after this node (or, for a selection,
// after its last element).
func (c Cursor) After() (Cursor, error) {
	i, err := c.lastIndexExclusive()
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{proc: c.proc, steps: c.steps, kind: KindGap, i: i}, nil
}

func (c Cursor) firstIndex() (int, error) {
	switch c.kind {
	case KindNode:
		return c.i, nil
	case KindSelection:
		return c.i, nil
	default:
		return 0, errors.NewCursorInvalid("gap has no Before()")
	}
}

func (c Cursor) lastIndexExclusive() (int, error) {
	switch c.kind {
	case KindNode:
		return c.i + 1, nil
	case KindSelection:
		return c.j, nil
	default:
		return 0, errors.NewCursorInvalid("gap has no After()")
	}
}

// Expand grows a selection by left statements on the left and right
// statements on the right, clamped to block bounds.
func (c Cursor) Expand(left, right int) (Cursor, error) {
	if c.kind != KindSelection {
		return Cursor{}, errors.NewCursorInvalid("Expand requires a selection cursor")
	}
	block := c.block()
	ni, nj := c.i-left, c.j+right
	if ni < 0 {
		ni = 0
	}
	if nj > len(block) {
		nj = len(block)
	}
	return Cursor{proc: c.proc, steps: c.steps, kind: KindSelection, i: ni, j: nj}, nil
}

// CursorKind reports which of node/gap/selection c currently names.
func (c Cursor) CursorKind() Kind { return c.kind }

// Gap returns the gap's index within its block for a gap cursor.
func (c Cursor) Gap() (int, error) {
	if c.kind != KindGap {
		return 0, errors.NewCursorInvalid("not a gap cursor")
	}
	return c.i, nil
}

// Selection returns the [i, j) range for a selection cursor.
func (c Cursor) Selection() (int, int, error) {
	if c.kind != KindSelection {
		return 0, 0, errors.NewCursorInvalid("not a selection cursor")
	}
	return c.i, c.j, nil
}

// Equal reports structural equality: same proc generation and same path.
func (c Cursor) Equal(other Cursor) bool {
	if c.proc == nil || other.proc == nil {
		return false
	}
	if c.proc.ArenaGen() != other.proc.ArenaGen() {
		return false
	}
	if len(c.steps) != len(other.steps) {
		return false
	}
	for i := range c.steps {
		if c.steps[i] != other.steps[i] {
			return false
		}
	}
	return c.kind == other.kind && c.i == other.i && c.j == other.j
}

// Reparent returns a cursor with the identical path and kind, but bound to
// newProc. Rewrites use this as the building block for their forwarding
// functions: most edits only change index offsets within one block, so a
// rewrite typically reparents a cursor and then adjusts i/j with WithIndex
// or WithRange.
func (c Cursor) Reparent(newProc *ir.Proc) Cursor {
	c.proc = newProc
	return c
}

// WithIndex returns a node or gap cursor identical to c but at index i.
func (c Cursor) WithIndex(i int) Cursor {
	c.i = i
	return c
}

// WithRange returns a selection cursor identical to c but spanning [i, j).
func (c Cursor) WithRange(i, j int) Cursor {
	c.i, c.j = i, j
	c.kind = KindSelection
	return c
}

// Depth exposes the raw path depth, used by schedule rewrites to compare
// whether two cursors share an enclosing block without exporting blockStep.
func (c Cursor) Depth() int { return len(c.steps) }

// Index returns the raw i value for a node or gap cursor — the statement or
// gap position within its block — used by package schedule to locate the
// slice position a rewrite must edit.
func (c Cursor) Index() (int, error) {
	if c.kind != KindNode && c.kind != KindGap {
		return 0, errors.NewCursorInvalid("Index requires a node or gap cursor")
	}
	return c.i, nil
}

// Block returns a copy of the statement slice this cursor's path descends
// into (the block containing the node/gap/selection this cursor names).
func (c Cursor) Block() ([]ir.Stmt, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	return append([]ir.Stmt{}, c.block()...), nil
}

// SameBlock reports whether c and other name positions in the same block.
func (c Cursor) SameBlock(other Cursor) bool {
	if len(c.steps) != len(other.steps) {
		return false
	}
	for i := range c.steps {
		if c.steps[i] != other.steps[i] {
			return false
		}
	}
	return true
}

func (c Cursor) String() string {
	switch c.kind {
	case KindNode:
		return fmt.Sprintf("node@%v[%d]", c.steps, c.i)
	case KindGap:
		return fmt.Sprintf("gap@%v[%d]", c.steps, c.i)
	default:
		return fmt.Sprintf("sel@%v[%d:%d]", c.steps, c.i, c.j)
	}
}
