package cursor

import "exo/internal/ir"

// Forward is the function every schedule rewrite returns alongside its new
// procedure: it transports a cursor into the pre-rewrite proc to the
// equivalent cursor in the post-rewrite proc. Composition of forwardings is
// ordinary function composition (Compose below); the identity edit returns
// Identity.
type Forward func(Cursor) (Cursor, error)

// Identity returns a Forward that only rebinds cursors onto newProc,
// without touching their path or index — correct whenever a rewrite leaves
// every statement's position unchanged (e.g. rename, set_window).
func Identity(newProc *ir.Proc) Forward {
	return func(c Cursor) (Cursor, error) {
		return c.Reparent(newProc), nil
	}
}

// Compose returns a Forward equivalent to applying fs in order.
func Compose(fs ...Forward) Forward {
	return func(c Cursor) (Cursor, error) {
		var err error
		for _, f := range fs {
			c, err = f(c)
			if err != nil {
				return Cursor{}, err
			}
		}
		return c, nil
	}
}

// ShiftInBlock returns a Forward that reparents onto newProc and, for any
// cursor whose path exactly matches steps and whose index is >= pivot,
// shifts that index by delta. It is the building block for rewrites that
// insert or remove statements at a single point within one block (fission,
// staging, dead-code elimination).
func ShiftInBlock(newProc *ir.Proc, steps []Path, pivot, delta int) Forward {
	return func(c Cursor) (Cursor, error) {
		nc := c.Reparent(newProc)
		if !samePath(nc.steps, steps) {
			return nc, nil
		}
		switch nc.kind {
		case KindNode, KindGap:
			if nc.i >= pivot {
				nc.i += delta
			}
		case KindSelection:
			if nc.i >= pivot {
				nc.i += delta
			}
			if nc.j >= pivot {
				nc.j += delta
			}
		}
		return nc, nil
	}
}

// Path mirrors the unexported blockStep so schedule can build and compare
// paths (via PathOf) without this package exposing its internal type name
// directly as part of the Cursor surface. Index selects the enclosing
// For/If statement; Field is "body" or "orelse".
type Path = blockStep

// PathOf returns a copy of c's path, usable as the steps argument to
// ShiftInBlock or schedule's block-replacement helpers.
func (c Cursor) PathOf() []Path {
	return append([]blockStep{}, c.steps...)
}

func samePath(a, b []blockStep) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
