// Package memory implements the Memory capability (spec section 6): a small
// plug-in interface the lowering pass delegates every allocation, free,
// read, write, reduce, and window-pointer emission to, so the compiler
// itself never special-cases a storage kind.
package memory

import "exo/internal/ir"

// Kind is a host-supplied storage plug-in. The lowering pass never
// introspects a Kind's internals; it only calls these methods while
// accumulating emitted source text.
type Kind interface {
	Name() string
	CanRead() bool
	CanWrite() bool

	// Static reports whether this kind forbids allocation inside a
	// non-leaf procedure (one that itself calls other procedures) — a
	// memory kind may declare itself static the way a fixed-size stack
	// scratch region must.
	Static() bool

	// Global returns any file-scope declaration this kind needs emitted
	// once per translation unit (e.g. a scratch arena), or "" if none.
	Global() string

	// Alloc/Free return the snippet allocating/freeing a buffer named
	// name of element type ctype and shape shapeStrs (each dimension
	// already rendered to a C expression string).
	Alloc(name, ctype string, shapeStrs []string, src ir.SrcInfo) (string, error)
	Free(name, ctype string, shapeStrs []string, src ir.SrcInfo) (string, error)

	// Read/Write/Reduce return the emitted assignment statement for
	// buf[idx] (lhs, already rendered as a C lvalue expression) against
	// rhs (already rendered as a C expression).
	Read(lhs, rhs string, src ir.SrcInfo) (string, error)
	Write(lhs, rhs string, src ir.SrcInfo) (string, error)
	Reduce(lhs, rhs string, src ir.SrcInfo) (string, error)

	// Window returns the data-pointer expression for a window over base
	// with the given per-dimension offsets and strides.
	Window(basetype, base string, offsets, strides []string, src ir.SrcInfo) (string, error)
}

// Registry resolves a memory kind by name, the way the lowering pass looks
// up the kind named on an Arg/AllocStmt's Mem field.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry builds a registry seeded with the built-in kinds (DRAM,
// Stack); callers may Register additional host-supplied kinds on top.
func NewRegistry() *Registry {
	r := &Registry{kinds: map[string]Kind{}}
	r.Register(DRAM{})
	r.Register(Stack{})
	return r
}

func (r *Registry) Register(k Kind) { r.kinds[k.Name()] = k }

func (r *Registry) Lookup(name string) (Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}
