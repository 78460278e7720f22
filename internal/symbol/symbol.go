// Package symbol implements fresh-name generation and scoped name environments.
//
// A Symbol is an atomic identity: two symbols are equal only if they share the
// same id, never by comparing names. This package's only process-wide
// mutable state is a monotonic, atomically-incremented counter.
package symbol

import (
	"fmt"
	"sync/atomic"
)

var nextID uint64

// Symbol is an atomic identity with a printable name.
type Symbol struct {
	id   uint64
	name string
}

// New allocates a fresh symbol with the given base name. The returned symbol's
// id is unique for the lifetime of the process.
func New(name string) Symbol {
	id := atomic.AddUint64(&nextID, 1)
	return Symbol{id: id, name: name}
}

// Name returns the symbol's printable (non-unique) name.
func (s Symbol) Name() string { return s.name }

// ID returns the symbol's unique identity, useful as a map key.
func (s Symbol) ID() uint64 { return s.id }

// Equal reports whether two symbols share the same identity.
func (s Symbol) Equal(other Symbol) bool { return s.id == other.id }

func (s Symbol) String() string {
	return fmt.Sprintf("%s~%d", s.name, s.id)
}

// Zero reports whether s is the zero value (never allocated via New).
func (s Symbol) Zero() bool { return s.id == 0 }
