// Package lower implements the compiler (spec section 4.5): it walks fully
// scheduled TIR and emits C source text. Grounded on kanso's
// internal/ir/builder.go accumulator-with-helper-methods shape, inverted —
// that builder walks AST and accumulates IR values; this package walks TIR
// and accumulates C text, via an Emitter playing the role kanso's *Builder
// plays for SSA values.
package lower

import (
	"fmt"
	"strings"
)

// Emitter accumulates indented C source text. Every emit* method in this
// package writes through one Emitter, the way every build* method in
// kanso's builder.go writes into the shared *Builder's current block.
type Emitter struct {
	buf    strings.Builder
	indent int
}

func newEmitter() *Emitter { return &Emitter{} }

func (e *Emitter) push() { e.indent++ }
func (e *Emitter) pop()  { e.indent-- }

// line writes one fully-formed C statement or directive at the current
// indent level, terminated by a newline.
func (e *Emitter) line(format string, args ...interface{}) {
	e.buf.WriteString(strings.Repeat("  ", e.indent))
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

// blank writes an empty line, used to separate top-level declarations.
func (e *Emitter) blank() { e.buf.WriteByte('\n') }

func (e *Emitter) String() string { return e.buf.String() }
