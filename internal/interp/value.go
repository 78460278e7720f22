// Package interp is the reference interpreter: a direct, tree-walking
// evaluator over already-typechecked TIR, kept deliberately minimal (spec
// section 1 calls it out as an external collaborator used only for
// testing). It reuses Go's native IEEE-754 arithmetic rather than
// reimplementing floating point, and exists so a test can compare a
// kernel's interpreted output against its compiled output (testable
// properties 5 and 6).
package interp

import (
	"math"

	"exo/internal/ir"
)

// Value is whatever a TIR expression evaluates to: a bool, a float64 holding
// a scalar already rounded to its declared precision, a *Buffer for a
// tensor, or a *Window for a window. Kept as a bare interface{} rather than
// a tagged struct since every call site already knows which of the four it
// expects from the static TIR type it is evaluating.
type Value interface{}

// Buffer is a dense tensor's backing storage: a flat, row-major array plus
// its shape, the same flat single-linear-index model internal/lower assumes
// for every memory kind.
type Buffer struct {
	Scalar ir.Scalar
	Shape  []int64
	Data   []float64
}

// NewBuffer allocates a zero-filled buffer of the given shape.
func NewBuffer(scalar ir.Scalar, shape []int64) *Buffer {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return &Buffer{Scalar: scalar, Shape: shape, Data: make([]float64, n)}
}

// denseStrides returns the suffix-product strides of shape, outermost first,
// the same quantity internal/lower's denseStrides computes for emitted code.
func denseStrides(shape []int64) []int64 {
	st := make([]int64, len(shape))
	acc := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

func flatOffset(idx, strides []int64) int64 {
	var off int64
	for i, v := range idx {
		off += v * strides[i]
	}
	return off
}

// Window is a narrowed, possibly rank-reduced view into a Buffer: a base
// offset plus one stride per surviving (non-point) dimension, mirroring the
// { data, strides[] } shape the compiled window struct carries.
type Window struct {
	Buf     *Buffer
	Offset  int64
	Strides []int64
}

func (w *Window) at(idx []int64) int64 {
	return w.Offset + flatOffset(idx, w.Strides)
}

// roundScalar re-quantizes f to the precision a C variable of this scalar
// type would actually hold, so repeated arithmetic accumulates the same
// rounding error a compiled kernel would (the "bit-identical" requirement
// testable property 5 states). F16 has no Go machine type; we approximate
// it with the same truncation as F32 since nothing in the pack's kernels
// exercises half precision closely enough to need a software float16.
func roundScalar(s ir.Scalar, f float64) float64 {
	switch s {
	case ir.F32, ir.F16:
		return float64(float32(f))
	case ir.F64:
		return f
	case ir.I8:
		return float64(int8(int64(f)))
	case ir.I32:
		return float64(int32(int64(f)))
	case ir.UI8:
		return float64(uint8(int64(f)))
	case ir.UI16:
		return float64(uint16(int64(f)))
	default:
		return f
	}
}

// truncateInt32 applies the int32_t width every index/size/stride value is
// declared at in emitted C (spec section 6).
func truncateInt32(f float64) float64 { return float64(int32(int64(f))) }

// toValue converts a ValConst's host literal (set by internal/typecheck's
// constValType: bool, float64, or a default-int64 literal) into a Value.
func toValue(v interface{}) Value {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	default:
		return v
	}
}

// callExtern is the interpreter's own math-function table: a separate,
// directly computable counterpart to internal/extern's Table, which only
// emits C call text via Compile and so cannot itself be invoked as a Go
// function. Kept in lockstep with extern.NewMathTable's entries (sin, cos,
// exp, sqrt, relu).
func callExtern(name string, args []float64) (float64, bool) {
	switch name {
	case "sin":
		return math.Sin(args[0]), true
	case "cos":
		return math.Cos(args[0]), true
	case "exp":
		return math.Exp(args[0]), true
	case "sqrt":
		return math.Sqrt(args[0]), true
	case "relu":
		if args[0] > 0 {
			return args[0], true
		}
		return 0, true
	default:
		return 0, false
	}
}
