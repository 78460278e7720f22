// Package ir implements the typed loop IR (TIR): the tree produced by
// typecheck.Check from a UAST, carried through schedule rewrites, and
// finally consumed by lower. TIR nodes are immutable; every rewrite builds a
// new persistent tree sharing unchanged subtrees by pointer.
package ir

import "fmt"

// Scalar is one of the eight numeric/boolean base types.
type Scalar int

const (
	F16 Scalar = iota
	F32
	F64
	I8
	I32
	UI8
	UI16
	Bool
)

var scalarNames = map[Scalar]string{
	F16: "f16", F32: "f32", F64: "f64",
	I8: "i8", I32: "i32", UI8: "ui8", UI16: "ui16",
	Bool: "bool",
}

func (s Scalar) String() string { return scalarNames[s] }

// CType returns the C type used to represent s in emitted source.
func (s Scalar) CType() string {
	switch s {
	case F16:
		return "_Float16"
	case F32:
		return "float"
	case F64:
		return "double"
	case I8:
		return "int8_t"
	case I32:
		return "int32_t"
	case UI8:
		return "uint8_t"
	case UI16:
		return "uint16_t"
	case Bool:
		return "bool"
	default:
		return "void"
	}
}

// IndexClass is one of the four indexable (non-tensor) value kinds.
type IndexClass int

const (
	ClassSize IndexClass = iota // >= 1
	ClassIndex                  // integer
	ClassStride                 // integer
	ClassBool
)

func (c IndexClass) String() string {
	switch c {
	case ClassSize:
		return "size"
	case ClassIndex:
		return "index"
	case ClassStride:
		return "stride"
	case ClassBool:
		return "bool"
	default:
		return "?"
	}
}

// TypeKind selects which variant of Type is populated.
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindIndexable
	KindTensor
	KindWindow
)

// Type is the closed sum of every TIR type: a bare scalar, an index class,
// a tensor, or a window.
type Type struct {
	Kind   TypeKind
	Scalar Scalar
	Class  IndexClass
	Shape  []AExpr // tensor/window shape, row-major, outermost first

	// Window-only fields.
	SrcBuf   string // printed name of the source buffer symbol (display only)
	SrcBufID uint64
	Const    bool
}

func ScalarType(s Scalar) Type { return Type{Kind: KindScalar, Scalar: s} }
func IndexType(c IndexClass) Type { return Type{Kind: KindIndexable, Class: c} }
func TensorType(s Scalar, shape []AExpr) Type {
	return Type{Kind: KindTensor, Scalar: s, Shape: shape}
}
func WindowType(s Scalar, shape []AExpr, srcBuf string, srcBufID uint64, isConst bool) Type {
	return Type{Kind: KindWindow, Scalar: s, Shape: shape, SrcBuf: srcBuf, SrcBufID: srcBufID, Const: isConst}
}

func (t Type) IsIndexable() bool { return t.Kind == KindIndexable }
func (t Type) IsNumeric() bool {
	return t.Kind == KindScalar || t.Kind == KindTensor || t.Kind == KindWindow
}
func (t Type) Rank() int { return len(t.Shape) }

func (t Type) String() string {
	switch t.Kind {
	case KindScalar:
		return t.Scalar.String()
	case KindIndexable:
		return t.Class.String()
	case KindTensor:
		return fmt.Sprintf("%s%s", t.Scalar, shapeString(t.Shape))
	case KindWindow:
		c := ""
		if t.Const {
			c = "const "
		}
		return fmt.Sprintf("%swindow(%s)%s", c, t.SrcBuf, shapeString(t.Shape))
	default:
		return "?"
	}
}

func shapeString(shape []AExpr) string {
	s := "["
	for i, d := range shape {
		if i > 0 {
			s += ","
		}
		s += d.String()
	}
	return s + "]"
}
