package typecheck

import (
	"fmt"

	"exo/internal/affine"
	"exo/internal/ast"
	"exo/internal/errors"
	"exo/internal/ir"
)

var scalarNames = map[string]ir.Scalar{
	"f16": ir.F16, "f32": ir.F32, "f64": ir.F64,
	"i8": ir.I8, "i32": ir.I32, "ui8": ir.UI8, "ui16": ir.UI16,
	"bool": ir.Bool,
}

var indexClassNames = map[string]ir.IndexClass{
	"size": ir.ClassSize, "index": ir.ClassIndex, "stride": ir.ClassStride,
}

// checkType resolves a UAST type annotation to a TIR Type: a tensor shape
// (Base names the element scalar, Shape is checked in affine position and
// normalized), an index class, or a bare scalar.
func (a *Analyzer) checkType(t ast.Type, sc *Scope, pos ast.Pos) (ir.Type, error) {
	if len(t.Shape) > 0 {
		scalar, ok := scalarNames[t.Base]
		if !ok {
			return ir.Type{}, errors.NewTypeError(errors.ErrTypeMismatch, pos,
				fmt.Sprintf("unknown tensor element type %q", t.Base))
		}
		shape := make([]ir.AExpr, 0, len(t.Shape))
		for _, d := range t.Shape {
			e, err := checkAExpr(d, sc)
			if err != nil {
				return ir.Type{}, err
			}
			shape = append(shape, affine.Normalize(e))
		}
		return ir.TensorType(scalar, shape), nil
	}
	if class, ok := indexClassNames[t.Base]; ok {
		return ir.IndexType(class), nil
	}
	if scalar, ok := scalarNames[t.Base]; ok {
		return ir.ScalarType(scalar), nil
	}
	return ir.Type{}, errors.NewTypeError(errors.ErrTypeMismatch, pos, fmt.Sprintf("unknown type %q", t.Base))
}

// typesCompatible reports whether a value of type got may be used where
// want is expected: a call argument, a Select's two branches, or an
// assignment target. A window is accepted in a tensor-typed position, since
// a window is exactly a narrowed view over one (spec section 5).
func typesCompatible(got, want ir.Type) bool {
	if got.Kind != want.Kind {
		if !(got.Kind == ir.KindWindow && want.Kind == ir.KindTensor) {
			return false
		}
	}
	if got.Scalar != want.Scalar {
		return false
	}
	if want.Kind == ir.KindIndexable && got.Kind == ir.KindIndexable && got.Class != want.Class {
		return false
	}
	if want.Kind == ir.KindTensor || want.Kind == ir.KindWindow || got.Kind == ir.KindWindow {
		if len(got.Shape) != len(want.Shape) {
			return false
		}
		for i := range got.Shape {
			if !affine.Equal(affine.Normalize(got.Shape[i]), affine.Normalize(want.Shape[i])) {
				return false
			}
		}
	}
	return true
}
