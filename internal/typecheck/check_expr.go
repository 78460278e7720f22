package typecheck

import (
	"fmt"

	"exo/internal/affine"
	"exo/internal/ast"
	"exo/internal/errors"
	"exo/internal/ir"
)

func toSrcInfo(p ast.Pos) ir.SrcInfo {
	return ir.SrcInfo{Filename: p.Filename, Line: p.Line, Column: p.Column}
}

func nonAffine(pos ast.Pos, what string) error {
	return errors.NewTypeError(errors.ErrNonAffineIndex, pos,
		fmt.Sprintf("%s is not valid in an index or shape position", what))
}

// checkAExprs checks each of es in affine position and normalizes the
// result, the form every index list and shape is stored in on the TIR side.
func checkAExprs(es []ast.Expr, sc *Scope) ([]ir.AExpr, error) {
	out := make([]ir.AExpr, 0, len(es))
	for _, e := range es {
		a, err := checkAExpr(e, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, affine.Normalize(a))
	}
	return out, nil
}

// checkAExpr classifies e as a member of the affine sublanguage: an index
// or size variable, an integer literal, or +/-/scale-by-constant/floor-div
// of affine sub-terms. A scalar read, a call, or any non-affine operator
// here is rejected with ErrNonAffineIndex, the Go-level guarantee spec
// section 9 asks for without a runtime type tag.
func checkAExpr(e ast.Expr, sc *Scope) (ir.AExpr, error) {
	switch n := e.(type) {
	case *ast.Read:
		if len(n.Idx) != 0 {
			return nil, nonAffine(n.Pos, "an indexed read")
		}
		sym, bnd, ok := sc.lookup(n.Name)
		if !ok {
			return nil, sc.unknownSymbol(n.Pos, n.Name)
		}
		switch {
		case bnd.typ.Kind == ir.KindIndexable && bnd.typ.Class == ir.ClassSize:
			return &ir.ASize{Sym: sym}, nil
		case bnd.typ.Kind == ir.KindIndexable:
			return &ir.AVar{Sym: sym}, nil
		default:
			return nil, nonAffine(n.Pos, fmt.Sprintf("%q (a %s value)", n.Name, bnd.typ))
		}
	case *ast.Const:
		v, ok := n.Val.(int64)
		if !ok {
			return nil, nonAffine(n.Pos, "a non-integer constant")
		}
		return &ir.AConst{Val: v}, nil
	case *ast.USub:
		inner, err := checkAExpr(n.E, sc)
		if err != nil {
			return nil, err
		}
		return &ir.AScale{K: -1, E: inner}, nil
	case *ast.BinOp:
		switch n.Op {
		case "+":
			l, err := checkAExpr(n.LHS, sc)
			if err != nil {
				return nil, err
			}
			r, err := checkAExpr(n.RHS, sc)
			if err != nil {
				return nil, err
			}
			return &ir.AAdd{LHS: l, RHS: r}, nil
		case "-":
			l, err := checkAExpr(n.LHS, sc)
			if err != nil {
				return nil, err
			}
			r, err := checkAExpr(n.RHS, sc)
			if err != nil {
				return nil, err
			}
			return &ir.ASub{LHS: l, RHS: r}, nil
		case "*":
			return checkAffineScale(n, sc)
		case "/":
			l, err := checkAExpr(n.LHS, sc)
			if err != nil {
				return nil, err
			}
			k, ok := constAExpr(n.RHS)
			if !ok {
				return nil, nonAffine(n.Pos, "division by a non-constant divisor")
			}
			if k == 0 {
				return nil, errors.NewTypeError(errors.ErrNonAffineIndex, n.Pos, "division by zero")
			}
			return &ir.AScaleDiv{E: l, K: k}, nil
		default:
			return nil, nonAffine(n.Pos, fmt.Sprintf("operator %q", n.Op))
		}
	default:
		return nil, nonAffine(e.NodePos(), "this expression form")
	}
}

// checkAffineScale handles "*": exactly one side must be a literal integer,
// since the affine sublanguage has no variable-times-variable term.
func checkAffineScale(n *ast.BinOp, sc *Scope) (ir.AExpr, error) {
	if k, ok := constAExpr(n.RHS); ok {
		l, err := checkAExpr(n.LHS, sc)
		if err != nil {
			return nil, err
		}
		return &ir.AScale{K: k, E: l}, nil
	}
	if k, ok := constAExpr(n.LHS); ok {
		r, err := checkAExpr(n.RHS, sc)
		if err != nil {
			return nil, err
		}
		return &ir.AScale{K: k, E: r}, nil
	}
	return nil, nonAffine(n.Pos, "a product of two non-constant terms")
}

func constAExpr(e ast.Expr) (int64, bool) {
	switch n := e.(type) {
	case *ast.Const:
		v, ok := n.Val.(int64)
		return v, ok
	case *ast.USub:
		v, ok := constAExpr(n.E)
		return -v, ok
	default:
		return 0, false
	}
}

func cmpOpOf(op string) ir.CmpOp {
	switch op {
	case "<":
		return ir.CmpLt
	case ">":
		return ir.CmpGt
	case "<=":
		return ir.CmpLe
	case ">=":
		return ir.CmpGe
	default:
		return ir.CmpEq
	}
}

// checkPred classifies e as a member of the boolean-predicate sublanguage:
// and/or of sub-predicates, a comparison of two affine expressions, or a
// boolean literal. A bare scalar value here (e.g. "if flag:") is rejected;
// Pred has no variable-reference variant, so a boolean scalar condition
// must be written as an explicit comparison.
func checkPred(e ast.Expr, sc *Scope) (ir.Pred, error) {
	switch n := e.(type) {
	case *ast.Const:
		if b, ok := n.Val.(bool); ok {
			return &ir.BConst{Val: b}, nil
		}
		return nil, errors.NewTypeError(errors.ErrTypeMismatch, n.Pos, "expected a boolean literal in a predicate position")
	case *ast.BinOp:
		switch n.Op {
		case "and":
			l, err := checkPred(n.LHS, sc)
			if err != nil {
				return nil, err
			}
			r, err := checkPred(n.RHS, sc)
			if err != nil {
				return nil, err
			}
			return &ir.And{LHS: l, RHS: r}, nil
		case "or":
			l, err := checkPred(n.LHS, sc)
			if err != nil {
				return nil, err
			}
			r, err := checkPred(n.RHS, sc)
			if err != nil {
				return nil, err
			}
			return &ir.Or{LHS: l, RHS: r}, nil
		case "<", ">", "<=", ">=", "==":
			l, err := checkAExpr(n.LHS, sc)
			if err != nil {
				return nil, err
			}
			r, err := checkAExpr(n.RHS, sc)
			if err != nil {
				return nil, err
			}
			return &ir.Cmp{Op: cmpOpOf(n.Op), LHS: affine.Normalize(l), RHS: affine.Normalize(r)}, nil
		default:
			return nil, errors.NewTypeError(errors.ErrTypeMismatch, n.Pos,
				fmt.Sprintf("operator %q does not produce a predicate", n.Op))
		}
	default:
		return nil, errors.NewTypeError(errors.ErrTypeMismatch, e.NodePos(),
			"a bare value cannot be used as a predicate; compare it explicitly")
	}
}

func checkIndexArity(pos ast.Pos, name string, t ir.Type, idx []ir.AExpr) error {
	if len(idx) == 0 {
		return nil
	}
	if t.Kind != ir.KindTensor && t.Kind != ir.KindWindow {
		return errors.NewTypeError(errors.ErrTypeMismatch, pos, fmt.Sprintf("%q is not indexable", name))
	}
	if len(idx) != t.Rank() {
		return errors.NewTypeError(errors.ErrArityMismatch, pos,
			fmt.Sprintf("%q has rank %d, indexed with %d subscripts", name, t.Rank(), len(idx)))
	}
	return nil
}

func constValType(v interface{}) ir.Type {
	switch v.(type) {
	case bool:
		return ir.ScalarType(ir.Bool)
	case float64:
		return ir.ScalarType(ir.F32)
	default:
		return ir.ScalarType(ir.I32)
	}
}

func binOpType(pos ast.Pos, op string, l ir.Type) (ir.Type, error) {
	switch op {
	case "<", ">", "<=", ">=", "==", "and", "or":
		return ir.ScalarType(ir.Bool), nil
	default:
		if l.Kind != ir.KindScalar && l.Kind != ir.KindIndexable {
			return ir.Type{}, errors.NewTypeError(errors.ErrTypeMismatch, pos, "arithmetic requires scalar operands")
		}
		return l, nil
	}
}

// checkValExpr classifies e as a member of the scalar/tensor value
// sublanguage: everything legal on the right-hand side of an Assign/Reduce,
// as a Call argument, or nested inside another ValExpr.
func checkValExpr(e ast.Expr, sc *Scope) (ir.ValExpr, error) {
	switch n := e.(type) {
	case *ast.Read:
		sym, bnd, ok := sc.lookup(n.Name)
		if !ok {
			return nil, sc.unknownSymbol(n.Pos, n.Name)
		}
		idx, err := checkAExprs(n.Idx, sc)
		if err != nil {
			return nil, err
		}
		if err := checkIndexArity(n.Pos, n.Name, bnd.typ, idx); err != nil {
			return nil, err
		}
		resultType := bnd.typ
		if len(idx) > 0 && (bnd.typ.Kind == ir.KindTensor || bnd.typ.Kind == ir.KindWindow) {
			resultType = ir.ScalarType(bnd.typ.Scalar)
		}
		return ir.NewRead(toSrcInfo(n.Pos), resultType, sym, idx), nil
	case *ast.Const:
		return ir.NewConst(toSrcInfo(n.Pos), constValType(n.Val), n.Val), nil
	case *ast.BinOp:
		l, err := checkValExpr(n.LHS, sc)
		if err != nil {
			return nil, err
		}
		r, err := checkValExpr(n.RHS, sc)
		if err != nil {
			return nil, err
		}
		t, err := binOpType(n.Pos, n.Op, l.ExprType())
		if err != nil {
			return nil, err
		}
		return ir.NewBinOp(toSrcInfo(n.Pos), t, n.Op, l, r), nil
	case *ast.USub:
		inner, err := checkValExpr(n.E, sc)
		if err != nil {
			return nil, err
		}
		return ir.NewUSub(toSrcInfo(n.Pos), inner.ExprType(), inner), nil
	case *ast.StrideExpr:
		sym, bnd, ok := sc.lookup(n.Name)
		if !ok {
			return nil, sc.unknownSymbol(n.Pos, n.Name)
		}
		if bnd.typ.Kind != ir.KindTensor && bnd.typ.Kind != ir.KindWindow {
			return nil, errors.NewTypeError(errors.ErrTypeMismatch, n.Pos,
				fmt.Sprintf("%q has no stride: not a tensor or window", n.Name))
		}
		if n.Dim < 0 || n.Dim >= bnd.typ.Rank() {
			return nil, errors.NewTypeError(errors.ErrTypeMismatch, n.Pos,
				fmt.Sprintf("dimension %d out of range for %q", n.Dim, n.Name))
		}
		return ir.NewStrideExpr(toSrcInfo(n.Pos), sym, n.Dim), nil
	case *ast.ReadConfig:
		// A config's field type is resolved by the host at link time; the
		// checker assigns the conservative index type here and leaves any
		// narrowing to the lowering pass's config table.
		return ir.NewReadConfig(toSrcInfo(n.Pos), ir.IndexType(ir.ClassIndex), n.Config, n.Field), nil
	case *ast.Extern:
		args := make([]ir.ValExpr, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := checkValExpr(a, sc)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		resultType := ir.ScalarType(ir.F32)
		if len(args) > 0 {
			resultType = args[0].ExprType()
		}
		return ir.NewExtern(toSrcInfo(n.Pos), resultType, n.Name, args), nil
	case *ast.WindowExpr:
		return checkWindowExpr(n, sc)
	case *ast.Select:
		pred, err := checkPred(n.Pred, sc)
		if err != nil {
			return nil, err
		}
		then, err := checkValExpr(n.Then, sc)
		if err != nil {
			return nil, err
		}
		els, err := checkValExpr(n.Else, sc)
		if err != nil {
			return nil, err
		}
		if !typesCompatible(then.ExprType(), els.ExprType()) {
			return nil, errors.NewTypeError(errors.ErrTypeMismatch, n.Pos, "select branches have incompatible types")
		}
		return ir.NewSelect(toSrcInfo(n.Pos), then.ExprType(), pred, then, els), nil
	default:
		return nil, errors.NewTypeError(errors.ErrTypeMismatch, e.NodePos(), "unrecognized expression")
	}
}

// checkWindowExpr synthesizes the window type a WindowExpr narrows Name
// into: one shape dimension per ranged slice (Hi-Lo), none for a point
// slice, constness inherited from whether Name is currently writable.
func checkWindowExpr(n *ast.WindowExpr, sc *Scope) (*ir.WindowExpr, error) {
	sym, bnd, ok := sc.lookup(n.Name)
	if !ok {
		return nil, sc.unknownSymbol(n.Pos, n.Name)
	}
	if bnd.typ.Kind != ir.KindTensor && bnd.typ.Kind != ir.KindWindow {
		return nil, errors.NewTypeError(errors.ErrWindowTensorMismatch, n.Pos,
			fmt.Sprintf("%q is not a tensor or window, cannot be narrowed", n.Name))
	}
	if len(n.Slices) != bnd.typ.Rank() {
		return nil, errors.NewTypeError(errors.ErrArityMismatch, n.Pos,
			fmt.Sprintf("%q has rank %d, narrowed with %d slices", n.Name, bnd.typ.Rank(), len(n.Slices)))
	}
	slices := make([]ir.WSlice, 0, len(n.Slices))
	shape := make([]ir.AExpr, 0, len(n.Slices))
	for _, s := range n.Slices {
		lo, err := checkAExpr(s.Lo, sc)
		if err != nil {
			return nil, err
		}
		lo = affine.Normalize(lo)
		if s.Hi == nil {
			slices = append(slices, ir.WSlice{Lo: lo, Hi: nil})
			continue
		}
		hi, err := checkAExpr(s.Hi, sc)
		if err != nil {
			return nil, err
		}
		hi = affine.Normalize(hi)
		slices = append(slices, ir.WSlice{Lo: lo, Hi: hi})
		shape = append(shape, affine.Normalize(&ir.ASub{LHS: hi, RHS: lo}))
	}
	isConst := !bnd.effect.Writable()
	t := ir.WindowType(bnd.typ.Scalar, shape, n.Name, sym.ID(), isConst)
	return ir.NewWindowExpr(toSrcInfo(n.Pos), t, sym, slices), nil
}
