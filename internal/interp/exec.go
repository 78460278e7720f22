package interp

import (
	"fmt"

	"exo/internal/ir"
	"exo/internal/symbol"
)

func (ev *Evaluator) execBlock(body []ir.Stmt) error {
	for _, s := range body {
		if err := ev.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (ev *Evaluator) execStmt(s ir.Stmt) error {
	switch n := s.(type) {
	case *ir.PassStmt:
		return nil

	case *ir.AssignStmt:
		return ev.store(n.Buf, n.Idx, ev.evalValExpr(n.RHS), false)

	case *ir.ReduceStmt:
		return ev.store(n.Buf, n.Idx, ev.evalValExpr(n.RHS), true)

	case *ir.AllocStmt:
		shape := make([]int64, len(n.Type.Shape))
		for i, d := range n.Type.Shape {
			shape[i] = ev.evalAExpr(d)
		}
		ev.env.Bind(n.Buf, NewBuffer(n.Type.Scalar, shape))
		return nil

	case *ir.FreeStmt:
		return nil

	case *ir.IfStmt:
		if ev.evalPred(n.Cond) {
			return ev.execBlock(n.Body)
		}
		return ev.execBlock(n.OrElse)

	case *ir.ForStmt:
		lo, hi := ev.evalAExpr(n.Lo), ev.evalAExpr(n.Hi)
		for i := lo; i < hi; i++ {
			ev.env.Bind(n.Iter, float64(i))
			if err := ev.execBlock(n.Body); err != nil {
				return err
			}
		}
		return nil

	case *ir.CallStmt:
		return ev.execCall(n)

	case *ir.WindowStmt:
		ev.env.Bind(n.Name, ev.evalWindow(n.Window))
		return nil

	case *ir.WriteConfig:
		if ev.config[n.Config] == nil {
			ev.config[n.Config] = map[string]Value{}
		}
		ev.config[n.Config][n.Field] = ev.evalValExpr(n.RHS)
		return nil

	case *ir.SyncStmt:
		return nil

	default:
		return fmt.Errorf("interp: unrecognized statement %T", s)
	}
}

// store writes val through buf[idx...], adding to the existing cell instead
// of overwriting it when reduce is true. The written value is re-quantized
// to the target buffer's own declared scalar precision, not the source
// expression's, since that is the precision a C assignment through a
// differently-typed pointer would actually truncate to.
func (ev *Evaluator) store(buf symbol.Symbol, idx []ir.AExpr, val Value, reduce bool) error {
	bound, ok := ev.env.Lookup(buf)
	if !ok {
		return fmt.Errorf("interp: %s is not bound", buf.Name())
	}
	ivals := ev.evalIndex(idx)

	var data []float64
	var off int64
	var scalar ir.Scalar
	switch b := bound.(type) {
	case *Buffer:
		data, off, scalar = b.Data, flatOffset(ivals, denseStrides(b.Shape)), b.Scalar
	case *Window:
		data, off, scalar = b.Buf.Data, b.at(ivals), b.Buf.Scalar
	default:
		return fmt.Errorf("interp: %s is not a buffer or window", buf.Name())
	}

	f := val.(float64)
	if reduce {
		f = data[off] + f
	}
	data[off] = roundScalar(scalar, f)
	return nil
}

// execCall runs callee's body in a fresh child frame bound positionally from
// the caller's already-evaluated arguments, sharing the caller's config
// store (one context struct is shared across a whole translation unit). A
// Call to an instruction-macro procedure has no interpretable body — it
// only carries a C template string — and is rejected rather than silently
// treated as a no-op.
func (ev *Evaluator) execCall(n *ir.CallStmt) error {
	if n.Callee.Instr != nil {
		return fmt.Errorf("interp: %s is an instruction macro, has no interpretable body", n.Callee.Name)
	}
	child := NewEnv()
	for i, a := range n.Callee.Args {
		child.Bind(a.Sym, ev.evalValExpr(n.Args[i]))
	}
	return newEvaluator(child, ev.config).execBlock(n.Callee.Body)
}
