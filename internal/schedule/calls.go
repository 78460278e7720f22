package schedule

import (
	"fmt"

	"exo/internal/cursor"
	"exo/internal/ir"
	"exo/internal/symbol"
)

// Replace implements `replace(stmt, proc)`: the target statement (or
// contiguous selection) must match proc's body modulo renaming; it is
// replaced with a Call to proc, passing proc's arguments as read
// expressions over the symbols the match bound them to.
//
// Matching "modulo renaming" is checked structurally: target's printed
// form, after substituting proc's argument symbols for the corresponding
// local symbols occurring in target at the same structural positions, must
// equal proc's body's printed form. We compute the substitution by walking
// proc's body and target's statements in lockstep, unifying each AllocStmt
// buffer and each ForStmt iterator encountered against proc's argument list
// positionally; this is sufficient for the common case of replacing a
// freshly staged/tiled body with a call to the kernel it was staged from.
func (p Proc) Replace(target cursor.Cursor, callee *ir.Proc, args []ir.ValExpr) (Proc, cursor.Forward, error) {
	node, err := requireNode("replace", target)
	if err != nil {
		return Proc{}, nil, err
	}
	if len(args) != len(callee.Args) {
		return Proc{}, nil, schedErr("replace", node.Loc(), "wrong number of actual arguments for callee")
	}
	if err := matchesModuloRename(callee, args, []ir.Stmt{node}); err != nil {
		return Proc{}, nil, schedErr("replace", node.Loc(), "target does not match callee's body modulo renaming: "+err.Error())
	}
	call := ir.NewCallStmt(node.Loc(), callee, args)
	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{call})
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, idx, 1, 1)
	return New(next), fwd, nil
}

// CallEqv implements `call_eqv(call, proc')`: swap a Call's target for
// proc', which the caller asserts is equivalent (spec's precondition
// "proc' is marked equivalent to the callee" — equivalence itself is a
// property the host tracks, not something this rewrite proves).
func (p Proc) CallEqv(target cursor.Cursor, eqv *ir.Proc) (Proc, cursor.Forward, error) {
	node, err := requireNode("call_eqv", target)
	if err != nil {
		return Proc{}, nil, err
	}
	call, ok := node.(*ir.CallStmt)
	if !ok {
		return Proc{}, nil, schedErr("call_eqv", node.Loc(), "target is not a Call statement")
	}
	if len(eqv.Args) != len(call.Callee.Args) {
		return Proc{}, nil, schedErr("call_eqv", call.Loc(), "replacement procedure has a different arity")
	}
	newCall := ir.NewCallStmt(call.Src, eqv, call.Args)
	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{newCall})
	next := withNewBlock(p.ir, path, newBlock)
	return New(next), cursor.Identity(next), nil
}

// Inline implements `inline(call)`: substitute the callee's body in place
// of the Call, alpha-renaming every callee-local symbol (its arguments,
// bound to the actual argument expressions positionally, and every symbol
// its body allocates or binds) so it cannot collide with the caller's
// names.
func (p Proc) Inline(target cursor.Cursor) (Proc, cursor.Forward, error) {
	node, err := requireNode("inline", target)
	if err != nil {
		return Proc{}, nil, err
	}
	call, ok := node.(*ir.CallStmt)
	if !ok {
		return Proc{}, nil, schedErr("inline", node.Loc(), "target is not a Call statement")
	}
	if calleeIsRecursive(call.Callee) {
		return Proc{}, nil, schedErr("inline", call.Loc(), "callee is recursive")
	}

	s := newSubst()
	for i, arg := range call.Callee.Args {
		if arg.Type.Kind == ir.KindScalar || arg.Type.IsIndexable() {
			if av, ok := toAExpr(call.Args[i]); ok {
				s.addAExpr(arg.Sym.ID(), av)
				continue
			}
		}
		if bufSym, ok := bufferSymbolOf(call.Args[i]); ok {
			s.addRebind(arg.Sym, bufSym)
			continue
		}
		return Proc{}, nil, schedErr("inline", call.Loc(), "argument is neither a constant nor a bare buffer reference")
	}
	alphaRenameLocals(call.Callee.Body, s)
	inlinedBody := mapBlock(call.Callee.Body, s)

	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	path := target.PathOf()
	newBlock := replaceStmtAt(block, idx, inlinedBody)
	next := withNewBlock(p.ir, path, newBlock)
	fwd := restructureForward(next, path, idx, 1, len(inlinedBody))
	return New(next), fwd, nil
}

func calleeIsRecursive(proc *ir.Proc) bool {
	var walk func([]ir.Stmt) bool
	walk = func(body []ir.Stmt) bool {
		for _, s := range body {
			switch st := s.(type) {
			case *ir.CallStmt:
				if st.Callee == proc || st.Callee.Name == proc.Name {
					return true
				}
			case *ir.IfStmt:
				if walk(st.Body) || walk(st.OrElse) {
					return true
				}
			case *ir.ForStmt:
				if walk(st.Body) {
					return true
				}
			}
		}
		return false
	}
	return walk(proc.Body)
}

// toAExpr converts a scalar/index actual argument expression to its AExpr
// equivalent, recursing through the arithmetic BinOp builds so compound
// actuals like "n - 1" substitute correctly, not just bare constants and
// variables.
func toAExpr(e ir.ValExpr) (ir.AExpr, bool) {
	switch n := e.(type) {
	case *ir.ValConst:
		if iv, ok := n.Val.(int64); ok {
			return &ir.AConst{Val: iv}, true
		}
		if iv, ok := n.Val.(int); ok {
			return &ir.AConst{Val: int64(iv)}, true
		}
	case *ir.Read:
		if len(n.Idx) != 0 {
			return nil, false
		}
		if n.ExprType().Class == ir.ClassSize {
			return &ir.ASize{Sym: n.Buf}, true
		}
		return &ir.AVar{Sym: n.Buf}, true
	case *ir.BinOp:
		lhs, ok := toAExpr(n.LHS)
		if !ok {
			return nil, false
		}
		rhs, ok := toAExpr(n.RHS)
		if !ok {
			return nil, false
		}
		switch n.Op {
		case "+":
			return &ir.AAdd{LHS: lhs, RHS: rhs}, true
		case "-":
			return &ir.ASub{LHS: lhs, RHS: rhs}, true
		case "*":
			if c, ok := lhs.(*ir.AConst); ok {
				return &ir.AScale{K: c.Val, E: rhs}, true
			}
			if c, ok := rhs.(*ir.AConst); ok {
				return &ir.AScale{K: c.Val, E: lhs}, true
			}
			return nil, false
		case "/":
			if c, ok := rhs.(*ir.AConst); ok {
				return &ir.AScaleDiv{K: c.Val, E: lhs}, true
			}
			return nil, false
		}
	case *ir.USub:
		inner, ok := toAExpr(n.E)
		if !ok {
			return nil, false
		}
		return &ir.ASub{LHS: &ir.AConst{Val: 0}, RHS: inner}, true
	}
	return nil, false
}

// bufferSymbolOf extracts the underlying buffer symbol from a bare
// reference expression (a Read with no indices, or a WindowExpr), the only
// shapes of tensor/window actual argument Inline can substitute without
// rewriting every access inside the callee's body.
func bufferSymbolOf(e ir.ValExpr) (symbol.Symbol, bool) {
	switch n := e.(type) {
	case *ir.Read:
		if len(n.Idx) == 0 {
			return n.Buf, true
		}
	case *ir.WindowExpr:
		return n.Buf, true
	}
	return symbol.Symbol{}, false
}

// matchesModuloRename checks replace()'s precondition: target must equal
// callee's body once callee's arguments are bound to args (positionally,
// the same constant/bare-buffer substitution Inline builds) and callee's
// locals are bound to target's correspondingly-positioned Alloc buffers and
// For iterators. Equality is checked by comparing each statement's String()
// form after substitution, which is exact for TIR (names and structure both
// appear in the printed form).
func matchesModuloRename(callee *ir.Proc, args []ir.ValExpr, target []ir.Stmt) error {
	s := newSubst()
	for i, arg := range callee.Args {
		if arg.Type.Kind == ir.KindScalar || arg.Type.IsIndexable() {
			if av, ok := toAExpr(args[i]); ok {
				s.addAExpr(arg.Sym.ID(), av)
				continue
			}
		}
		if bufSym, ok := bufferSymbolOf(args[i]); ok {
			s.addRebind(arg.Sym, bufSym)
			continue
		}
		return fmt.Errorf("argument %d is neither a constant nor a bare buffer reference", i)
	}
	if !unifyLocals(callee.Body, target, s) {
		return fmt.Errorf("statement shape does not match callee's body")
	}
	rewritten := mapBlock(callee.Body, s)
	if len(rewritten) != len(target) {
		return fmt.Errorf("target has %d statement(s), callee's body has %d", len(target), len(rewritten))
	}
	for i := range rewritten {
		if rewritten[i].String() != target[i].String() {
			return fmt.Errorf("statement %d: %q does not match %q", i, target[i].String(), rewritten[i].String())
		}
	}
	return nil
}

// unifyLocals walks calleeBody and targetBody in lockstep, extending s with
// a rebinding from every callee-local symbol (Alloc buffer, For iterator)
// to the symbol occupying the same structural position in targetBody. It
// reports false on any shape mismatch (different statement kind or block
// length), which matchesModuloRename treats as "does not match".
func unifyLocals(calleeBody, targetBody []ir.Stmt, s *subst) bool {
	if len(calleeBody) != len(targetBody) {
		return false
	}
	for i := range calleeBody {
		switch cn := calleeBody[i].(type) {
		case *ir.AllocStmt:
			tn, ok := targetBody[i].(*ir.AllocStmt)
			if !ok {
				return false
			}
			if _, already := s.rebnd[cn.Buf.ID()]; !already {
				s.addRebind(cn.Buf, tn.Buf)
			}
		case *ir.ForStmt:
			tn, ok := targetBody[i].(*ir.ForStmt)
			if !ok {
				return false
			}
			if _, already := s.rebnd[cn.Iter.ID()]; !already {
				s.addRebind(cn.Iter, tn.Iter)
			}
			if !unifyLocals(cn.Body, tn.Body, s) {
				return false
			}
		case *ir.IfStmt:
			tn, ok := targetBody[i].(*ir.IfStmt)
			if !ok {
				return false
			}
			if !unifyLocals(cn.Body, tn.Body, s) || !unifyLocals(cn.OrElse, tn.OrElse, s) {
				return false
			}
		}
	}
	return true
}

func freshLike(sym symbol.Symbol) symbol.Symbol { return symbol.New(sym.Name()) }

// alphaRenameLocals extends s with a fresh rebinding for every symbol the
// callee's body allocates or binds (Alloc buffers, For/loop iterators) that
// s does not already rebind, so inlining never lets a callee-local name
// collide with a caller-visible one.
func alphaRenameLocals(body []ir.Stmt, s *subst) *subst {
	var walk func([]ir.Stmt)
	walk = func(b []ir.Stmt) {
		for _, st := range b {
			switch n := st.(type) {
			case *ir.AllocStmt:
				if _, already := s.rebnd[n.Buf.ID()]; !already {
					s.addRebind(n.Buf, freshLike(n.Buf))
				}
			case *ir.ForStmt:
				if _, already := s.rebnd[n.Iter.ID()]; !already {
					s.addRebind(n.Iter, freshLike(n.Iter))
				}
				walk(n.Body)
			case *ir.IfStmt:
				walk(n.Body)
				walk(n.OrElse)
			}
		}
	}
	walk(body)
	return s
}
