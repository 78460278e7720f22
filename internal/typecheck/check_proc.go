// Package typecheck implements check(proc: UAST) -> TIR (spec section 4):
// name resolution, use-before-declare and write-to-const rejection, the
// scalar/affine/predicate classification enforced at the Go type level by
// producing ir.ValExpr/ir.AExpr/ir.Pred rather than a single Expr, window
// synthesis, default-to-DRAM memory assignment, and sub-procedure call
// arity/type checking with cyclic-call-graph detection.
package typecheck

import (
	"fmt"

	"exo/internal/ast"
	"exo/internal/errors"
	"exo/internal/ir"
	"exo/internal/memory"
)

// Analyzer type-checks a batch of mutually callable procedures together,
// since a Call statement must resolve its callee to an already-checked
// *ir.Proc and a call cycle can only be detected across the whole batch. It
// threads a *Scope (the context-registry analogue) through the recursive
// checkStmt method and the checkAExpr/checkPred/checkValExpr functions,
// split across check_expr.go, check_stmt.go, and check_type.go.
type Analyzer struct {
	procs    map[string]*ast.Proc
	mems     *memory.Registry
	resolved map[string]*ir.Proc
	visiting map[string]bool
}

// NewAnalyzer builds an Analyzer over a batch of procedures that may call
// one another, resolving Mem annotations against mems.
func NewAnalyzer(procs []*ast.Proc, mems *memory.Registry) *Analyzer {
	a := &Analyzer{
		procs:    map[string]*ast.Proc{},
		mems:     mems,
		resolved: map[string]*ir.Proc{},
		visiting: map[string]bool{},
	}
	for _, p := range procs {
		a.procs[p.Name] = p
	}
	return a
}

// CheckAll type-checks every procedure in the batch, returning them keyed
// by name.
func (a *Analyzer) CheckAll() (map[string]*ir.Proc, error) {
	for name := range a.procs {
		if _, err := a.checkProc(name); err != nil {
			return nil, err
		}
	}
	return a.resolved, nil
}

// Check type-checks a single standalone procedure against the built-in
// memory registry, the common case for a leaf kernel with no sub-procedure
// calls.
func Check(proc *ast.Proc) (*ir.Proc, error) {
	return NewAnalyzer([]*ast.Proc{proc}, memory.NewRegistry()).checkProc(proc.Name)
}

func (a *Analyzer) checkProc(name string) (*ir.Proc, error) {
	if p, ok := a.resolved[name]; ok {
		return p, nil
	}
	src, ok := a.procs[name]
	if !ok {
		return nil, errors.NewTypeError(errors.ErrUnknownSymbol, ast.Pos{},
			fmt.Sprintf("call to undeclared procedure %q", name))
	}
	if a.visiting[name] {
		return nil, errors.NewTypeError(errors.ErrCyclicCallGraph, src.Pos,
			fmt.Sprintf("procedure %q participates in a call cycle", name))
	}
	a.visiting[name] = true
	defer delete(a.visiting, name)

	sc := newScope()
	collectDeclaredNames(src.Body, sc.declaredLater)
	args := make([]ir.Arg, 0, len(src.Args))
	for _, arg := range src.Args {
		t, err := a.checkType(arg.Type, sc, arg.Pos)
		if err != nil {
			return nil, err
		}
		mem, err := a.resolveMem(arg.Mem, arg.Pos)
		if err != nil {
			return nil, err
		}
		eff := ir.Effect(arg.Effect)
		sym := sc.declare(arg.Name, t, mem, eff)
		args = append(args, ir.Arg{Sym: sym, Type: t, Mem: mem, Effect: eff})
	}

	pre := make([]ir.Pred, 0, len(src.Preconditions))
	for _, e := range src.Preconditions {
		p, err := checkPred(e, sc)
		if err != nil {
			return nil, err
		}
		pre = append(pre, p)
	}

	body, err := a.checkBlock(src.Body, sc)
	if err != nil {
		return nil, err
	}

	var instr *ir.InstrRecord
	if src.Instr != nil {
		instr = &ir.InstrRecord{Template: src.Instr.Template}
	}

	proc := ir.NewProc(src.Name, args, pre, body, instr, toSrcInfo(src.Pos))

	written := proc.WritesOf()
	for _, arg := range args {
		if written[arg.Sym.ID()] && !arg.Effect.Writable() {
			return nil, errors.NewTypeError(errors.ErrWriteToConst, src.Pos,
				fmt.Sprintf("argument %q is declared %s but is assigned to in the body", arg.Sym.Name(), arg.Effect))
		}
	}

	a.resolved[name] = proc
	return proc, nil
}
