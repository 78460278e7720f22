package lower

import (
	"fmt"
	"strings"

	"exo/internal/affine"
	"exo/internal/extern"
	"exo/internal/ir"
	"exo/internal/memory"
)

// compiledProc is one procedure's emitted output: the public prototype
// (shared between header and definition) and the full function body text.
type compiledProc struct {
	prototype string
	body      string
}

// loweredUnit accumulates everything lowerProc touches across an entire
// translation unit, so unit-wide output (window structs, the context
// struct, the floor_div helper) is emitted exactly once regardless of how
// many procedures referenced it.
type loweredUnit struct {
	names        *cNames
	windows      *windowStructs
	cfg          *configSet
	mems         *memory.Registry
	externs      *extern.Table
	needFloorDiv bool
	usedMems     map[string]bool
	usedExterns  map[string]map[string]bool
}

func newLoweredUnit(mems *memory.Registry, externs *extern.Table) *loweredUnit {
	names := newCNames()
	names.reserve("floor_div")
	names.reserve("ctxt")
	return &loweredUnit{
		names:       names,
		windows:     newWindowStructs(),
		cfg:         newConfigSet(),
		mems:        mems,
		externs:     externs,
		usedMems:    map[string]bool{},
		usedExterns: map[string]map[string]bool{},
	}
}

// lowerProc runs the four TIR analyses (spec section 4.5) in order, then
// emits proc's public signature and body against the shared translation
// unit state in u.
func lowerProc(u *loweredUnit, proc *ir.Proc, ctxType string) (compiledProc, error) {
	if err := analyzeParallel(proc); err != nil {
		return compiledProc{}, err
	}
	bufs := collectBufs(proc)
	if err := analyzePrecision(proc, bufs); err != nil {
		return compiledProc{}, err
	}
	if err := analyzeWindow(proc); err != nil {
		return compiledProc{}, err
	}
	if err := analyzeMemory(proc, bufs, u.mems); err != nil {
		return compiledProc{}, err
	}

	constStrides, assumed := splitPreconditions(proc)
	st := &stage{
		names:        u.names,
		ranges:       affine.NewRangeEnv(),
		constStrides: constStrides,
		windows:      u.windows,
		cfg:          u.cfg,
		mems:         u.mems,
		externs:      u.externs,
		needFloorDiv: &u.needFloorDiv,
		usedMems:     u.usedMems,
		usedExterns:  u.usedExterns,
	}

	sig, err := st.signature(proc, ctxType)
	if err != nil {
		return compiledProc{}, err
	}

	e := newEmitter()
	e.line("%s {", sig)
	e.push()
	for _, p := range assumed {
		cond, err := st.emitPred(p)
		if err != nil {
			return compiledProc{}, err
		}
		e.line("assume(%s);", cond)
	}
	if err := st.emitBlock(e, proc.Body, bufs); err != nil {
		return compiledProc{}, err
	}
	e.pop()
	e.line("}")

	return compiledProc{prototype: sig + ";", body: e.String()}, nil
}

// signature renders proc's public C signature (spec section 6): a tensor
// argument becomes a restrict-qualified pointer, const when the body never
// writes it; a window argument becomes its struct type passed by value;
// size/index/stride become int32_t; a bare bool stays bool.
func (s *stage) signature(proc *ir.Proc, ctxType string) (string, error) {
	written := proc.WritesOf()
	parts := make([]string, len(proc.Args))
	for i, a := range proc.Args {
		name := s.names.ident(a.Sym)
		decl, err := s.argDecl(a, name, written[a.Sym.ID()])
		if err != nil {
			return "", err
		}
		parts[i] = decl
	}
	args := strings.Join(parts, ", ")
	if args != "" {
		args = ", " + args
	}
	return fmt.Sprintf("void %s(%s* ctxt%s)", ccaseName(proc.Name), ctxType, args), nil
}

func (s *stage) argDecl(a ir.Arg, name string, written bool) (string, error) {
	switch a.Type.Kind {
	case ir.KindScalar:
		return fmt.Sprintf("%s %s", a.Type.Scalar.CType(), name), nil
	case ir.KindIndexable:
		if a.Type.Class == ir.ClassBool {
			return fmt.Sprintf("bool %s", name), nil
		}
		return fmt.Sprintf("int32_t %s", name), nil
	case ir.KindTensor:
		constTok := ""
		if !written {
			constTok = "const "
		}
		return fmt.Sprintf("%s%s* restrict %s", constTok, a.Type.Scalar.CType(), name), nil
	case ir.KindWindow:
		structType := s.windows.register(a.Type)
		return fmt.Sprintf("%s %s", structType, name), nil
	default:
		return "", newError("emit", "", fmt.Sprintf("unrecognized argument type for %s", name))
	}
}
