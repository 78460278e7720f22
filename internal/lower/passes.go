package lower

import (
	"fmt"

	"exo/internal/ir"
	"exo/internal/memory"
)

// bufInfo is what the memory and window passes need to know about one
// buffer symbol: its declared type and the memory kind it resolved to.
type bufInfo struct {
	typ ir.Type
	mem string
}

// collectBufs maps every Arg, every AllocStmt's buffer symbol, and every
// WindowStmt's bound name to its type and memory annotation, in body order,
// so a binding that appears partway through the procedure is visible to
// every statement after it (the only place it can legally be read). A
// window-bound name inherits its memory annotation from the buffer it
// narrows, since the window aliases that buffer's storage rather than
// owning any of its own.
func collectBufs(proc *ir.Proc) map[uint64]bufInfo {
	bufs := map[uint64]bufInfo{}
	for _, a := range proc.Args {
		bufs[a.Sym.ID()] = bufInfo{typ: a.Type, mem: a.Mem}
	}
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			switch n := s.(type) {
			case *ir.AllocStmt:
				bufs[n.Buf.ID()] = bufInfo{typ: n.Type, mem: n.Mem}
			case *ir.WindowStmt:
				bufs[n.Name.ID()] = bufInfo{typ: n.Window.ExprType(), mem: bufs[n.Window.Buf.ID()].mem}
			}
			return true
		},
	})
	return bufs
}

// analyzeParallel validates loop-mode nesting (spec section 4.5 pass i):
// a loop's mode must be legally nestable inside every enclosing loop's mode
// (device-warp inside device-block, and so on); Seq/Par never constrain
// nesting, so this only bites when a host supplies custom device modes.
func analyzeParallel(proc *ir.Proc) error {
	var stack []ir.LoopMode
	var err error
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			if err != nil {
				return false
			}
			f, ok := s.(*ir.ForStmt)
			if !ok {
				return true
			}
			for _, outer := range stack {
				if !ir.CanNestIn(f.Mode, outer) {
					err = newError("parallel", proc.Name, fmt.Sprintf("loop mode %s cannot nest inside %s", f.Mode, outer))
					return false
				}
			}
			stack = append(stack, f.Mode)
			return true
		},
		PostStmt: func(s ir.Stmt) {
			if _, ok := s.(*ir.ForStmt); ok && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		},
	})
	return err
}

// analyzePrecision validates that every Assign/Reduce target is a concrete
// scalar-bearing type (spec section 4.5 pass ii); the actual cast insertion
// happens at emission time (see emitAssignLike), where the target and
// source scalar are both already known.
func analyzePrecision(proc *ir.Proc, bufs map[uint64]bufInfo) error {
	var err error
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			if err != nil {
				return false
			}
			var buf ir.Type
			switch n := s.(type) {
			case *ir.AssignStmt:
				buf = bufs[n.Buf.ID()].typ
			case *ir.ReduceStmt:
				buf = bufs[n.Buf.ID()].typ
			default:
				return true
			}
			if !buf.IsNumeric() {
				err = newError("precision", proc.Name, fmt.Sprintf("%s is not a numeric target", buf))
				return false
			}
			return true
		},
	})
	return err
}

// analyzeWindow validates window subtyping (spec section 4.5 pass iii):
// every WindowExpr's rank must match its slice count (typecheck already
// enforces this against the UAST, but a scheduling rewrite can in
// principle restructure TIR after that check ran, so lowering re-checks
// against the TIR it actually emits).
func analyzeWindow(proc *ir.Proc) error {
	var err error
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreExpr: func(e ir.ValExpr) bool {
			if err != nil {
				return false
			}
			w, ok := e.(*ir.WindowExpr)
			if !ok {
				return true
			}
			if len(w.Slices) != len(w.ExprType().Shape)+countPoints(w.Slices) {
				err = newError("window", proc.Name, "window slice count does not match source rank")
				return false
			}
			return true
		},
	})
	return err
}

func countPoints(slices []ir.WSlice) int {
	n := 0
	for _, s := range slices {
		if s.Hi == nil {
			n++
		}
	}
	return n
}

// hasCalls reports whether proc issues any Call statement, the leafness
// test the static-memory precondition (spec section 4.5) is stated against:
// "a procedure allocating a buffer whose memory kind is marked static must
// be a leaf (it may only call instruction-macro procedures)". A call to an
// instruction-macro callee (one with an InstrRecord) does not count, since
// such a call compiles to an inline template rather than a real call.
func hasCalls(proc *ir.Proc) bool {
	found := false
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			if c, ok := s.(*ir.CallStmt); ok && c.Callee.Instr == nil {
				found = true
			}
			return !found
		},
	})
	return found
}

// analyzeMemory validates that every read/write targets a memory kind
// declaring the matching capability, and that any static-memory allocation
// only occurs in a leaf procedure (spec section 4.5 pass iv).
func analyzeMemory(proc *ir.Proc, bufs map[uint64]bufInfo, mems *memory.Registry) error {
	kindOf := func(mem string) (memory.Kind, error) {
		k, ok := mems.Lookup(mem)
		if !ok {
			return nil, newError("memory", proc.Name, fmt.Sprintf("unknown memory kind %q", mem))
		}
		return k, nil
	}
	leaf := !hasCalls(proc)
	var err error
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			if err != nil {
				return false
			}
			if a, ok := s.(*ir.AllocStmt); ok {
				k, kerr := kindOf(a.Mem)
				if kerr != nil {
					err = kerr
					return false
				}
				if k.Static() && !leaf {
					err = newError("memory", proc.Name, fmt.Sprintf("static memory kind %q allocated in a non-leaf procedure", a.Mem))
					return false
				}
			}
			return true
		},
	})
	if err != nil {
		return err
	}
	ir.WalkBlock(proc.Body, &ir.Visitor{
		PreStmt: func(s ir.Stmt) bool {
			if err != nil {
				return false
			}
			var bufID uint64
			var needWrite bool
			switch n := s.(type) {
			case *ir.AssignStmt:
				bufID, needWrite = n.Buf.ID(), true
			case *ir.ReduceStmt:
				bufID, needWrite = n.Buf.ID(), true
			default:
				return true
			}
			info := bufs[bufID]
			k, kerr := kindOf(info.mem)
			if kerr != nil {
				err = kerr
				return false
			}
			if needWrite && !k.CanWrite() {
				err = newError("memory", proc.Name, fmt.Sprintf("memory kind %q cannot be written", info.mem))
				return false
			}
			return true
		},
		PreExpr: func(e ir.ValExpr) bool {
			if err != nil {
				return false
			}
			var bufID uint64
			switch n := e.(type) {
			case *ir.Read:
				bufID = n.Buf.ID()
			case *ir.WindowExpr:
				bufID = n.Buf.ID()
			default:
				return true
			}
			info := bufs[bufID]
			k, kerr := kindOf(info.mem)
			if kerr != nil {
				err = kerr
				return false
			}
			if !k.CanRead() {
				err = newError("memory", proc.Name, fmt.Sprintf("memory kind %q cannot be read", info.mem))
				return false
			}
			return true
		},
	})
	return err
}
