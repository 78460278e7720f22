package schedule

import "exo/internal/ir"

// EliminateDeadCode implements `eliminate_dead_code`: remove statements
// with an empty effect set — Pass statements, Allocs whose buffer is never
// read in the same block, the Frees of those Allocs in that block, and
// loops or ifs left with empty bodies — throughout the whole procedure. It has no
// target/args, matching the rewrite table's row ("—" precondition).
//
// Grounded on the teacher's OptimizationPipeline dead-code pass (a
// fixed-point sweep removing instructions with no remaining uses),
// adapted from SSA-value liveness to TIR statement liveness.
func (p Proc) EliminateDeadCode() (Proc, error) {
	next := p.ir.WithBody(eliminateBlock(p.ir.Body))
	return New(next), nil
}

func eliminateBlock(body []ir.Stmt) []ir.Stmt {
	reads := map[uint64]bool{}
	for _, s := range body {
		collectReads(s, reads)
	}
	out := make([]ir.Stmt, 0, len(body))
	dropped := map[uint64]bool{}
	for _, s := range body {
		switch st := s.(type) {
		case *ir.PassStmt:
			continue
		case *ir.AllocStmt:
			if !reads[st.Buf.ID()] {
				dropped[st.Buf.ID()] = true
				continue
			}
			out = append(out, st)
		case *ir.FreeStmt:
			if dropped[st.Buf.ID()] {
				continue
			}
			out = append(out, st)
		case *ir.IfStmt:
			body := eliminateBlock(st.Body)
			orelse := eliminateBlock(st.OrElse)
			if len(body) == 0 && len(orelse) == 0 {
				continue
			}
			out = append(out, ir.NewIfStmt(st.Src, st.Cond, body, orelse))
		case *ir.ForStmt:
			newBody := eliminateBlock(st.Body)
			if len(newBody) == 0 {
				continue
			}
			out = append(out, ir.NewForStmt(st.Src, st.Iter, st.Lo, st.Hi, st.Mode, newBody))
		default:
			out = append(out, st)
		}
	}
	return out
}

// collectReads records every buffer symbol id read (not merely assigned)
// anywhere in body, used to decide whether an Alloc is dead.
func collectReads(st ir.Stmt, reads map[uint64]bool) {
	switch s := st.(type) {
	case *ir.AssignStmt:
		collectValReads(s.RHS, reads)
	case *ir.ReduceStmt:
		reads[s.Buf.ID()] = true // a reduce both reads and writes its target
		collectValReads(s.RHS, reads)
	case *ir.IfStmt:
		for _, c := range s.Body {
			collectReads(c, reads)
		}
		for _, c := range s.OrElse {
			collectReads(c, reads)
		}
	case *ir.ForStmt:
		for _, c := range s.Body {
			collectReads(c, reads)
		}
	case *ir.CallStmt:
		for _, a := range s.Args {
			collectValReads(a, reads)
		}
	case *ir.WindowStmt:
		reads[s.Window.Buf.ID()] = true
	}
}

func collectValReads(e ir.ValExpr, reads map[uint64]bool) {
	switch n := e.(type) {
	case *ir.Read:
		reads[n.Buf.ID()] = true
	case *ir.BinOp:
		collectValReads(n.LHS, reads)
		collectValReads(n.RHS, reads)
	case *ir.USub:
		collectValReads(n.E, reads)
	case *ir.WindowExpr:
		reads[n.Buf.ID()] = true
	case *ir.Select:
		collectValReads(n.Then, reads)
		collectValReads(n.Else, reads)
	case *ir.Extern:
		for _, a := range n.Args {
			collectValReads(a, reads)
		}
	}
}
