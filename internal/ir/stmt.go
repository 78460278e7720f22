package ir

import (
	"fmt"
	"strings"

	"exo/internal/symbol"
)

// Stmt is the closed sum of TIR statement kinds. Every concrete statement
// carries its own SrcInfo; blocks (the []Stmt slices inside If/For bodies)
// are what Cursor gaps and selections index into.
type Stmt interface {
	fmt.Stringer
	isStmt()
	Loc() SrcInfo
}

type baseStmt struct{ Src SrcInfo }

func (b baseStmt) Loc() SrcInfo { return b.Src }

type PassStmt struct{ baseStmt }

type AssignStmt struct {
	baseStmt
	Buf symbol.Symbol
	Idx []AExpr
	RHS ValExpr
}

// ReduceStmt means buf[idx] += rhs.
type ReduceStmt struct {
	baseStmt
	Buf symbol.Symbol
	Idx []AExpr
	RHS ValExpr
}

type AllocStmt struct {
	baseStmt
	Buf  symbol.Symbol
	Type Type
	Mem  string
}

type FreeStmt struct {
	baseStmt
	Buf  symbol.Symbol
	Type Type
	Mem  string
}

type IfStmt struct {
	baseStmt
	Cond   Pred
	Body   []Stmt
	OrElse []Stmt
}

// LoopMode is a typing attribute on For nodes describing the *emitted*
// program's concurrency; it never makes the rewrite engine itself
// concurrent (spec: "the core is single-threaded and synchronous").
type LoopMode interface {
	fmt.Stringer
	// CudaNesting returns the loop's nesting rank in the device programming
	// model, or -1 if the mode does not correspond to a device loop.
	CudaNesting() int
}

type seqMode struct{}

func (seqMode) String() string   { return "seq" }
func (seqMode) CudaNesting() int { return -1 }

type parMode struct{}

func (parMode) String() string   { return "par" }
func (parMode) CudaNesting() int { return -1 }

// Seq and Par are the two CPU-relevant loop modes; device modes are an
// extension point via the LoopMode interface (see internal/lower's parallel
// analysis pass for the nesting-validation hook), grounded on original_source's loop_mode.py
// hierarchy but narrowed to what a CPU/C backend exercises.
var Seq LoopMode = seqMode{}
var Par LoopMode = parMode{}

// CanNestIn reports whether a device-mode loop with this mode may be
// directly nested inside a loop with outer's mode: true whenever either
// side is not a device mode (only device-device nesting is constrained),
// else only when this mode's nesting rank is strictly deeper than outer's.
func CanNestIn(inner, outer LoopMode) bool {
	in, out := inner.CudaNesting(), outer.CudaNesting()
	if in < 0 || out < 0 {
		return true
	}
	return in > out
}

type ForStmt struct {
	baseStmt
	Iter   symbol.Symbol
	Lo, Hi AExpr
	Mode   LoopMode
	Body   []Stmt
}

type CallStmt struct {
	baseStmt
	Callee *Proc
	Args   []ValExpr
}

type WindowStmt struct {
	baseStmt
	Name   symbol.Symbol
	Window *WindowExpr
}

type WriteConfig struct {
	baseStmt
	Config string
	Field  string
	RHS    ValExpr
}

// SyncStmt carries an opaque codegen string emitted verbatim by lowering.
type SyncStmt struct {
	baseStmt
	Code string
}

func (*PassStmt) isStmt()    {}
func (*AssignStmt) isStmt()  {}
func (*ReduceStmt) isStmt()  {}
func (*AllocStmt) isStmt()   {}
func (*FreeStmt) isStmt()    {}
func (*IfStmt) isStmt()      {}
func (*ForStmt) isStmt()     {}
func (*CallStmt) isStmt()    {}
func (*WindowStmt) isStmt()  {}
func (*WriteConfig) isStmt() {}
func (*SyncStmt) isStmt()    {}

func (s *PassStmt) String() string { return "pass" }

func (s *AssignStmt) String() string {
	return fmt.Sprintf("%s%s = %s", s.Buf.Name(), idxString(s.Idx), s.RHS)
}

func (s *ReduceStmt) String() string {
	return fmt.Sprintf("%s%s += %s", s.Buf.Name(), idxString(s.Idx), s.RHS)
}

func (s *AllocStmt) String() string {
	return fmt.Sprintf("%s: %s @%s", s.Buf.Name(), s.Type, s.Mem)
}

func (s *FreeStmt) String() string { return fmt.Sprintf("free(%s)", s.Buf.Name()) }

func (s *IfStmt) String() string {
	body := blockString(s.Body)
	if len(s.OrElse) == 0 {
		return fmt.Sprintf("if %s: %s", s.Cond, body)
	}
	return fmt.Sprintf("if %s: %s else: %s", s.Cond, body, blockString(s.OrElse))
}

func (s *ForStmt) String() string {
	if s.Mode == Seq {
		return fmt.Sprintf("for %s in [%s, %s): %s", s.Iter.Name(), s.Lo, s.Hi, blockString(s.Body))
	}
	return fmt.Sprintf("for %s %s in [%s, %s): %s", s.Mode, s.Iter.Name(), s.Lo, s.Hi, blockString(s.Body))
}

func (s *CallStmt) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", s.Callee.Name, strings.Join(parts, ", "))
}

func (s *WindowStmt) String() string { return fmt.Sprintf("%s = %s", s.Name.Name(), s.Window) }

func (s *WriteConfig) String() string { return fmt.Sprintf("%s.%s = %s", s.Config, s.Field, s.RHS) }

func (s *SyncStmt) String() string { return s.Code }

func idxString(idx []AExpr) string {
	if len(idx) == 0 {
		return ""
	}
	parts := make([]string, len(idx))
	for i, a := range idx {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func blockString(body []Stmt) string {
	parts := make([]string, len(body))
	for i, s := range body {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}
