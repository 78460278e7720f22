package ir

import "exo/internal/symbol"

// Constructors for Stmt concrete types, mirroring valexpr.go's New*
// convention: every field a caller outside this package needs to set is
// threaded through positionally, since baseStmt's embedding keeps the field
// itself unexported to literal construction from other packages.

func NewPassStmt(src SrcInfo) *PassStmt { return &PassStmt{baseStmt{src}} }

func NewAssignStmt(src SrcInfo, buf symbol.Symbol, idx []AExpr, rhs ValExpr) *AssignStmt {
	return &AssignStmt{baseStmt{src}, buf, idx, rhs}
}

func NewReduceStmt(src SrcInfo, buf symbol.Symbol, idx []AExpr, rhs ValExpr) *ReduceStmt {
	return &ReduceStmt{baseStmt{src}, buf, idx, rhs}
}

func NewAllocStmt(src SrcInfo, buf symbol.Symbol, t Type, mem string) *AllocStmt {
	return &AllocStmt{baseStmt{src}, buf, t, mem}
}

func NewFreeStmt(src SrcInfo, buf symbol.Symbol, t Type, mem string) *FreeStmt {
	return &FreeStmt{baseStmt{src}, buf, t, mem}
}

func NewIfStmt(src SrcInfo, cond Pred, body, orelse []Stmt) *IfStmt {
	return &IfStmt{baseStmt{src}, cond, body, orelse}
}

func NewForStmt(src SrcInfo, iter symbol.Symbol, lo, hi AExpr, mode LoopMode, body []Stmt) *ForStmt {
	return &ForStmt{baseStmt{src}, iter, lo, hi, mode, body}
}

func NewCallStmt(src SrcInfo, callee *Proc, args []ValExpr) *CallStmt {
	return &CallStmt{baseStmt{src}, callee, args}
}

func NewWindowStmt(src SrcInfo, name symbol.Symbol, w *WindowExpr) *WindowStmt {
	return &WindowStmt{baseStmt{src}, name, w}
}

func NewWriteConfig(src SrcInfo, config, field string, rhs ValExpr) *WriteConfig {
	return &WriteConfig{baseStmt{src}, config, field, rhs}
}

func NewSyncStmt(src SrcInfo, code string) *SyncStmt { return &SyncStmt{baseStmt{src}, code} }
