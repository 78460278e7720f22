package ast

// Expr is the untyped value-expression tree. Unlike ir.ValExpr, a UAST Expr
// carries no resolved scalar/affine classification; that classification is
// exactly what typecheck.Check computes.
type Expr interface {
	Node
	isExpr()
}

// Read is a buffer read, e.g. A[i,j].
type Read struct {
	Pos  Pos
	Name string
	Idx  []Expr
}

// Const is a literal scalar, integer, or boolean constant.
type Const struct {
	Pos Pos
	Val interface{} // int64, float64, or bool
}

// BinOp applies Op to two sub-expressions. Op is one of
// "+","-","*","/","%","and","or","<",">","<=",">=","==".
type BinOp struct {
	Pos      Pos
	Op       string
	LHS, RHS Expr
}

// USub is unary negation.
type USub struct {
	Pos Pos
	E   Expr
}

// StrideExpr denotes the runtime stride of Name along dimension Dim.
type StrideExpr struct {
	Pos  Pos
	Name string
	Dim  int
}

// ReadConfig reads Field of the named Config.
type ReadConfig struct {
	Pos    Pos
	Config string
	Field  string
}

// Extern calls an opaque extern function by name.
type Extern struct {
	Pos  Pos
	Name string
	Args []Expr
}

// WindowExpr narrows Name by a list of per-dimension slices.
type WindowExpr struct {
	Pos    Pos
	Name   string
	Slices []Slice
}

// Slice is either a point index (Hi == nil) or a half-open range [Lo, Hi).
type Slice struct {
	Lo, Hi Expr
}

// Select is a ternary: Pred ? Then : Else.
type Select struct {
	Pos        Pos
	Pred       Expr
	Then, Else Expr
}

func (*Read) isExpr()       {}
func (*Const) isExpr()      {}
func (*BinOp) isExpr()      {}
func (*USub) isExpr()       {}
func (*StrideExpr) isExpr() {}
func (*ReadConfig) isExpr() {}
func (*Extern) isExpr()     {}
func (*WindowExpr) isExpr() {}
func (*Select) isExpr()     {}

func (e *Read) NodePos() Pos       { return e.Pos }
func (e *Const) NodePos() Pos      { return e.Pos }
func (e *BinOp) NodePos() Pos      { return e.Pos }
func (e *USub) NodePos() Pos       { return e.Pos }
func (e *StrideExpr) NodePos() Pos { return e.Pos }
func (e *ReadConfig) NodePos() Pos { return e.Pos }
func (e *Extern) NodePos() Pos     { return e.Pos }
func (e *WindowExpr) NodePos() Pos { return e.Pos }
func (e *Select) NodePos() Pos     { return e.Pos }
