package parser

import "github.com/alecthomas/participle/v2/lexer"

// The concrete syntax tree below mirrors grammar/grammar.go from kanso:
// participle struct tags directly encode the production rules, with
// alternation spelled by giving each candidate its own struct field and
// joining the field tags with "|" (participle concatenates a struct's field
// tags, in field order, into one production). build.go then folds this tree
// down into the final internal/ast types, the same two-stage shape the
// teacher's grammar package (concrete syntax) feeding internal/ast (checked
// syntax) uses.

type FileCST struct {
	Procs []*ProcCST `@@*`
}

type ProcCST struct {
	Pos     lexer.Position
	Name    string      `"def" @Ident "("`
	Args    []*ArgCST   `[ @@ { "," @@ } ] ")" "{"`
	Asserts []*ExprCST  `{ "assert" @@ ";" }`
	Body    []*StmtCST  `@@* "}"`
}

type ArgCST struct {
	Pos    lexer.Position
	Name   string   `@Ident ":"`
	Type   *TypeCST `@@ "@"`
	Mem    string   `@Ident`
	Effect string   `@("IN" | "OUT" | "INOUT")`
}

type TypeCST struct {
	Base  string     `@Ident`
	Shape []*ExprCST `[ "[" @@ { "," @@ } "]" ]`
}

// StmtCST is one statement. Alternatives are tried in order; the first
// token after the leading identifier (or a leading keyword) disambiguates
// every case except AssignLike, whose own Op field distinguishes an Assign
// from a Reduce, and whose RHS build.go inspects to recover a WindowStmt
// (see buildAssignLike in build.go).
type StmtCST struct {
	Pos         lexer.Position
	Pass        *PassCST        `  @@`
	Free        *FreeCST        `| @@`
	If          *IfCST          `| @@`
	For         *ForCST         `| @@`
	WriteConfig *WriteConfigCST `| @@`
	Alloc       *AllocCST       `| @@`
	Call        *CallStmtCST    `| @@`
	AssignLike  *AssignLikeCST  `| @@`
}

type PassCST struct {
	Kw string `@"pass" ";"`
}

type FreeCST struct {
	Name string `"free" "(" @Ident ")" ";"`
}

type IfCST struct {
	Cond *ExprCST  `"if" @@ "{"`
	Body []*StmtCST `@@* "}"`
	Else []*StmtCST `[ "else" "{" @@* "}" ]`
}

type ForCST struct {
	Par  string     `"for" [ @"par" ]`
	Iter string     `@Ident "in" "["`
	Lo   *ExprCST   `@@ ","`
	Hi   *ExprCST   `@@ ")" "{"`
	Body []*StmtCST `@@* "}"`
}

type WriteConfigCST struct {
	Config string   `@Ident "."`
	Field  string   `@Ident "="`
	RHS    *ExprCST `@@ ";"`
}

type AllocCST struct {
	Name string   `@Ident ":"`
	Type *TypeCST `@@ "@"`
	Mem  string   `@Ident ";"`
}

type CallStmtCST struct {
	Callee string     `@Ident "("`
	Args   []*ExprCST `[ @@ { "," @@ } ] ")" ";"`
}

// AssignLikeCST covers a plain Assign/Reduce and, when Idx is empty and Op
// is "=" and RHS turns out to be a bracketed window reference, a
// WindowStmt — see buildAssignLike in build.go.
type AssignLikeCST struct {
	Name string     `@Ident`
	Idx  []*ExprCST `[ "[" @@ { "," @@ } "]" ]`
	Op   string     `@("+=" | "=")`
	RHS  *ExprCST   `@@ ";"`
}

// Expression grammar, precedence low to high: or, and, comparison,
// additive, multiplicative, unary, primary — the same ladder
// kanso's grammar.go builds with BinaryExpr/UnaryExpr/PostfixExpr, narrowed
// to the operator set ast.BinOp actually supports.
type ExprCST struct {
	Value *OrExprCST `@@`
}

type OrExprCST struct {
	Left *AndExprCST   `@@`
	Rest []*AndExprCST `{ "or" @@ }`
}

type AndExprCST struct {
	Left *CmpExprCST   `@@`
	Rest []*CmpExprCST `{ "and" @@ }`
}

type CmpExprCST struct {
	Left *AddExprCST `@@`
	Ops  []*CmpOpCST `{ @@ }`
}

type CmpOpCST struct {
	Op    string      `@("==" | "<=" | ">=" | "<" | ">")`
	Right *AddExprCST `@@`
}

type AddExprCST struct {
	Left *MulExprCST `@@`
	Ops  []*AddOpCST `{ @@ }`
}

type AddOpCST struct {
	Op    string      `@("+" | "-")`
	Right *MulExprCST `@@`
}

type MulExprCST struct {
	Left *UnaryExprCST `@@`
	Ops  []*MulOpCST   `{ @@ }`
}

type MulOpCST struct {
	Op    string        `@("*" | "/" | "%")`
	Right *UnaryExprCST `@@`
}

type UnaryExprCST struct {
	Neg   bool           `[ @"-" ]`
	Value *PrimaryExprCST `@@`
}

// PrimaryExprCST is tried in this order: the two reserved-word forms first
// (select/stride can never be a plain buffer name), then a call, a config
// field read, a bracketed reference, then literals and a bare name.
type PrimaryExprCST struct {
	Select     *SelectCST     `  @@`
	Stride     *StrideCST     `| @@`
	Extern     *CallLikeCST   `| @@`
	ReadConfig *ReadConfigCST `| @@`
	Bracket    *BracketRefCST `| @@`
	Bool       *string        `| @("true" | "false")`
	Number     *string        `| @Number`
	Paren      *ExprCST       `| "(" @@ ")"`
	Bare       *string        `| @Ident`
}

type SelectCST struct {
	Pred *ExprCST `"select" "(" @@ ","`
	Then *ExprCST `@@ ","`
	Else *ExprCST `@@ ")"`
}

type StrideCST struct {
	Name string `"stride" "(" @Ident ","`
	Dim  string `@Number ")"`
}

type CallLikeCST struct {
	Name string     `@Ident "("`
	Args []*ExprCST `[ @@ { "," @@ } ] ")"`
}

type ReadConfigCST struct {
	Config string `@Ident "."`
	Field  string `@Ident`
}

type BracketRefCST struct {
	Name   string          `@Ident "["`
	Slices []*SliceElemCST `@@ { "," @@ } "]"`
}

// SliceElemCST is a point index when Hi == nil, a half-open range [Lo, Hi)
// otherwise — the same convention ast.Slice documents.
type SliceElemCST struct {
	Lo *ExprCST `@@`
	Hi *ExprCST `[ ":" @@ ]`
}
