// Package parser is a minimal front end for the surface syntax
// internal/ast/printer.go renders: just enough to parse a procedure back out
// of its own pretty-printed form. The real front end that turns a user's
// kernel source into UAST is out of scope (spec.md section 1); this package
// exists so internal/ast's printer has a counterpart to round-trip against
// in tests (testable property 2: print then parse reproduces an equivalent
// tree) and so a saved kernel can be reloaded without re-deriving its UAST
// by hand.
package parser

import "github.com/alecthomas/participle/v2/lexer"

// Lexer is built the same way kanso's grammar.KansoLexer is: a flat list of
// named regexp rules, longest/first match wins, whitespace elided by the
// parser rather than dropped here so position tracking stays accurate.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Operator", Pattern: `(==|!=|<=|>=|\+=|[-+*/%<>=.,:;(){}\[\]@])`},
	{Name: "Whitespace", Pattern: `\s+`},
})
