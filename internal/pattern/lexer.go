// Package pattern implements the small pattern language consumed by
// Cursor.Find and Cursor.FindLoop: a textual fragment that matches against
// the printed form of TIR statements/expressions, e.g. "for i in _: _" or
// "C[_] += _". It is built with participle the same way the teacher's
// grammar package builds its declarative source grammar.
package pattern

import "github.com/alecthomas/participle/v2/lexer"

var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Hole", Pattern: `_\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[\[\]():,;:+\-*/%<>=!@.]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})
