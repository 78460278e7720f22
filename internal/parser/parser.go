package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"exo/internal/ast"
	"exo/internal/errors"
)

var parser = participle.MustBuild[FileCST](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseSource parses every "def name(...) { ... }" procedure out of source,
// in file order. filename is used only for error positions.
func ParseSource(filename, source string) ([]*ast.Proc, error) {
	file, err := parser.ParseString(filename, source)
	if err != nil {
		if pe, ok := err.(participle.Error); ok {
			pos := pe.Position()
			return nil, errors.NewSyntaxError(filename, pos.Line, pos.Column, err)
		}
		return nil, errors.NewSyntaxError(filename, 0, 0, err)
	}
	return buildFile(file), nil
}

// ParseProc parses source expected to hold exactly one procedure, the
// common case for a single kernel file or a round-trip test against
// internal/ast's printer.
func ParseProc(filename, source string) (*ast.Proc, error) {
	procs, err := ParseSource(filename, source)
	if err != nil {
		return nil, err
	}
	if len(procs) != 1 {
		return nil, errors.NewSyntaxError(filename, 0, 0, fmt.Errorf("expected exactly one procedure, found %d", len(procs)))
	}
	return procs[0], nil
}
