// Command exo is a thin entry point that parses a kernel file and prints
// its canonical form, mirroring the teacher's root main.go: a minimal
// parse-and-print smoke test, distinct from cmd/exo-cli's full compile
// pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"exo/internal/errors"
	"exo/internal/parser"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: exo <file.exo>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	procs, err := parser.ParseSource(path, string(source))
	if err != nil {
		reportParseError(string(source), err)
		os.Exit(1)
	}

	for _, p := range procs {
		fmt.Print(p.String())
	}

	color.Green("parsed %d procedure(s) from %s", len(procs), path)
}

func reportParseError(src string, err error) {
	se, ok := err.(*errors.SyntaxError)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}
	color.Red("syntax error in %s at line %d, column %d: %s", se.File, se.Line, se.Column, se.Cause)
}
