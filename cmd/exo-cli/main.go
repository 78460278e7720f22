// Command exo-cli loads a kernel file, type-checks it, optionally rewrites
// it with a schedule script, and emits compiled C source. It is built the
// way kanso-cli and the REPL are: a small flag-parsed entry point that reads
// a file, reports errors with color, and prints a result.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"exo/internal/errors"
	"exo/internal/extern"
	"exo/internal/ir"
	"exo/internal/lower"
	"exo/internal/memory"
	"exo/internal/parser"
	"exo/internal/typecheck"
)

func main() {
	stem := flag.String("stem", "", "translation unit name (default: kernel file's base name)")
	script := flag.String("script", "", "path to a schedule script to apply before compiling")
	outHeader := flag.String("out-h", "", "write the generated header here instead of stdout")
	outSource := flag.String("out-c", "", "write the generated source here instead of stdout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: exo-cli [flags] <kernel.exo>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("cannot read %s: %s", path, err)
		os.Exit(1)
	}

	if *stem == "" {
		base := filepath.Base(path)
		*stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	procs, err := parser.ParseSource(path, string(source))
	if err != nil {
		reportSyntaxError(string(source), err)
		os.Exit(1)
	}

	mems := memory.NewRegistry()
	checked, err := typecheck.NewAnalyzer(procs, mems).CheckAll()
	if err != nil {
		reportCheckedError(string(source), path, err)
		os.Exit(1)
	}

	if *script != "" {
		scriptSrc, err := os.ReadFile(*script)
		if err != nil {
			color.Red("cannot read script %s: %s", *script, err)
			os.Exit(1)
		}
		if err := runScript(checked, string(scriptSrc), mems); err != nil {
			color.Red("schedule script failed: %s", err)
			os.Exit(1)
		}
	}

	final := make([]*ir.Proc, 0, len(procs))
	for _, p := range procs {
		final = append(final, checked[p.Name])
	}

	out, err := lower.Lower(final, mems, extern.NewMathTable(), *stem)
	if err != nil {
		color.Red("lowering failed: %s", err)
		os.Exit(1)
	}

	if err := writeOrPrint(*outHeader, out.Header); err != nil {
		color.Red("writing header: %s", err)
		os.Exit(1)
	}
	if err := writeOrPrint(*outSource, out.Source); err != nil {
		color.Red("writing source: %s", err)
		os.Exit(1)
	}

	color.Green("compiled %d procedure(s) from %s", len(procs), path)
}

func writeOrPrint(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func reportSyntaxError(src string, err error) {
	se, ok := err.(*errors.SyntaxError)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}
	lines := strings.Split(src, "\n")
	if se.Line <= 0 || se.Line > len(lines) {
		color.Red("syntax error: %s", se)
		return
	}
	line := lines[se.Line-1]
	caret := strings.Repeat(" ", max0(se.Column-1)) + "^"
	color.Red("syntax error in %s at line %d, column %d:", se.File, se.Line, se.Column)
	fmt.Println(line)
	color.HiRed(caret)
}

func reportCheckedError(src, path string, err error) {
	reporter := errors.NewReporter(path, src)
	switch e := err.(type) {
	case *errors.TypeError:
		fmt.Print(reporter.Format("error", e.Code, e.Msg, e.Pos, e.Hint))
	case *errors.SchedulingError:
		fmt.Print(reporter.Format("error", e.Rewrite, e.Reason, e.Pos, ""))
	default:
		color.Red("error: %s", err)
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
