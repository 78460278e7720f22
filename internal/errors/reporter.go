package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"exo/internal/ast"
)

// Reporter renders Rust-style colored diagnostics with source-line context,
// grounded on the teacher's ErrorReporter.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders a single diagnostic: level, code, message, source span,
// and an optional note.
func (r *Reporter) Format(level, code, msg string, pos ast.Pos, note string) string {
	var b strings.Builder

	levelColor := r.levelColor(level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s\n", levelColor(level), code, msg)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", levelColor(level), msg)
	}

	width := lineNumberWidth(pos.Line)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, pos.Line, pos.Column)
	fmt.Fprintf(&b, "%s %s\n", indent, dim("|"))

	if pos.Line >= 1 && pos.Line <= len(r.lines) {
		fmt.Fprintf(&b, "%s %s %s\n", bold(pad(pos.Line, width)), dim("|"), r.lines[pos.Line-1])
		marker := strings.Repeat(" ", max0(pos.Column-1)) + levelColor(strings.Repeat("^", 1))
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("|"), marker)
	}

	if note != "" {
		noteColor := color.New(color.FgBlue).SprintFunc()
		fmt.Fprintf(&b, "%s %s %s %s\n", indent, dim("|"), noteColor("note:"), note)
	}
	return b.String()
}

func (r *Reporter) levelColor(level string) func(...interface{}) string {
	switch level {
	case "warning":
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case "note":
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

func pad(line, width int) string {
	return fmt.Sprintf("%*d", width, line)
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
