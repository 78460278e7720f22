package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"exo/internal/ast"
)

// TypeError is raised by typecheck.Check: ill-formed IR, unknown symbol,
// arity/type mismatch, non-affine index, write-to-const, cyclic call graph.
type TypeError struct {
	Code string
	Pos  ast.Pos
	Msg  string
	Hint string
}

func (e *TypeError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("type error[%s] at %s: %s (%s)", e.Code, e.Pos, e.Msg, e.Hint)
	}
	return fmt.Sprintf("type error[%s] at %s: %s", e.Code, e.Pos, e.Msg)
}

func NewTypeError(code string, pos ast.Pos, msg string) *TypeError {
	return &TypeError{Code: code, Pos: pos, Msg: msg}
}

// SchedulingError is raised when a rewrite's local precondition is not met.
// Pos carries the source position and Reason the violated condition, per
// spec section 7.
type SchedulingError struct {
	Rewrite string
	Pos     ast.Pos
	Reason  string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling error in %s at %s: %s", e.Rewrite, e.Pos, e.Reason)
}

func NewSchedulingError(rewrite string, pos ast.Pos, reason string) *SchedulingError {
	return &SchedulingError{Rewrite: rewrite, Pos: pos, Reason: reason}
}

// ParseFragmentError is raised when a user-supplied cursor pattern cannot be
// parsed by package pattern.
type ParseFragmentError struct {
	Fragment string
	Cause    error
}

func (e *ParseFragmentError) Error() string {
	return fmt.Sprintf("cannot parse fragment %q: %s", e.Fragment, e.Cause)
}

func (e *ParseFragmentError) Unwrap() error { return e.Cause }

func NewParseFragmentError(fragment string, cause error) *ParseFragmentError {
	return &ParseFragmentError{Fragment: fragment, Cause: pkgerrors.Wrap(cause, "parse fragment")}
}

// SyntaxError is raised when package parser cannot parse a full procedure
// source text. File/Line/Column locate the offending token.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Cause  error
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Cause)
	}
	return fmt.Sprintf("syntax error at %s:%d:%d: %s", e.File, e.Line, e.Column, e.Cause)
}

func (e *SyntaxError) Unwrap() error { return e.Cause }

func NewSyntaxError(file string, line, col int, cause error) *SyntaxError {
	return &SyntaxError{File: file, Line: line, Column: col, Cause: pkgerrors.Wrap(cause, "parse")}
}

// MemGenError is raised when a memory capability's codegen hook rejects the
// requested operation (e.g. a read from a write-only scratch memory).
type MemGenError struct {
	Mem    string
	Op     string
	Reason string
}

func (e *MemGenError) Error() string {
	return fmt.Sprintf("memory %q rejected %s: %s", e.Mem, e.Op, e.Reason)
}

func NewMemGenError(mem, op, reason string) *MemGenError {
	return &MemGenError{Mem: mem, Op: op, Reason: reason}
}

// ConfigError is raised on a read/write to a config whose access mode
// forbids it.
type ConfigError struct {
	Config string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s.%s: %s", e.Config, e.Field, e.Reason)
}

func NewConfigError(config, field, reason string) *ConfigError {
	return &ConfigError{Config: config, Field: field, Reason: reason}
}

// CursorInvalid is raised when a cursor is used after its procedure is gone
// or against a version it was never forwarded to.
type CursorInvalid struct {
	Reason string
}

func (e *CursorInvalid) Error() string { return fmt.Sprintf("invalid cursor: %s", e.Reason) }

func NewCursorInvalid(reason string) *CursorInvalid { return &CursorInvalid{Reason: reason} }

// Wrap attaches additional context to err using pkg/errors, preserving the
// original error for errors.Is/As-style inspection via Cause.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, context)
}
