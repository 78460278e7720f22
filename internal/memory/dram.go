package memory

import (
	"fmt"
	"strings"

	"exo/internal/ir"
)

// DRAM is the default memory kind: a malloc/free-backed heap buffer,
// readable and writable, with no staticness restriction. Every tensor
// argument and every Alloc statement without an explicit memory annotation
// lowers through DRAM.
type DRAM struct{}

func (DRAM) Name() string    { return "DRAM" }
func (DRAM) CanRead() bool   { return true }
func (DRAM) CanWrite() bool  { return true }
func (DRAM) Static() bool    { return false }
func (DRAM) Global() string  { return "" }

func (DRAM) Alloc(name, ctype string, shapeStrs []string, _ ir.SrcInfo) (string, error) {
	count := "1"
	if len(shapeStrs) > 0 {
		count = strings.Join(shapeStrs, "*")
	}
	return fmt.Sprintf("%s *%s = (%s*) malloc(%s * sizeof(%s));", ctype, name, ctype, count, ctype), nil
}

func (DRAM) Free(name, _ string, _ []string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("free(%s);", name), nil
}

func (DRAM) Read(lhs, rhs string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("%s = %s;", lhs, rhs), nil
}

func (DRAM) Write(lhs, rhs string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("%s = %s;", lhs, rhs), nil
}

func (DRAM) Reduce(lhs, rhs string, _ ir.SrcInfo) (string, error) {
	return fmt.Sprintf("%s += %s;", lhs, rhs), nil
}

func (DRAM) Window(basetype, base string, offsets, strides []string, _ ir.SrcInfo) (string, error) {
	expr := base
	for i, off := range offsets {
		if off == "0" {
			continue
		}
		stride := "1"
		if i < len(strides) {
			stride = strides[i]
		}
		expr = fmt.Sprintf("%s + (%s) * (%s)", expr, off, stride)
	}
	return fmt.Sprintf("(%s*) (%s)", basetype, expr), nil
}
