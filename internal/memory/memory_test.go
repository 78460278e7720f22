package memory

import (
	"strings"
	"testing"

	"exo/internal/ir"
)

func TestRegistryResolvesBuiltins(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("DRAM"); !ok {
		t.Fatalf("expected DRAM to be registered")
	}
	if _, ok := r.Lookup("Stack"); !ok {
		t.Fatalf("expected Stack to be registered")
	}
	if _, ok := r.Lookup("GPU"); ok {
		t.Fatalf("did not expect an unregistered kind to resolve")
	}
}

func TestDRAMAllocUsesMalloc(t *testing.T) {
	snippet, err := DRAM{}.Alloc("buf", "float", []string{"4", "8"}, ir.SrcInfo{})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !strings.Contains(snippet, "malloc(4*8") {
		t.Fatalf("expected malloc call sized by the product of dimensions, got %q", snippet)
	}
}

func TestStackRejectsSymbolicShape(t *testing.T) {
	if _, err := (Stack{}).Alloc("buf", "float", []string{"n"}, ir.SrcInfo{}); err == nil {
		t.Fatalf("expected an error allocating a Stack buffer with a symbolic dimension")
	}
}

func TestStackAcceptsConstantShape(t *testing.T) {
	snippet, err := (Stack{}).Alloc("buf", "float", []string{"16"}, ir.SrcInfo{})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !strings.Contains(snippet, "[16]") {
		t.Fatalf("expected a fixed-size array declaration, got %q", snippet)
	}
}

func TestStackIsStaticDRAMIsNot(t *testing.T) {
	if !(Stack{}).Static() {
		t.Fatalf("Stack must be static")
	}
	if (DRAM{}).Static() {
		t.Fatalf("DRAM must not be static")
	}
}
