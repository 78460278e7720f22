package extern

import "testing"

func TestMathTableResolvesBuiltins(t *testing.T) {
	tbl := NewMathTable()
	for _, name := range []string{"sin", "cos", "exp", "sqrt", "relu"} {
		if _, ok := tbl.Lookup(name); !ok {
			t.Fatalf("expected %q to be registered", name)
		}
	}
	if _, ok := tbl.Lookup("tanh"); ok {
		t.Fatalf("did not expect an unregistered extern to resolve")
	}
}

func TestLibmUnaryCompile(t *testing.T) {
	tbl := NewMathTable()
	sinE, _ := tbl.Lookup("sin")
	got, err := sinE.Compile([]string{"x"}, "float")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got != "sinf(x)" {
		t.Fatalf("expected sinf(x), got %q", got)
	}
}

func TestReluCompileRejectsWrongArity(t *testing.T) {
	tbl := NewMathTable()
	relu, _ := tbl.Lookup("relu")
	if _, err := relu.Compile([]string{"a", "b"}, "float"); err == nil {
		t.Fatalf("expected an arity error")
	}
}
