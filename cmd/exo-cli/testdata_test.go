package main

import (
	"os"
	"strings"
	"testing"

	"exo/internal/extern"
	"exo/internal/interp"
	"exo/internal/ir"
	"exo/internal/lower"
	"exo/internal/memory"
	"exo/internal/parser"
	"exo/internal/typecheck"
)

// loadAndCheck runs the same parser -> typecheck prefix main.go does (see
// main.go:49-60) against a kernel under ../../testdata, returning the
// checked procedure map and the memory.Registry typecheck resolved Mem
// names against.
func loadAndCheck(t *testing.T, exoPath string) (map[string]*ir.Proc, *memory.Registry) {
	t.Helper()
	path := "../../testdata/" + exoPath
	source, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile %s: %v", path, err)
	}
	procs, err := parser.ParseSource(path, string(source))
	if err != nil {
		t.Fatalf("ParseSource %s: %v", path, err)
	}
	mems := memory.NewRegistry()
	checked, err := typecheck.NewAnalyzer(procs, mems).CheckAll()
	if err != nil {
		t.Fatalf("CheckAll %s: %v", path, err)
	}
	return checked, mems
}

func finalProcs(checked map[string]*ir.Proc, names ...string) []*ir.Proc {
	out := make([]*ir.Proc, 0, len(names))
	for _, n := range names {
		out = append(out, checked[n])
	}
	return out
}

// TestSeedScenarioS1Matmul runs the tiling script from testdata/s1_matmul.script
// against testdata/s1_matmul.exo through the full parser -> typecheck ->
// schedule -> lower pipeline, per spec section 8's seed scenario S1.
func TestSeedScenarioS1Matmul(t *testing.T) {
	checked, mems := loadAndCheck(t, "s1_matmul.exo")
	script, err := os.ReadFile("../../testdata/s1_matmul.script")
	if err != nil {
		t.Fatalf("ReadFile script: %v", err)
	}
	if err := runScript(checked, string(script), mems); err != nil {
		t.Fatalf("runScript: %v", err)
	}
	out, err := lower.Lower(finalProcs(checked, "matmul"), mems, extern.NewMathTable(), "s1_matmul")
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !strings.Contains(out.Source, "jo") || !strings.Contains(out.Source, "ji") {
		t.Fatalf("expected tiled jo/ji loop names in lowered source, got:\n%s", out.Source)
	}
}

// TestSeedScenarioS2Fission runs the fission script from
// testdata/s2_fission.script against testdata/s2_fission.exo, per spec
// section 8's seed scenario S2.
func TestSeedScenarioS2Fission(t *testing.T) {
	checked, mems := loadAndCheck(t, "s2_fission.exo")
	script, err := os.ReadFile("../../testdata/s2_fission.script")
	if err != nil {
		t.Fatalf("ReadFile script: %v", err)
	}
	if err := runScript(checked, string(script), mems); err != nil {
		t.Fatalf("runScript: %v", err)
	}
	if _, err := lower.Lower(finalProcs(checked, "init_pair"), mems, extern.NewMathTable(), "s2_fission"); err != nil {
		t.Fatalf("Lower: %v", err)
	}
}

// TestSeedScenarioS3Navigation smoke-tests testdata/s3_navigation.exo
// through the full pipeline with no schedule script, per spec section 8's
// seed scenario S3 (cursor navigation is exercised directly by
// internal/cursor's own tests; this only confirms the seed kernel compiles).
func TestSeedScenarioS3Navigation(t *testing.T) {
	checked, mems := loadAndCheck(t, "s3_navigation.exo")
	if _, err := lower.Lower(finalProcs(checked, "four_steps"), mems, extern.NewMathTable(), "s3_navigation"); err != nil {
		t.Fatalf("Lower: %v", err)
	}
}

// TestSeedScenarioS4FloorDivElided confirms the claim in
// testdata/s4_floordiv.exo's own comment: since i ranges over [0, N) the
// lowered division by a loop-bound-provable-nonnegative index must use a
// native C division, not the floor_div helper.
func TestSeedScenarioS4FloorDivElided(t *testing.T) {
	checked, mems := loadAndCheck(t, "s4_floordiv.exo")
	out, err := lower.Lower(finalProcs(checked, "tiled_read"), mems, extern.NewMathTable(), "s4_floordiv")
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if strings.Contains(out.Source, "floor_div") {
		t.Fatalf("expected floor_div to be elided for a provably non-negative index, got:\n%s", out.Source)
	}
}

// TestSeedScenarioS5Window confirms testdata/s5_window.exo's own comment:
// lowering synthesizes a struct exo_win_1f32 for the narrowed window w.
func TestSeedScenarioS5Window(t *testing.T) {
	checked, mems := loadAndCheck(t, "s5_window.exo")
	out, err := lower.Lower(finalProcs(checked, "relu_win"), mems, extern.NewMathTable(), "s5_window")
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !strings.Contains(out.Header, "struct exo_win_1f32 {") {
		t.Fatalf("expected a struct exo_win_1f32 declaration, got:\n%s", out.Header)
	}
}

// TestSeedScenarioS6Accumulate confirms testdata/s6_acc.exo's own comment:
// interp.Run on this kernel with N=3, A=[0,1,2] produces r=3.0.
func TestSeedScenarioS6Accumulate(t *testing.T) {
	checked, _ := loadAndCheck(t, "s6_acc.exo")
	proc := checked["acc"]

	a := interp.NewBuffer(ir.F32, []int64{3})
	copy(a.Data, []float64{0, 1, 2})
	r := interp.NewBuffer(ir.F32, []int64{1})

	if err := interp.Run(proc, []interp.Value{float64(3), a, r}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Data[0] != 3.0 {
		t.Fatalf("r[0] = %v, want 3.0", r.Data[0])
	}
}
