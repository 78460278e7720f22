package schedule

import (
	"testing"

	"exo/internal/interp"
	"exo/internal/ir"
)

// runCopyAdd executes copy_add on n=4 with A=[1,2,3,4], B=[10,20,30,40] and
// returns C's contents, the shared fixture every case below compares against.
func runCopyAdd(t *testing.T, proc *ir.Proc) []float64 {
	t.Helper()
	a := interp.NewBuffer(ir.F32, []int64{4})
	copy(a.Data, []float64{1, 2, 3, 4})
	b := interp.NewBuffer(ir.F32, []int64{4})
	copy(b.Data, []float64{10, 20, 30, 40})
	c := interp.NewBuffer(ir.F32, []int64{4})

	if err := interp.Run(proc, []interp.Value{float64(4), a, b, c}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return append([]float64{}, c.Data...)
}

// TestRewritesPreserveInterpretedSemantics is the testable-property-5 check
// from spec section 8: for any rewrite in the catalog, interp(p) and
// interp(rewrite(p)) must agree bit-for-bit.
func TestRewritesPreserveInterpretedSemantics(t *testing.T) {
	proc, _, _, _, _ := copyAddProc(4)
	want := runCopyAdd(t, proc)

	cases := []struct {
		name    string
		rewrite func(*ir.Proc) (*ir.Proc, error)
	}{
		{
			name: "unroll_loop",
			rewrite: func(p *ir.Proc) (*ir.Proc, error) {
				next, _, err := New(p).UnrollLoop(loopCursor(p))
				if err != nil {
					return nil, err
				}
				return next.IR(), nil
			},
		},
		{
			name: "simplify",
			rewrite: func(p *ir.Proc) (*ir.Proc, error) {
				next, err := New(p).Simplify()
				if err != nil {
					return nil, err
				}
				return next.IR(), nil
			},
		},
		{
			name: "divide_loop_tail_perfect",
			rewrite: func(p *ir.Proc) (*ir.Proc, error) {
				next, _, err := New(p).DivideLoop(loopCursor(p), DivideLoopArgs{K: 2, OuterName: "io", InnerName: "ii", Tail: TailPerfect})
				if err != nil {
					return nil, err
				}
				return next.IR(), nil
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fresh, _, _, _, _ := copyAddProc(4)
			rewritten, err := c.rewrite(fresh)
			if err != nil {
				t.Fatalf("%s: %v", c.name, err)
			}
			got := runCopyAdd(t, rewritten)
			if len(got) != len(want) {
				t.Fatalf("%s: length mismatch: got %v, want %v", c.name, got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("%s: C[%d] = %v, want %v (original %v, rewritten %v)", c.name, i, got[i], want[i], want, got)
				}
			}
		})
	}
}
