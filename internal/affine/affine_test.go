package affine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"exo/internal/ir"
	"exo/internal/symbol"
)

func TestSimplifyIdentities(t *testing.T) {
	x := &ir.AVar{Sym: symbol.New("x")}

	require.Equal(t, "x", Simplify(&ir.AAdd{LHS: &ir.AConst{Val: 0}, RHS: x}).String())
	require.Equal(t, "x", Simplify(&ir.ASub{LHS: x, RHS: &ir.AConst{Val: 0}}).String())
	require.Equal(t, "0", Simplify(&ir.AScale{K: 0, E: x}).String())
	require.Equal(t, "x", Simplify(&ir.AScale{K: 1, E: x}).String())
}

func TestSimplifyIdempotent(t *testing.T) {
	x := &ir.AVar{Sym: symbol.New("x")}
	y := &ir.AVar{Sym: symbol.New("y")}
	e := &ir.AAdd{LHS: &ir.AAdd{LHS: x, RHS: &ir.AConst{Val: 0}}, RHS: &ir.AScale{K: 1, E: y}}

	once := Simplify(e)
	twice := Simplify(once)
	require.Equal(t, once.String(), twice.String())
}

func TestNormalizeCanonicalOrderAndFold(t *testing.T) {
	x := &ir.AVar{Sym: symbol.New("x")}
	// 2*x + 3 - x  ==  x + 3
	e := &ir.ASub{
		LHS: &ir.AAdd{LHS: &ir.AScale{K: 2, E: x}, RHS: &ir.AConst{Val: 3}},
		RHS: x,
	}
	got := Normalize(e)
	require.Equal(t, "(x + 3)", got.String())
}

func TestRangeEnvProvesBoundsAfterEnterFor(t *testing.T) {
	env := NewRangeEnv()
	n := symbol.New("N")
	env.Bind(n, Interval{Lo: int64Ptr(0)})
	i := symbol.New("i")
	env.EnterFor(i, &ir.AConst{Val: 0}, &ir.ASize{Sym: n})

	require.True(t, env.NonNegative(&ir.AVar{Sym: i}))
	require.True(t, env.Check(&ir.AVar{Sym: i}, ir.CmpLt, &ir.ASize{Sym: n}))
}

func TestRangeEnvPopRestoresOuterScope(t *testing.T) {
	env := NewRangeEnv()
	i := symbol.New("i")
	env.EnterFor(i, &ir.AConst{Val: 0}, &ir.AConst{Val: 8})
	env.Pop()
	_, ok := env.lookup(i.ID())
	require.False(t, ok)
}

func int64Ptr(v int64) *int64 { return &v }
