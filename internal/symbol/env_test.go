package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolEqualityByID(t *testing.T) {
	a := New("x")
	b := New("x")
	require.False(t, a.Equal(b), "two distinct New() calls must never be equal")
	require.True(t, a.Equal(a))
}

func TestEnvFreshNamePolicy(t *testing.T) {
	env := NewEnv()
	x1, n1 := env.Declare("x")
	require.Equal(t, "x", n1)

	env.Push()
	x2, n2 := env.Declare("x")
	require.Equal(t, "x_1", n2, "shadowing name in nested scope must bump a suffix")
	require.False(t, x1.Equal(x2))

	x3, n3 := env.Declare("x")
	require.Equal(t, "x_2", n3, "second collision bumps past the first suffix")

	env.Pop()
	sym, ok := env.Lookup("x")
	require.True(t, ok)
	require.True(t, sym.Equal(x1), "popping the nested scope restores outer binding")

	_, ok = env.Lookup("x_1")
	require.False(t, ok, "nested-scope binding must not leak after Pop")
	_ = x3
}

func TestEnvPopRootPanics(t *testing.T) {
	env := NewEnv()
	require.Panics(t, func() { env.Pop() })
}
