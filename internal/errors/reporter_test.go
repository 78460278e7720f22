package errors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"exo/internal/ast"
)

func TestReporterFormatsSourceSpan(t *testing.T) {
	source := "def f(N: size, A: f32[N]):\n  A[N] = 1.0\n"
	reporter := NewReporter("k.exo", source)

	out := reporter.Format("error", ErrNonAffineIndex, "index expression is not affine", ast.Pos{Line: 2, Column: 3}, "index positions must be affine")

	require.Contains(t, out, ErrNonAffineIndex)
	require.Contains(t, out, "k.exo:2:3")
	require.Contains(t, out, "A[N] = 1.0")
	require.Contains(t, out, "index positions must be affine")
}
