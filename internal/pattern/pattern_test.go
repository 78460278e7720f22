package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndMatchHoles(t *testing.T) {
	pat, err := Parse("for i in _ : _")
	require.NoError(t, err)

	require.True(t, pat.Matches("for i in [0, N) : C[i] = 0"))
	require.False(t, pat.Matches("for j in [0, N) : C[j] = 0"), "literal tokens must match exactly")
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("for i in @@@ :")
	require.Error(t, err)
}
