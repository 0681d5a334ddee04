package numeric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, CheckPow2(1, "x"))
	require.NoError(t, CheckPow2(2, "x"))
	require.NoError(t, CheckPow2(1024, "x"))

	require.ErrorIs(t, CheckPow2(0, "x"), ErrNotPowerOfTwo)
	require.ErrorIs(t, CheckPow2(-2, "x"), ErrNotPowerOfTwo)
	require.ErrorIs(t, CheckPow2(3, "x"), ErrNotPowerOfTwo)
}

func TestCheckMultiple(t *testing.T) {
	require.NoError(t, CheckMultiple(32, 2, "x"))
	require.NoError(t, CheckMultiple(2, 2, "x"))

	require.ErrorIs(t, CheckMultiple(33, 2, "x"), ErrNotMultiple)
	require.ErrorIs(t, CheckMultiple(2, 0, "x"), ErrNotMultiple)
	require.ErrorIs(t, CheckMultiple(0, 2, "x"), ErrNotMultiple)
}

func TestMax(t *testing.T) {
	require.Equal(t, 5, Max(5, 3))
	require.Equal(t, 5, Max(3, 5))
	require.Equal(t, 5, Max(5, 5))
}
