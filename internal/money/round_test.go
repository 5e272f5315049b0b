package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRound2BinaryDrift(t *testing.T) {
	require.Equal(t, 0.30, Round2(0.1+0.2))
	require.Equal(t, 0.03, Round2(0.01+0.02))
	require.Equal(t, 1.0, Round2(0.1*10))
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	require.Equal(t, 0.13, Round2(0.125))
	require.Equal(t, -0.13, Round2(-0.125))
	require.Equal(t, 2.68, Round2(2.675))
}

func TestRound2Stability(t *testing.T) {
	values := []float64{0, 0.005, 1.005, 99.994, 100.555, -3.333, 1234567.891}
	for _, v := range values {
		once := Round2(v)
		require.Equal(t, once, Round2(once))
	}
}

func TestSettled(t *testing.T) {
	require.True(t, Settled(0))
	require.True(t, Settled(0.01))
	require.True(t, Settled(-0.5))
	require.False(t, Settled(0.02))
}

func TestMin(t *testing.T) {
	require.Equal(t, 1.5, Min(1.5, 2.0))
	require.Equal(t, 1.5, Min(2.0, 1.5))
}
