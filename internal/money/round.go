// Package money provides the canonical currency arithmetic helpers used
// everywhere amounts are summed, compared or stored.
package money

import "math"

// Epsilon is the tolerance used when comparing currency amounts. Residues at
// or below this value are treated as fully settled.
const Epsilon = 0.01

// Round2 rounds a currency amount to two decimal places, half away from zero.
// A machine epsilon nudge is applied first so binary representation error
// (0.1+0.2 == 0.30000000000000004) does not flip the rounding direction.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	nudged := x * (1 + 1e-12)
	return math.Round(nudged*100) / 100
}

// Min returns the smaller of two amounts.
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Settled reports whether a remaining balance is small enough to be
// considered paid in full.
func Settled(remaining float64) bool {
	return remaining <= Epsilon
}
