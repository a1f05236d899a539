// Package weights checks that a set of weights forms a distribution summing to 1.0.
package weights

import "math"

// DefaultTolerance is the per-submission tolerance applied to stage 2 row weights.
const DefaultTolerance = 0.01

// Sum returns the total of ws.
func Sum(ws []float64) float64 {
	var total float64
	for _, w := range ws {
		total += w
	}
	return total
}

// Valid reports whether ws sums to 1.0 within tolerance. It never mutates ws;
// callers decide what to do with a false result.
func Valid(ws []float64, tolerance float64) bool {
	return math.Abs(Sum(ws)-1.0) <= tolerance
}
