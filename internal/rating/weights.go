package rating

import "github.com/MikeSquared-Agency/Rating/internal/weights"

// DefaultTolerance is the allowed deviation of a row weight sum from 1.0.
const DefaultTolerance = weights.DefaultTolerance

// ValidateWeights reports whether ws sums to 1.0 within tolerance. It never
// modifies ws. An empty slice is invalid.
func ValidateWeights(ws []float64, tolerance float64) bool {
	return weights.Valid(ws, tolerance)
}
