package model

import (
	"errors"
	"fmt"
	"math"
)

var ErrMalformedOutput = errors.New("malformed classifier output")

// Resolve picks the most probable label. Ties go to the lowest index so the
// answer does not depend on iteration order or the numeric backend.
func Resolve(probs []float32) (Label, float32, error) {
	if len(probs) != NumLabels {
		return -1, 0, fmt.Errorf("%w: got %d values, want %d", ErrMalformedOutput, len(probs), NumLabels)
	}

	best := 0
	for i, p := range probs {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			return -1, 0, fmt.Errorf("%w: non-finite value at index %d", ErrMalformedOutput, i)
		}
		if p < 0 || p > 1 {
			return -1, 0, fmt.Errorf("%w: value %g at index %d is not a probability", ErrMalformedOutput, p, i)
		}
		if p > probs[best] {
			best = i
		}
	}

	return Label(best), probs[best], nil
}
