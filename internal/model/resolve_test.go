package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		probs      []float32
		label      Label
		confidence float32
	}{
		{
			name:       "clear winner",
			probs:      []float32{0.01, 0.02, 0.94, 0.02, 0.01},
			label:      Normal,
			confidence: 0.94,
		},
		{
			name:       "winner at last index",
			probs:      []float32{0.1, 0.1, 0.1, 0.1, 0.6},
			label:      Wrinkles,
			confidence: 0.6,
		},
		{
			name:       "two-way tie picks lower index",
			probs:      []float32{0.05, 0.4, 0.1, 0.4, 0.05},
			label:      DarkSpots,
			confidence: 0.4,
		},
		{
			name:       "all equal picks first",
			probs:      []float32{0.2, 0.2, 0.2, 0.2, 0.2},
			label:      Acne,
			confidence: 0.2,
		},
		{
			name:       "all zero picks first",
			probs:      []float32{0, 0, 0, 0, 0},
			label:      Acne,
			confidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, confidence, err := Resolve(tt.probs)

			require.NoError(t, err)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestResolveTieIsStable(t *testing.T) {
	probs := []float32{0.1, 0.1, 0.35, 0.35, 0.1}

	for i := 0; i < 100; i++ {
		label, confidence, err := Resolve(probs)
		require.NoError(t, err)
		require.Equal(t, Normal, label)
		require.Equal(t, float32(0.35), confidence)
	}
}

func TestResolveRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name  string
		probs []float32
	}{
		{name: "empty", probs: nil},
		{name: "too short", probs: []float32{0.5, 0.5}},
		{name: "too long", probs: []float32{0.1, 0.1, 0.1, 0.1, 0.1, 0.5}},
		{name: "nan", probs: []float32{float32(math.NaN()), 0.1, 0.1, 0.1, 0.1}},
		{name: "inf", probs: []float32{0.1, float32(math.Inf(1)), 0.1, 0.1, 0.1}},
		{name: "logits instead of probabilities", probs: []float32{-1.2, 3.4, 0.1, 0.2, 0.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Resolve(tt.probs)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}
