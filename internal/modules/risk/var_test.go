package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAtRisk_SignConvention(t *testing.T) {
	const sigma = 0.02

	// Φ⁻¹(0.05) ≈ -1.645, so the 5% VaR is a negative loss threshold
	low, err := ValueAtRisk(sigma, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, -0.0329, low, 1e-4)

	// The sign flips across the 0.5 boundary
	high, err := ValueAtRisk(sigma, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.0329, high, 1e-4)

	assert.InDelta(t, -low, high, 1e-12)
}

func TestValueAtRisk_MedianIsZero(t *testing.T) {
	v, err := ValueAtRisk(0.02, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-12)
}

func TestValueAtRisk_ZeroVolatility(t *testing.T) {
	v, err := ValueAtRisk(0, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestValueAtRisk_ConfidenceOutOfRange(t *testing.T) {
	for _, confidence := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, err := ValueAtRisk(0.02, confidence)
		require.Error(t, err, "confidence=%v", confidence)
		assert.ErrorIs(t, err, ErrConfidenceOutOfRange, "confidence=%v", confidence)
	}
}

func TestValueAtRisk_NegativeVolatility(t *testing.T) {
	_, err := ValueAtRisk(-0.01, 0.05)
	require.Error(t, err)
}

func TestScaleVaR(t *testing.T) {
	daily, err := ValueAtRisk(0.02, 0.05)
	require.NoError(t, err)

	// Monthly scaling is deterministic: exactly daily * sqrt(20)
	monthly := ScaleVaR(daily, 20)
	assert.Equal(t, daily*math.Sqrt(20), monthly)

	assert.Equal(t, daily, ScaleVaR(daily, 1))
	assert.Equal(t, 0.0, ScaleVaR(daily, 0))
	assert.Equal(t, 0.0, ScaleVaR(daily, -5))
}
