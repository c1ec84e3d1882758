package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ValueAtRisk computes parametric Value-at-Risk under a zero-mean normal
// assumption: VaR = Φ⁻¹(confidence) · σ.
//
// The sign convention is preserved exactly: confidence below 0.5 yields a
// negative result (a loss threshold); callers wanting a loss magnitude take
// the absolute value themselves.
//
// Confidence must lie strictly inside (0, 1). At the boundaries the quantile
// is ±infinity, so the function fails fast with ErrConfidenceOutOfRange
// instead of letting infinities propagate.
func ValueAtRisk(sigma, confidence float64) (float64, error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return 0, fmt.Errorf("volatility must be non-negative, got %v", sigma)
	}
	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return 0, fmt.Errorf("confidence %v is not in (0, 1): %w", confidence, ErrConfidenceOutOfRange)
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(confidence)
	return z * sigma, nil
}

// ScaleVaR scales a single-period VaR to an h-period horizon with the
// square-root-of-time rule. Deterministic: no re-estimation happens.
func ScaleVaR(valueAtRisk float64, horizon int) float64 {
	if horizon <= 0 {
		return 0
	}
	return valueAtRisk * math.Sqrt(float64(horizon))
}
