package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PortfolioVolatility computes the portfolio return standard deviation over
// the sampled period: sqrt(w' Σ w), with Σ the unbiased sample covariance
// matrix (N-1 divisor) of the return columns. Not annualized.
//
// Fails with ErrDimensionMismatch when len(weights) differs from the number
// of return columns, and with ErrInsufficientData when fewer than two return
// rows are available. Weights are used as given; they are conventionally
// expected to sum to 1 but this is not enforced.
func PortfolioVolatility(rt *ReturnTable, weights []float64) (float64, error) {
	k := rt.Columns()
	if len(weights) != k {
		return 0, fmt.Errorf("weight vector has %d entries for %d return columns: %w",
			len(weights), k, ErrDimensionMismatch)
	}
	if rt.Rows() < 2 {
		return 0, fmt.Errorf("covariance needs at least 2 return rows, have %d: %w",
			rt.Rows(), ErrInsufficientData)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, rt.Matrix(), nil)

	w := mat.NewVecDense(k, weights)
	variance := mat.Inner(w, &cov, w)

	// The quadratic form over a PSD matrix is non-negative; clamp the tiny
	// negative values floating point can produce.
	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance), nil
}
