package risk

import "errors"

// Sentinel errors for the failure taxonomy of the risk pipeline. Callers
// match them with errors.Is; the HTTP layer maps them to response codes.
var (
	// ErrInsufficientData signals that there are not enough observations to
	// compute the requested metric (empty price set, or fewer than two
	// complete return rows for a covariance estimate).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDimensionMismatch signals that the weight vector length does not
	// match the number of return columns.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrConfidenceOutOfRange signals a confidence level outside the open
	// interval (0, 1), where the normal quantile is undefined.
	ErrConfidenceOutOfRange = errors.New("confidence level out of range")

	// ErrInvalidRequest signals a malformed assessment request (no tickers,
	// inverted date range) rejected before the pipeline runs.
	ErrInvalidRequest = errors.New("invalid request")
)
