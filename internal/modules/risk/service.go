package risk

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskmetrics/internal/modules/market"
)

// DefaultConfidence is the left-tail probability used when a request does
// not specify one (the 5th percentile).
const DefaultConfidence = 0.05

// PriceSource supplies price records for the pipeline. Satisfied by
// market.PriceRepository; defined here to keep the service testable.
type PriceSource interface {
	GetRange(start, end time.Time, tickers []string) ([]market.PriceRecord, error)
}

// AssessmentRequest describes one portfolio risk computation.
type AssessmentRequest struct {
	Tickers    []string
	Start      time.Time
	End        time.Time
	Weights    []float64 // nil = equal weights across Tickers
	Confidence float64   // 0 = DefaultConfidence
}

// Assessment is the result of one pipeline run.
type Assessment struct {
	Returns      *ReturnTable
	Weights      []float64 // in Returns.Tickers column order
	Volatility   float64
	ValueAtRisk  float64
	Confidence   float64
	Observations int
}

// Service runs the risk pipeline: price retrieval, return series,
// covariance-based volatility, and parametric VaR. Each call is independent;
// the service holds no state between invocations beyond its dependencies.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a new risk service
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "risk").Logger(),
	}
}

// Assess runs the full pipeline for one portfolio. All failures propagate;
// nothing is retried or defaulted.
func (s *Service) Assess(req AssessmentRequest) (*Assessment, error) {
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("assessment requires at least one ticker: %w", ErrInvalidRequest)
	}
	if req.End.Before(req.Start) {
		return nil, fmt.Errorf("end date %s is before start date %s: %w",
			req.End.Format(market.DateLayout), req.Start.Format(market.DateLayout), ErrInvalidRequest)
	}

	confidence := req.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}

	weights := req.Weights
	if weights == nil {
		weights = EqualWeights(len(req.Tickers))
	} else if len(weights) != len(req.Tickers) {
		// Surface the mismatch before touching the store.
		return nil, fmt.Errorf("got %d weights for %d tickers: %w",
			len(weights), len(req.Tickers), ErrDimensionMismatch)
	}

	records, err := s.prices.GetRange(req.Start, req.End, req.Tickers)
	if err != nil {
		return nil, fmt.Errorf("price retrieval failed: %w", err)
	}

	table, err := BuildReturnTable(records)
	if err != nil {
		return nil, err
	}

	if table.Columns() != len(req.Tickers) {
		return nil, fmt.Errorf("returns cover %d of %d requested tickers: %w",
			table.Columns(), len(req.Tickers), ErrInsufficientData)
	}

	// The table sorts its columns alphabetically; the request declares
	// weights positionally against req.Tickers. Rebind each weight to its
	// ticker's column before the quadratic form.
	weights, err = alignWeights(table.Tickers, req.Tickers, weights)
	if err != nil {
		return nil, err
	}

	volatility, err := PortfolioVolatility(table, weights)
	if err != nil {
		return nil, err
	}

	valueAtRisk, err := ValueAtRisk(volatility, confidence)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("tickers", strings.Join(req.Tickers, ",")).
		Int("observations", table.Rows()).
		Float64("volatility", volatility).
		Float64("var", valueAtRisk).
		Float64("confidence", confidence).
		Msg("Assessment complete")

	return &Assessment{
		Returns:      table,
		Weights:      weights,
		Volatility:   volatility,
		ValueAtRisk:  valueAtRisk,
		Confidence:   confidence,
		Observations: table.Rows(),
	}, nil
}

// alignWeights reorders a request-ordered weight vector to the column order
// of the return table. Tickers match after the same normalization the price
// store applies (trimmed, upper-case). A column with no corresponding request
// ticker is a dimension mismatch.
func alignWeights(columns, tickers []string, weights []float64) ([]float64, error) {
	byTicker := make(map[string]float64, len(tickers))
	for i, ticker := range tickers {
		byTicker[strings.ToUpper(strings.TrimSpace(ticker))] = weights[i]
	}

	aligned := make([]float64, len(columns))
	for j, column := range columns {
		weight, ok := byTicker[strings.ToUpper(strings.TrimSpace(column))]
		if !ok {
			return nil, fmt.Errorf("no weight for return column %s: %w", column, ErrDimensionMismatch)
		}
		aligned[j] = weight
	}
	return aligned, nil
}

// EqualWeights returns a weight vector of n entries each worth 1/n.
func EqualWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return weights
}
