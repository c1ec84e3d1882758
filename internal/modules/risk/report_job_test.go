package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskmetrics/internal/modules/market"
)

// knownTickersSource serves a deterministic price history for known tickers
// and an empty result for anything else.
type knownTickersSource struct {
	known map[string]bool
}

func (s knownTickersSource) GetRange(start, end time.Time, tickers []string) ([]market.PriceRecord, error) {
	var records []market.PriceRecord
	for _, ticker := range tickers {
		if !s.known[ticker] {
			continue
		}
		price := 100.0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			// Alternate small up and down moves for nonzero volatility
			if d.Day()%2 == 0 {
				price *= 1.004
			} else {
				price *= 0.997
			}
			records = append(records, market.PriceRecord{Date: d, Ticker: ticker, Close: price})
		}
	}
	return records, nil
}

func TestReportJob_StoresReportPerPortfolio(t *testing.T) {
	db := setupStoreDB(t)
	portfolioRepo := NewPortfolioRepository(db, testLogger())
	reportRepo := NewReportRepository(db, testLogger())

	require.NoError(t, portfolioRepo.Upsert(Portfolio{
		Name:         "treasuries",
		Tickers:      []string{"IEF", "TLT"},
		Confidence:   0.05,
		LookbackDays: 60,
	}))
	require.NoError(t, portfolioRepo.Upsert(Portfolio{
		Name:         "broken",
		Tickers:      []string{"GONE"},
		LookbackDays: 60,
	}))

	source := knownTickersSource{known: map[string]bool{"IEF": true, "TLT": true}}
	job := NewReportJob(portfolioRepo, reportRepo, NewService(source, testLogger()), testLogger())

	now := day(t, "2024-03-01")
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run())

	// The healthy portfolio got a report
	latest, err := reportRepo.GetLatest("treasuries")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-01-01", latest.Start)
	assert.Equal(t, "2024-03-01", latest.End)
	assert.GreaterOrEqual(t, latest.Volatility, 0.0)
	assert.Less(t, latest.ValueAtRisk, 0.0)
	assert.Equal(t, 0.05, latest.Confidence)

	// The broken one failed without aborting the sweep
	missing, err := reportRepo.GetLatest("broken")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReportJob_NoPortfolios(t *testing.T) {
	db := setupStoreDB(t)
	job := NewReportJob(
		NewPortfolioRepository(db, testLogger()),
		NewReportRepository(db, testLogger()),
		NewService(&stubPriceSource{}, testLogger()),
		testLogger(),
	)

	assert.NoError(t, job.Run())
}

func TestReportJob_Name(t *testing.T) {
	job := NewReportJob(nil, nil, nil, testLogger())
	assert.Equal(t, "risk_report", job.Name())
}
