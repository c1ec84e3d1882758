package risk

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupStoreDB creates an in-memory SQLite database with the tables the risk
// repositories use.
func setupStoreDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE portfolios (
			name          TEXT PRIMARY KEY,
			tickers       TEXT NOT NULL,
			weights       TEXT,
			confidence    REAL NOT NULL DEFAULT 0.05,
			lookback_days INTEGER NOT NULL DEFAULT 730,
			created_at    TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE risk_reports (
			id             TEXT PRIMARY KEY,
			portfolio_name TEXT NOT NULL,
			start_date     TEXT NOT NULL,
			end_date       TEXT NOT NULL,
			observations   INTEGER NOT NULL,
			volatility     REAL NOT NULL,
			value_at_risk  REAL NOT NULL,
			confidence     REAL NOT NULL,
			created_at     TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	require.NoError(t, err)

	return db
}

func TestPortfolioRepository_UpsertAndGet(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewPortfolioRepository(db, testLogger())

	p := Portfolio{
		Name:       "treasuries",
		Tickers:    []string{"IEF", "SPTL", "TLT", "VGLT"},
		Weights:    []float64{0.25, 0.25, 0.25, 0.25},
		Confidence: 0.05,
	}
	require.NoError(t, repo.Upsert(p))

	got, err := repo.GetByName("treasuries")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Tickers, got.Tickers)
	assert.Equal(t, p.Weights, got.Weights)
	assert.Equal(t, 0.05, got.Confidence)
	assert.Equal(t, 730, got.LookbackDays)
}

func TestPortfolioRepository_NilWeightsSurviveRoundTrip(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewPortfolioRepository(db, testLogger())

	require.NoError(t, repo.Upsert(Portfolio{Name: "eq", Tickers: []string{"IEF", "TLT"}}))

	got, err := repo.GetByName("eq")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Weights)
}

func TestPortfolioRepository_UpsertReplaces(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewPortfolioRepository(db, testLogger())

	require.NoError(t, repo.Upsert(Portfolio{Name: "p", Tickers: []string{"IEF"}}))
	require.NoError(t, repo.Upsert(Portfolio{Name: "p", Tickers: []string{"IEF", "TLT"}, Confidence: 0.01}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"IEF", "TLT"}, all[0].Tickers)
	assert.Equal(t, 0.01, all[0].Confidence)
}

func TestPortfolioRepository_UpsertValidation(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewPortfolioRepository(db, testLogger())

	require.Error(t, repo.Upsert(Portfolio{Tickers: []string{"IEF"}}))
	require.Error(t, repo.Upsert(Portfolio{Name: "p"}))

	err := repo.Upsert(Portfolio{Name: "p", Tickers: []string{"IEF", "TLT"}, Weights: []float64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPortfolioRepository_GetByName_NotFound(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewPortfolioRepository(db, testLogger())

	got, err := repo.GetByName("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPortfolioRepository_Delete(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewPortfolioRepository(db, testLogger())

	require.NoError(t, repo.Upsert(Portfolio{Name: "p", Tickers: []string{"IEF"}}))
	require.NoError(t, repo.Delete("p"))

	got, err := repo.GetByName("p")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportRepository_CreateAndGetLatest(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewReportRepository(db, testLogger())

	first, err := repo.Create(Report{
		PortfolioName: "treasuries",
		Start:         "2023-01-01",
		End:           "2024-12-31",
		Observations:  520,
		Volatility:    0.0042,
		ValueAtRisk:   -0.0069,
		Confidence:    0.05,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := repo.Create(Report{
		PortfolioName: "treasuries",
		Start:         "2023-01-02",
		End:           "2025-01-01",
		Observations:  520,
		Volatility:    0.0043,
		ValueAtRisk:   -0.0071,
		Confidence:    0.05,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// Both inserts land within the same created_at second; insertion order
	// must still win.
	latest, err := repo.GetLatest("treasuries")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.ID)
	assert.Equal(t, "2025-01-01", latest.End)
	assert.False(t, latest.CreatedAt.IsZero())
}

func TestReportRepository_HistoryNewestFirstWithinSameSecond(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewReportRepository(db, testLogger())

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := repo.Create(Report{
			PortfolioName: "p",
			Start:         "2023-01-01",
			End:           "2024-12-31",
			Observations:  i,
			Volatility:    0.004,
			ValueAtRisk:   -0.006,
			Confidence:    0.05,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	history, err := repo.GetHistory("p", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, ids[1], history[1].ID)
	assert.Equal(t, ids[0], history[2].ID)
}

func TestReportRepository_GetLatest_NoReports(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewReportRepository(db, testLogger())

	latest, err := repo.GetLatest("nothing")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestReportRepository_GetHistory(t *testing.T) {
	db := setupStoreDB(t)
	repo := NewReportRepository(db, testLogger())

	for i := 0; i < 5; i++ {
		_, err := repo.Create(Report{
			PortfolioName: "p",
			Start:         "2023-01-01",
			End:           "2024-12-31",
			Observations:  100 + i,
			Volatility:    0.004,
			ValueAtRisk:   -0.006,
			Confidence:    0.05,
		})
		require.NoError(t, err)
	}

	history, err := repo.GetHistory("p", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	all, err := repo.GetHistory("p", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
