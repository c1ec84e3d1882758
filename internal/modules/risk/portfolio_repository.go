package risk

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Portfolio is a stored portfolio definition for the scheduled report sweep.
type Portfolio struct {
	Name         string    `json:"name"`
	Tickers      []string  `json:"tickers"`
	Weights      []float64 `json:"weights,omitempty"` // nil = equal weights
	Confidence   float64   `json:"confidence"`
	LookbackDays int       `json:"lookback_days"`
}

// PortfolioRepository handles portfolio definition database operations
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolios").Logger(),
	}
}

// GetAll returns every stored portfolio ordered by name
func (r *PortfolioRepository) GetAll() ([]Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT name, tickers, weights, confidence, lookback_days
		FROM portfolios ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolios: %w", err)
	}

	return portfolios, nil
}

// GetByName returns a portfolio by name, or nil when not found
func (r *PortfolioRepository) GetByName(name string) (*Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT name, tickers, weights, confidence, lookback_days
		FROM portfolios WHERE name = ?
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio by name: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Portfolio not found
	}

	p, err := scanPortfolio(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts or replaces a portfolio definition. Tickers and weights are
// stored as JSON arrays.
func (r *PortfolioRepository) Upsert(p Portfolio) error {
	if p.Name == "" {
		return fmt.Errorf("portfolio name must not be empty")
	}
	if len(p.Tickers) == 0 {
		return fmt.Errorf("portfolio %s has no tickers", p.Name)
	}
	if p.Weights != nil && len(p.Weights) != len(p.Tickers) {
		return fmt.Errorf("portfolio %s has %d weights for %d tickers: %w",
			p.Name, len(p.Weights), len(p.Tickers), ErrDimensionMismatch)
	}

	tickersJSON, err := json.Marshal(p.Tickers)
	if err != nil {
		return fmt.Errorf("failed to marshal tickers for %s: %w", p.Name, err)
	}

	var weightsJSON interface{}
	if p.Weights != nil {
		b, err := json.Marshal(p.Weights)
		if err != nil {
			return fmt.Errorf("failed to marshal weights for %s: %w", p.Name, err)
		}
		weightsJSON = string(b)
	}

	confidence := p.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	lookback := p.LookbackDays
	if lookback <= 0 {
		lookback = 730 // two calendar years
	}

	_, err = r.db.Exec(`
		INSERT INTO portfolios (name, tickers, weights, confidence, lookback_days, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			tickers = excluded.tickers,
			weights = excluded.weights,
			confidence = excluded.confidence,
			lookback_days = excluded.lookback_days,
			updated_at = datetime('now')
	`, p.Name, string(tickersJSON), weightsJSON, confidence, lookback)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio %s: %w", p.Name, err)
	}

	return nil
}

// Delete removes a portfolio definition and its reports
func (r *PortfolioRepository) Delete(name string) error {
	if _, err := r.db.Exec("DELETE FROM portfolios WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", name, err)
	}
	return nil
}

func scanPortfolio(rows *sql.Rows) (Portfolio, error) {
	var (
		p           Portfolio
		tickersJSON string
		weightsJSON sql.NullString
	)
	if err := rows.Scan(&p.Name, &tickersJSON, &weightsJSON, &p.Confidence, &p.LookbackDays); err != nil {
		return Portfolio{}, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	if err := json.Unmarshal([]byte(tickersJSON), &p.Tickers); err != nil {
		return Portfolio{}, fmt.Errorf("failed to unmarshal tickers for %s: %w", p.Name, err)
	}
	if weightsJSON.Valid {
		if err := json.Unmarshal([]byte(weightsJSON.String), &p.Weights); err != nil {
			return Portfolio{}, fmt.Errorf("failed to unmarshal weights for %s: %w", p.Name, err)
		}
	}

	return p, nil
}
