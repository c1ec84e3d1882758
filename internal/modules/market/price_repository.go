package market

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PriceRepository handles daily price queries against the market database.
// The connection is supplied by the caller; the repository holds no state
// beyond it and is safe to create per pipeline.
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// GetRange returns all price records for the given tickers whose date falls
// in [start, end], left-joined with instrument metadata. Row order is not
// guaranteed. An empty result set is not an error; an empty ticker list is.
func (r *PriceRepository) GetRange(start, end time.Time, tickers []string) ([]PriceRecord, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("ticker list must not be empty")
	}

	// Placeholder expansion keeps a single-element list a valid IN predicate.
	placeholders := strings.Repeat("?,", len(tickers))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT p.date, p.ticker, i.issuer, p.close, i.sector, i.currency, i.instrument_type
		FROM daily_prices p
		LEFT JOIN instruments i ON p.ticker = i.ticker
		WHERE p.date >= ? AND p.date <= ?
		AND p.ticker IN (%s)
	`, placeholders)

	args := make([]interface{}, 0, len(tickers)+2)
	args = append(args, start.Format(DateLayout), end.Format(DateLayout))
	for _, ticker := range tickers {
		args = append(args, strings.ToUpper(strings.TrimSpace(ticker)))
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var records []PriceRecord
	for rows.Next() {
		var (
			dateStr                       string
			ticker                        string
			closePrice                    float64
			issuer, sector, currency, typ sql.NullString
		)
		if err := rows.Scan(&dateStr, &ticker, &issuer, &closePrice, &sector, &currency, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}

		date, err := time.Parse(DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price date %q: %w", dateStr, err)
		}

		records = append(records, PriceRecord{
			Date:           date,
			Ticker:         ticker,
			Issuer:         issuer.String,
			Close:          closePrice,
			Sector:         sector.String,
			Currency:       currency.String,
			InstrumentType: typ.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price records: %w", err)
	}

	r.log.Debug().
		Int("records", len(records)).
		Int("tickers", len(tickers)).
		Str("start", start.Format(DateLayout)).
		Str("end", end.Format(DateLayout)).
		Msg("Fetched price range")

	return records, nil
}

// GetCloses returns the closing prices for one ticker in ascending date
// order, limited to the most recent `limit` rows (0 = no limit).
func (r *PriceRepository) GetCloses(ticker string, limit int) ([]float64, error) {
	query := `
		SELECT close FROM daily_prices
		WHERE ticker = ?
		ORDER BY date DESC
	`
	args := []interface{}{strings.ToUpper(strings.TrimSpace(ticker))}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", ticker, err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate closes: %w", err)
	}

	// Query returns newest first; flip to ascending for return calculations.
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	return closes, nil
}

// InsertPrice adds one daily price row. Used by data loaders and tests.
func (r *PriceRepository) InsertPrice(date time.Time, ticker string, close float64) error {
	_, err := r.db.Exec(
		"INSERT INTO daily_prices (date, ticker, close) VALUES (?, ?, ?)",
		date.Format(DateLayout), strings.ToUpper(strings.TrimSpace(ticker)), close,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price for %s: %w", ticker, err)
	}
	return nil
}
