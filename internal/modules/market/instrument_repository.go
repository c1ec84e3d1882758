package market

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// InstrumentRepository handles instrument catalog database operations
type InstrumentRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

const instrumentColumns = "ticker, issuer, sector, currency, instrument_type"

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *sql.DB, log zerolog.Logger) *InstrumentRepository {
	return &InstrumentRepository{
		db:  db,
		log: log.With().Str("repo", "instruments").Logger(),
	}
}

// GetByTicker returns an instrument by ticker, or nil when not found
func (r *InstrumentRepository) GetByTicker(ticker string) (*Instrument, error) {
	query := "SELECT " + instrumentColumns + " FROM instruments WHERE ticker = ?"

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument by ticker: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Instrument not found
	}

	inst, err := scanInstrument(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan instrument: %w", err)
	}
	return &inst, nil
}

// TickersByIssuer returns the tickers of all instruments from the given
// issuer, optionally narrowed by instrument type (empty = no type filter).
func (r *InstrumentRepository) TickersByIssuer(issuer, instrumentType string) ([]string, error) {
	query := "SELECT ticker FROM instruments WHERE issuer = ?"
	args := []interface{}{issuer}
	if instrumentType != "" {
		query += " AND instrument_type = ?"
		args = append(args, instrumentType)
	}
	query += " ORDER BY ticker"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers by issuer: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickers: %w", err)
	}

	return tickers, nil
}

// ListAll returns every instrument in the catalog ordered by ticker
func (r *InstrumentRepository) ListAll() ([]Instrument, error) {
	query := "SELECT " + instrumentColumns + " FROM instruments ORDER BY ticker"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instruments: %w", err)
	}

	return instruments, nil
}

// Upsert inserts or replaces an instrument catalog entry
func (r *InstrumentRepository) Upsert(inst Instrument) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO instruments (ticker, issuer, sector, currency, instrument_type)
		VALUES (?, ?, ?, ?, ?)
	`, strings.ToUpper(strings.TrimSpace(inst.Ticker)), inst.Issuer, inst.Sector, inst.Currency, inst.InstrumentType)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument %s: %w", inst.Ticker, err)
	}
	return nil
}

func scanInstrument(rows *sql.Rows) (Instrument, error) {
	var (
		inst                          Instrument
		issuer, sector, currency, typ sql.NullString
	)
	if err := rows.Scan(&inst.Ticker, &issuer, &sector, &currency, &typ); err != nil {
		return Instrument{}, err
	}
	inst.Issuer = issuer.String
	inst.Sector = sector.String
	inst.Currency = currency.String
	inst.InstrumentType = typ.String
	return inst, nil
}
