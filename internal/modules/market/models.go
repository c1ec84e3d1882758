// Package market provides access to the market database: daily closing
// prices and the instrument metadata catalog.
package market

import "time"

// DateLayout is the ISO date format used by the daily_prices table.
const DateLayout = "2006-01-02"

// PriceRecord is one daily closing price joined with instrument metadata.
// Metadata fields are empty strings when the ticker has no catalog entry.
type PriceRecord struct {
	Date           time.Time
	Ticker         string
	Issuer         string
	Close          float64
	Sector         string
	Currency       string
	InstrumentType string
}

// Instrument is one row of the instrument metadata catalog.
type Instrument struct {
	Ticker         string `json:"ticker"`
	Issuer         string `json:"issuer"`
	Sector         string `json:"sector"`
	Currency       string `json:"currency"`
	InstrumentType string `json:"instrument_type"`
}
