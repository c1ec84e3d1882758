package database

import _ "embed"

// marketSchema is the single source of truth for the market database schema.
//
//go:embed schemas/market_schema.sql
var marketSchema string
