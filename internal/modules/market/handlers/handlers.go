// Package handlers provides HTTP handlers for the instrument catalog.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskmetrics/internal/modules/market"
	"github.com/aristath/riskmetrics/pkg/formulas"
)

// lookbackDays limits how much history the per-instrument stats consume.
const lookbackDays = 252

// Handler handles instrument catalog HTTP requests
type Handler struct {
	instrumentRepo *market.InstrumentRepository
	priceRepo      *market.PriceRepository
	log            zerolog.Logger
}

// NewHandler creates a new instrument handler
func NewHandler(
	instrumentRepo *market.InstrumentRepository,
	priceRepo *market.PriceRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		instrumentRepo: instrumentRepo,
		priceRepo:      priceRepo,
		log:            log.With().Str("handler", "instruments").Logger(),
	}
}

// HandleList handles GET /api/instruments
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.instrumentRepo.ListAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list instruments")
		h.writeError(w, http.StatusInternalServerError, "failed to list instruments")
		return
	}
	if instruments == nil {
		instruments = []market.Instrument{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": instruments})
}

// HandleGet handles GET /api/instruments/{ticker}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, ticker string) {
	inst, err := h.instrumentRepo.GetByTicker(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get instrument")
		h.writeError(w, http.StatusInternalServerError, "failed to get instrument")
		return
	}
	if inst == nil {
		h.writeError(w, http.StatusNotFound, "instrument not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": inst})
}

// HandleLookup handles GET /api/instruments/lookup?issuer=...&type=...
// It resolves an issuer (optionally narrowed by instrument type) to tickers.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	issuer := r.URL.Query().Get("issuer")
	if issuer == "" {
		h.writeError(w, http.StatusBadRequest, "issuer query parameter is required")
		return
	}
	instrumentType := r.URL.Query().Get("type")

	tickers, err := h.instrumentRepo.TickersByIssuer(issuer, instrumentType)
	if err != nil {
		h.log.Error().Err(err).Str("issuer", issuer).Msg("Failed to look up tickers")
		h.writeError(w, http.StatusInternalServerError, "failed to look up tickers")
		return
	}
	if tickers == nil {
		tickers = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"issuer":  issuer,
			"type":    instrumentType,
			"tickers": tickers,
		},
	})
}

// HandleVolatility handles GET /api/instruments/{ticker}/volatility
func (h *Handler) HandleVolatility(w http.ResponseWriter, r *http.Request, ticker string) {
	closes, err := h.priceRepo.GetCloses(ticker, lookbackDays)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get closes")
		h.writeError(w, http.StatusInternalServerError, "failed to get price history")
		return
	}
	if len(closes) < 2 {
		h.writeError(w, http.StatusUnprocessableEntity, "not enough price history")
		return
	}

	returns := formulas.DailyReturns(closes)

	data := map[string]interface{}{
		"ticker":                ticker,
		"observations":          len(returns),
		"volatility":            formulas.StdDev(returns),
		"annualized_volatility": formulas.AnnualizedVolatility(returns),
		"mean_return":           formulas.Mean(returns),
	}
	if sma := formulas.SMA(closes, 20); sma != nil {
		data["sma_20"] = *sma
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"period":    "252d",
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{"error": message})
}
