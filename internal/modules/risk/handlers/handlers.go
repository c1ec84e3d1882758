// Package handlers provides HTTP handlers for portfolio risk operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskmetrics/internal/modules/market"
	"github.com/aristath/riskmetrics/internal/modules/risk"
)

// Handler handles portfolio risk HTTP requests
type Handler struct {
	service       *risk.Service
	portfolioRepo *risk.PortfolioRepository
	reportRepo    *risk.ReportRepository
	log           zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(
	service *risk.Service,
	portfolioRepo *risk.PortfolioRepository,
	reportRepo *risk.ReportRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:       service,
		portfolioRepo: portfolioRepo,
		reportRepo:    reportRepo,
		log:           log.With().Str("handler", "risk").Logger(),
	}
}

// assessRequest is the JSON body of POST /api/risk/assess
type assessRequest struct {
	Tickers    []string  `json:"tickers"`
	Start      string    `json:"start"` // YYYY-MM-DD
	End        string    `json:"end"`   // YYYY-MM-DD
	Weights    []float64 `json:"weights,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Horizon    int       `json:"horizon,omitempty"` // periods for scaled VaR, 0 = skip
}

// HandleAssess handles POST /api/risk/assess
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse(market.DateLayout, req.Start)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse(market.DateLayout, req.End)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
		return
	}

	assessment, err := h.service.Assess(risk.AssessmentRequest{
		Tickers:    req.Tickers,
		Start:      start,
		End:        end,
		Weights:    req.Weights,
		Confidence: req.Confidence,
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	data := map[string]interface{}{
		"tickers":       assessment.Returns.Tickers,
		"weights":       assessment.Weights,
		"observations":  assessment.Observations,
		"volatility":    assessment.Volatility,
		"value_at_risk": assessment.ValueAtRisk,
		"confidence":    assessment.Confidence,
		"returns":       returnRows(assessment.Returns),
	}
	if req.Horizon > 0 {
		data["scaled_value_at_risk"] = risk.ScaleVaR(assessment.ValueAtRisk, req.Horizon)
		data["horizon"] = req.Horizon
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListPortfolios handles GET /api/risk/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolioRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		h.writeError(w, http.StatusInternalServerError, "failed to list portfolios")
		return
	}
	if portfolios == nil {
		portfolios = []risk.Portfolio{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": portfolios})
}

// HandleUpsertPortfolio handles POST /api/risk/portfolios
func (h *Handler) HandleUpsertPortfolio(w http.ResponseWriter, r *http.Request) {
	var p risk.Portfolio
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.portfolioRepo.Upsert(p); err != nil {
		if errors.Is(err, risk.ErrDimensionMismatch) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Str("portfolio", p.Name).Msg("Failed to upsert portfolio")
		h.writeError(w, http.StatusInternalServerError, "failed to store portfolio")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": p})
}

// HandleGetPortfolio handles GET /api/risk/portfolios/{name}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.portfolioRepo.GetByName(name)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Failed to get portfolio")
		h.writeError(w, http.StatusInternalServerError, "failed to get portfolio")
		return
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": p})
}

// HandleDeletePortfolio handles DELETE /api/risk/portfolios/{name}
func (h *Handler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.portfolioRepo.Delete(name); err != nil {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Failed to delete portfolio")
		h.writeError(w, http.StatusInternalServerError, "failed to delete portfolio")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetLatestReport handles GET /api/risk/portfolios/{name}/report
func (h *Handler) HandleGetLatestReport(w http.ResponseWriter, r *http.Request, name string) {
	report, err := h.reportRepo.GetLatest(name)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Failed to get latest report")
		h.writeError(w, http.StatusInternalServerError, "failed to get report")
		return
	}
	if report == nil {
		h.writeError(w, http.StatusNotFound, "no report for portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": report})
}

// HandleGetReportHistory handles GET /api/risk/portfolios/{name}/reports
func (h *Handler) HandleGetReportHistory(w http.ResponseWriter, r *http.Request, name string) {
	reports, err := h.reportRepo.GetHistory(name, 0)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Failed to get report history")
		h.writeError(w, http.StatusInternalServerError, "failed to get reports")
		return
	}
	if reports == nil {
		reports = []risk.Report{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": reports})
}

// returnRow is one date of the return table in API responses
type returnRow struct {
	Date    string    `json:"date"`
	Returns []float64 `json:"returns"`
}

func returnRows(table *risk.ReturnTable) []returnRow {
	rows := make([]returnRow, table.Rows())
	for i := range rows {
		rows[i] = returnRow{
			Date:    table.Dates[i].Format(market.DateLayout),
			Returns: table.Row(i),
		}
	}
	return rows
}

// writePipelineError maps pipeline failures to response codes: malformed
// requests are 400, domain and data conditions are 422, everything else
// (store failures) is 500.
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, risk.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, risk.ErrInsufficientData),
		errors.Is(err, risk.ErrDimensionMismatch),
		errors.Is(err, risk.ErrConfidenceOutOfRange):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Assessment failed")
		h.writeError(w, http.StatusInternalServerError, "assessment failed")
	}
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
