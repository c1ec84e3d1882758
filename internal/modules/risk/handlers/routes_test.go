package handlers

import (
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/riskmetrics/internal/modules/market"
	"github.com/aristath/riskmetrics/internal/modules/risk"
)

func TestRegisterRoutes(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	db := setupTestDB(t)

	handler := NewHandler(
		risk.NewService(market.NewPriceRepository(db, logger), logger),
		risk.NewPortfolioRepository(db, logger),
		risk.NewReportRepository(db, logger),
		logger,
	)

	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")
}
