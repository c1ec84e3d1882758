// Package main is the entry point for the risk metrics service. It serves
// portfolio risk assessments (volatility and parametric VaR) over HTTP and
// runs a scheduled report sweep for stored portfolios.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/riskmetrics/internal/config"
	"github.com/aristath/riskmetrics/internal/database"
	"github.com/aristath/riskmetrics/internal/modules/market"
	markethandlers "github.com/aristath/riskmetrics/internal/modules/market/handlers"
	"github.com/aristath/riskmetrics/internal/modules/risk"
	riskhandlers "github.com/aristath/riskmetrics/internal/modules/risk/handlers"
	"github.com/aristath/riskmetrics/internal/scheduler"
	"github.com/aristath/riskmetrics/internal/server"
	"github.com/aristath/riskmetrics/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("db", cfg.DBPath).Msg("Starting risk metrics service")

	// Market database holds prices, instruments, portfolios and reports
	marketDB, err := database.New(database.Config{
		Path: cfg.DBPath,
		Name: "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	if err := marketDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate market database")
	}

	conn := marketDB.Conn()

	// Repositories
	priceRepo := market.NewPriceRepository(conn, log)
	instrumentRepo := market.NewInstrumentRepository(conn, log)
	portfolioRepo := risk.NewPortfolioRepository(conn, log)
	reportRepo := risk.NewReportRepository(conn, log)

	// Services
	riskService := risk.NewService(priceRepo, log)

	// Scheduled report sweep for stored portfolios
	sched := scheduler.New(log)
	reportJob := risk.NewReportJob(portfolioRepo, reportRepo, riskService, log)
	if err := sched.AddJob(cfg.ReportSchedule, reportJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReportSchedule).Msg("Failed to register report job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:            log,
		MarketDB:       marketDB,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		RiskHandler:    riskhandlers.NewHandler(riskService, portfolioRepo, reportRepo, log),
		MarketHandler:  markethandlers.NewHandler(instrumentRepo, priceRepo, log),
		SystemHandlers: server.NewSystemHandlers(marketDB, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}
