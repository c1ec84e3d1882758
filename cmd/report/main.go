// Package main is a one-shot risk report tool. It runs the risk pipeline for
// an ad-hoc ticker list or for every stored portfolio, prints the results,
// and exits. The server (cmd/server) is the long-running counterpart.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aristath/riskmetrics/internal/config"
	"github.com/aristath/riskmetrics/internal/database"
	"github.com/aristath/riskmetrics/internal/modules/market"
	"github.com/aristath/riskmetrics/internal/modules/risk"
	"github.com/aristath/riskmetrics/pkg/logger"
)

func main() {
	tickersFlag := flag.String("tickers", "", "comma-separated tickers for an ad-hoc assessment (default: sweep stored portfolios)")
	startFlag := flag.String("start", "", "start date (YYYY-MM-DD), required with -tickers")
	endFlag := flag.String("end", "", "end date (YYYY-MM-DD), required with -tickers")
	confidenceFlag := flag.Float64("confidence", risk.DefaultConfidence, "left-tail probability for VaR")
	headFlag := flag.Int("head", 5, "number of return rows to print")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

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
	priceRepo := market.NewPriceRepository(conn, log)
	riskService := risk.NewService(priceRepo, log)

	if *tickersFlag != "" {
		if err := runAdHoc(riskService, *tickersFlag, *startFlag, *endFlag, *confidenceFlag, *headFlag); err != nil {
			log.Fatal().Err(err).Msg("Assessment failed")
		}
		return
	}

	portfolioRepo := risk.NewPortfolioRepository(conn, log)
	reportRepo := risk.NewReportRepository(conn, log)
	job := risk.NewReportJob(portfolioRepo, reportRepo, riskService, log)

	if err := job.Run(); err != nil {
		log.Fatal().Err(err).Msg("Report sweep failed")
	}

	printLatestReports(portfolioRepo, reportRepo)
}

func runAdHoc(service *risk.Service, tickersCSV, startStr, endStr string, confidence float64, head int) error {
	if startStr == "" || endStr == "" {
		return fmt.Errorf("-start and -end are required with -tickers")
	}

	start, err := time.Parse(market.DateLayout, startStr)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end, err := time.Parse(market.DateLayout, endStr)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", endStr, err)
	}

	var tickers []string
	for _, t := range strings.Split(tickersCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}

	assessment, err := service.Assess(risk.AssessmentRequest{
		Tickers:    tickers,
		Start:      start,
		End:        end,
		Confidence: confidence,
	})
	if err != nil {
		return err
	}

	printReturnsHead(assessment.Returns, head)
	fmt.Printf("\nObservations:      %d\n", assessment.Observations)
	fmt.Printf("Volatility:        %.6f\n", assessment.Volatility)
	fmt.Printf("Value at risk:     %.6f (confidence %.2f)\n", assessment.ValueAtRisk, assessment.Confidence)
	return nil
}

func printReturnsHead(table *risk.ReturnTable, head int) {
	fmt.Printf("date        %s\n", strings.Join(table.Tickers, "  "))
	for i := 0; i < table.Rows() && i < head; i++ {
		cells := make([]string, table.Columns())
		for j := range cells {
			cells[j] = fmt.Sprintf("%+.6f", table.At(i, j))
		}
		fmt.Printf("%s  %s\n", table.Dates[i].Format(market.DateLayout), strings.Join(cells, "  "))
	}
}

func printLatestReports(portfolios *risk.PortfolioRepository, reports *risk.ReportRepository) {
	stored, err := portfolios.GetAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list portfolios: %v\n", err)
		return
	}
	if len(stored) == 0 {
		fmt.Println("No stored portfolios. Use -tickers for an ad-hoc assessment.")
		return
	}

	for _, p := range stored {
		report, err := reports.GetLatest(p.Name)
		if err != nil || report == nil {
			fmt.Printf("%-20s no report\n", p.Name)
			continue
		}
		fmt.Printf("%-20s obs=%-5d volatility=%.6f var=%.6f (confidence %.2f)\n",
			p.Name, report.Observations, report.Volatility, report.ValueAtRisk, report.Confidence)
	}
}
