package risk

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskmetrics/internal/modules/market"
)

// ReportJob runs the risk pipeline for every stored portfolio and persists
// the results. Portfolios are processed sequentially; a failure for one is
// logged and does not abort the sweep.
type ReportJob struct {
	portfolios *PortfolioRepository
	reports    *ReportRepository
	service    *Service
	now        func() time.Time
	log        zerolog.Logger
}

// NewReportJob creates a new report job
func NewReportJob(
	portfolios *PortfolioRepository,
	reports *ReportRepository,
	service *Service,
	log zerolog.Logger,
) *ReportJob {
	return &ReportJob{
		portfolios: portfolios,
		reports:    reports,
		service:    service,
		now:        time.Now,
		log:        log.With().Str("job", "risk_report").Logger(),
	}
}

// Name returns the job name for scheduler logging
func (j *ReportJob) Name() string {
	return "risk_report"
}

// Run executes the sweep. It fails only when the portfolio list itself
// cannot be loaded; per-portfolio errors are logged and skipped.
func (j *ReportJob) Run() error {
	portfolios, err := j.portfolios.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load portfolios: %w", err)
	}

	if len(portfolios) == 0 {
		j.log.Debug().Msg("No portfolios configured, nothing to report")
		return nil
	}

	succeeded := 0
	for _, p := range portfolios {
		if err := j.runOne(p); err != nil {
			j.log.Error().Err(err).Str("portfolio", p.Name).Msg("Report failed")
			continue
		}
		succeeded++
	}

	j.log.Info().
		Int("portfolios", len(portfolios)).
		Int("succeeded", succeeded).
		Msg("Risk report sweep finished")

	return nil
}

func (j *ReportJob) runOne(p Portfolio) error {
	end := j.now()
	start := end.AddDate(0, 0, -p.LookbackDays)

	assessment, err := j.service.Assess(AssessmentRequest{
		Tickers:    p.Tickers,
		Start:      start,
		End:        end,
		Weights:    p.Weights,
		Confidence: p.Confidence,
	})
	if err != nil {
		return err
	}

	id, err := j.reports.Create(Report{
		PortfolioName: p.Name,
		Start:         start.Format(market.DateLayout),
		End:           end.Format(market.DateLayout),
		Observations:  assessment.Observations,
		Volatility:    assessment.Volatility,
		ValueAtRisk:   assessment.ValueAtRisk,
		Confidence:    assessment.Confidence,
	})
	if err != nil {
		return err
	}

	j.log.Info().
		Str("portfolio", p.Name).
		Str("report_id", id).
		Float64("volatility", assessment.Volatility).
		Float64("var", assessment.ValueAtRisk).
		Msg("Stored risk report")

	return nil
}
