package risk

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Report is one stored result of the scheduled risk sweep.
type Report struct {
	ID            string    `json:"id"`
	PortfolioName string    `json:"portfolio_name"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	Observations  int       `json:"observations"`
	Volatility    float64   `json:"volatility"`
	ValueAtRisk   float64   `json:"value_at_risk"`
	Confidence    float64   `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReportRepository handles risk report database operations
type ReportRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, log zerolog.Logger) *ReportRepository {
	return &ReportRepository{
		db:  db,
		log: log.With().Str("repo", "reports").Logger(),
	}
}

// Create stores a new report and returns its generated id
func (r *ReportRepository) Create(report Report) (string, error) {
	id := uuid.New().String()

	_, err := r.db.Exec(`
		INSERT INTO risk_reports
			(id, portfolio_name, start_date, end_date, observations, volatility, value_at_risk, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, report.PortfolioName, report.Start, report.End,
		report.Observations, report.Volatility, report.ValueAtRisk, report.Confidence)
	if err != nil {
		return "", fmt.Errorf("failed to insert risk report for %s: %w", report.PortfolioName, err)
	}

	return id, nil
}

// GetLatest returns the most recent report for a portfolio, or nil when none
// exists. created_at has second resolution, so insertion order (rowid) breaks
// ties between reports created within the same second.
func (r *ReportRepository) GetLatest(portfolioName string) (*Report, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_name, start_date, end_date, observations,
		       volatility, value_at_risk, confidence, created_at
		FROM risk_reports
		WHERE portfolio_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, portfolioName)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest report: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // No report yet
	}

	report, err := scanReport(rows)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetHistory returns up to limit reports for a portfolio, newest first
func (r *ReportRepository) GetHistory(portfolioName string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.db.Query(`
		SELECT id, portfolio_name, start_date, end_date, observations,
		       volatility, value_at_risk, confidence, created_at
		FROM risk_reports
		WHERE portfolio_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, portfolioName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report history: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

func scanReport(rows *sql.Rows) (Report, error) {
	var (
		report    Report
		createdAt string
	)
	if err := rows.Scan(
		&report.ID, &report.PortfolioName, &report.Start, &report.End,
		&report.Observations, &report.Volatility, &report.ValueAtRisk,
		&report.Confidence, &createdAt,
	); err != nil {
		return Report{}, fmt.Errorf("failed to scan report: %w", err)
	}

	// sqlite datetime('now') format
	parsed, err := time.Parse("2006-01-02 15:04:05", createdAt)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse report timestamp %q: %w", createdAt, err)
	}
	report.CreatedAt = parsed

	return report, nil
}
