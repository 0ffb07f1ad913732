package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/internal/statements"
)

// CoverageScanner is the statements query the scan job depends on.
type CoverageScanner interface {
	CoverageGaps(ctx context.Context) ([]statements.CoverageGap, error)
}

// StatementsScanJob sweeps stored statements and reports (company, year) pairs
// that carry only one of the two statement types. Such years silently block
// ratio batches and horizontal analysis, so operations wants them surfaced
// before users hit the validator.
type StatementsScanJob struct {
	Store  CoverageScanner
	Logger *slog.Logger
}

// NewStatementsScanJob constructs the job handler.
func NewStatementsScanJob(store CoverageScanner, logger *slog.Logger) *StatementsScanJob {
	return &StatementsScanJob{Store: store, Logger: logger}
}

// Handle executes one coverage scan.
func (j *StatementsScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("statements scan: dependencies not configured")
	}
	gaps, err := j.Store.CoverageGaps(ctx)
	if err != nil {
		return err
	}
	for _, g := range gaps {
		j.Logger.Warn("incomplete statement pair",
			slog.Int64("company_id", g.CompanyID),
			slog.Int("year", g.Year),
			slog.Bool("has_balance_sheet", g.HasBalanceSheet),
			slog.Bool("has_income_statement", g.HasIncomeStatement))
	}
	j.Logger.Info("statement coverage scan complete", slog.Int("gaps", len(gaps)))
	return nil
}
