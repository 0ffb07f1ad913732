package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/ratios"
	"github.com/meridian-fin/meridian/internal/statements"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCalculator struct {
	lastReq ratios.CalculateRequest
	err     error
}

func (s *stubCalculator) Calculate(_ context.Context, req ratios.CalculateRequest) (ratios.BatchResult, error) {
	s.lastReq = req
	return ratios.BatchResult{}, s.err
}

func TestRecalcSkipsRetryOnBadPayload(t *testing.T) {
	job := NewRatiosRecalcJob(&stubCalculator{}, discardLogger())

	err := job.Handle(context.Background(), asynq.NewTask(TaskRatiosRecalc, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskRatiosRecalc, []byte(`{"company_id":0,"years":[]}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRecalcSkipsRetryOnIncompleteStatements(t *testing.T) {
	calc := &stubCalculator{err: &ratios.IncompleteStatementsError{
		Result: statements.ValidationResult{Message: "Year 2023: missing Income Statement"},
	}}
	job := NewRatiosRecalcJob(calc, discardLogger())

	task, err := NewRatiosRecalcTask(RatiosRecalcPayload{CompanyID: 4, Years: []int{2023}})
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	assert.Equal(t, int64(4), calc.lastReq.CompanyID)
}

func TestRecalcPropagatesTransientErrors(t *testing.T) {
	wantErr := errors.New("db down")
	job := NewRatiosRecalcJob(&stubCalculator{err: wantErr}, discardLogger())

	task, err := NewRatiosRecalcTask(RatiosRecalcPayload{CompanyID: 4, Years: []int{2023}})
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), wantErr)
}

type stubScanner struct {
	gaps []statements.CoverageGap
	err  error
}

func (s *stubScanner) CoverageGaps(context.Context) ([]statements.CoverageGap, error) {
	return s.gaps, s.err
}

func TestStatementsScanReportsGaps(t *testing.T) {
	scanner := &stubScanner{gaps: []statements.CoverageGap{
		{CompanyID: 1, Year: 2023, HasBalanceSheet: true},
	}}
	job := NewStatementsScanJob(scanner, discardLogger())
	require.NoError(t, job.Handle(context.Background(), NewStatementsScanTask()))
}

func TestStatementsScanPropagatesStoreErrors(t *testing.T) {
	wantErr := errors.New("query failed")
	job := NewStatementsScanJob(&stubScanner{err: wantErr}, discardLogger())
	assert.ErrorIs(t, job.Handle(context.Background(), NewStatementsScanTask()), wantErr)
}
