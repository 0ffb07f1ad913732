package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/internal/ratios"
)

// RatioCalculator is the calculation contract the job depends on.
type RatioCalculator interface {
	Calculate(ctx context.Context, req ratios.CalculateRequest) (ratios.BatchResult, error)
}

// RatiosRecalcJob runs calculation batches enqueued from the admin screens or
// triggered after statement imports.
type RatiosRecalcJob struct {
	Service RatioCalculator
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewRatiosRecalcJob constructs the job handler.
func NewRatiosRecalcJob(service RatioCalculator, logger *slog.Logger) *RatiosRecalcJob {
	return &RatiosRecalcJob{
		Service: service,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes one recalculation task.
func (j *RatiosRecalcJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("ratios recalc: dependencies not configured")
	}
	var payload RatiosRecalcPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CompanyID <= 0 || len(payload.Years) == 0 {
		return asynq.SkipRetry
	}

	started := j.clock()
	result, err := j.Service.Calculate(ctx, ratios.CalculateRequest{
		CompanyID: payload.CompanyID,
		Years:     payload.Years,
		UserID:    payload.UserID,
	})
	if err != nil {
		var incomplete *ratios.IncompleteStatementsError
		if errors.As(err, &incomplete) {
			// Missing statements will not appear by retrying.
			j.Logger.Warn("recalc blocked by incomplete statements",
				slog.Int64("company_id", payload.CompanyID),
				slog.String("detail", incomplete.Result.Message),
			)
			return asynq.SkipRetry
		}
		return err
	}

	j.Logger.Info("background recalc complete",
		slog.Int64("company_id", payload.CompanyID),
		slog.String("batch_id", result.BatchID.String()),
		slog.Int("ratios", len(result.Ratios)),
		slog.Duration("took", j.clock().Sub(started)),
	)
	return nil
}
