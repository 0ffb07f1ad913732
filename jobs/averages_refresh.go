package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/internal/ratios"
)

// AverageRecomputer is the averages contract the job depends on.
type AverageRecomputer interface {
	RecomputeAverages(ctx context.Context, ratioID *int64) ([]ratios.AverageUpdate, error)
}

// AveragesRefreshJob recomputes global ratio averages, either on demand or on
// the nightly cron schedule.
type AveragesRefreshJob struct {
	Service AverageRecomputer
	Logger  *slog.Logger
}

// NewAveragesRefreshJob constructs the job handler.
func NewAveragesRefreshJob(service AverageRecomputer, logger *slog.Logger) *AveragesRefreshJob {
	return &AveragesRefreshJob{Service: service, Logger: logger}
}

// Handle executes one averages refresh task.
func (j *AveragesRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("averages refresh: dependencies not configured")
	}
	var payload AveragesRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	updates, err := j.Service.RecomputeAverages(ctx, payload.RatioID)
	if err != nil {
		return err
	}
	j.Logger.Info("global averages refreshed", slog.Int("updated", len(updates)))
	return nil
}
