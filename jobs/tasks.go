package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRatiosRecalc runs a ratio calculation batch for one company.
	TaskRatiosRecalc = "ratios:recalc"
	// TaskAveragesRefresh recomputes global ratio averages on demand.
	TaskAveragesRefresh = "ratios:averages_refresh"
	// TaskStatementsScan sweeps stored statements for years missing one of the
	// two statement types.
	TaskStatementsScan = "statements:scan"
)

// RatiosRecalcPayload scopes a background calculation batch.
type RatiosRecalcPayload struct {
	CompanyID int64  `json:"company_id"`
	Years     []int  `json:"years"`
	UserID    *int64 `json:"user_id,omitempty"`
}

// NewRatiosRecalcTask constructs the recalculation task.
func NewRatiosRecalcTask(payload RatiosRecalcPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRatiosRecalc, body, asynq.Queue(QueueDefault)), nil
}

// AveragesRefreshPayload selects which ratios to refresh. A nil RatioID means
// every ratio in the catalog.
type AveragesRefreshPayload struct {
	RatioID *int64 `json:"ratio_id,omitempty"`
}

// NewAveragesRefreshTask constructs the averages refresh task.
func NewAveragesRefreshTask(payload AveragesRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAveragesRefresh, body, asynq.Queue(QueueDefault)), nil
}

// NewStatementsScanTask constructs the coverage scan task. It carries no
// payload; the scan always covers every company.
func NewStatementsScanTask() *asynq.Task {
	return asynq.NewTask(TaskStatementsScan, nil, asynq.Queue(QueueDefault))
}
