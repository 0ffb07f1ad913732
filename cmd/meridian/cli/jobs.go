package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	return &JobsCLI{client: client, inspector: inspector}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerRecalc enqueues a recalculation batch for one company. Years is a
// comma separated list, e.g. "2022,2023".
func (c *JobsCLI) TriggerRecalc(ctx context.Context, companyID int64, years string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	parsed, err := parseYears(years)
	if err != nil {
		return nil, err
	}
	task, err := jobs.NewRatiosRecalcTask(jobs.RatiosRecalcPayload{CompanyID: companyID, Years: parsed})
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// TriggerAveragesRefresh enqueues a global averages refresh. ratioID zero
// means every ratio.
func (c *JobsCLI) TriggerAveragesRefresh(ctx context.Context, ratioID int64) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	payload := jobs.AveragesRefreshPayload{}
	if ratioID > 0 {
		payload.RatioID = &ratioID
	}
	task, err := jobs.NewAveragesRefreshTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// QueueStats reports the pending and active counts of the default queue.
func (c *JobsCLI) QueueStats(ctx context.Context) (string, error) {
	if c == nil || c.inspector == nil {
		return "", errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("queue=%s pending=%d active=%d", info.Queue, info.Pending, info.Active), nil
}

func parseYears(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		y, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("jobs cli: invalid year %q", p)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, errors.New("jobs cli: at least one year is required")
	}
	return years, nil
}
