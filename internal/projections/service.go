package projections

import (
	"context"
	"log/slog"
)

// HistorySource abstracts the persistence the service needs.
type HistorySource interface {
	History(ctx context.Context, companyID int64) ([]Observation, error)
	ReplaceForecast(ctx context.Context, f *Forecast) error
}

// Service produces and stores sales forecasts.
type Service struct {
	repo   HistorySource
	logger *slog.Logger
}

// NewService wires the projections service.
func NewService(repo HistorySource, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Project builds a twelve month forecast from the company's sales history and
// stores it, replacing any previous forecast for the same method.
func (s *Service) Project(ctx context.Context, companyID int64, method Method) (*Forecast, error) {
	history, err := s.repo.History(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	forecast, err := BuildForecast(companyID, method, history)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceForecast(ctx, forecast); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("sales forecast stored",
			slog.Int64("company_id", companyID),
			slog.String("method", string(method)),
			slog.Int("target_year", forecast.TargetYear),
		)
	}
	return forecast, nil
}
