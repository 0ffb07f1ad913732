package ratios

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/platform/cache"
	"github.com/meridian-fin/meridian/internal/statements"
)

// ErrNoYears indicates an empty year list.
var ErrNoYears = errors.New("ratios: at least one year is required")

// IncompleteStatementsError carries the validator outcome when the
// completeness gate blocks a batch.
type IncompleteStatementsError struct {
	Result statements.ValidationResult
}

func (e *IncompleteStatementsError) Error() string {
	return e.Result.Message
}

// CalculateRequest scopes one calculation batch.
type CalculateRequest struct {
	CompanyID int64
	Years     []int
	UserID    *int64
}

// Service orchestrates calculation batches: completeness gate, transactional
// engine run, cache invalidation.
type Service struct {
	repo      *Repository
	validator *statements.Validator
	cache     *cache.Cache
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the ratios service.
func NewService(repo *Repository, validator *statements.Validator, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		cache:     c,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock for deterministic tests.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Calculate runs one batch for a company over the requested years. The whole
// delete-recompute-persist-refresh sequence commits atomically or not at all.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (BatchResult, error) {
	if len(req.Years) == 0 {
		return BatchResult{}, ErrNoYears
	}

	check, err := s.validator.Validate(ctx, req.CompanyID, req.Years)
	if err != nil {
		return BatchResult{}, err
	}
	if !check.Valid {
		return BatchResult{}, &IncompleteStatementsError{Result: check}
	}

	batchID := uuid.New()
	var result BatchResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxStores) error {
		engine := NewEngine(tx.Catalogs, tx.Amounts, tx.Results)
		engine.WithNow(s.now)
		var runErr error
		result, runErr = engine.Run(ctx, req.CompanyID, req.Years, req.UserID, batchID)
		return runErr
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("ratios: calculation batch: %w", err)
	}

	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump analysis cache", slog.Any("error", err))
	}
	if s.logger != nil {
		s.logger.Info("calculation batch complete",
			slog.String("batch_id", batchID.String()),
			slog.Int64("company_id", req.CompanyID),
			slog.Int("ratios", len(result.Ratios)),
		)
	}
	return result, nil
}

// Results returns the persisted snapshot for a company, optionally filtered
// by years.
func (s *Service) Results(ctx context.Context, companyID int64, years []int) ([]Result, error) {
	return s.repo.Results(ctx, companyID, years)
}

// RecomputeAverages refreshes the global average of one ratio, or of every
// ratio when ratioID is nil. Runs in its own transaction.
func (s *Service) RecomputeAverages(ctx context.Context, ratioID *int64) ([]AverageUpdate, error) {
	var updates []AverageUpdate
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxStores) error {
		var defs []catalog.RatioDefinition
		if ratioID != nil {
			def, err := tx.Catalogs.Definition(ctx, *ratioID)
			if err != nil {
				return err
			}
			defs = []catalog.RatioDefinition{def}
		} else {
			var err error
			defs, err = tx.Catalogs.Definitions(ctx)
			if err != nil {
				return err
			}
		}
		var err error
		updates, err = NewAverageUpdater(tx.Results).RefreshAll(ctx, defs)
		return err
	})
	if err != nil {
		return nil, err
	}
	if updates == nil {
		updates = []AverageUpdate{}
	}
	return updates, nil
}
