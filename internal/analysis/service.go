package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/platform/cache"
	"github.com/meridian-fin/meridian/internal/statements"
)

// Service runs the analysis engines over stored statements. Reports are pure
// reads cached under the shared analysis version, which calculation batches
// bump on commit.
type Service struct {
	catalogs  *catalog.Repository
	stmts     *statements.Repository
	validator *statements.Validator
	cache     *cache.Cache
	logger    *slog.Logger
}

// NewService wires the analysis service.
func NewService(catalogs *catalog.Repository, stmts *statements.Repository, validator *statements.Validator, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		catalogs:  catalogs,
		stmts:     stmts,
		validator: validator,
		cache:     c,
		logger:    logger,
	}
}

// Horizontal builds the year-over-year variance report for a company.
func (s *Service) Horizontal(ctx context.Context, companyID int64, years []int, typ statements.StatementType) (*HorizontalReport, error) {
	years = distinctSorted(years)
	if len(years) < 2 {
		return nil, ErrNeedTwoYears
	}
	if err := s.gate(ctx, companyID, years); err != nil {
		return nil, err
	}

	key, err := s.cache.BuildKey(ctx, "analysis", "horizontal", cacheScope(companyID, typ, years))
	if err != nil {
		return nil, err
	}
	var report HorizontalReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildHorizontal(ctx, companyID, years, typ)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) buildHorizontal(ctx context.Context, companyID int64, years []int, typ statements.StatementType) (*HorizontalReport, error) {
	company, err := s.catalogs.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	linesByYear, err := s.stmts.LinesByYear(ctx, companyID, years, typ)
	if err != nil {
		return nil, err
	}
	return BuildHorizontal(company, typ, years, linesByYear)
}

// Vertical builds the common-size report for a company. Unlike the
// horizontal report it does not require both statement types per year, only
// statements of the requested type.
func (s *Service) Vertical(ctx context.Context, companyID int64, years []int, typ statements.StatementType) (*VerticalReport, error) {
	years = distinctSorted(years)
	if len(years) == 0 {
		return nil, ErrNoYears
	}

	key, err := s.cache.BuildKey(ctx, "analysis", "vertical", cacheScope(companyID, typ, years))
	if err != nil {
		return nil, err
	}
	var report VerticalReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildVertical(ctx, companyID, years, typ)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) buildVertical(ctx context.Context, companyID int64, years []int, typ statements.StatementType) (*VerticalReport, error) {
	company, err := s.catalogs.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	linesByYear, err := s.stmts.LinesByYear(ctx, companyID, years, typ)
	if err != nil {
		return nil, err
	}
	var revenue []catalog.Account
	if typ == statements.TypeIncomeStatement {
		revenue, err = s.catalogs.RevenueAccounts(ctx, companyID)
		if err != nil {
			return nil, err
		}
	}
	return BuildVertical(company, typ, years, linesByYear, revenue)
}

// Validate exposes the completeness check on its own, for the pre-flight
// endpoint the analysis screens call before offering year selections.
func (s *Service) Validate(ctx context.Context, companyID int64, years []int) (statements.ValidationResult, error) {
	return s.validator.Validate(ctx, companyID, distinctSorted(years))
}

func (s *Service) gate(ctx context.Context, companyID int64, years []int) error {
	check, err := s.validator.Validate(ctx, companyID, years)
	if err != nil {
		return err
	}
	if !check.Valid {
		return &IncompleteStatementsError{Result: check}
	}
	return nil
}

func cacheScope(companyID int64, typ statements.StatementType, years []int) string {
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, strconv.Itoa(y))
	}
	return fmt.Sprintf("%d:%s:%s", companyID, typ, strings.Join(parts, ","))
}
