package ratios

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-fin/meridian/internal/catalog"
)

// CatalogSource is the read surface of the ratio catalog and account mappings
// the engine depends on.
type CatalogSource interface {
	Company(ctx context.Context, companyID int64) (catalog.Company, error)
	CatalogID(ctx context.Context, companyID int64) (int64, error)
	Definitions(ctx context.Context) ([]catalog.RatioDefinition, error)
	BoundAccountID(ctx context.Context, catalogID, componentID int64) (*int64, error)
	SectorReference(ctx context.Context, ratioID int64, sectorID *int64) (*catalog.SectorReference, error)
}

// AmountSource resolves a ledger account's amount for a company and year,
// balance sheet before income statement.
type AmountSource interface {
	Amount(ctx context.Context, accountID, companyID int64, year int) (*float64, error)
}

// ResultStore persists calculated values and the global averages derived from
// them.
type ResultStore interface {
	DeleteResults(ctx context.Context, companyID int64, years []int) error
	InsertResult(ctx context.Context, res Result) error
	RatioValues(ctx context.Context, ratioID int64) ([]float64, error)
	SetGlobalAverage(ctx context.Context, ratioID int64, avg float64) error
}

// Engine runs one calculation batch: delete the previous snapshot for the
// (company, years) set, recompute every ratio for every year, persist the new
// snapshot and refresh every ratio's global average. The caller wraps Run in
// a single transaction so a failure anywhere rolls the whole batch back.
type Engine struct {
	catalogs CatalogSource
	amounts  AmountSource
	results  ResultStore
	updater  *AverageUpdater
	now      func() time.Time
}

// NewEngine wires the engine's collaborators.
func NewEngine(catalogs CatalogSource, amounts AmountSource, results ResultStore) *Engine {
	return &Engine{
		catalogs: catalogs,
		amounts:  amounts,
		results:  results,
		updater:  NewAverageUpdater(results),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the engine clock for deterministic tests.
func (e *Engine) WithNow(fn func() time.Time) {
	if fn != nil {
		e.now = fn
	}
}

// Run executes the batch for a company over the given years. Missing
// configuration (no mapping, no bound account, account absent from both
// statements) silently degrades to nil values; only infrastructure faults
// return an error.
func (e *Engine) Run(ctx context.Context, companyID int64, years []int, userID *int64, batchID uuid.UUID) (BatchResult, error) {
	years = normalizeYears(years)
	result := BatchResult{BatchID: batchID, CompanyID: companyID, Years: years}

	company, err := e.catalogs.Company(ctx, companyID)
	if err != nil {
		return BatchResult{}, err
	}

	catalogID, err := e.catalogs.CatalogID(ctx, companyID)
	if err != nil {
		if errors.Is(err, catalog.ErrNoCatalog) {
			result.Ratios = []RatioOutcome{}
			result.Error = "company has no catalog configured"
			return result, nil
		}
		return BatchResult{}, err
	}

	defs, err := e.catalogs.Definitions(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	if err := e.results.DeleteResults(ctx, companyID, years); err != nil {
		return BatchResult{}, err
	}

	computedAt := e.now()
	for _, def := range defs {
		ref, err := e.catalogs.SectorReference(ctx, def.ID, company.SectorID)
		if err != nil {
			return BatchResult{}, err
		}
		var sectorOptimal, sectorAverage *float64
		if ref != nil {
			sectorOptimal = ref.OptimalValue
			sectorAverage = ref.SectorAverage
		}
		globalAverage := def.GlobalAverage
		kind := ResolveKind(def)

		valuesByYear := make(map[int]*YearValue, len(years))
		hasValue := false
		for _, year := range years {
			value, err := e.computeYear(ctx, def, kind, catalogID, companyID, year)
			if err != nil {
				return BatchResult{}, err
			}
			if value == nil {
				valuesByYear[year] = nil
				continue
			}
			yv := &YearValue{
				Value:              *value,
				AboveOptimal:       meetsBenchmark(*value, sectorOptimal),
				AboveSectorAverage: meetsBenchmark(*value, sectorAverage),
				AboveGlobalAverage: meetsBenchmark(*value, globalAverage),
			}
			valuesByYear[year] = yv
			hasValue = true

			if err := e.results.InsertResult(ctx, Result{
				CompanyID:          companyID,
				RatioID:            def.ID,
				Year:               year,
				Value:              *value,
				SectorOptimal:      sectorOptimal,
				SectorAverage:      sectorAverage,
				GlobalAverage:      globalAverage,
				AboveOptimal:       yv.AboveOptimal,
				AboveSectorAverage: yv.AboveSectorAverage,
				AboveGlobalAverage: yv.AboveGlobalAverage,
				ComputedAt:         computedAt,
				ComputedBy:         userID,
				BatchID:            batchID,
			}); err != nil {
				return BatchResult{}, err
			}
		}

		if hasValue {
			result.Ratios = append(result.Ratios, RatioOutcome{
				RatioID:       def.ID,
				Name:          def.Name,
				Category:      def.Category,
				Formula:       def.Formula,
				SectorOptimal: sectorOptimal,
				SectorAverage: sectorAverage,
				GlobalAverage: globalAverage,
				ValuesByYear:  valuesByYear,
			})
		}
	}

	// Refresh the running average of every ratio in the catalog, not just
	// those touched by this batch.
	if _, err := e.updater.RefreshAll(ctx, defs); err != nil {
		return BatchResult{}, err
	}

	if result.Ratios == nil {
		result.Ratios = []RatioOutcome{}
	}
	return result, nil
}

// computeYear resolves every component of a ratio to an amount and applies
// the ratio's arithmetic. A nil result means not computable for that year.
func (e *Engine) computeYear(ctx context.Context, def catalog.RatioDefinition, kind Kind, catalogID, companyID int64, year int) (*float64, error) {
	if len(def.Components) == 0 {
		return nil, nil
	}
	operands := make([]float64, 0, len(def.Components))
	for _, component := range def.Components {
		accountID, err := e.catalogs.BoundAccountID(ctx, catalogID, component.ID)
		if err != nil {
			return nil, err
		}
		if accountID == nil {
			return nil, nil
		}
		amount, err := e.amounts.Amount(ctx, *accountID, companyID, year)
		if err != nil {
			return nil, err
		}
		if amount == nil {
			return nil, nil
		}
		operands = append(operands, *amount)
	}
	return kind.Compute(operands), nil
}

func meetsBenchmark(value float64, benchmark *float64) bool {
	return benchmark != nil && value >= *benchmark
}

func normalizeYears(years []int) []int {
	seen := make(map[int]struct{}, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
