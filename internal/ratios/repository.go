package ratios

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/platform/db"
	"github.com/meridian-fin/meridian/internal/statements"
)

// Repository provides persistence for calculation batches. All engine reads
// and writes of one batch run on the same transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a ratios repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxStores bundles the transaction-scoped stores a batch works against.
type TxStores struct {
	Catalogs *catalog.Repository
	Amounts  *statements.Repository
	Results  *ResultRepository
}

// WithTx runs fn inside one RepeatableRead transaction, handing it stores
// bound to that transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStores) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, TxStores{
			Catalogs: catalog.NewRepository(tx),
			Amounts:  statements.NewRepository(tx),
			Results:  NewResultRepository(tx),
		})
	})
}

// Results reads the persisted snapshot rows outside a batch.
func (r *Repository) Results(ctx context.Context, companyID int64, years []int) ([]Result, error) {
	return NewResultRepository(r.pool).ResultsFor(ctx, companyID, years)
}

// ResultRepository persists calculated ratio values.
type ResultRepository struct {
	db catalog.Querier
}

// NewResultRepository constructs a result repository over a pool or tx.
func NewResultRepository(db catalog.Querier) *ResultRepository {
	return &ResultRepository{db: db}
}

// DeleteResults removes every calculated value for the (company, years) set.
// Each batch fully replaces the previous snapshot for its scope.
func (s *ResultRepository) DeleteResults(ctx context.Context, companyID int64, years []int) error {
	const q = `DELETE FROM ratio_results WHERE company_id = $1 AND fiscal_year = ANY($2)`
	_, err := s.db.Exec(ctx, q, companyID, years)
	return err
}

// InsertResult stores one calculated value row.
func (s *ResultRepository) InsertResult(ctx context.Context, res Result) error {
	const q = `
		INSERT INTO ratio_results (
			company_id, ratio_id, fiscal_year, value,
			sector_optimal, sector_avg, global_avg,
			above_optimal, above_sector_avg, above_global_avg,
			computed_at, computed_by, batch_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.Exec(ctx, q,
		res.CompanyID, res.RatioID, res.Year, res.Value,
		res.SectorOptimal, res.SectorAverage, res.GlobalAverage,
		res.AboveOptimal, res.AboveSectorAverage, res.AboveGlobalAverage,
		res.ComputedAt, res.ComputedBy, res.BatchID,
	)
	return err
}

// RatioValues returns every persisted value of one ratio across all companies
// and years.
func (s *ResultRepository) RatioValues(ctx context.Context, ratioID int64) ([]float64, error) {
	const q = `SELECT value FROM ratio_results WHERE ratio_id = $1 AND value IS NOT NULL`
	rows, err := s.db.Query(ctx, q, ratioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// SetGlobalAverage writes the recomputed running average onto the ratio
// definition.
func (s *ResultRepository) SetGlobalAverage(ctx context.Context, ratioID int64, avg float64) error {
	const q = `UPDATE ratio_definitions SET global_avg = $2, updated_at = now() WHERE id = $1`
	_, err := s.db.Exec(ctx, q, ratioID, avg)
	return err
}

// ResultsFor lists the stored snapshot for a company, optionally restricted
// to specific years.
func (s *ResultRepository) ResultsFor(ctx context.Context, companyID int64, years []int) ([]Result, error) {
	q := `
		SELECT company_id, ratio_id, fiscal_year, value,
		       sector_optimal, sector_avg, global_avg,
		       above_optimal, above_sector_avg, above_global_avg,
		       computed_at, computed_by, batch_id
		FROM ratio_results
		WHERE company_id = $1`
	args := []any{companyID}
	if len(years) > 0 {
		q += ` AND fiscal_year = ANY($2)`
		args = append(args, years)
	}
	q += ` ORDER BY ratio_id, fiscal_year`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(
			&res.CompanyID, &res.RatioID, &res.Year, &res.Value,
			&res.SectorOptimal, &res.SectorAverage, &res.GlobalAverage,
			&res.AboveOptimal, &res.AboveSectorAverage, &res.AboveGlobalAverage,
			&res.ComputedAt, &res.ComputedBy, &res.BatchID,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
