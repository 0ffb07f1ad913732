package projections

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/platform/db"
)

// Repository persists sales history and forecasts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a projections repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// History loads every recorded monthly sales figure for a company in
// chronological order.
func (r *Repository) History(ctx context.Context, companyID int64) ([]Observation, error) {
	const q = `
		SELECT year, month, value
		FROM sales_history
		WHERE company_id = $1
		ORDER BY year, month`
	rows, err := r.pool.Query(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.Year, &o.Month, &o.Value); err != nil {
			return nil, err
		}
		history = append(history, o)
	}
	return history, rows.Err()
}

// ReplaceForecast swaps the stored projection for (company, method) with the
// given one, atomically.
func (r *Repository) ReplaceForecast(ctx context.Context, f *Forecast) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const del = `DELETE FROM sales_projections WHERE company_id = $1 AND method = $2`
		if _, err := tx.Exec(ctx, del, f.CompanyID, f.Method); err != nil {
			return err
		}
		const ins = `
			INSERT INTO sales_projections (company_id, method, year, month, value)
			VALUES ($1, $2, $3, $4, $5)`
		for _, m := range f.Months {
			if _, err := tx.Exec(ctx, ins, f.CompanyID, f.Method, m.Year, m.Month, m.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Forecasts lists the stored projections of a company, optionally restricted
// to one method.
func (r *Repository) Forecasts(ctx context.Context, companyID int64, method *Method) ([]Projection, error) {
	q := `
		SELECT year, month, value
		FROM sales_projections
		WHERE company_id = $1`
	args := []any{companyID}
	if method != nil {
		q += ` AND method = $2`
		args = append(args, *method)
	}
	q += ` ORDER BY method, year, month`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var months []Projection
	for rows.Next() {
		var p Projection
		if err := rows.Scan(&p.Year, &p.Month, &p.Value); err != nil {
			return nil, err
		}
		months = append(months, p)
	}
	return months, rows.Err()
}
