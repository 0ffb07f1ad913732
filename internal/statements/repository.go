package statements

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-fin/meridian/internal/catalog"
)

// Repository reads stored statements and line items. The write path (Excel
// ingestion, admin screens) lives outside this service.
type Repository struct {
	db catalog.Querier
}

// NewRepository constructs a statement repository.
func NewRepository(db catalog.Querier) *Repository {
	return &Repository{db: db}
}

// WithQuerier returns a repository bound to a different querier, typically a
// transaction.
func (r *Repository) WithQuerier(db catalog.Querier) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a statement of the given type is stored for the
// company and year.
func (r *Repository) Exists(ctx context.Context, companyID int64, year int, typ StatementType) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM statements
			WHERE company_id = $1 AND fiscal_year = $2 AND stmt_type = $3
		)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, companyID, year, typ).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Amount returns the line item amount for an account in the company's
// statements of one year, checking the balance sheet before the income
// statement. A nil result means the account appears in neither.
func (r *Repository) Amount(ctx context.Context, accountID, companyID int64, year int) (*float64, error) {
	const q = `
		SELECT li.amount
		FROM statement_lines li
		JOIN statements s ON s.id = li.statement_id
		WHERE s.company_id = $1 AND s.fiscal_year = $2 AND li.account_id = $3
		ORDER BY CASE s.stmt_type WHEN 'BALANCE_SHEET' THEN 0 ELSE 1 END
		LIMIT 1`
	var amount float64
	err := r.db.QueryRow(ctx, q, companyID, year, accountID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &amount, nil
}

// CoverageGap identifies a stored fiscal year that is missing one of the two
// statement types, across all companies.
type CoverageGap struct {
	CompanyID          int64 `json:"company_id"`
	Year               int   `json:"year"`
	HasBalanceSheet    bool  `json:"has_balance_sheet"`
	HasIncomeStatement bool  `json:"has_income_statement"`
}

// CoverageGaps scans every stored statement and returns the (company, year)
// pairs where only one statement type was loaded. Those years block ratio
// calculation and horizontal analysis until the counterpart arrives.
func (r *Repository) CoverageGaps(ctx context.Context) ([]CoverageGap, error) {
	const q = `
		SELECT company_id, fiscal_year,
		       bool_or(stmt_type = 'BALANCE_SHEET'),
		       bool_or(stmt_type = 'INCOME_STATEMENT')
		FROM statements
		GROUP BY company_id, fiscal_year
		HAVING COUNT(DISTINCT stmt_type) < 2
		ORDER BY company_id, fiscal_year`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gaps []CoverageGap
	for rows.Next() {
		var g CoverageGap
		if err := rows.Scan(&g.CompanyID, &g.Year, &g.HasBalanceSheet, &g.HasIncomeStatement); err != nil {
			return nil, err
		}
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}

// LinesByYear loads every line item of the requested statement type for the
// given years, keyed by fiscal year. Years with no stored statement are
// absent from the map.
func (r *Repository) LinesByYear(ctx context.Context, companyID int64, years []int, typ StatementType) (map[int][]Line, error) {
	const q = `
		SELECT s.fiscal_year, a.id, a.code, a.name, a.type, li.amount
		FROM statements s
		JOIN statement_lines li ON li.statement_id = s.id
		JOIN accounts a ON a.id = li.account_id
		WHERE s.company_id = $1 AND s.stmt_type = $2 AND s.fiscal_year = ANY($3)
		ORDER BY a.type, a.code`
	rows, err := r.db.Query(ctx, q, companyID, typ, years)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byYear := make(map[int][]Line)
	for rows.Next() {
		var year int
		var line Line
		if err := rows.Scan(&year, &line.AccountID, &line.AccountCode, &line.AccountName, &line.AccountType, &line.Amount); err != nil {
			return nil, err
		}
		byYear[year] = append(byYear[year], line)
	}
	return byYear, rows.Err()
}
