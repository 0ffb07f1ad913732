package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgxconn "github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested entity is missing.
	ErrNotFound = errors.New("catalog: not found")
	// ErrNoCatalog indicates the company has no chart of accounts configured.
	ErrNoCatalog = errors.New("catalog: company has no catalog configured")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("catalog: duplicate entry")
	// ErrForeignAccount indicates a mapping referenced an account from another
	// company's catalog.
	ErrForeignAccount = errors.New("catalog: account belongs to a different catalog")
)

// Querier abstracts pgxpool.Pool and pgx.Tx so repository reads can run inside
// a calculation batch transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgxconn.CommandTag, error)
}

// Repository provides read access to companies, catalogs, accounts, ratio
// definitions, mappings and sector references.
type Repository struct {
	db Querier
}

// NewRepository constructs a catalog repository.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// WithQuerier returns a repository bound to a different querier, typically a
// transaction.
func (r *Repository) WithQuerier(db Querier) *Repository {
	return &Repository{db: db}
}

// Company fetches one company with its sector name.
func (r *Repository) Company(ctx context.Context, companyID int64) (Company, error) {
	const q = `
		SELECT c.id, c.name, c.sector_id, COALESCE(s.name, '')
		FROM companies c
		LEFT JOIN sectors s ON s.id = c.sector_id
		WHERE c.id = $1`
	var c Company
	err := r.db.QueryRow(ctx, q, companyID).Scan(&c.ID, &c.Name, &c.SectorID, &c.SectorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}

// CatalogID resolves the chart of accounts for a company.
func (r *Repository) CatalogID(ctx context.Context, companyID int64) (int64, error) {
	const q = `SELECT id FROM catalogs WHERE company_id = $1`
	var id int64
	err := r.db.QueryRow(ctx, q, companyID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoCatalog
		}
		return 0, err
	}
	return id, nil
}

// Definitions returns every ratio definition with its components ordered by
// creation position, sorted by category then name.
func (r *Repository) Definitions(ctx context.Context) ([]RatioDefinition, error) {
	const q = `
		SELECT id, name, category, formula, global_avg, updated_at
		FROM ratio_definitions
		ORDER BY category, name`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []RatioDefinition
	index := make(map[int64]int)
	for rows.Next() {
		var d RatioDefinition
		if err := rows.Scan(&d.ID, &d.Name, &d.Category, &d.Formula, &d.GlobalAverage, &d.UpdatedAt); err != nil {
			return nil, err
		}
		index[d.ID] = len(defs)
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qc = `
		SELECT id, ratio_id, name, position
		FROM ratio_components
		ORDER BY ratio_id, position`
	crows, err := r.db.Query(ctx, qc)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var c RatioComponent
		if err := crows.Scan(&c.ID, &c.RatioID, &c.Name, &c.Position); err != nil {
			return nil, err
		}
		if i, ok := index[c.RatioID]; ok {
			defs[i].Components = append(defs[i].Components, c)
		}
	}
	return defs, crows.Err()
}

// Definition fetches a single ratio definition by id, components included.
func (r *Repository) Definition(ctx context.Context, ratioID int64) (RatioDefinition, error) {
	const q = `
		SELECT id, name, category, formula, global_avg, updated_at
		FROM ratio_definitions
		WHERE id = $1`
	var d RatioDefinition
	err := r.db.QueryRow(ctx, q, ratioID).Scan(&d.ID, &d.Name, &d.Category, &d.Formula, &d.GlobalAverage, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RatioDefinition{}, ErrNotFound
		}
		return RatioDefinition{}, err
	}
	const qc = `
		SELECT id, ratio_id, name, position
		FROM ratio_components
		WHERE ratio_id = $1
		ORDER BY position`
	rows, err := r.db.Query(ctx, qc, ratioID)
	if err != nil {
		return RatioDefinition{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c RatioComponent
		if err := rows.Scan(&c.ID, &c.RatioID, &c.Name, &c.Position); err != nil {
			return RatioDefinition{}, err
		}
		d.Components = append(d.Components, c)
	}
	return d, rows.Err()
}

// BoundAccountID looks up the account mapped to a component within a catalog.
// It returns (nil, nil) both when no mapping row exists and when the mapping
// row has no bound account; the calculation engine treats either as
// non-computable rather than an error.
func (r *Repository) BoundAccountID(ctx context.Context, catalogID, componentID int64) (*int64, error) {
	const q = `
		SELECT account_id
		FROM account_mappings
		WHERE catalog_id = $1 AND component_id = $2`
	var accountID *int64
	err := r.db.QueryRow(ctx, q, catalogID, componentID).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return accountID, nil
}

// SectorReference fetches benchmark inputs for (ratio, sector). A nil sector
// or missing row yields (nil, nil).
func (r *Repository) SectorReference(ctx context.Context, ratioID int64, sectorID *int64) (*SectorReference, error) {
	if sectorID == nil {
		return nil, nil
	}
	const q = `
		SELECT ratio_id, sector_id, optimal_value, sector_avg
		FROM sector_references
		WHERE ratio_id = $1 AND sector_id = $2`
	var ref SectorReference
	err := r.db.QueryRow(ctx, q, ratioID, *sectorID).Scan(&ref.RatioID, &ref.SectorID, &ref.OptimalValue, &ref.SectorAverage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

// RevenueAccounts lists the revenue-type accounts of a company's catalog
// ordered by code. The vertical analysis engine picks its display base
// account from this list.
func (r *Repository) RevenueAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	const q = `
		SELECT a.id, a.catalog_id, a.code, a.name, a.type
		FROM accounts a
		JOIN catalogs c ON c.id = a.catalog_id
		WHERE c.company_id = $1 AND a.type = $2
		ORDER BY a.code`
	rows, err := r.db.Query(ctx, q, companyID, AccountTypeRevenue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CatalogID, &a.Code, &a.Name, &a.Type); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpsertMapping binds a component to an account for a catalog, replacing any
// previous binding. A nil accountID records the component as unmapped.
func (r *Repository) UpsertMapping(ctx context.Context, catalogID, componentID int64, accountID *int64) error {
	if accountID != nil {
		var owner int64
		err := r.db.QueryRow(ctx, `SELECT catalog_id FROM accounts WHERE id = $1`, *accountID).Scan(&owner)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if owner != catalogID {
			return fmt.Errorf("%w: account %d is owned by catalog %d, not %d", ErrForeignAccount, *accountID, owner, catalogID)
		}
	}
	const q = `
		INSERT INTO account_mappings (catalog_id, component_id, account_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (catalog_id, component_id) DO UPDATE SET account_id = EXCLUDED.account_id`
	_, err := r.db.Exec(ctx, q, catalogID, componentID, accountID)
	return mapWriteError(err)
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgxconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
