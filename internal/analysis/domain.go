package analysis

import (
	"errors"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/statements"
)

var (
	// ErrNeedTwoYears indicates a horizontal request with fewer than two
	// distinct years.
	ErrNeedTwoYears = errors.New("analysis: horizontal analysis requires at least two distinct years")
	// ErrNoYears indicates an empty year list.
	ErrNoYears = errors.New("analysis: at least one year is required")
	// ErrNoStatements indicates that no statement of the requested type is
	// stored for the company across the requested years.
	ErrNoStatements = errors.New("analysis: no statements found for the requested years")
	// ErrNoRevenueAccount indicates a vertical income statement analysis on a
	// catalog without revenue accounts.
	ErrNoRevenueAccount = errors.New("analysis: catalog has no revenue account to base percentages on")
)

// IncompleteStatementsError carries the completeness check outcome when the
// gate blocks an analysis.
type IncompleteStatementsError struct {
	Result statements.ValidationResult
}

func (e *IncompleteStatementsError) Error() string {
	return e.Result.Message
}

// CompanyInfo is the company header echoed on every report.
type CompanyInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// VariancePair holds the change of one account between two adjacent years.
// Percent is nil when the base year amount is zero; both fields are nil when
// the account lacks an amount in either year of the pair.
type VariancePair struct {
	Period   string   `json:"period"`
	Absolute *float64 `json:"absolute"`
	Percent  *float64 `json:"percent"`
}

// HorizontalAccount is one account's amounts and adjacent-pair variances.
type HorizontalAccount struct {
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Type          catalog.AccountType `json:"type"`
	AmountsByYear map[int]*float64    `json:"amounts_by_year"`
	Variances     []VariancePair      `json:"variances"`
}

// HorizontalGroup groups accounts of one type.
type HorizontalGroup struct {
	Type     catalog.AccountType `json:"type"`
	Accounts []HorizontalAccount `json:"accounts"`
}

// HorizontalReport is the full year-over-year variance view.
type HorizontalReport struct {
	Company       CompanyInfo              `json:"company"`
	StatementType statements.StatementType `json:"statement_type"`
	Years         []int                    `json:"years"`
	Periods       []string                 `json:"periods"`
	Groups        []HorizontalGroup        `json:"groups"`
}

// VerticalCell is one account's amount and share of its category total for a
// single year.
type VerticalCell struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// VerticalAccount is one account's per-year cells. Years the account is
// absent from carry a nil cell.
type VerticalAccount struct {
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	Type        catalog.AccountType   `json:"type"`
	IsTotalRow  bool                  `json:"is_total_row"`
	CellsByYear map[int]*VerticalCell `json:"cells_by_year"`
}

// VerticalGroup groups accounts of one type with the per-year category totals
// used as percentage denominators.
type VerticalGroup struct {
	Type         catalog.AccountType `json:"type"`
	TotalsByYear map[int]float64     `json:"totals_by_year"`
	Accounts     []VerticalAccount   `json:"accounts"`
}

// BaseAccount identifies the revenue account an income statement vertical
// report is labelled with. Display only; the percentage denominator is the
// revenue category total.
type BaseAccount struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// VerticalReport is the full common-size view.
type VerticalReport struct {
	Company       CompanyInfo              `json:"company"`
	StatementType statements.StatementType `json:"statement_type"`
	Years         []int                    `json:"years"`
	BaseAccount   *BaseAccount             `json:"base_account,omitempty"`
	Groups        []VerticalGroup          `json:"groups"`
}
