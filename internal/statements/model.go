package statements

import "github.com/meridian-fin/meridian/internal/catalog"

// StatementType enumerates the two supported financial statement kinds.
type StatementType string

const (
	TypeBalanceSheet    StatementType = "BALANCE_SHEET"
	TypeIncomeStatement StatementType = "INCOME_STATEMENT"
)

// AccountTypes returns the account types a statement kind carries.
func (t StatementType) AccountTypes() []catalog.AccountType {
	if t == TypeIncomeStatement {
		return catalog.IncomeStatementTypes
	}
	return catalog.BalanceSheetTypes
}

// Valid reports whether t is a known statement type.
func (t StatementType) Valid() bool {
	return t == TypeBalanceSheet || t == TypeIncomeStatement
}

// Statement identifies one stored financial statement, unique per
// (company, year, type).
type Statement struct {
	ID         int64
	CompanyID  int64
	FiscalYear int
	Type       StatementType
}

// Line is a statement line item joined with its account metadata.
type Line struct {
	AccountID   int64
	AccountCode string
	AccountName string
	AccountType catalog.AccountType
	Amount      float64
}
