package catalog

import "time"

// AccountType enumerates ledger account categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeResult    AccountType = "RESULT"
)

// BalanceSheetTypes are the account types carried on a balance sheet.
var BalanceSheetTypes = []AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity}

// IncomeStatementTypes are the account types carried on an income statement.
var IncomeStatementTypes = []AccountType{AccountTypeRevenue, AccountTypeExpense, AccountTypeResult}

// Sector groups companies for benchmark purposes.
type Sector struct {
	ID          int64
	Name        string
	Description string
}

// Company models an analysed company.
type Company struct {
	ID         int64
	Name       string
	SectorID   *int64
	SectorName string
}

// Account models a chart of accounts entry. Code is unique per catalog.
type Account struct {
	ID        int64
	CatalogID int64
	Code      string
	Name      string
	Type      AccountType
}

// RatioComponent is a named operand of a ratio, ordered by Position.
type RatioComponent struct {
	ID       int64
	RatioID  int64
	Name     string
	Position int
}

// RatioDefinition is a company-independent financial ratio. GlobalAverage is
// the running cross-company mean of calculated values, nil until the first
// calculation batch touches the ratio.
type RatioDefinition struct {
	ID            int64
	Name          string
	Category      string
	Formula       string
	GlobalAverage *float64
	Components    []RatioComponent
	UpdatedAt     time.Time
}

// AccountMapping binds a ratio component to a concrete account within one
// catalog. AccountID is nil when the component is left unmapped.
type AccountMapping struct {
	ID          int64
	CatalogID   int64
	ComponentID int64
	AccountID   *int64
}

// SectorReference carries external benchmark inputs per (ratio, sector).
type SectorReference struct {
	RatioID       int64
	SectorID      int64
	OptimalValue  *float64
	SectorAverage *float64
}
