package statements

import (
	"context"
	"fmt"
	"strings"
)

// MissingStatements records which statement types are absent for one year.
type MissingStatements struct {
	Year               int  `json:"year"`
	HasBalanceSheet    bool `json:"has_balance_sheet"`
	HasIncomeStatement bool `json:"has_income_statement"`
}

// ValidationResult is the outcome of a completeness check.
type ValidationResult struct {
	Valid   bool                `json:"valid"`
	Message string              `json:"message"`
	Missing []MissingStatements `json:"missing"`
}

// ExistenceChecker is the single query the validator needs.
type ExistenceChecker interface {
	Exists(ctx context.Context, companyID int64, year int, typ StatementType) (bool, error)
}

// Validator gates analysis and ratio calculation: both statement types must
// exist for every requested year before any engine proceeds.
type Validator struct {
	repo ExistenceChecker
}

// NewValidator constructs a completeness validator.
func NewValidator(repo ExistenceChecker) *Validator {
	return &Validator{repo: repo}
}

// Validate checks that a balance sheet and an income statement are stored for
// each requested year. It has no side effects.
func (v *Validator) Validate(ctx context.Context, companyID int64, years []int) (ValidationResult, error) {
	var missing []MissingStatements
	for _, year := range years {
		hasBS, err := v.repo.Exists(ctx, companyID, year, TypeBalanceSheet)
		if err != nil {
			return ValidationResult{}, err
		}
		hasIS, err := v.repo.Exists(ctx, companyID, year, TypeIncomeStatement)
		if err != nil {
			return ValidationResult{}, err
		}
		if !hasBS || !hasIS {
			missing = append(missing, MissingStatements{
				Year:               year,
				HasBalanceSheet:    hasBS,
				HasIncomeStatement: hasIS,
			})
		}
	}

	if len(missing) == 0 {
		return ValidationResult{
			Valid:   true,
			Message: "All financial statements are complete.",
			Missing: []MissingStatements{},
		}, nil
	}
	return ValidationResult{
		Valid:   false,
		Message: buildMissingMessage(missing),
		Missing: missing,
	}, nil
}

func buildMissingMessage(missing []MissingStatements) string {
	lines := make([]string, 0, len(missing))
	for _, m := range missing {
		var parts []string
		if !m.HasBalanceSheet {
			parts = append(parts, "Balance Sheet")
		}
		if !m.HasIncomeStatement {
			parts = append(parts, "Income Statement")
		}
		lines = append(lines, fmt.Sprintf("Year %d: missing %s", m.Year, strings.Join(parts, " and ")))
	}
	return "Analysis cannot proceed. The following financial statements are missing:\n" + strings.Join(lines, "\n")
}
