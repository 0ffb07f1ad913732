package analysis

import (
	"strings"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/statements"
)

// BuildVertical computes the common-size report from loaded statement lines.
// Balance sheets use each account type's own subtotal as denominator; income
// statements divide everything by total revenue. Subtotal rows detected by
// the keyword heuristic are excluded from denominators and forced to 100%.
// A zero denominator yields 0% for its members, unlike the horizontal
// engine's null on a zero base.
func BuildVertical(company catalog.Company, typ statements.StatementType, years []int, linesByYear map[int][]statements.Line, revenueAccounts []catalog.Account) (*VerticalReport, error) {
	years = distinctSorted(years)
	if len(years) == 0 {
		return nil, ErrNoYears
	}
	if !hasLines(years, linesByYear) {
		return nil, ErrNoStatements
	}

	keywords := balanceSheetTotalKeywords
	if typ == statements.TypeIncomeStatement {
		keywords = incomeStatementTotalKeywords
	}

	accounts, amounts := collectAccounts(typ, years, linesByYear)

	report := &VerticalReport{
		Company:       companyInfo(company),
		StatementType: typ,
		Years:         years,
		Groups:        []VerticalGroup{},
	}

	var revenueTotals map[int]float64
	if typ == statements.TypeIncomeStatement {
		if len(revenueAccounts) == 0 {
			return nil, ErrNoRevenueAccount
		}
		base := selectBaseAccount(revenueAccounts)
		report.BaseAccount = &BaseAccount{Code: base.Code, Name: base.Name}
		revenueTotals = categoryTotals(accounts, amounts, years, keywords, catalog.AccountTypeRevenue)
	}

	for _, accType := range typ.AccountTypes() {
		totals := revenueTotals
		if typ == statements.TypeBalanceSheet {
			totals = categoryTotals(accounts, amounts, years, keywords, accType)
		}

		group := VerticalGroup{Type: accType, TotalsByYear: totals}
		for _, acc := range accounts {
			if acc.Type != accType {
				continue
			}
			totalRow := isTotalRow(acc.Name, keywords)
			entry := VerticalAccount{
				Code:        acc.Code,
				Name:        acc.Name,
				Type:        acc.Type,
				IsTotalRow:  totalRow,
				CellsByYear: make(map[int]*VerticalCell, len(years)),
			}
			for _, year := range years {
				amount, ok := amounts[acc.ID][year]
				if !ok {
					entry.CellsByYear[year] = nil
					continue
				}
				entry.CellsByYear[year] = &VerticalCell{
					Amount:  amount,
					Percent: percentage(amount, totals[year], totalRow),
				}
			}
			group.Accounts = append(group.Accounts, entry)
		}
		if len(group.Accounts) > 0 {
			report.Groups = append(report.Groups, group)
		}
	}
	return report, nil
}

// categoryTotals sums the amounts of one account type per year, skipping
// subtotal rows so they do not double-count the denominator.
func categoryTotals(accounts []accountRef, amounts map[int64]map[int]float64, years []int, keywords []string, accType catalog.AccountType) map[int]float64 {
	totals := make(map[int]float64, len(years))
	for _, year := range years {
		totals[year] = 0
	}
	for _, acc := range accounts {
		if acc.Type != accType || isTotalRow(acc.Name, keywords) {
			continue
		}
		for _, year := range years {
			if v, ok := amounts[acc.ID][year]; ok {
				totals[year] += v
			}
		}
	}
	return totals
}

func percentage(amount, total float64, totalRow bool) float64 {
	if totalRow {
		return 100
	}
	if total == 0 {
		return 0
	}
	return round2(amount / total * 100)
}

// selectBaseAccount picks the revenue account an income statement report is
// labelled with, preferring name keywords in priority order and falling back
// to the first revenue account.
func selectBaseAccount(revenueAccounts []catalog.Account) catalog.Account {
	for _, kw := range revenueBaseKeywords {
		for _, acc := range revenueAccounts {
			if strings.Contains(strings.ToLower(acc.Name), kw) {
				return acc
			}
		}
	}
	return revenueAccounts[0]
}
