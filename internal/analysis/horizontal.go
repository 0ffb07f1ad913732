package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/statements"
)

// BuildHorizontal computes the year-over-year variance report from loaded
// statement lines. Variances are formed over adjacent pairs of the sorted
// year list only, never over all combinations.
func BuildHorizontal(company catalog.Company, typ statements.StatementType, years []int, linesByYear map[int][]statements.Line) (*HorizontalReport, error) {
	years = distinctSorted(years)
	if len(years) < 2 {
		return nil, ErrNeedTwoYears
	}
	if !hasLines(years, linesByYear) {
		return nil, ErrNoStatements
	}

	accounts, amounts := collectAccounts(typ, years, linesByYear)

	periods := make([]string, 0, len(years)-1)
	for i := 0; i+1 < len(years); i++ {
		periods = append(periods, pairLabel(years[i], years[i+1]))
	}

	report := &HorizontalReport{
		Company:       companyInfo(company),
		StatementType: typ,
		Years:         years,
		Periods:       periods,
		Groups:        []HorizontalGroup{},
	}

	for _, accType := range typ.AccountTypes() {
		group := HorizontalGroup{Type: accType}
		for _, acc := range accounts {
			if acc.Type != accType {
				continue
			}
			entry := HorizontalAccount{
				Code:          acc.Code,
				Name:          acc.Name,
				Type:          acc.Type,
				AmountsByYear: make(map[int]*float64, len(years)),
			}
			for _, year := range years {
				if v, ok := amounts[acc.ID][year]; ok {
					amount := v
					entry.AmountsByYear[year] = &amount
				} else {
					entry.AmountsByYear[year] = nil
				}
			}
			for i := 0; i+1 < len(years); i++ {
				earlier, later := years[i], years[i+1]
				entry.Variances = append(entry.Variances, variance(
					pairLabel(earlier, later),
					amounts[acc.ID], earlier, later,
				))
			}
			group.Accounts = append(group.Accounts, entry)
		}
		if len(group.Accounts) > 0 {
			report.Groups = append(report.Groups, group)
		}
	}
	return report, nil
}

// variance computes the change of one account between two years. Both fields
// are nil when an amount is missing in either year; percent alone is nil when
// the earlier amount is zero.
func variance(period string, byYear map[int]float64, earlier, later int) VariancePair {
	pair := VariancePair{Period: period}
	base, okBase := byYear[earlier]
	current, okCurrent := byYear[later]
	if !okBase || !okCurrent {
		return pair
	}
	abs := current - base
	pair.Absolute = &abs
	if base == 0 {
		return pair
	}
	pct := round2(abs / math.Abs(base) * 100)
	pair.Percent = &pct
	return pair
}

// collectAccounts unions every account referenced across the requested years,
// restricted to the statement kind's account types, ordered by type then code.
func collectAccounts(typ statements.StatementType, years []int, linesByYear map[int][]statements.Line) ([]accountRef, map[int64]map[int]float64) {
	relevant := make(map[catalog.AccountType]int, 3)
	for i, t := range typ.AccountTypes() {
		relevant[t] = i
	}

	seen := make(map[int64]accountRef)
	amounts := make(map[int64]map[int]float64)
	for _, year := range years {
		for _, line := range linesByYear[year] {
			if _, ok := relevant[line.AccountType]; !ok {
				continue
			}
			if _, ok := seen[line.AccountID]; !ok {
				seen[line.AccountID] = accountRef{
					ID:   line.AccountID,
					Code: line.AccountCode,
					Name: line.AccountName,
					Type: line.AccountType,
				}
				amounts[line.AccountID] = make(map[int]float64)
			}
			amounts[line.AccountID][year] = line.Amount
		}
	}

	refs := make([]accountRef, 0, len(seen))
	for _, ref := range seen {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return relevant[refs[i].Type] < relevant[refs[j].Type]
		}
		return refs[i].Code < refs[j].Code
	})
	return refs, amounts
}

type accountRef struct {
	ID   int64
	Code string
	Name string
	Type catalog.AccountType
}

func pairLabel(earlier, later int) string {
	return fmt.Sprintf("%d-%d", earlier, later)
}

func companyInfo(company catalog.Company) CompanyInfo {
	return CompanyInfo{ID: company.ID, Name: company.Name, Sector: company.SectorName}
}

func hasLines(years []int, linesByYear map[int][]statements.Line) bool {
	for _, year := range years {
		if len(linesByYear[year]) > 0 {
			return true
		}
	}
	return false
}

func distinctSorted(years []int) []int {
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
