package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/statements"
)

func TestVerticalBalanceSheetPercentages(t *testing.T) {
	lines := map[int][]statements.Line{
		2023: {
			bsLine(1, "1.1", "Caja", catalog.AccountTypeAsset, 250),
			bsLine(2, "1.2", "Inventarios", catalog.AccountTypeAsset, 750),
			bsLine(3, "1.9", "Total Activo", catalog.AccountTypeAsset, 1000),
			bsLine(4, "2.1", "Proveedores", catalog.AccountTypeLiability, 400),
		},
	}

	report, err := BuildVertical(testCompany(), statements.TypeBalanceSheet, []int{2023}, lines, nil)
	require.NoError(t, err)

	require.Len(t, report.Groups, 2)
	assets := report.Groups[0]
	assert.Equal(t, catalog.AccountTypeAsset, assets.Type)
	// Subtotal row excluded from the denominator.
	assert.Equal(t, 1000.0, assets.TotalsByYear[2023])

	require.Len(t, assets.Accounts, 3)
	assert.Equal(t, 25.0, assets.Accounts[0].CellsByYear[2023].Percent)
	assert.Equal(t, 75.0, assets.Accounts[1].CellsByYear[2023].Percent)
	// Total rows are pinned to 100% regardless of amount arithmetic.
	assert.True(t, assets.Accounts[2].IsTotalRow)
	assert.Equal(t, 100.0, assets.Accounts[2].CellsByYear[2023].Percent)

	// Liabilities divide by their own category total, not the asset total.
	liabilities := report.Groups[1]
	assert.Equal(t, 400.0, liabilities.TotalsByYear[2023])
	assert.Equal(t, 100.0, liabilities.Accounts[0].CellsByYear[2023].Percent)
}

func TestVerticalZeroTotalYieldsZeroPercent(t *testing.T) {
	lines := map[int][]statements.Line{
		2023: {
			bsLine(1, "3.1", "Capital", catalog.AccountTypeEquity, 500),
			bsLine(2, "3.2", "Resultados Acumulados", catalog.AccountTypeEquity, -500),
		},
	}

	report, err := BuildVertical(testCompany(), statements.TypeBalanceSheet, []int{2023}, lines, nil)
	require.NoError(t, err)

	// Unlike the horizontal engine's null on a zero base, a zero category
	// total yields plain 0% for every member.
	group := report.Groups[0]
	assert.Equal(t, 0.0, group.TotalsByYear[2023])
	assert.Equal(t, 0.0, group.Accounts[0].CellsByYear[2023].Percent)
	assert.Equal(t, 0.0, group.Accounts[1].CellsByYear[2023].Percent)
}

func TestVerticalIncomeStatementRevenueDenominator(t *testing.T) {
	lines := map[int][]statements.Line{
		2023: {
			bsLine(1, "4.1", "Ventas Nacionales", catalog.AccountTypeRevenue, 6000),
			bsLine(2, "4.2", "Exportaciones", catalog.AccountTypeRevenue, 4000),
			bsLine(3, "5.1", "Costo de Ventas", catalog.AccountTypeExpense, 7000),
			bsLine(4, "6.1", "Utilidad Neta", catalog.AccountTypeResult, 3000),
		},
	}
	revenue := []catalog.Account{
		{ID: 2, Code: "4.2", Name: "Exportaciones", Type: catalog.AccountTypeRevenue},
		{ID: 1, Code: "4.1", Name: "Ventas Nacionales", Type: catalog.AccountTypeRevenue},
	}

	report, err := BuildVertical(testCompany(), statements.TypeIncomeStatement, []int{2023}, lines, revenue)
	require.NoError(t, err)

	// Base account is display only, picked by the "ventas" keyword over the
	// catalog's account order.
	require.NotNil(t, report.BaseAccount)
	assert.Equal(t, "Ventas Nacionales", report.BaseAccount.Name)

	require.Len(t, report.Groups, 3)
	revGroup := report.Groups[0]
	assert.Equal(t, 10000.0, revGroup.TotalsByYear[2023])
	assert.Equal(t, 60.0, revGroup.Accounts[0].CellsByYear[2023].Percent)

	// Expenses share the revenue denominator.
	assert.Equal(t, 70.0, report.Groups[1].Accounts[0].CellsByYear[2023].Percent)

	// Profit lines match the richer keyword list and are pinned to 100%.
	result := report.Groups[2].Accounts[0]
	assert.True(t, result.IsTotalRow)
	assert.Equal(t, 100.0, result.CellsByYear[2023].Percent)
}

func TestVerticalIncomeStatementBaseAccountFallback(t *testing.T) {
	lines := map[int][]statements.Line{
		2023: {bsLine(1, "4.1", "Comisiones Percibidas", catalog.AccountTypeRevenue, 500)},
	}
	revenue := []catalog.Account{
		{ID: 1, Code: "4.1", Name: "Comisiones Percibidas", Type: catalog.AccountTypeRevenue},
		{ID: 2, Code: "4.2", Name: "Otros", Type: catalog.AccountTypeRevenue},
	}

	report, err := BuildVertical(testCompany(), statements.TypeIncomeStatement, []int{2023}, lines, revenue)
	require.NoError(t, err)
	assert.Equal(t, "Comisiones Percibidas", report.BaseAccount.Name)
}

func TestVerticalIncomeStatementWithoutRevenueAccounts(t *testing.T) {
	lines := map[int][]statements.Line{
		2023: {bsLine(1, "5.1", "Gastos Varios", catalog.AccountTypeExpense, 100)},
	}

	_, err := BuildVertical(testCompany(), statements.TypeIncomeStatement, []int{2023}, lines, nil)
	assert.ErrorIs(t, err, ErrNoRevenueAccount)
}

func TestVerticalMissingYearCellIsNull(t *testing.T) {
	lines := map[int][]statements.Line{
		2022: {bsLine(1, "1.1", "Caja", catalog.AccountTypeAsset, 100)},
		2023: {
			bsLine(1, "1.1", "Caja", catalog.AccountTypeAsset, 120),
			bsLine(2, "1.2", "Bancos", catalog.AccountTypeAsset, 280),
		},
	}

	report, err := BuildVertical(testCompany(), statements.TypeBalanceSheet, []int{2022, 2023}, lines, nil)
	require.NoError(t, err)

	accounts := report.Groups[0].Accounts
	require.Len(t, accounts, 2)
	assert.Nil(t, accounts[1].CellsByYear[2022])
	assert.Equal(t, 70.0, accounts[1].CellsByYear[2023].Percent)
	assert.Equal(t, 100.0, accounts[0].CellsByYear[2022].Percent)
	assert.Equal(t, 30.0, accounts[0].CellsByYear[2023].Percent)
}

func TestTotalRowHeuristicIsCaseInsensitive(t *testing.T) {
	assert.True(t, isTotalRow("TOTAL ACTIVO CORRIENTE", balanceSheetTotalKeywords))
	assert.True(t, isTotalRow("Suma del Pasivo", balanceSheetTotalKeywords))
	assert.False(t, isTotalRow("Caja y Bancos", balanceSheetTotalKeywords))

	// Profit lines only count as totals on the income statement list.
	assert.False(t, isTotalRow("Utilidad Neta", balanceSheetTotalKeywords))
	assert.True(t, isTotalRow("Utilidad Neta", incomeStatementTotalKeywords))
	assert.True(t, isTotalRow("Resultado del Ejercicio", incomeStatementTotalKeywords))
}
