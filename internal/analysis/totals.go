package analysis

import (
	"math"
	"strings"
)

// Account names in stored catalogs are Spanish, so the heuristics match
// Spanish subtotal wording. The two lists differ: income statements also
// treat profit lines (utilidad, resultado) as 100% rows so they are never
// divided by total revenue.
var balanceSheetTotalKeywords = []string{
	"total", "suma", "total general", "total activo", "total pasivo",
	"total patrimonio", "total de", "totales",
}

var incomeStatementTotalKeywords = append(append([]string{}, balanceSheetTotalKeywords...),
	"total ingresos", "total ventas", "total gastos", "utilidad", "resultado",
)

// revenueBaseKeywords pick the display base account of an income statement
// vertical report, in priority order.
var revenueBaseKeywords = []string{
	"ventas totales", "ingresos totales", "ventas", "ingresos operacionales", "ventas netas",
}

// isTotalRow reports whether an account name matches the subtotal heuristic.
// Case-insensitive substring match against the given keyword list.
func isTotalRow(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
