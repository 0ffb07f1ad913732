package ratios

import (
	"math"

	"github.com/meridian-fin/meridian/internal/catalog"
)

// Kind tags the arithmetic rule of a ratio definition. The dispatch table is
// closed: component counts and names outside it are not computable.
type Kind int

const (
	// KindUnsupported marks definitions the arithmetic table cannot handle.
	KindUnsupported Kind = iota
	// KindSimpleQuotient divides the first component by the second.
	KindSimpleQuotient
	// KindAcidTest computes (first - second) / third. Component order is
	// fixed by creation order: current assets, inventory, current liabilities.
	KindAcidTest
)

// acidTestName is the exact definition name the legacy data carries for the
// acid-test ratio. Matching on it is brittle, but definitions have no formula
// kind column, so it stays for compatibility.
const acidTestName = "Prueba Ácida"

// ResolveKind classifies a ratio definition once at load time.
func ResolveKind(def catalog.RatioDefinition) Kind {
	switch {
	case len(def.Components) == 2:
		return KindSimpleQuotient
	case len(def.Components) == 3 && def.Name == acidTestName:
		return KindAcidTest
	default:
		return KindUnsupported
	}
}

// Compute applies the kind's arithmetic to the resolved operand values. A nil
// result means the ratio is not computable: unsupported kind, zero divisor or
// an arithmetic fault. Never an error.
func (k Kind) Compute(operands []float64) *float64 {
	switch k {
	case KindSimpleQuotient:
		if len(operands) != 2 {
			return nil
		}
		return safeQuotient(operands[0], operands[1])
	case KindAcidTest:
		if len(operands) != 3 {
			return nil
		}
		return safeQuotient(operands[0]-operands[1], operands[2])
	default:
		return nil
	}
}

func safeQuotient(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	q := numerator / denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return nil
	}
	v := Round4(q)
	return &v
}
