package projections

import "errors"

// Method enumerates the supported forecasting methods.
type Method string

const (
	MethodLeastSquares Method = "LEAST_SQUARES"
	MethodPctIncrement Method = "PCT_INCREMENT"
	MethodAbsIncrement Method = "ABS_INCREMENT"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodLeastSquares, MethodPctIncrement, MethodAbsIncrement:
		return true
	}
	return false
}

var (
	// ErrTooFewObservations indicates a history shorter than two points.
	ErrTooFewObservations = errors.New("projections: at least two observations are required")
	// ErrZeroBase indicates a percentage increment forecast whose first
	// observation is zero.
	ErrZeroBase = errors.New("projections: percentage increment requires a non-zero first observation")
	// ErrUnknownMethod indicates an unsupported forecasting method.
	ErrUnknownMethod = errors.New("projections: unknown forecasting method")
	// ErrNoHistory indicates a company without recorded sales history.
	ErrNoHistory = errors.New("projections: no sales history recorded for the company")
)

// Observation is one recorded monthly sales figure.
type Observation struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// Projection is one forecast monthly sales figure.
type Projection struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// Forecast is a twelve month projection produced by one method. Equation is
// only set for the least squares method.
type Forecast struct {
	CompanyID  int64        `json:"company_id"`
	Method     Method       `json:"method"`
	TargetYear int          `json:"target_year"`
	Equation   string       `json:"equation,omitempty"`
	Months     []Projection `json:"months"`
}
