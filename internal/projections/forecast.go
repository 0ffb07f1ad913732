package projections

import (
	"fmt"
	"math"
	"sort"
)

const forecastMonths = 12

// BuildForecast projects twelve months of sales for the year after the last
// observed one. Observations are ordered chronologically before fitting, so
// callers may pass history in any order.
func BuildForecast(companyID int64, method Method, history []Observation) (*Forecast, error) {
	if !method.Valid() {
		return nil, ErrUnknownMethod
	}
	if len(history) < 2 {
		return nil, ErrTooFewObservations
	}

	obs := append([]Observation(nil), history...)
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].Year != obs[j].Year {
			return obs[i].Year < obs[j].Year
		}
		return obs[i].Month < obs[j].Month
	})

	forecast := &Forecast{
		CompanyID:  companyID,
		Method:     method,
		TargetYear: obs[len(obs)-1].Year + 1,
	}

	var values []float64
	var err error
	switch method {
	case MethodLeastSquares:
		values, forecast.Equation = leastSquares(obs)
	case MethodPctIncrement:
		values, err = pctIncrement(obs)
	case MethodAbsIncrement:
		values = absIncrement(obs)
	}
	if err != nil {
		return nil, err
	}

	forecast.Months = make([]Projection, 0, forecastMonths)
	for i, v := range values {
		forecast.Months = append(forecast.Months, Projection{
			Year:  forecast.TargetYear,
			Month: i + 1,
			Value: round2(v),
		})
	}
	return forecast, nil
}

// leastSquares fits y = a + bx over x = 1..n and extrapolates x = n+1..n+12.
func leastSquares(obs []Observation) ([]float64, string) {
	n := float64(len(obs))
	var sumX, sumY, sumXY, sumXX float64
	for i, o := range obs {
		x := float64(i + 1)
		sumX += x
		sumY += o.Value
		sumXY += x * o.Value
		sumXX += x * x
	}
	b := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	a := (sumY - b*sumX) / n

	sign := "+"
	if a < 0 {
		sign = "-"
	}
	equation := fmt.Sprintf("y = %.4fx %s %.4f", b, sign, math.Abs(a))

	values := make([]float64, 0, forecastMonths)
	for i := 1; i <= forecastMonths; i++ {
		x := n + float64(i)
		values = append(values, a+b*x)
	}
	return values, equation
}

// pctIncrement compounds the mean per-period growth rate onto the last
// observation.
func pctIncrement(obs []Observation) ([]float64, error) {
	first := obs[0].Value
	last := obs[len(obs)-1].Value
	if first == 0 {
		return nil, ErrZeroBase
	}
	inc := ((last - first) / first) / float64(len(obs))
	values := make([]float64, 0, forecastMonths)
	for i := 1; i <= forecastMonths; i++ {
		values = append(values, last*math.Pow(1+inc, float64(i)))
	}
	return values, nil
}

// absIncrement extends the mean per-period absolute change linearly from the
// last observation.
func absIncrement(obs []Observation) []float64 {
	first := obs[0].Value
	last := obs[len(obs)-1].Value
	inc := (last - first) / float64(len(obs))
	values := make([]float64, 0, forecastMonths)
	for i := 1; i <= forecastMonths; i++ {
		values = append(values, last+inc*float64(i))
	}
	return values
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
