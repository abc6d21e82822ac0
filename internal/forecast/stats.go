package forecast

import (
	"math"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func salesValues(history []domain.SalesObservation) []float64 {
	values := make([]float64, len(history))
	for i, obs := range history {
		values[i] = obs.Sales
	}
	return values
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sumOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

func populationStd(values []float64) float64 {
	return stdDev(values, 0)
}

// sampleStd uses n-1 in the denominator and is 0 for fewer than two values.
func sampleStd(values []float64) float64 {
	return stdDev(values, 1)
}

func stdDev(values []float64, ddof int) float64 {
	n := len(values) - ddof
	if n <= 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(n))
}

// linearFit returns the least-squares intercept and slope of values against
// their index.
func linearFit(values []float64) (intercept, slope float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return values[0], 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return intercept, slope
}
