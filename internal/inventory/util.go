package inventory

import (
	"fmt"
	"math"
)

// demandStats returns the mean, population standard deviation and sum of values.
func demandStats(values []float64) (mean, std, sum float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	for _, v := range values {
		sum += v
	}
	n := float64(len(values))
	mean = sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std = math.Sqrt(sq / n)
	return mean, std, sum
}

// units formats a quantity as a whole number of units for messages.
func units(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
