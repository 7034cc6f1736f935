package analysis

import "math"

// meanStd returns the mean and sample standard deviation of values.
// ok is false when fewer than two values are given.
func meanStd(values []float64) (mean, std float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, 0, false
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(n-1)), true
}
