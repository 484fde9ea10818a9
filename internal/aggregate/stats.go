package aggregate

import "math"

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }

// SafeDiv returns a/b, or 0 when b is 0.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Pct is 100*a/b rounded to two decimals, 0 when b is 0.
func Pct(a, b float64) float64 { return Round2(SafeDiv(a, b) * 100) }

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// StdDev is the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// CoefficientOfVariation is StdDev/Mean, 0 when the mean is 0.
func CoefficientOfVariation(xs []float64) float64 {
	return SafeDiv(StdDev(xs), Mean(xs))
}

// GrowthPct is the period-over-period change in percent. A zero baseline
// yields 100 when the current period is positive and 0 otherwise.
func GrowthPct(cur, prev float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return Round2((cur - prev) / prev * 100)
}
