package utils

import "math"

// SafeDiv returns a/b, or 0 when b is zero or the result is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// SafePercent returns part/whole*100, or 0 when whole is not positive.
func SafePercent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return SafeDiv(part, whole) * 100
}
