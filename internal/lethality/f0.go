package lethality

import "math"

// LethalRate returns the lethality contributed by one minute at temp.
// Samples below floor contribute nothing. Very low temperatures underflow
// to 0, which is fine: their contribution is negligible.
func LethalRate(temp, referenceTemp, zValue, floor float64) float64 {
	if temp < floor {
		return 0
	}
	return math.Pow(10, (temp-referenceTemp)/zValue)
}

// ComputeF0Curve returns the cumulative F0 after each one-minute sample.
// The result has the same length as series and never decreases.
func ComputeF0Curve(series []float64, referenceTemp, zValue, floor float64) []float64 {
	curve := make([]float64, len(series))
	var acc float64
	for i, t := range series {
		acc += LethalRate(t, referenceTemp, zValue, floor)
		curve[i] = acc
	}
	return curve
}
