package lethality

// Summary holds the descriptive statistics shown next to the F0 result.
type Summary struct {
	Max float64
	Avg float64
}

// SummaryStatistics returns the maximum and mean of series.
// It returns ErrEmptySeries rather than dividing by zero.
func SummaryStatistics(series []float64) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, ErrEmptySeries
	}
	hi, sum := series[0], 0.0
	for _, t := range series {
		if t > hi {
			hi = t
		}
		sum += t
	}
	return Summary{Max: hi, Avg: sum / float64(len(series))}, nil
}
