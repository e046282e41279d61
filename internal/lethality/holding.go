package lethality

// CheckMinimumHoldingTime reports whether series contains minMinutes
// consecutive samples at or above minTemp. Any sample below minTemp resets
// the run, so [122, 122, 100, 122, 122] fails a 3 minute requirement.
func CheckMinimumHoldingTime(series []float64, minTemp float64, minMinutes int) bool {
	run := 0
	for _, t := range series {
		if t < minTemp {
			run = 0
			continue
		}
		run++
		if run >= minMinutes {
			return true
		}
	}
	return false
}

// TotalMinutesAtOrAbove counts samples at or above minTemp anywhere in series.
func TotalMinutesAtOrAbove(series []float64, minTemp float64) int {
	n := 0
	for _, t := range series {
		if t >= minTemp {
			n++
		}
	}
	return n
}

// LongestRunAtOrAbove returns the length of the longest run of consecutive
// samples at or above minTemp.
func LongestRunAtOrAbove(series []float64, minTemp float64) int {
	best, run := 0, 0
	for _, t := range series {
		if t < minTemp {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}
