package lethality

import "fmt"

// Result is the outcome of one evaluation. It is derived once per series and
// not modified afterwards.
type Result struct {
	F0Curve        []float64
	F0Total        float64
	MaxTemp        float64
	AvgTemp        float64
	HoldingTimeMet bool

	// HoldingMinutes is the total minutes at/above MinHoldTemp under
	// HoldTotal, or the longest consecutive run under HoldConsecutive.
	HoldingMinutes int
	HoldPolicy     HoldPolicy
}

// Evaluate computes the F0 curve, summary statistics and holding-time verdict
// for series under cfg.
func Evaluate(series []float64, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	sum, err := SummaryStatistics(series)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate: %w", err)
	}

	curve := ComputeF0Curve(series, cfg.ReferenceTemp, cfg.ZValue, cfg.EffectiveFloor())
	res := Result{
		F0Curve:    curve,
		F0Total:    curve[len(curve)-1],
		MaxTemp:    sum.Max,
		AvgTemp:    sum.Avg,
		HoldPolicy: cfg.HoldPolicy,
	}

	switch cfg.HoldPolicy {
	case HoldTotal:
		res.HoldingMinutes = TotalMinutesAtOrAbove(series, cfg.MinHoldTemp)
		res.HoldingTimeMet = res.HoldingMinutes >= cfg.MinHoldMinutes
	default:
		res.HoldingMinutes = LongestRunAtOrAbove(series, cfg.MinHoldTemp)
		res.HoldingTimeMet = CheckMinimumHoldingTime(series, cfg.MinHoldTemp, cfg.MinHoldMinutes)
	}
	return res, nil
}
