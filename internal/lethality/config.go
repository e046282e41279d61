package lethality

import (
	"errors"
	"fmt"
	"math"
)

// Canonical constants for steam sterilization of low-acid foods.
const (
	DefaultReferenceTemp  = 121.1
	DefaultZValue         = 10.0
	DefaultMinHoldTemp    = 121.1
	DefaultMinHoldMinutes = 3

	// PracticalFloorTemp is the temperature below which the practical
	// convention treats the kill rate as zero.
	PracticalFloorTemp = 90.0
)

// FloorPolicy selects which samples contribute to F0.
type FloorPolicy string

const (
	// FloorPractical skips samples below FloorTemp.
	FloorPractical FloorPolicy = "practical"
	// FloorCanonical applies the formula to every sample.
	FloorCanonical FloorPolicy = "canonical"
)

// HoldPolicy selects how the holding-time requirement is judged.
type HoldPolicy string

const (
	HoldConsecutive HoldPolicy = "consecutive"
	HoldTotal       HoldPolicy = "total"
)

var (
	// ErrEmptySeries is returned when an operation needs at least one sample.
	ErrEmptySeries = errors.New("empty temperature series")
	// ErrInvalidConfig is returned for unrecognized or inconsistent options.
	ErrInvalidConfig = errors.New("invalid lethality config")
)

// Config holds every tunable of the calculation. There is no zero-value
// default for Floor: callers must pick one.
type Config struct {
	ReferenceTemp float64
	ZValue        float64

	Floor FloorPolicy
	// FloorTemp is only consulted when Floor == FloorPractical.
	FloorTemp float64

	HoldPolicy     HoldPolicy
	MinHoldTemp    float64
	MinHoldMinutes int
}

// NewConfig returns a Config with the canonical reference temperature,
// z-value and holding requirement and the given floor policy.
func NewConfig(floor FloorPolicy) Config {
	return Config{
		ReferenceTemp:  DefaultReferenceTemp,
		ZValue:         DefaultZValue,
		Floor:          floor,
		FloorTemp:      PracticalFloorTemp,
		HoldPolicy:     HoldConsecutive,
		MinHoldTemp:    DefaultMinHoldTemp,
		MinHoldMinutes: DefaultMinHoldMinutes,
	}
}

// EffectiveFloor returns the temperature threshold at or above which a sample
// contributes lethality. The canonical policy returns -Inf.
func (c Config) EffectiveFloor() float64 {
	if c.Floor == FloorCanonical {
		return math.Inf(-1)
	}
	return c.FloorTemp
}

// Validate reports whether c is a usable combination of options.
func (c Config) Validate() error {
	if math.IsNaN(c.ReferenceTemp) || math.IsInf(c.ReferenceTemp, 0) {
		return fmt.Errorf("%w: reference_temp must be finite", ErrInvalidConfig)
	}
	if !(c.ZValue > 0) || math.IsInf(c.ZValue, 0) {
		return fmt.Errorf("%w: z_value must be positive and finite, got %v", ErrInvalidConfig, c.ZValue)
	}
	switch c.Floor {
	case FloorPractical:
		if math.IsNaN(c.FloorTemp) {
			return fmt.Errorf("%w: floor_temp must be a number", ErrInvalidConfig)
		}
	case FloorCanonical:
	case "":
		return fmt.Errorf("%w: floor policy must be set (practical or canonical)", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown floor policy %q", ErrInvalidConfig, c.Floor)
	}
	switch c.HoldPolicy {
	case HoldConsecutive, HoldTotal:
	default:
		return fmt.Errorf("%w: unknown hold policy %q", ErrInvalidConfig, c.HoldPolicy)
	}
	if math.IsNaN(c.MinHoldTemp) || math.IsInf(c.MinHoldTemp, 0) {
		return fmt.Errorf("%w: min_hold_temp must be finite", ErrInvalidConfig)
	}
	if c.MinHoldMinutes < 1 {
		return fmt.Errorf("%w: min_hold_minutes must be at least 1, got %d", ErrInvalidConfig, c.MinHoldMinutes)
	}
	return nil
}
