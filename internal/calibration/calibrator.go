// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration maps raw analog readings onto the output range the
// host driver expects. Every strategy implements Calibrator; the stateful
// ones learn the extremes of the wearer's motion while calibration is on.
package calibration

import "fmt"

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// Mid returns the neutral value reported before anything has been learned.
func (r Range) Mid() int {
	return (r.Min + r.Max) / 2
}

// Clamp locks v into the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Validate rejects empty or inverted ranges.
func (r Range) Validate() error {
	if r.Min >= r.Max {
		return fmt.Errorf("invalid range [%d, %d]: min must be below max", r.Min, r.Max)
	}
	return nil
}

// Calibrator is a mapping strategy from the raw domain onto the output range.
// Filter must be usable even if Update was never called.
type Calibrator interface {
	// Reset forgets everything learned so far.
	Reset()
	// Update feeds one raw sample into the learned state.
	Update(raw int)
	// Filter maps a raw sample using the current learned state.
	Filter(raw int) int
}

// Calibrated is implemented by everything that owns calibrators: sensors,
// sensor pairs, fingers and the hand.
type Calibrated interface {
	ResetCalibration()
	EnableCalibration()
	DisableCalibration()
}

// remap linearly maps x from [inMin, inMax] onto [outMin, outMax].
func remap(x, inMin, inMax, outMin, outMax float64) float64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// Remap is the integer form of remap used by fingers for derived knuckles.
// The result is truncated toward zero.
func Remap(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return (outMin + outMax) / 2
	}
	return int(remap(float64(x), float64(inMin), float64(inMax), float64(outMin), float64(outMax)))
}

// Settings carries the constants a strategy may need when built by name.
type Settings struct {
	Input              Range // raw domain, used by the center-point strategies
	Output             Range
	SensorMax          int
	DriverMaxDeviation int
	Exponent           float64
}

// ByName builds a fresh calibrator from its configuration name.
func ByName(name string, s Settings) (Calibrator, error) {
	if err := s.Output.Validate(); err != nil {
		return nil, fmt.Errorf("calibrator %q: output %w", name, err)
	}
	switch name {
	case "minmax":
		return NewMinMax(s.Output), nil
	case "exponential":
		return NewExponentialToLinear(s.Exponent, s.Output), nil
	case "center":
		if err := checkDeviation(s); err != nil {
			return nil, fmt.Errorf("calibrator %q: %w", name, err)
		}
		return NewCenterPointDeviation(s.SensorMax, s.DriverMaxDeviation, s.Input, s.Output), nil
	case "fixed_center":
		if err := checkDeviation(s); err != nil {
			return nil, fmt.Errorf("calibrator %q: %w", name, err)
		}
		return NewFixedCenterPointDeviation(s.SensorMax, s.DriverMaxDeviation, s.Input, s.Output), nil
	case "passthrough":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("unknown calibrator %q", name)
	}
}

func checkDeviation(s Settings) error {
	if err := s.Input.Validate(); err != nil {
		return fmt.Errorf("input %w", err)
	}
	if s.SensorMax <= 0 {
		return fmt.Errorf("sensor max must be positive, got %d", s.SensorMax)
	}
	if s.DriverMaxDeviation <= 0 || 2*s.DriverMaxDeviation > s.SensorMax {
		return fmt.Errorf("driver max deviation %d out of range for sensor max %d", s.DriverMaxDeviation, s.SensorMax)
	}
	return nil
}
