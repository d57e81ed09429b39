// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import "math"

// MinMax tracks the smallest and largest raw values seen and stretches that
// span over the output range. Raw values may come from a wider or narrower
// domain than the output.
type MinMax struct {
	out      Range
	valueMin int
	valueMax int
}

// NewMinMax returns an unset range-tracking calibrator.
func NewMinMax(out Range) *MinMax {
	m := &MinMax{out: out}
	m.Reset()
	return m
}

// Reset seeds the extremes inverted past any raw value, so the first
// Update yields a one-sample range.
func (m *MinMax) Reset() {
	m.valueMin = math.MaxInt
	m.valueMax = math.MinInt
}

func (m *MinMax) Update(raw int) {
	if raw < m.valueMin {
		m.valueMin = raw
	}
	if raw > m.valueMax {
		m.valueMax = raw
	}
}

func (m *MinMax) Filter(raw int) int {
	// Nothing observed yet.
	if m.valueMin > m.valueMax {
		return m.out.Mid()
	}

	// A single observed value: everything above it is fully bent,
	// everything below fully open.
	if m.valueMin == m.valueMax {
		switch {
		case raw > m.valueMax:
			return m.out.Max
		case raw < m.valueMin:
			return m.out.Min
		default:
			return m.out.Mid()
		}
	}

	v := remap(float64(raw), float64(m.valueMin), float64(m.valueMax), float64(m.out.Min), float64(m.out.Max))
	return m.out.Clamp(int(v))
}

// Learned reports the observed extremes and whether any sample was seen.
func (m *MinMax) Learned() (Range, bool) {
	return Range{Min: m.valueMin, Max: m.valueMax}, m.valueMin <= m.valueMax
}

// ExponentialToLinear is meant to linearise sensors with a known power-law
// response (Hall-effect sensors are roughly cubic) before range tracking.
// The correction curve has not been characterised yet, so it currently
// behaves exactly like MinMax; Exponent is kept for when it is.
type ExponentialToLinear struct {
	MinMax
	Exponent float64
}

// NewExponentialToLinear returns an unset exponential calibrator.
func NewExponentialToLinear(exponent float64, out Range) *ExponentialToLinear {
	e := &ExponentialToLinear{MinMax: MinMax{out: out}, Exponent: exponent}
	e.Reset()
	return e
}

// TODO: apply the inverse power curve once the Hall-effect response is measured.
func (e *ExponentialToLinear) Filter(raw int) int {
	return e.MinMax.Filter(raw)
}

// Passthrough returns raw readings untouched.
type Passthrough struct{}

func (Passthrough) Reset()             {}
func (Passthrough) Update(int)         {}
func (Passthrough) Filter(raw int) int { return raw }
