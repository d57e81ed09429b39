// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

// CenterPointDeviation models a sensor whose mechanical travel (e.g. 270°)
// is far wider than what the actuator can reproduce (e.g. ±20°). It learns
// the wearer's extremes in sensor units, takes their midpoint as the neutral
// pose, and reports deviation from that pose scaled onto the output range.
// Raw readings span in, the input's full travel.
type CenterPointDeviation struct {
	in           Range
	out          Range
	sensorMax    int
	maxDeviation int
	rangeMin     int
	rangeMax     int
}

// NewCenterPointDeviation returns an unset center-point calibrator.
func NewCenterPointDeviation(sensorMax, driverMaxDeviation int, in, out Range) *CenterPointDeviation {
	c := &CenterPointDeviation{
		in:           in,
		out:          out,
		sensorMax:    sensorMax,
		maxDeviation: driverMaxDeviation,
	}
	c.Reset()
	return c
}

func (c *CenterPointDeviation) Reset() {
	c.rangeMin = c.sensorMax
	c.rangeMax = 0
}

func (c *CenterPointDeviation) Update(raw int) {
	s := c.toSensor(raw)
	if s < c.rangeMin {
		c.rangeMin = s
	}
	if s > c.rangeMax {
		c.rangeMax = s
	}
}

func (c *CenterPointDeviation) Filter(raw int) int {
	if c.rangeMin > c.rangeMax {
		return c.out.Mid()
	}
	center := float64(c.rangeMin+c.rangeMax) / 2
	return deviationToOutput(c.toSensor(raw), center, c.maxDeviation, c.out)
}

// Learned reports the extremes in sensor units.
func (c *CenterPointDeviation) Learned() (Range, bool) {
	return Range{Min: c.rangeMin, Max: c.rangeMax}, c.rangeMin <= c.rangeMax
}

func (c *CenterPointDeviation) toSensor(raw int) int {
	return toSensor(raw, c.in, c.sensorMax)
}

// toSensor maps a raw reading from in onto [0, sensorMax].
func toSensor(raw int, in Range, sensorMax int) int {
	return int(remap(float64(raw), float64(in.Min), float64(in.Max), 0, float64(sensorMax)))
}

// FixedCenterPointDeviation is CenterPointDeviation pinned to the mechanical
// center of the sensor. It never learns.
type FixedCenterPointDeviation struct {
	in           Range
	out          Range
	sensorMax    int
	maxDeviation int
}

// NewFixedCenterPointDeviation returns a stateless center-point calibrator.
func NewFixedCenterPointDeviation(sensorMax, driverMaxDeviation int, in, out Range) *FixedCenterPointDeviation {
	return &FixedCenterPointDeviation{in: in, out: out, sensorMax: sensorMax, maxDeviation: driverMaxDeviation}
}

func (f *FixedCenterPointDeviation) Reset()     {}
func (f *FixedCenterPointDeviation) Update(int) {}

func (f *FixedCenterPointDeviation) Filter(raw int) int {
	return deviationToOutput(toSensor(raw, f.in, f.sensorMax), float64(f.sensorMax)/2, f.maxDeviation, f.out)
}

func deviationToOutput(sensor int, center float64, maxDeviation int, out Range) int {
	dev := float64(sensor) - center
	limit := float64(maxDeviation)
	if dev < -limit {
		dev = -limit
	}
	if dev > limit {
		dev = limit
	}
	return out.Clamp(int(remap(dev, -limit, limit, float64(out.Min), float64(out.Max))))
}
