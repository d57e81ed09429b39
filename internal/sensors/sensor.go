// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/relabs-tech/inertial_glove/internal/calibration"
)

// Input is a physical source of raw readings in [0, ANALOG_MAX].
type Input interface {
	ReadRaw() int
}

// InputFunc adapts a function to Input.
type InputFunc func() int

func (f InputFunc) ReadRaw() int { return f() }

// Sensor produces one calibrated value per read.
type Sensor interface {
	calibration.Calibrated
	Value() int
}

// FilteredSensor pairs an input with a calibrator. While its mode is
// enabled every read also updates the calibrator.
type FilteredSensor struct {
	input      Input
	calibrator calibration.Calibrator
	mode       *calibration.Mode
}

// NewFilteredSensor wires input through c. A nil mode gives the sensor a
// private one; passing the hand's mode lets one switch drive every sensor.
func NewFilteredSensor(input Input, c calibration.Calibrator, mode *calibration.Mode) *FilteredSensor {
	if mode == nil {
		mode = calibration.NewMode(false)
	}
	return &FilteredSensor{input: input, calibrator: c, mode: mode}
}

// Value reads the input and returns the calibrated value.
func (s *FilteredSensor) Value() int {
	raw := s.input.ReadRaw()
	if s.mode.Enabled() {
		s.calibrator.Update(raw)
	}
	return s.calibrator.Filter(raw)
}

func (s *FilteredSensor) ResetCalibration()   { s.calibrator.Reset() }
func (s *FilteredSensor) EnableCalibration()  { s.mode.Enable() }
func (s *FilteredSensor) DisableCalibration() { s.mode.Disable() }

// Calibrator exposes the strategy, mostly for status reporting.
func (s *FilteredSensor) Calibrator() calibration.Calibrator { return s.calibrator }

// inverted mirrors a sensor's value inside the output range.
type inverted struct {
	Sensor
	out calibration.Range
}

// Invert flips s so that out.Min and out.Max swap places.
func Invert(s Sensor, out calibration.Range) Sensor {
	return &inverted{Sensor: s, out: out}
}

func (i *inverted) Value() int {
	return i.out.Max - i.Sensor.Value() + i.out.Min
}

// rescaled maps a sensor's value from one range onto another.
type rescaled struct {
	Sensor
	in, out calibration.Range
}

// Rescale reports s's values, which span in, linearly mapped onto out.
// Values outside in land outside out; the encoder clamps them.
func Rescale(s Sensor, in, out calibration.Range) Sensor {
	return &rescaled{Sensor: s, in: in, out: out}
}

func (r *rescaled) Value() int {
	return calibration.Remap(r.Sensor.Value(), r.in.Min, r.in.Max, r.out.Min, r.out.Max)
}
