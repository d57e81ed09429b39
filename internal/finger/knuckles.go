// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package finger

import (
	"github.com/relabs-tech/inertial_glove/internal/calibration"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
	"github.com/relabs-tech/inertial_glove/internal/sensors"
)

// oneKnuckle is a single sensor driving curl directly.
type oneKnuckle struct {
	common
	sensor sensors.Sensor
	value  int
}

func (f *oneKnuckle) ReadInput()      { f.value = f.sensor.Value() }
func (f *oneKnuckle) Curl() int       { return f.value }
func (f *oneKnuckle) Knuckles() []int { return []int{f.value} }

func (f *oneKnuckle) EncodedSize() int { return f.layout.CurlSize() }

func (f *oneKnuckle) AppendEncoded(dst []byte) []byte {
	return f.layout.AppendCurl(dst, f.typ, f.value)
}

func (f *oneKnuckle) Encode(dst []byte) int {
	return protocol.EncodeInto(dst, f.AppendEncoded)
}

func (f *oneKnuckle) ResetCalibration()   { f.sensor.ResetCalibration() }
func (f *oneKnuckle) EnableCalibration()  { f.sensor.EnableCalibration() }
func (f *oneKnuckle) DisableCalibration() { f.sensor.DisableCalibration() }

// Multi-knuckle fingers always report three knuckle values.
const knuckleValues = 3

// multiKnuckle covers both two- and three-sensor fingers. With two sensors
// the last knuckle is derived from the middle one, since the two outer
// joints of a real finger bend together.
type multiKnuckle struct {
	common
	sensors []sensors.Sensor
	offset  int
	values  [knuckleValues]int

	derive         bool
	depMin, depMax int // raw units
	analogMax      int
}

func (f *multiKnuckle) ReadInput() {
	for i, s := range f.sensors {
		f.values[i] = s.Value()
	}
	if f.derive {
		f.values[2] = f.derived(f.values[1])
	}
}

// derived maps the middle knuckle's dependency sub-range onto the whole
// output range. The calibrated middle value is taken back to raw units
// first, where the sub-range is defined. Outside the sub-range it holds at
// the ends.
func (f *multiKnuckle) derived(middle int) int {
	out := f.layout.Output()
	raw := calibration.Remap(out.Clamp(middle), out.Min, out.Max, 0, f.analogMax)
	sub := calibration.Range{Min: f.depMin, Max: f.depMax}
	return calibration.Remap(sub.Clamp(raw), f.depMin, f.depMax, out.Min, out.Max)
}

func (f *multiKnuckle) Curl() int {
	return (f.values[0] + f.values[1] + f.values[2]) / knuckleValues
}

func (f *multiKnuckle) Knuckles() []int {
	k := f.values
	return k[:]
}

func (f *multiKnuckle) EncodedSize() int {
	return knuckleValues * f.layout.KnuckleSize()
}

func (f *multiKnuckle) AppendEncoded(dst []byte) []byte {
	for i, v := range f.values {
		dst = f.layout.AppendKnuckle(dst, f.typ, i+f.offset, v)
	}
	return dst
}

func (f *multiKnuckle) Encode(dst []byte) int {
	return protocol.EncodeInto(dst, f.AppendEncoded)
}

func (f *multiKnuckle) ResetCalibration() {
	fanOut(f.sensors, sensors.Sensor.ResetCalibration)
}

func (f *multiKnuckle) EnableCalibration() {
	fanOut(f.sensors, sensors.Sensor.EnableCalibration)
}

func (f *multiKnuckle) DisableCalibration() {
	fanOut(f.sensors, sensors.Sensor.DisableCalibration)
}
