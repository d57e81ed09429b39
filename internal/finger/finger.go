// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package finger composes joint sensors into fingers. A finger has one,
// two or three knuckles and may carry an extra splay sensor; the shape is
// fixed when the finger is built and New refuses shapes it cannot encode.
package finger

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/inertial_glove/internal/calibration"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
	"github.com/relabs-tech/inertial_glove/internal/sensors"
)

// Topology is the number of sensed knuckles.
type Topology int

const (
	OneKnuckle Topology = iota + 1
	TwoKnuckle
	ThreeKnuckle
)

// ParseTopology maps a knuckle count onto a Topology.
func ParseTopology(knuckles int) (Topology, error) {
	t := Topology(knuckles)
	if t < OneKnuckle || t > ThreeKnuckle {
		return 0, fmt.Errorf("unsupported knuckle count %d: must be 1, 2 or 3", knuckles)
	}
	return t, nil
}

// Sensors is the number of physical joint sensors the topology reads.
func (t Topology) Sensors() int { return int(t) }

func (t Topology) String() string {
	switch t {
	case OneKnuckle:
		return "one-knuckle"
	case TwoKnuckle:
		return "two-knuckle"
	case ThreeKnuckle:
		return "three-knuckle"
	default:
		return fmt.Sprintf("Topology(%d)", int(t))
	}
}

// Finger is one tracked finger.
type Finger interface {
	calibration.Calibrated
	protocol.Encoder

	// ReadInput pulls fresh values from every owned sensor.
	ReadInput()
	// Curl is the aggregate bend from the last ReadInput.
	Curl() int
	// Splay is the side-to-side value from the last ReadInput, or the
	// output midpoint for fingers without a splay sensor.
	Splay() int
	// Knuckles returns the per-knuckle values from the last ReadInput.
	Knuckles() []int
	// Type is the finger's report tag.
	Type() protocol.Type
	// AppendEncoded appends the finger's fields to dst.
	AppendEncoded(dst []byte) []byte
}

// Config describes one finger.
type Config struct {
	Type     protocol.Type
	Topology Topology
	Joints   []sensors.Sensor // one per sensed knuckle

	EnableSplay bool
	Splay       sensors.Sensor // required iff EnableSplay

	Layout        protocol.Layout
	KnuckleOffset int // first wire knuckle index

	// Two-knuckle fingers derive the last joint from the middle one over
	// [DependencyStart, DependencyEnd] * AnalogMax.
	AnalogMax       int
	DependencyStart float64
	DependencyEnd   float64
}

var errNilSensor = errors.New("nil sensor")

// New builds the finger described by cfg.
func New(cfg Config) (Finger, error) {
	if !cfg.Type.IsFinger() {
		return nil, fmt.Errorf("finger: %q is not a finger tag", rune(cfg.Type))
	}
	name := cfg.Type.String()

	if _, err := ParseTopology(int(cfg.Topology)); err != nil {
		return nil, fmt.Errorf("finger %s: %w", name, err)
	}
	if len(cfg.Joints) != cfg.Topology.Sensors() {
		return nil, fmt.Errorf("finger %s: %s needs %d joint sensors, got %d",
			name, cfg.Topology, cfg.Topology.Sensors(), len(cfg.Joints))
	}
	for i, s := range cfg.Joints {
		if s == nil {
			return nil, fmt.Errorf("finger %s: joint %d: %w", name, i, errNilSensor)
		}
	}
	if cfg.EnableSplay && cfg.Splay == nil {
		return nil, fmt.Errorf("finger %s: splay enabled: %w", name, errNilSensor)
	}
	if !cfg.EnableSplay && cfg.Splay != nil {
		return nil, fmt.Errorf("finger %s: splay sensor given but splay disabled", name)
	}

	c := common{typ: cfg.Type, layout: cfg.Layout}

	var f Finger
	switch cfg.Topology {
	case OneKnuckle:
		f = &oneKnuckle{common: c, sensor: cfg.Joints[0]}

	case TwoKnuckle, ThreeKnuckle:
		if cfg.KnuckleOffset < 0 || cfg.KnuckleOffset+knuckleValues > protocol.MaxKnuckles {
			return nil, fmt.Errorf("finger %s: knuckle offset %d leaves no room for %d knuckles",
				name, cfg.KnuckleOffset, knuckleValues)
		}
		m := &multiKnuckle{common: c, sensors: cfg.Joints, offset: cfg.KnuckleOffset}
		if cfg.Topology == TwoKnuckle {
			lo, hi, err := dependencyRange(cfg)
			if err != nil {
				return nil, fmt.Errorf("finger %s: %w", name, err)
			}
			m.derive = true
			m.depMin, m.depMax = lo, hi
			m.analogMax = cfg.AnalogMax
		}
		f = m
	}

	if cfg.EnableSplay {
		f = &withSplay{Finger: f, splay: cfg.Splay, layout: cfg.Layout}
	}
	return f, nil
}

func dependencyRange(cfg Config) (int, int, error) {
	start, end := cfg.DependencyStart, cfg.DependencyEnd
	if start < 0 || end > 1 || start >= end {
		return 0, 0, fmt.Errorf("knuckle dependency range [%g, %g] must satisfy 0 <= start < end <= 1", start, end)
	}
	if cfg.AnalogMax <= 0 {
		return 0, 0, fmt.Errorf("analog max must be positive, got %d", cfg.AnalogMax)
	}
	lo := int(float64(cfg.AnalogMax) * start)
	hi := int(float64(cfg.AnalogMax) * end)
	if lo >= hi {
		return 0, 0, fmt.Errorf("knuckle dependency range [%d, %d] is empty", lo, hi)
	}
	return lo, hi, nil
}

// common holds what every finger shape needs for encoding.
type common struct {
	typ    protocol.Type
	layout protocol.Layout
}

func (c *common) Type() protocol.Type { return c.typ }

// Splay for fingers without a splay sensor.
func (c *common) Splay() int { return c.layout.Output().Mid() }

func fanOut(ss []sensors.Sensor, fn func(sensors.Sensor)) {
	for _, s := range ss {
		fn(s)
	}
}
