// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/inertial_glove/internal/calibration"
	"github.com/relabs-tech/inertial_glove/internal/config"
	"github.com/relabs-tech/inertial_glove/internal/finger"
	"github.com/relabs-tech/inertial_glove/internal/glove"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
	"github.com/relabs-tech/inertial_glove/internal/sensors"
)

// InputOpener yields the raw input behind one pin spec.
type InputOpener interface {
	Input(spec string) (sensors.Input, error)
}

// Period of one simulated open/close motion.
const mockPeriod = 3 * time.Second

// mockOpener hands out simulated joints, each phase-shifted from the last.
type mockOpener struct {
	analogMax int
	opened    int
}

func (m *mockOpener) Input(string) (sensors.Input, error) {
	phase := 0.7 * float64(m.opened)
	m.opened++
	return sensors.NewMockInput(m.analogMax, mockPeriod, phase), nil
}

// openInputs returns the opener for cfg.InputSource and a function that
// releases it.
func openInputs(cfg *config.Config) (InputOpener, func(), error) {
	switch cfg.InputSource {
	case config.SourceMock:
		logrus.Info("glove: using simulated finger inputs")
		return &mockOpener{analogMax: cfg.AnalogMax}, func() {}, nil

	case config.SourceADS1x15:
		bank, err := sensors.OpenADCBank(sensors.ADCOpts{
			Bus:        cfg.ADCI2CBus,
			MaxVoltage: physic.ElectricPotential(cfg.ADCMaxMillivolts) * physic.MilliVolt,
			SampleRate: physic.Frequency(cfg.ADCSampleRateHz) * physic.Hertz,
			AnalogMax:  cfg.AnalogMax,
		})
		if err != nil {
			return nil, nil, err
		}
		return bank, func() {
			if err := bank.Close(); err != nil {
				logrus.Warnf("glove: close ADC bank: %v", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown input source %q", cfg.InputSource)
	}
}

// handBuilder turns pin specs into calibrated sensors. Every sensor shares
// one calibration mode, written only through the hand's controller.
type handBuilder struct {
	cfg    *config.Config
	opener InputOpener
	mode   *calibration.Mode
	raw    calibration.Range
	out    calibration.Range
}

// BuildHand assembles the configured fingers into a hand.
func BuildHand(cfg *config.Config, opener InputOpener) (*glove.Hand, error) {
	b := &handBuilder{
		cfg:    cfg,
		opener: opener,
		mode:   calibration.NewMode(false),
		raw:    calibration.Range{Min: 0, Max: cfg.AnalogMax},
		out:    calibration.Range{Min: cfg.OutputMin, Max: cfg.OutputMax},
	}
	if err := b.out.Validate(); err != nil {
		return nil, fmt.Errorf("output range: %w", err)
	}

	topo, err := finger.ParseTopology(cfg.KnuckleCount)
	if err != nil {
		return nil, err
	}
	layout := protocol.NewLayout(b.out)

	var fingers []finger.Finger
	for _, t := range cfg.Fingers() {
		fc := finger.Config{
			Type:            t,
			Topology:        topo,
			Layout:          layout,
			KnuckleOffset:   protocol.KnuckleOffset(t),
			AnalogMax:       cfg.AnalogMax,
			DependencyStart: cfg.KnuckleDependencyStart,
			DependencyEnd:   cfg.KnuckleDependencyEnd,
		}

		specs, err := b.jointSpecs(t, topo)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			s, err := b.sensor(spec, false)
			if err != nil {
				return nil, fmt.Errorf("finger %s: %w", t, err)
			}
			fc.Joints = append(fc.Joints, s)
		}

		if cfg.EnableSplay {
			s, err := b.sensor(cfg.SplayPinFor(t), true)
			if err != nil {
				return nil, fmt.Errorf("finger %s splay: %w", t, err)
			}
			fc.EnableSplay = true
			fc.Splay = s
		}

		f, err := finger.New(fc)
		if err != nil {
			return nil, err
		}
		fingers = append(fingers, f)
		logrus.Debugf("glove: %s finger built (%s, splay=%v)", t, topo, cfg.EnableSplay)
	}

	hand, err := glove.NewHand(fingers, cfg.CalibrationLoops)
	if err != nil {
		return nil, err
	}
	logrus.Infof("glove: hand of %d fingers, report up to %d bytes", len(fingers), hand.EncodedSize())
	return hand, nil
}

func (b *handBuilder) jointSpecs(t protocol.Type, topo finger.Topology) ([]string, error) {
	if b.cfg.InputSource == config.SourceMock {
		return make([]string, topo.Sensors()), nil
	}
	specs := strings.Split(b.cfg.PinsFor(t), ",")
	if len(specs) != topo.Sensors() {
		return nil, fmt.Errorf("finger %s: %d pins configured for %s", t, len(specs), topo)
	}
	return specs, nil
}

// sensor builds one joint or splay sensor. "a+b" is a Hall-effect pair
// whose halves are combined uncalibrated in raw units, then scaled onto
// the output range.
func (b *handBuilder) sensor(spec string, splay bool) (sensors.Sensor, error) {
	var s sensors.Sensor

	if left, right, ok := strings.Cut(spec, "+"); ok {
		l, err := b.input(left)
		if err != nil {
			return nil, err
		}
		r, err := b.input(right)
		if err != nil {
			return nil, err
		}
		ls := sensors.NewFilteredSensor(l, calibration.Passthrough{}, b.mode)
		rs := sensors.NewFilteredSensor(r, calibration.Passthrough{}, b.mode)
		if splay {
			s = sensors.NewHallEffectSplayPair(ls, rs, b.raw)
		} else {
			s = sensors.NewHallEffectCurlPair(ls, rs, b.raw)
		}
		if b.raw != b.out {
			s = sensors.Rescale(s, b.raw, b.out)
		}
	} else {
		in, err := b.input(spec)
		if err != nil {
			return nil, err
		}
		name := b.cfg.CalibrationCurl
		if splay {
			name = b.cfg.CalibrationSplay
		}
		c, err := calibration.ByName(name, calibration.Settings{
			Input:              b.raw,
			Output:             b.out,
			SensorMax:          b.cfg.SensorMaxSplay,
			DriverMaxDeviation: b.cfg.DriverMaxSplay,
			Exponent:           b.cfg.CalibrationExponent,
		})
		if err != nil {
			return nil, err
		}
		s = sensors.NewFilteredSensor(in, c, b.mode)
	}

	if (splay && b.cfg.InvertSplay) || (!splay && b.cfg.InvertCurl) {
		s = sensors.Invert(s, b.out)
	}
	return s, nil
}

func (b *handBuilder) input(spec string) (sensors.Input, error) {
	in, err := b.opener.Input(strings.TrimSpace(spec))
	if err != nil {
		return nil, err
	}
	if b.cfg.EnableMedianFilter {
		in = sensors.NewMedianInput(in, b.cfg.MedianSamples)
	}
	return in, nil
}
