// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// SampleReader is the part of analog.PinADC an AnalogInput needs.
type SampleReader interface {
	Range() (analog.Sample, analog.Sample)
	Read() (analog.Sample, error)
}

// AnalogInput rescales an ADC channel onto [0, analogMax]. A failed
// conversion repeats the last good reading; a flaky wire is treated as
// plausible data and left for the calibrator's clamp.
type AnalogInput struct {
	name      string
	pin       SampleReader
	analogMax int
	last      int
	failures  int
}

// NewAnalogInput wraps pin. name is only used in log messages.
func NewAnalogInput(name string, pin SampleReader, analogMax int) *AnalogInput {
	return &AnalogInput{name: name, pin: pin, analogMax: analogMax, last: analogMax / 2}
}

func (a *AnalogInput) ReadRaw() int {
	s, err := a.pin.Read()
	if err != nil {
		a.failures++
		if a.failures == 1 || a.failures%1000 == 0 {
			logrus.Debugf("sensors: %s read error (%d so far): %v", a.name, a.failures, err)
		}
		return a.last
	}

	lo, hi := a.pin.Range()
	v := int(s.Raw)
	if hi.Raw > lo.Raw {
		v = int(int64(s.Raw-lo.Raw) * int64(a.analogMax) / int64(hi.Raw-lo.Raw))
	}
	if v < 0 {
		v = 0
	}
	if v > a.analogMax {
		v = a.analogMax
	}
	a.last = v
	return v
}

// PinSpec addresses one ADS1x15 channel as "0x48:2".
type PinSpec struct {
	Addr    uint16
	Channel int
}

func (p PinSpec) String() string {
	return fmt.Sprintf("0x%02X:%d", p.Addr, p.Channel)
}

// ParsePinSpec parses "addr:channel".
func ParsePinSpec(s string) (PinSpec, error) {
	addrStr, chStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return PinSpec{}, fmt.Errorf("pin %q: expected addr:channel", s)
	}
	addr, err := strconv.ParseUint(addrStr, 0, 16)
	if err != nil {
		return PinSpec{}, fmt.Errorf("pin %q: invalid address: %w", s, err)
	}
	ch, err := strconv.Atoi(chStr)
	if err != nil {
		return PinSpec{}, fmt.Errorf("pin %q: invalid channel: %w", s, err)
	}
	if ch < 0 || ch > 3 {
		return PinSpec{}, fmt.Errorf("pin %q: channel must be 0-3, got %d", s, ch)
	}
	return PinSpec{Addr: uint16(addr), Channel: ch}, nil
}

var singleEnded = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADCOpts configures the converters behind an ADCBank.
type ADCOpts struct {
	Bus        string // I2C bus name, "" for the default bus
	MaxVoltage physic.ElectricPotential
	SampleRate physic.Frequency
	AnalogMax  int
}

// ADCBank owns the I2C bus and every ADS1115 the glove's sensors sit on.
type ADCBank struct {
	opts ADCOpts
	bus  i2c.BusCloser
	mu   sync.Mutex
	devs map[uint16]*ads1x15.Dev
	pins []ads1x15.PinADC
}

// OpenADCBank initialises the periph host and opens the I2C bus.
func OpenADCBank(opts ADCOpts) (*ADCBank, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(opts.Bus)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", opts.Bus, err)
	}
	logrus.Infof("sensors: ADC bank on I2C bus %q (max %s, %s)", opts.Bus, opts.MaxVoltage, opts.SampleRate)
	return &ADCBank{opts: opts, bus: bus, devs: make(map[uint16]*ads1x15.Dev)}, nil
}

// Input returns an AnalogInput for the converter channel named by spec.
// Converters are created on first use.
func (b *ADCBank) Input(spec string) (Input, error) {
	p, err := ParsePinSpec(spec)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dev, ok := b.devs[p.Addr]
	if !ok {
		dev, err = ads1x15.NewADS1115(b.bus, &ads1x15.Opts{I2cAddress: p.Addr})
		if err != nil {
			return nil, fmt.Errorf("ADS1115 at 0x%02X: %w", p.Addr, err)
		}
		b.devs[p.Addr] = dev
		logrus.Infof("sensors: ADS1115 initialized at 0x%02X", p.Addr)
	}

	pin, err := dev.PinForChannel(singleEnded[p.Channel], b.opts.MaxVoltage, b.opts.SampleRate, ads1x15.BestQuality)
	if err != nil {
		return nil, fmt.Errorf("ADS1115 %s: %w", p, err)
	}
	b.pins = append(b.pins, pin)
	return NewAnalogInput(p.String(), pin, b.opts.AnalogMax), nil
}

// Close halts every pin and converter and releases the bus.
func (b *ADCBank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pins {
		if err := p.Halt(); err != nil {
			logrus.Warnf("sensors: halt pin: %v", err)
		}
	}
	for addr, d := range b.devs {
		if err := d.Halt(); err != nil {
			logrus.Warnf("sensors: halt ADS1115 0x%02X: %v", addr, err)
		}
	}
	return b.bus.Close()
}
