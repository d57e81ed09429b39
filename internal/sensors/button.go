package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Level is the part of gpio.PinIn a Button polls.
type Level interface {
	Read() gpio.Level
}

// Button is a polled push button. The calibration button is wired
// active-low with a pull-up unless inverted.
type Button struct {
	pin    Level
	invert bool
	last   bool
}

// NewButton wraps an already configured pin.
func NewButton(pin Level, invert bool) *Button {
	return &Button{pin: pin, invert: invert}
}

// OpenButton configures the named GPIO as a pulled-up input.
func OpenButton(name string, invert bool) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("button pin %q not found", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("button pin %q: %w", name, err)
	}
	return NewButton(p, invert), nil
}

// Pressed reports the current state.
func (b *Button) Pressed() bool {
	// Pulled up, so the pin reads low while held.
	pressed := b.pin.Read() == gpio.Low
	if b.invert {
		pressed = !pressed
	}
	return pressed
}

// Clicked reports true once per press, on the transition to pressed.
func (b *Button) Clicked() bool {
	p := b.Pressed()
	clicked := p && !b.last
	b.last = p
	return clicked
}
