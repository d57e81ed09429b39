// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package glove

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/inertial_glove/internal/calibration"
)

// Request asks the controller to change calibration state.
type Request int

const (
	RequestEnable Request = iota + 1
	RequestDisable
	RequestReset
)

func (r Request) String() string {
	switch r {
	case RequestEnable:
		return "enable"
	case RequestDisable:
		return "disable"
	case RequestReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Host commands, one per message.
const (
	CommandCalibrateStart = "CALIBRATE_START"
	CommandCalibrateStop  = "CALIBRATE_STOP"
	CommandCalibrateReset = "CALIBRATE_RESET"
)

// ParseCommand maps an inbound host message onto a request. Messages that
// are not calibration commands, such as force-feedback frames, return false.
func ParseCommand(msg []byte) (Request, bool) {
	switch string(bytes.TrimSpace(msg)) {
	case CommandCalibrateStart:
		return RequestEnable, true
	case CommandCalibrateStop:
		return RequestDisable, true
	case CommandCalibrateReset:
		return RequestReset, true
	}
	return 0, false
}

const requestQueueSize = 16

// Unlimited keeps calibration on until explicitly disabled.
const Unlimited = -1

// Controller is the only writer of calibration state. Any goroutine may
// call Request; the report loop applies queued requests at the start of
// its next cycle.
type Controller struct {
	target    calibration.Calibrated
	requests  chan Request
	loops     int
	remaining int
	enabled   bool
}

// NewController returns a controller for target. With loops != 0,
// calibration starts enabled for that many cycles (-1 for always).
func NewController(target calibration.Calibrated, loops int) *Controller {
	if loops < Unlimited {
		loops = Unlimited
	}
	c := &Controller{
		target:   target,
		requests: make(chan Request, requestQueueSize),
		loops:    loops,
	}
	if loops != 0 {
		c.enable()
	} else {
		target.DisableCalibration()
	}
	return c
}

// Request queues r without blocking. It reports false if the queue is full.
func (c *Controller) Request(r Request) bool {
	select {
	case c.requests <- r:
		return true
	default:
		logrus.Warnf("glove: calibration request %s dropped, queue full", r)
		return false
	}
}

// Calibrating reports whether calibration is on for the current cycle.
func (c *Controller) Calibrating() bool { return c.enabled }

// Remaining is the number of calibrated cycles left, or Unlimited.
func (c *Controller) Remaining() int { return c.remaining }

// apply drains queued requests. Called only from the report loop.
func (c *Controller) apply() {
	for {
		select {
		case r := <-c.requests:
			c.handle(r)
		default:
			return
		}
	}
}

func (c *Controller) handle(r Request) {
	switch r {
	case RequestEnable:
		c.enable()
	case RequestDisable:
		c.disable()
	case RequestReset:
		c.target.ResetCalibration()
		c.enable()
	}
	logrus.Infof("glove: calibration %s (remaining=%d)", r, c.remaining)
}

// tick counts one calibrated cycle and turns calibration off once the
// budget is spent.
func (c *Controller) tick() {
	if !c.enabled || c.remaining == Unlimited {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.disable()
		logrus.Info("glove: calibration budget spent")
	}
}

func (c *Controller) enable() {
	c.remaining = c.loops
	if c.remaining == 0 {
		c.remaining = Unlimited
	}
	c.enabled = true
	c.target.EnableCalibration()
}

func (c *Controller) disable() {
	c.remaining = 0
	c.enabled = false
	c.target.DisableCalibration()
}
