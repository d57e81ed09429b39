// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package glove assembles fingers into a hand and runs one report cycle at
// a time: apply pending calibration requests, read every finger, encode the
// report into a buffer sized once at construction.
package glove

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/inertial_glove/internal/finger"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
)

// ReportTerminator ends every report on the wire.
const ReportTerminator = '\n'

// Hand is an ordered set of fingers. Thumb first when present.
type Hand struct {
	fingers []finger.Finger
	ctrl    *Controller
	buf     []byte
}

// NewHand builds a hand from fingers in report order. calibrationLoops is
// the number of cycles calibration stays on after start or reset; -1 keeps
// it on.
func NewHand(fingers []finger.Finger, calibrationLoops int) (*Hand, error) {
	if len(fingers) == 0 {
		return nil, errors.New("glove: hand needs at least one finger")
	}
	seen := make(map[protocol.Type]bool, len(fingers))
	for i, f := range fingers {
		if f == nil {
			return nil, fmt.Errorf("glove: finger %d is nil", i)
		}
		if seen[f.Type()] {
			return nil, fmt.Errorf("glove: duplicate %s finger", f.Type())
		}
		seen[f.Type()] = true
	}

	h := &Hand{fingers: fingers}
	h.ctrl = NewController(h, calibrationLoops)
	h.buf = make([]byte, h.EncodedSize())
	return h, nil
}

// Fingers returns the hand's fingers in report order.
func (h *Hand) Fingers() []finger.Finger { return h.fingers }

// Controller returns the calibration controller driving this hand.
func (h *Hand) Controller() *Controller { return h.ctrl }

// EncodedSize is the worst-case report length, terminator included.
func (h *Hand) EncodedSize() int {
	n := 1
	for _, f := range h.fingers {
		n += f.EncodedSize()
	}
	return n
}

// AppendEncoded appends the full report for the last readings.
func (h *Hand) AppendEncoded(dst []byte) []byte {
	for _, f := range h.fingers {
		dst = f.AppendEncoded(dst)
	}
	return append(dst, ReportTerminator)
}

// Encode writes the report into dst without growing it.
func (h *Hand) Encode(dst []byte) int {
	return protocol.EncodeInto(dst, h.AppendEncoded)
}

// ReadInput reads every finger once.
func (h *Hand) ReadInput() {
	for _, f := range h.fingers {
		f.ReadInput()
	}
}

func (h *Hand) ResetCalibration() {
	for _, f := range h.fingers {
		f.ResetCalibration()
	}
}

func (h *Hand) EnableCalibration() {
	for _, f := range h.fingers {
		f.EnableCalibration()
	}
}

func (h *Hand) DisableCalibration() {
	for _, f := range h.fingers {
		f.DisableCalibration()
	}
}

// Cycle runs one report cycle and returns the encoded report. The returned
// slice aliases the hand's buffer and is valid until the next Cycle.
func (h *Hand) Cycle() []byte {
	h.ctrl.apply()
	h.ReadInput()
	h.ctrl.tick()
	n := h.Encode(h.buf)
	return h.buf[:n]
}
