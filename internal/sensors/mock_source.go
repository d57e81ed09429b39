// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"
)

// MockInput generates smooth open/close motion so the whole pipeline can
// run without a glove attached.
type MockInput struct {
	start     time.Time
	now       func() time.Time
	analogMax int
	period    time.Duration
	phase     float64
	low, high float64 // fraction of the raw domain actually travelled
}

// NewMockInput creates a mock joint. phase shifts the wave so fingers do not
// move in lockstep.
func NewMockInput(analogMax int, period time.Duration, phase float64) *MockInput {
	return &MockInput{
		start:     time.Now(),
		now:       time.Now,
		analogMax: analogMax,
		period:    period,
		phase:     phase,
		low:       0.15,
		high:      0.85,
	}
}

func (m *MockInput) ReadRaw() int {
	elapsed := m.now().Sub(m.start).Seconds()
	w := 2 * math.Pi / m.period.Seconds()
	s := (math.Sin(elapsed*w+m.phase) + 1) / 2 // 0..1
	frac := m.low + s*(m.high-m.low)
	return int(frac * float64(m.analogMax))
}
