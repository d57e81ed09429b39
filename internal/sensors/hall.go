// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/relabs-tech/inertial_glove/internal/calibration"
)

// Two Hall-effect sensors straddling one magnet move in opposite directions,
// so combining them cancels common-mode noise and temperature drift.

type hallPair struct {
	left   Sensor
	right  Sensor
	domain calibration.Range
}

func (p *hallPair) ResetCalibration() {
	p.left.ResetCalibration()
	p.right.ResetCalibration()
}

func (p *hallPair) EnableCalibration() {
	p.left.EnableCalibration()
	p.right.EnableCalibration()
}

func (p *hallPair) DisableCalibration() {
	p.left.DisableCalibration()
	p.right.DisableCalibration()
}

// HallEffectCurlPair reports curl from a differential pair:
// max + (mid - left) + (mid - right).
type HallEffectCurlPair struct{ hallPair }

// NewHallEffectCurlPair combines left and right, whose readings share domain.
func NewHallEffectCurlPair(left, right Sensor, domain calibration.Range) *HallEffectCurlPair {
	return &HallEffectCurlPair{hallPair{left: left, right: right, domain: domain}}
}

func (p *HallEffectCurlPair) Value() int {
	l := p.left.Value()
	r := p.right.Value()
	mid := p.domain.Mid()
	return p.domain.Max + (mid - l) + (mid - r)
}

// HallEffectSplayPair reports splay from a differential pair:
// mid - left + right.
type HallEffectSplayPair struct{ hallPair }

// NewHallEffectSplayPair combines left and right, whose readings share domain.
func NewHallEffectSplayPair(left, right Sensor, domain calibration.Range) *HallEffectSplayPair {
	return &HallEffectSplayPair{hallPair{left: left, right: right, domain: domain}}
}

func (p *HallEffectSplayPair) Value() int {
	l := p.left.Value()
	r := p.right.Value()
	return p.domain.Mid() - l + r
}
