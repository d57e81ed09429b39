// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol defines the alpha-encoded text format the host driver
// reads: one field per curl, knuckle or splay value, concatenated into a
// single newline-terminated report.
package protocol

import (
	"fmt"
	"strconv"

	"github.com/relabs-tech/inertial_glove/internal/calibration"
)

// Type is the single-letter tag that identifies an input in a report.
type Type byte

const (
	Thumb     Type = 'A'
	Index     Type = 'B'
	Middle    Type = 'C'
	Ring      Type = 'D'
	Pinky     Type = 'E'
	JoyX      Type = 'F'
	JoyY      Type = 'G'
	JoyButton Type = 'H'
	Trigger   Type = 'I'
	AButton   Type = 'J'
	BButton   Type = 'K'
	Grab      Type = 'L'
	Pinch     Type = 'M'
	Menu      Type = 'N'
	Calibrate Type = 'O'
)

// Fingers lists the finger tags in report order.
var Fingers = []Type{Thumb, Index, Middle, Ring, Pinky}

// IsFinger reports whether t tags a finger.
func (t Type) IsFinger() bool {
	return t >= Thumb && t <= Pinky
}

func (t Type) String() string {
	switch t {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	default:
		return string(rune(t))
	}
}

// Format strings, one per field kind. Knuckle formats are indexed by the
// knuckle number on the wire.
const (
	CurlFormat  = "%c%d"
	SplayFormat = "(%cB)%d"
)

var knuckleFormats = [...]string{
	"(%cAA)%d",
	"(%cAB)%d",
	"(%cAC)%d",
	"(%cAD)%d",
}

// MaxKnuckles is the number of knuckle indices the format table covers.
const MaxKnuckles = len(knuckleFormats)

// Knuckle offsets: the thumb starts at joint A, the other fingers skip the
// metacarpal joint and start at B.
const (
	KnuckleThumbOffset  = 0
	KnuckleFingerOffset = 1
)

// KnuckleOffset returns the first wire knuckle index used by t.
func KnuckleOffset(t Type) int {
	if t == Thumb {
		return KnuckleThumbOffset
	}
	return KnuckleFingerOffset
}

// KnuckleFormat returns the format string for wire knuckle index i.
func KnuckleFormat(i int) (string, error) {
	if i < 0 || i >= MaxKnuckles {
		return "", fmt.Errorf("knuckle index %d outside [0, %d)", i, MaxKnuckles)
	}
	return knuckleFormats[i], nil
}

// Literal characters in each format once the verbs are expanded.
const (
	curlPrefixLen    = 1 // A
	splayPrefixLen   = 4 // (AB)
	knucklePrefixLen = 5 // (AAB)
)

// Layout sizes and writes fields for one output range. Values are clamped
// into the range before formatting, so each size is a true upper bound.
type Layout struct {
	out    calibration.Range
	digits int
}

// NewLayout returns the layout for values in out.
func NewLayout(out calibration.Range) Layout {
	d := len(strconv.Itoa(out.Min))
	if m := len(strconv.Itoa(out.Max)); m > d {
		d = m
	}
	return Layout{out: out, digits: d}
}

// Output returns the value range the layout clamps to.
func (l Layout) Output() calibration.Range { return l.out }

// CurlSize is the worst-case length of one curl field.
func (l Layout) CurlSize() int { return curlPrefixLen + l.digits }

// SplaySize is the worst-case length of one splay field.
func (l Layout) SplaySize() int { return splayPrefixLen + l.digits }

// KnuckleSize is the worst-case length of one knuckle field.
func (l Layout) KnuckleSize() int { return knucklePrefixLen + l.digits }

// AppendCurl appends a curl field for t.
func (l Layout) AppendCurl(dst []byte, t Type, v int) []byte {
	return fmt.Appendf(dst, CurlFormat, byte(t), l.out.Clamp(v))
}

// AppendSplay appends a splay field for t.
func (l Layout) AppendSplay(dst []byte, t Type, v int) []byte {
	return fmt.Appendf(dst, SplayFormat, byte(t), l.out.Clamp(v))
}

// AppendKnuckle appends the field for wire knuckle index i of t. Callers
// validate i at construction; an out-of-table index writes nothing.
func (l Layout) AppendKnuckle(dst []byte, t Type, i int, v int) []byte {
	format, err := KnuckleFormat(i)
	if err != nil {
		return dst
	}
	return fmt.Appendf(dst, format, byte(t), l.out.Clamp(v))
}

// Encoder is implemented by every input that can appear in a report.
type Encoder interface {
	// EncodedSize returns the worst-case number of bytes Encode writes.
	EncodedSize() int
	// Encode writes the current value into dst and returns the byte count.
	Encode(dst []byte) int
}

// EncodeInto runs appendFn over dst without growing it: output past
// len(dst) is dropped, like a truncating snprintf.
func EncodeInto(dst []byte, appendFn func([]byte) []byte) int {
	b := appendFn(dst[:0:len(dst)])
	if len(b) > len(dst) {
		return copy(dst, b)
	}
	return len(b)
}
