// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind distinguishes the three field shapes.
type FieldKind int

const (
	KindCurl FieldKind = iota
	KindKnuckle
	KindSplay
)

func (k FieldKind) String() string {
	switch k {
	case KindCurl:
		return "curl"
	case KindKnuckle:
		return "knuckle"
	case KindSplay:
		return "splay"
	default:
		return "unknown"
	}
}

// Field is one decoded report field.
type Field struct {
	Type    Type      `json:"type"`
	Kind    FieldKind `json:"kind"`
	Knuckle int       `json:"knuckle"` // wire knuckle index, KindKnuckle only
	Value   int       `json:"value"`
}

// Decode splits a report into fields. Trailing whitespace is ignored.
func Decode(report string) ([]Field, error) {
	s := strings.TrimRight(report, "\r\n \t")
	var fields []Field

	for pos := 0; pos < len(s); {
		var f Field
		start := pos

		if s[pos] == '(' {
			end := strings.IndexByte(s[pos:], ')')
			if end < 0 {
				return nil, fmt.Errorf("unterminated tag at offset %d", start)
			}
			tag := s[pos+1 : pos+end]
			pos += end + 1

			switch {
			case len(tag) == 2 && tag[1] == 'B':
				f.Type, f.Kind = Type(tag[0]), KindSplay
			case len(tag) == 3 && tag[1] == 'A' && tag[2] >= 'A' && int(tag[2]-'A') < MaxKnuckles:
				f.Type, f.Kind, f.Knuckle = Type(tag[0]), KindKnuckle, int(tag[2]-'A')
			default:
				return nil, fmt.Errorf("unknown tag %q at offset %d", tag, start)
			}
		} else {
			c := s[pos]
			if c < 'A' || c > 'Z' {
				return nil, fmt.Errorf("unexpected %q at offset %d", c, start)
			}
			f.Type, f.Kind = Type(c), KindCurl
			pos++
		}

		numStart := pos
		if pos < len(s) && s[pos] == '-' {
			pos++
		}
		for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
			pos++
		}
		v, err := strconv.Atoi(s[numStart:pos])
		if err != nil {
			return nil, fmt.Errorf("field at offset %d: invalid value: %w", start, err)
		}
		f.Value = v
		fields = append(fields, f)
	}

	return fields, nil
}

// FingerValues groups decoded fields per finger.
type FingerValues struct {
	Curl     int   `json:"curl"`
	Knuckles []int `json:"knuckles,omitempty"` // in wire knuckle order
	Splay    int   `json:"splay"`
	HasSplay bool  `json:"has_splay"`
}

// GroupByFinger folds decoded fields into per-finger values. The curl of a
// multi-knuckle finger is the mean of its knuckles.
func GroupByFinger(fields []Field) map[Type]*FingerValues {
	out := make(map[Type]*FingerValues)
	get := func(t Type) *FingerValues {
		v, ok := out[t]
		if !ok {
			v = &FingerValues{}
			out[t] = v
		}
		return v
	}

	for _, f := range fields {
		if !f.Type.IsFinger() {
			continue
		}
		v := get(f.Type)
		switch f.Kind {
		case KindCurl:
			v.Curl = f.Value
		case KindKnuckle:
			v.Knuckles = append(v.Knuckles, f.Value)
		case KindSplay:
			v.Splay = f.Value
			v.HasSplay = true
		}
	}

	for _, v := range out {
		if len(v.Knuckles) > 0 {
			sum := 0
			for _, k := range v.Knuckles {
				sum += k
			}
			v.Curl = sum / len(v.Knuckles)
		}
	}
	return out
}
