package finger

import (
	"github.com/relabs-tech/inertial_glove/internal/protocol"
	"github.com/relabs-tech/inertial_glove/internal/sensors"
)

// withSplay adds a measured splay value to any finger shape. Joint reading
// and encoding are delegated; the splay field is appended after them.
type withSplay struct {
	Finger
	splay  sensors.Sensor
	layout protocol.Layout
	value  int
}

func (f *withSplay) ReadInput() {
	f.Finger.ReadInput()
	f.value = f.splay.Value()
}

func (f *withSplay) Splay() int { return f.value }

func (f *withSplay) EncodedSize() int {
	return f.Finger.EncodedSize() + f.layout.SplaySize()
}

func (f *withSplay) AppendEncoded(dst []byte) []byte {
	dst = f.Finger.AppendEncoded(dst)
	return f.layout.AppendSplay(dst, f.Type(), f.value)
}

func (f *withSplay) Encode(dst []byte) int {
	return protocol.EncodeInto(dst, f.AppendEncoded)
}

func (f *withSplay) ResetCalibration() {
	f.Finger.ResetCalibration()
	f.splay.ResetCalibration()
}

func (f *withSplay) EnableCalibration() {
	f.Finger.EnableCalibration()
	f.splay.EnableCalibration()
}

func (f *withSplay) DisableCalibration() {
	f.Finger.DisableCalibration()
	f.splay.DisableCalibration()
}
