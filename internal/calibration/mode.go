package calibration

// Mode is the calibration switch shared by every sensor of a hand. While it
// is enabled, each sensor read also updates that sensor's calibrator.
//
// Mode is not synchronised. It is written and read only by the report loop;
// other goroutines go through glove.Controller.
type Mode struct {
	enabled bool
}

// NewMode returns a mode in the given state.
func NewMode(enabled bool) *Mode {
	return &Mode{enabled: enabled}
}

func (m *Mode) Enable()  { m.enabled = true }
func (m *Mode) Disable() { m.enabled = false }

// Enabled reports whether sensor reads should update calibrators.
func (m *Mode) Enabled() bool {
	return m != nil && m.enabled
}
