package sensors

import "sort"

// MedianInput smooths an input with a running median over the last few
// samples. Until the window fills, the median covers what has been read.
type MedianInput struct {
	input  Input
	window []int
	next   int
	filled bool
	sorted []int
}

// NewMedianInput wraps input with a median window of the given size.
func NewMedianInput(input Input, samples int) *MedianInput {
	if samples < 1 {
		samples = 1
	}
	return &MedianInput{
		input:  input,
		window: make([]int, samples),
		sorted: make([]int, 0, samples),
	}
}

func (m *MedianInput) ReadRaw() int {
	m.window[m.next] = m.input.ReadRaw()
	m.next++
	if m.next == len(m.window) {
		m.next = 0
		m.filled = true
	}

	n := m.next
	if m.filled {
		n = len(m.window)
	}
	m.sorted = append(m.sorted[:0], m.window[:n]...)
	sort.Ints(m.sorted)
	return m.sorted[n/2]
}
