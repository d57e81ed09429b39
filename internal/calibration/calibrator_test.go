package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var out4095 = Range{Min: 0, Max: 4095}

func TestMinMax_UnsetReturnsMidpoint(t *testing.T) {
	m := NewMinMax(out4095)
	for _, raw := range []int{-100, 0, 1, 2047, 4095, 9999} {
		assert.Equal(t, 2047, m.Filter(raw), "raw=%d", raw)
	}
}

func TestMinMax_RemapsLearnedSpan(t *testing.T) {
	m := NewMinMax(out4095)
	m.Update(1000)
	m.Update(3000)

	assert.Equal(t, 0, m.Filter(500))
	assert.InDelta(t, 2047, m.Filter(2000), 1)
	assert.Equal(t, 4095, m.Filter(4000))
	assert.Equal(t, 0, m.Filter(1000))
	assert.Equal(t, 4095, m.Filter(3000))
}

func TestMinMax_AlwaysWithinOutputOnceCalibrated(t *testing.T) {
	m := NewMinMax(out4095)
	m.Update(1200)
	m.Update(2600)
	for raw := -5000; raw <= 10000; raw += 37 {
		v := m.Filter(raw)
		require.GreaterOrEqual(t, v, 0, "raw=%d", raw)
		require.LessOrEqual(t, v, 4095, "raw=%d", raw)
	}
}

func TestMinMax_SingleSample(t *testing.T) {
	m := NewMinMax(out4095)
	m.Update(1500)

	assert.Equal(t, 2047, m.Filter(1500))
	assert.Equal(t, 4095, m.Filter(1501))
	assert.Equal(t, 0, m.Filter(1499))
}

func TestMinMax_OutputNarrowerThanRaw(t *testing.T) {
	m := NewMinMax(Range{Min: 0, Max: 1000})
	m.Update(3000)

	learned, ok := m.Learned()
	require.True(t, ok)
	assert.Equal(t, Range{Min: 3000, Max: 3000}, learned)
	assert.Equal(t, 500, m.Filter(3000))

	m.Update(2000)
	assert.Equal(t, 0, m.Filter(2000))
	assert.Equal(t, 500, m.Filter(2500))
	assert.Equal(t, 1000, m.Filter(3000))
	assert.Equal(t, 1000, m.Filter(4095))
}

func TestMinMax_OutputWiderThanRaw(t *testing.T) {
	m := NewMinMax(Range{Min: -5000, Max: 5000})
	m.Update(100)

	learned, _ := m.Learned()
	assert.Equal(t, Range{Min: 100, Max: 100}, learned)

	m.Update(300)
	assert.Equal(t, -5000, m.Filter(100))
	assert.Equal(t, 0, m.Filter(200))
	assert.Equal(t, 5000, m.Filter(300))
}

func TestMinMax_ResetForgetsExtremes(t *testing.T) {
	m := NewMinMax(out4095)
	m.Update(10)
	m.Update(20)
	_, ok := m.Learned()
	require.True(t, ok)

	m.Reset()
	_, ok = m.Learned()
	assert.False(t, ok)
	assert.Equal(t, 2047, m.Filter(15))
}

func TestExponentialToLinear_MatchesMinMax(t *testing.T) {
	e := NewExponentialToLinear(3, out4095)
	m := NewMinMax(out4095)
	assert.Equal(t, m.Filter(100), e.Filter(100))

	for _, raw := range []int{800, 3100, 2000} {
		e.Update(raw)
		m.Update(raw)
	}
	for raw := 0; raw <= 4095; raw += 95 {
		assert.Equal(t, m.Filter(raw), e.Filter(raw), "raw=%d", raw)
	}
	assert.Equal(t, 3.0, e.Exponent)
}

func TestPassthrough(t *testing.T) {
	var p Passthrough
	p.Update(12)
	p.Reset()
	assert.Equal(t, 12, p.Filter(12))
	assert.Equal(t, -3, p.Filter(-3))
}

func TestCenterPointDeviation(t *testing.T) {
	out := Range{Min: 0, Max: 2700}

	t.Run("unset returns midpoint", func(t *testing.T) {
		c := NewCenterPointDeviation(270, 20, out, out)
		for _, raw := range []int{0, 700, 1350, 2700} {
			assert.Equal(t, 1350, c.Filter(raw))
		}
	})

	t.Run("symmetric extremes center on midpoint", func(t *testing.T) {
		c := NewCenterPointDeviation(270, 20, out, out)
		c.Update(1000) // 100 sensor units
		c.Update(1700) // 170 sensor units
		learned, ok := c.Learned()
		require.True(t, ok)
		assert.Equal(t, Range{Min: 100, Max: 170}, learned)
		assert.Equal(t, 1350, c.Filter(1350))
	})

	t.Run("deviation clamps to driver limit", func(t *testing.T) {
		c := NewCenterPointDeviation(270, 20, out, out)
		c.Update(1000)
		c.Update(1700)
		assert.Equal(t, 2700, c.Filter(2700))
		assert.Equal(t, 0, c.Filter(0))
		// 10 sensor units right of center is a quarter of the output span past the midpoint.
		assert.Equal(t, 2025, c.Filter(1450))
	})

	t.Run("reset", func(t *testing.T) {
		c := NewCenterPointDeviation(270, 20, out, out)
		c.Update(200)
		c.Reset()
		_, ok := c.Learned()
		assert.False(t, ok)
	})
}

func TestCenterPointDeviation_RawDomainDiffersFromOutput(t *testing.T) {
	in := Range{Min: 0, Max: 4095}
	out := Range{Min: 0, Max: 1000}

	c := NewCenterPointDeviation(270, 20, in, out)
	assert.Equal(t, 500, c.Filter(4095), "unset")

	c.Update(1365) // 90 sensor units
	c.Update(2730) // 180 sensor units
	learned, ok := c.Learned()
	require.True(t, ok)
	assert.Equal(t, Range{Min: 90, Max: 180}, learned)

	assert.Equal(t, 500, c.Filter(2048))
	assert.Equal(t, 1000, c.Filter(4095))
	assert.Equal(t, 0, c.Filter(0))

	f := NewFixedCenterPointDeviation(270, 20, in, out)
	assert.Equal(t, 500, f.Filter(2048))
	assert.Equal(t, 1000, f.Filter(2730))
}

func TestFixedCenterPointDeviation(t *testing.T) {
	out := Range{Min: 0, Max: 2700}
	f := NewFixedCenterPointDeviation(270, 20, out, out)
	f.Update(0)

	assert.Equal(t, 1350, f.Filter(1350))
	assert.Equal(t, 2700, f.Filter(2700))
	assert.Equal(t, 0, f.Filter(0))
	assert.Equal(t, 675, f.Filter(1250))
}

func TestByName(t *testing.T) {
	s := Settings{Input: out4095, Output: out4095, SensorMax: 270, DriverMaxDeviation: 20, Exponent: 3}

	tests := []struct {
		name    string
		want    any
		wantErr bool
	}{
		{name: "minmax", want: &MinMax{}},
		{name: "exponential", want: &ExponentialToLinear{}},
		{name: "center", want: &CenterPointDeviation{}},
		{name: "fixed_center", want: &FixedCenterPointDeviation{}},
		{name: "passthrough", want: Passthrough{}},
		{name: "cubic", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ByName(tt.name, s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}

	_, err := ByName("center", Settings{Input: out4095, Output: out4095, SensorMax: 270, DriverMaxDeviation: 200})
	assert.Error(t, err)
	_, err = ByName("fixed_center", Settings{Output: out4095, SensorMax: 270, DriverMaxDeviation: 20})
	assert.Error(t, err, "center strategies need the raw range")
	_, err = ByName("minmax", Settings{Output: Range{Min: 5, Max: 5}})
	assert.Error(t, err)
}

func TestRemap(t *testing.T) {
	assert.Equal(t, 0, Remap(819, 819, 3276, 0, 4095))
	assert.Equal(t, 4095, Remap(3276, 819, 3276, 0, 4095))
	assert.Equal(t, 50, Remap(5, 5, 5, 0, 100))
}

func TestMode(t *testing.T) {
	var nilMode *Mode
	assert.False(t, nilMode.Enabled())

	m := NewMode(false)
	m.Enable()
	assert.True(t, m.Enabled())
	m.Disable()
	assert.False(t, m.Enabled())
}
