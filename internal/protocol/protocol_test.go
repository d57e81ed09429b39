package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_glove/internal/calibration"
)

func TestLayout_Sizes(t *testing.T) {
	tests := []struct {
		name    string
		out     calibration.Range
		curl    int
		splay   int
		knuckle int
	}{
		{"12-bit", calibration.Range{Min: 0, Max: 4095}, 5, 8, 9},
		{"10-bit", calibration.Range{Min: 0, Max: 1023}, 5, 8, 9},
		{"signed", calibration.Range{Min: -1000, Max: 1000}, 6, 9, 10},
		{"narrow", calibration.Range{Min: 0, Max: 99}, 3, 6, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayout(tt.out)
			assert.Equal(t, tt.curl, l.CurlSize())
			assert.Equal(t, tt.splay, l.SplaySize())
			assert.Equal(t, tt.knuckle, l.KnuckleSize())
		})
	}
}

func TestLayout_Append(t *testing.T) {
	l := NewLayout(calibration.Range{Min: 0, Max: 4095})

	assert.Equal(t, "B1234", string(l.AppendCurl(nil, Index, 1234)))
	assert.Equal(t, "(CB)7", string(l.AppendSplay(nil, Middle, 7)))
	assert.Equal(t, "(AAA)0", string(l.AppendKnuckle(nil, Thumb, 0, 0)))
	assert.Equal(t, "(DAD)4095", string(l.AppendKnuckle(nil, Ring, 3, 4095)))

	// Out-of-range values are clamped so sizes hold.
	assert.Equal(t, "E4095", string(l.AppendCurl(nil, Pinky, 12000)))
	assert.Equal(t, "E0", string(l.AppendCurl(nil, Pinky, -12)))
	assert.Empty(t, l.AppendKnuckle(nil, Ring, 4, 1))
}

func TestLayout_SizesBoundEveryValue(t *testing.T) {
	l := NewLayout(calibration.Range{Min: -50, Max: 4095})
	for _, v := range []int{-1 << 20, -50, -1, 0, 9, 4095, 1 << 20} {
		for _, tt := range Fingers {
			assert.LessOrEqual(t, len(l.AppendCurl(nil, tt, v)), l.CurlSize())
			assert.LessOrEqual(t, len(l.AppendSplay(nil, tt, v)), l.SplaySize())
			for k := 0; k < MaxKnuckles; k++ {
				assert.LessOrEqual(t, len(l.AppendKnuckle(nil, tt, k, v)), l.KnuckleSize())
			}
		}
	}
}

func TestKnuckleFormat(t *testing.T) {
	f, err := KnuckleFormat(2)
	require.NoError(t, err)
	assert.Equal(t, "(%cAC)%d", f)

	_, err = KnuckleFormat(MaxKnuckles)
	assert.Error(t, err)
	_, err = KnuckleFormat(-1)
	assert.Error(t, err)

	assert.Equal(t, KnuckleThumbOffset, KnuckleOffset(Thumb))
	assert.Equal(t, KnuckleFingerOffset, KnuckleOffset(Pinky))
}

func TestEncodeInto(t *testing.T) {
	l := NewLayout(calibration.Range{Min: 0, Max: 4095})
	appendFn := func(b []byte) []byte { return l.AppendCurl(b, Thumb, 4095) }

	buf := make([]byte, l.CurlSize())
	n := EncodeInto(buf, appendFn)
	assert.Equal(t, "A4095", string(buf[:n]))

	short := make([]byte, 3)
	n = EncodeInto(short, appendFn)
	assert.Equal(t, 3, n)
	assert.Equal(t, "A40", string(short))
}

func TestDecode(t *testing.T) {
	fields, err := Decode("A2047(BAB)10(BAC)20(BAD)30(BB)3048C0\n")
	require.NoError(t, err)

	want := []Field{
		{Type: Thumb, Kind: KindCurl, Value: 2047},
		{Type: Index, Kind: KindKnuckle, Knuckle: 1, Value: 10},
		{Type: Index, Kind: KindKnuckle, Knuckle: 2, Value: 20},
		{Type: Index, Kind: KindKnuckle, Knuckle: 3, Value: 30},
		{Type: Index, Kind: KindSplay, Value: 3048},
		{Type: Middle, Kind: KindCurl, Value: 0},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}

	grouped := GroupByFinger(fields)
	require.Contains(t, grouped, Index)
	assert.Equal(t, 20, grouped[Index].Curl)
	assert.True(t, grouped[Index].HasSplay)
	assert.Equal(t, 2047, grouped[Thumb].Curl)
}

func TestField_JSONKeepsFirstKnuckle(t *testing.T) {
	fields, err := Decode("(AAA)5(AAB)6A7\n")
	require.NoError(t, err)

	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":65,"kind":1,"knuckle":0,"value":5},
		{"type":65,"kind":1,"knuckle":1,"value":6},
		{"type":65,"kind":0,"knuckle":0,"value":7}
	]`, string(raw))
}

func TestDecode_Errors(t *testing.T) {
	for _, in := range []string{"(AB", "(AZZ)1", "a12", "A", "(AB)x"} {
		_, err := Decode(in)
		assert.Error(t, err, "input %q", in)
	}

	fields, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, fields)

	fields, err = Decode("A-5")
	require.NoError(t, err)
	assert.Equal(t, -5, fields[0].Value)
}

func TestType(t *testing.T) {
	assert.True(t, Thumb.IsFinger())
	assert.True(t, Pinky.IsFinger())
	assert.False(t, JoyX.IsFinger())
	assert.Equal(t, "ring", Ring.String())
	assert.Equal(t, "O", Calibrate.String())
}
