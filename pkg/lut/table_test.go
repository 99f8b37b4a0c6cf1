package lut

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp() []int {
	out := make([]int, Size)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestFromInts(t *testing.T) {
	red := ramp()
	green := make([]int, Size)
	blue := make([]int, Size)
	for i := range blue {
		blue[i] = MaxValue - i
	}

	tbl, err := FromInts(red, green, blue)
	require.NoError(t, err)

	r, g, b := tbl.At(10)
	assert.Equal(t, uint8(10), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(245), b)

	ints := tbl.Ints()
	assert.Equal(t, red, ints[0])
	assert.Equal(t, blue, ints[2])
}

func TestFromIntsInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		red   []int
		green []int
		blue  []int
	}{
		{"short red", ramp()[:255], ramp(), ramp()},
		{"long blue", ramp(), ramp(), append(ramp(), 0)},
		{"negative", ramp(), append([]int{-1}, ramp()[1:]...), ramp()},
		{"too large", ramp(), ramp(), append([]int{256}, ramp()[1:]...)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromInts(tc.red, tc.green, tc.blue)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestDigest(t *testing.T) {
	a, err := FromInts(ramp(), ramp(), ramp())
	require.NoError(t, err)
	b := a

	assert.Equal(t, a.Digest(), b.Digest())

	b.Green[128] ^= 1
	assert.NotEqual(t, a.Digest(), b.Digest())

	// channel order matters
	var c, d Table
	c.Red[0] = 1
	d.Blue[0] = 1
	assert.NotEqual(t, c.Digest(), d.Digest())
}

func TestChannelIndex(t *testing.T) {
	var tbl Table
	tbl.Channel(2)[5] = 9
	assert.Equal(t, uint8(9), tbl.Blue[5])
	assert.Panics(t, func() { tbl.Channel(3) })
}
