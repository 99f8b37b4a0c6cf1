package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorsIntegers(t *testing.T) {
	data := []byte(`ncolors=4
# r   g   b
  0   0 255
 64 128 192
255 255 255
300  12   7
`)

	e, err := ParseColors("ramp", data)
	require.NoError(t, err)
	assert.Equal(t, "ramp", e.Name)
	assert.Equal(t, 4, e.Count)
	assert.Equal(t, []int{0, 64, 255, 255}, e.RGB[0])
	assert.Equal(t, []int{0, 128, 255, 12}, e.RGB[1])
	assert.Equal(t, []int{255, 192, 255, 7}, e.RGB[2])
	require.NoError(t, e.Validate())
}

func TestParseColorsFractional(t *testing.T) {
	data := []byte(`0.0 0.5 1.0
1.0 0.25 0.0
`)

	e, err := ParseColors("frac", data)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Count)
	assert.Equal(t, []int{0, 255}, e.RGB[0])
	// 0.5*255 = 127.5 and 0.25*255 = 63.75 are truncated
	assert.Equal(t, []int{127, 63}, e.RGB[1])
	assert.Equal(t, []int{255, 0}, e.RGB[2])
}

func TestParseColorsExtraColumns(t *testing.T) {
	e, err := ParseColors("extra", []byte("10 20 30 40 50\n1 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Count)
	assert.Equal(t, []int{10}, e.RGB[0])
	assert.Equal(t, []int{30}, e.RGB[2])
}

func TestParseColorsEmpty(t *testing.T) {
	_, err := ParseColors("empty", []byte("ncolors=0\n# nothing\n"))
	assert.True(t, errors.Is(err, ErrNoColors), "got %v", err)
}
