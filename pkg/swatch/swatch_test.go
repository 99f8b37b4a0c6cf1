package swatch

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/KevoDB/ctable/pkg/lut"
)

func ramp() *lut.Table {
	var t lut.Table
	for i := 0; i < lut.Size; i++ {
		t.Red[i] = uint8(i)
		t.Green[i] = uint8(lut.MaxValue - i)
		t.Blue[i] = uint8(i / 2)
	}
	return &t
}

func checkColumns(t *testing.T, img image.Image, table *lut.Table) {
	t.Helper()
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		wr, wg, wb := table.At((x - b.Min.X) * lut.Size / b.Dx())
		for _, y := range []int{b.Min.Y, b.Max.Y - 1} {
			r, g, bl, a := img.At(x, y).RGBA()
			require.Equal(t, [4]uint32{uint32(wr), uint32(wg), uint32(wb), 0xff},
				[4]uint32{r >> 8, g >> 8, bl >> 8, a >> 8}, "pixel (%d, %d)", x, y)
		}
	}
}

func TestRender(t *testing.T) {
	table := ramp()

	img, err := Render(table, lut.Size, 4)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, lut.Size, 4), img.Bounds())
	checkColumns(t, img, table)

	narrow, err := Render(table, 64, 2)
	require.NoError(t, err)
	r, _, _, _ := narrow.At(1, 0).RGBA()
	assert.Equal(t, uint32(4), r>>8)

	wide, err := Render(table, 512, 1)
	require.NoError(t, err)
	r0, _, _, _ := wide.At(2, 0).RGBA()
	r1, _, _, _ := wide.At(3, 0).RGBA()
	assert.Equal(t, r0, r1)
}

func TestRenderInvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		_, err := Render(ramp(), size[0], size[1])
		assert.True(t, errors.Is(err, ErrInvalidSize), "size %v: got %v", size, err)
	}
}

func TestFormatForPath(t *testing.T) {
	testCases := []struct {
		path string
		want Format
	}{
		{"a.png", FormatPNG},
		{"a.PNG", FormatPNG},
		{"dir/a.bmp", FormatBMP},
		{"a.tif", FormatTIFF},
		{"a.tiff", FormatTIFF},
	}
	for _, tc := range testCases {
		got, err := FormatForPath(tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}

	_, err := FormatForPath("a.gif")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestWriteFile(t *testing.T) {
	table := ramp()
	decoders := map[string]func(f *os.File) (image.Image, error){
		"swatch.png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"swatch.bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"swatch.tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}

	dir := t.TempDir()
	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, table, 128, 3))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			img, err := decode(f)
			require.NoError(t, err)
			assert.Equal(t, 128, img.Bounds().Dx())
			assert.Equal(t, 3, img.Bounds().Dy())
			checkColumns(t, img, table)
		})
	}
}

func TestWriteFileUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swatch.jpg")
	err := WriteFile(path, ramp(), 10, 10)
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
