// Package swatch renders color tables as gradient images.
package swatch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/KevoDB/ctable/pkg/lut"
)

var (
	// ErrInvalidSize is returned for non-positive image dimensions
	ErrInvalidSize = errors.New("invalid swatch size")
	// ErrUnknownFormat is returned for output paths with no known image extension
	ErrUnknownFormat = errors.New("unknown image format")
)

// Format is an output image format
type Format int

const (
	FormatPNG Format = iota
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatForPath picks the format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Render draws t left to right across a width x height image. Each column
// takes the color of the table entry under it.
func Render(t *lut.Table, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		r, g, b := t.At(x * lut.Size / width)
		c := color.RGBA{R: r, G: g, B: b, A: 0xff}
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// Encode writes img to w in format f
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// WriteFile renders t and saves it to path, choosing the format from the
// extension
func WriteFile(path string, t *lut.Table, width, height int) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	img, err := Render(t, width, height)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create swatch file: %w", err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode %v swatch: %w", f, err)
	}
	return out.Close()
}
