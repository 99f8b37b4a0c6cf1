// Package resample stretches or shrinks color channels of arbitrary length
// onto the fixed lut.Size entries a stored table needs.
package resample

import (
	"fmt"
	"math"

	"github.com/KevoDB/ctable/pkg/lut"
)

// Resample maps a count-entry RGB table onto lut.Size entries using
// piecewise-linear interpolation. A table that already has lut.Size entries
// is returned unchanged.
func Resample(count int, rgb [lut.Channels][]int) (lut.Table, error) {
	if count <= 0 {
		return lut.Table{}, fmt.Errorf("%w: count must be positive, got %d", lut.ErrInvalidInput, count)
	}
	for i, ch := range rgb {
		if len(ch) != count {
			return lut.Table{}, fmt.Errorf("%w: channel %d has %d values, count is %d", lut.ErrInvalidInput, i, len(ch), count)
		}
	}

	if count == lut.Size {
		return lut.FromInts(rgb[0], rgb[1], rgb[2])
	}

	var t lut.Table
	for i, ch := range rgb {
		out, err := Channel(ch)
		if err != nil {
			return lut.Table{}, fmt.Errorf("channel %d: %w", i, err)
		}
		*t.Channel(i) = out
	}
	return t, nil
}

// Channel resamples a single channel onto lut.Size entries.
func Channel(src []int) (lut.Channel, error) {
	var out lut.Channel
	n := len(src)
	if n == 0 {
		return out, fmt.Errorf("%w: empty channel", lut.ErrInvalidInput)
	}
	for i, v := range src {
		if err := lut.CheckValue(v); err != nil {
			return out, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if n == lut.Size {
		for j, v := range src {
			out[j] = uint8(v)
		}
		return out, nil
	}

	step := float64(n) / lut.Size
	for j := range out {
		x := step*(float64(j)+0.5) - 0.5
		out[j] = quantize(interp(src, x))
	}
	return out, nil
}

// interp evaluates the piecewise-linear function through (i, src[i]) at x,
// holding the end samples constant outside [0, len(src)-1].
func interp(src []int, x float64) float64 {
	last := len(src) - 1
	if x <= 0 {
		return float64(src[0])
	}
	if x >= float64(last) {
		return float64(src[last])
	}
	lo := int(math.Floor(x))
	frac := x - float64(lo)
	return float64(src[lo]) + frac*float64(src[lo+1]-src[lo])
}

func quantize(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > lut.MaxValue {
		return lut.MaxValue
	}
	return uint8(v)
}
