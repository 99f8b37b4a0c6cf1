// Package lut defines the fixed-width color lookup table shared by the
// resampler and the packed table file.
package lut

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

const (
	// Size is the number of entries in every stored table
	Size = 256
	// Channels is the number of color channels (red, green, blue)
	Channels = 3
	// MaxValue is the largest value a channel entry may hold
	MaxValue = 255
)

// ErrInvalidInput is returned when table data is malformed: wrong channel
// length, out-of-range values or a non-positive count.
var ErrInvalidInput = errors.New("invalid table input")

// Channel holds one color channel of a table
type Channel [Size]uint8

// Table is a 256-entry RGB lookup table
type Table struct {
	Red   Channel
	Green Channel
	Blue  Channel
}

// Channel returns the channel at position i (0 red, 1 green, 2 blue)
func (t *Table) Channel(i int) *Channel {
	switch i {
	case 0:
		return &t.Red
	case 1:
		return &t.Green
	case 2:
		return &t.Blue
	default:
		panic(fmt.Sprintf("lut: channel index %d out of range", i))
	}
}

// At returns the color at entry i
func (t *Table) At(i int) (r, g, b uint8) {
	return t.Red[i], t.Green[i], t.Blue[i]
}

// Digest returns an xxhash of the red, green and blue channels in order.
// Two tables with equal digests are treated as identical by the converter.
func (t *Table) Digest() uint64 {
	d := xxhash.New()
	d.Write(t.Red[:])
	d.Write(t.Green[:])
	d.Write(t.Blue[:])
	return d.Sum64()
}

// FromInts builds a Table from three channels of exactly Size values each.
func FromInts(red, green, blue []int) (Table, error) {
	var t Table
	for i, src := range [Channels][]int{red, green, blue} {
		if len(src) != Size {
			return Table{}, fmt.Errorf("%w: channel %d has %d values, want %d", ErrInvalidInput, i, len(src), Size)
		}
		dst := t.Channel(i)
		for j, v := range src {
			if err := CheckValue(v); err != nil {
				return Table{}, fmt.Errorf("channel %d entry %d: %w", i, j, err)
			}
			dst[j] = uint8(v)
		}
	}
	return t, nil
}

// Ints returns the table as three int slices
func (t *Table) Ints() [Channels][]int {
	var out [Channels][]int
	for i := range out {
		ch := t.Channel(i)
		out[i] = make([]int, Size)
		for j, v := range ch {
			out[i][j] = int(v)
		}
	}
	return out
}

// CheckValue reports whether v fits in a channel entry
func CheckValue(v int) error {
	if v < 0 || v > MaxValue {
		return fmt.Errorf("%w: value %d outside [0,%d]", ErrInvalidInput, v, MaxValue)
	}
	return nil
}
