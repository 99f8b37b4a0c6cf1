package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/KevoDB/ctable/pkg/lut"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseColors extracts a table from loosely formatted color text such as
// an NCL .rgb file. Every line holding at least three numbers is one color;
// the first three numbers are red, green and blue. Lines with fewer numbers
// (headers like "ncolors=256", comments) are skipped.
//
// If no value exceeds 1 the table is taken to be fractional and scaled by
// 255. Values are then clipped to 0..255 and truncated to integers.
func ParseColors(name string, data []byte) (Entry, error) {
	var rgb [lut.Channels][]float64
	maxVal := 0.0

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		vals := numberPattern.FindAllString(sc.Text(), -1)
		if len(vals) < lut.Channels {
			continue
		}
		for i := 0; i < lut.Channels; i++ {
			v, err := strconv.ParseFloat(vals[i], 64)
			if err != nil {
				return Entry{}, fmt.Errorf("table %q: %w", name, err)
			}
			if v > maxVal {
				maxVal = v
			}
			rgb[i] = append(rgb[i], v)
		}
	}
	if err := sc.Err(); err != nil {
		return Entry{}, fmt.Errorf("table %q: %w", name, err)
	}

	n := len(rgb[0])
	if n == 0 {
		return Entry{}, fmt.Errorf("%w in table %q", ErrNoColors, name)
	}

	scale := 1.0
	if maxVal <= 1 {
		scale = lut.MaxValue
	}

	e := Entry{Name: name, Count: n}
	for i, ch := range rgb {
		e.RGB[i] = make([]int, n)
		for j, v := range ch {
			v *= scale
			if v > lut.MaxValue {
				v = lut.MaxValue
			}
			e.RGB[i][j] = int(v)
		}
	}
	return e, nil
}
