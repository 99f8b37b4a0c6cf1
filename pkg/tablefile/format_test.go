package tablefile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeName(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		enc  NameEncoding
		want string
	}{
		{"short", "Rainbow", NameUTF8, "Rainbow" + strings.Repeat(" ", 25)},
		{"empty", "", NameUTF8, strings.Repeat(" ", NameLen)},
		{"exact", strings.Repeat("x", NameLen), NameUTF8, strings.Repeat("x", NameLen)},
		{"truncated", strings.Repeat("abcd", 10), NameUTF8, strings.Repeat("abcd", 8)},
		{"rune boundary", "a" + strings.Repeat("é", 20), NameUTF8, "a" + strings.Repeat("é", 15) + " "},
		{"normalized", "Cafe\u0301", NameUTF8, "Caf\u00e9" + strings.Repeat(" ", 27)},
		{"latin1", "Café", NameLatin1, "Caf\xe9" + strings.Repeat(" ", 28)},
		{"latin1 truncated", strings.Repeat("é", 40), NameLatin1, strings.Repeat("\xe9", NameLen)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := EncodeName(tc.in, tc.enc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(rec[:]))
		})
	}
}

func TestEncodeNameUnrepresentable(t *testing.T) {
	_, err := EncodeName("Ωmega", NameLatin1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = EncodeName("bad\xff", NameUTF8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDecodeName(t *testing.T) {
	rec, err := EncodeName("  BlueRed  ", NameUTF8)
	require.NoError(t, err)

	name, err := DecodeName(rec[:], NameUTF8)
	require.NoError(t, err)
	assert.Equal(t, "BlueRed", name)

	latin := []byte("Caf\xe9" + strings.Repeat(" ", 28))
	name, err = DecodeName(latin, NameLatin1)
	require.NoError(t, err)
	assert.Equal(t, "Café", name)

	_, err = DecodeName(latin, NameUTF8)
	assert.True(t, errors.Is(err, ErrFormat), "got %v", err)

	_, err = DecodeName([]byte("short"), NameUTF8)
	assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
}

func TestDirectoryRoundTrip(t *testing.T) {
	names := []string{"A", "", "GMT_ocean", strings.Repeat("n", 40)}

	dir, err := encodeDirectory(names, NameUTF8)
	require.NoError(t, err)
	require.Len(t, dir, len(names)*NameLen)

	got, err := decodeDirectory(dir, NameUTF8)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "", "GMT_ocean", strings.Repeat("n", NameLen)}, got)
}

func TestSlotRoundTrip(t *testing.T) {
	tbl := makeTable(3)
	slot := EncodeSlot(&tbl)

	assert.Equal(t, tbl.Red[:], slot[:256])
	assert.Equal(t, tbl.Green[:], slot[256:512])
	assert.Equal(t, tbl.Blue[:], slot[512:])

	got, err := DecodeSlot(slot[:])
	require.NoError(t, err)
	assert.Equal(t, tbl, got)

	_, err = DecodeSlot(slot[:100])
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestBlankSlots(t *testing.T) {
	b := blankSlots(2)
	assert.Len(t, b, 2*SlotSize)
	assert.True(t, bytes.Equal(b, bytes.Repeat([]byte{' '}, 2*SlotSize)))
}

func TestParseNameEncoding(t *testing.T) {
	for in, want := range map[string]NameEncoding{
		"":           NameUTF8,
		"UTF-8":      NameUTF8,
		"latin1":     NameLatin1,
		"ISO-8859-1": NameLatin1,
	} {
		got, err := ParseNameEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseNameEncoding("ebcdic")
	assert.Error(t, err)

	assert.Equal(t, "latin1", NameLatin1.String())
}
