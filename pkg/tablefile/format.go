// Package tablefile reads and writes packed color table files.
//
// A table file holds up to MaxTables lookup tables of lut.Size RGB entries
// followed by a directory of fixed-width names:
//
//	offset 0                 1 byte               table count n
//	offset 1                 n * SlotSize bytes   slots: 256 red, 256 green, 256 blue
//	offset 1 + n*SlotSize    n * NameLen bytes    names, space padded
//
// This is the layout IDL uses for its colors*.tbl files. The store holds no
// state between calls and does no locking; callers must serialize access to
// a file.
package tablefile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/KevoDB/ctable/pkg/lut"
)

const (
	// HeaderSize is the size of the table count header
	HeaderSize = 1
	// SlotSize is the size of one table slot
	SlotSize = lut.Size * lut.Channels
	// NameLen is the width of one name record
	NameLen = 32
	// MaxTables is the most tables a file can hold; the count is one byte
	MaxTables = 255
	// MaxIndex is the largest index a table can be written at
	MaxIndex = MaxTables - 1

	padByte = ' '
)

// NameEncoding selects how names are stored in name records
type NameEncoding int

const (
	// NameUTF8 stores names as UTF-8; records that are not valid UTF-8 are
	// reported as format errors.
	NameUTF8 NameEncoding = iota
	// NameLatin1 stores names as ISO 8859-1, one byte per character.
	NameLatin1
)

// String returns the configuration name of the encoding
func (e NameEncoding) String() string {
	switch e {
	case NameUTF8:
		return "utf-8"
	case NameLatin1:
		return "latin1"
	default:
		return fmt.Sprintf("NameEncoding(%d)", int(e))
	}
}

// ParseNameEncoding converts a configuration value into a NameEncoding
func ParseNameEncoding(s string) (NameEncoding, error) {
	switch strings.ToLower(s) {
	case "", "utf-8", "utf8":
		return NameUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return NameLatin1, nil
	default:
		return NameUTF8, fmt.Errorf("unknown name encoding %q", s)
	}
}

// slotOffset returns the file offset of slot i
func slotOffset(i int) int64 {
	return HeaderSize + int64(i)*SlotSize
}

// fileSize returns the size of a well-formed file holding n tables
func fileSize(n int) int64 {
	return slotOffset(n) + int64(n)*NameLen
}

// EncodeName packs a name into a fixed-width record: normalized to NFC,
// encoded, truncated to NameLen bytes on a character boundary and padded
// with spaces.
func EncodeName(name string, enc NameEncoding) ([NameLen]byte, error) {
	var rec [NameLen]byte
	for i := range rec {
		rec[i] = padByte
	}

	name = norm.NFC.String(name)

	var b []byte
	switch enc {
	case NameLatin1:
		encoded, err := charmap.ISO8859_1.NewEncoder().String(name)
		if err != nil {
			return rec, fmt.Errorf("%w: name %q is not representable in latin1", ErrInvalidInput, name)
		}
		b = []byte(encoded)
		if len(b) > NameLen {
			b = b[:NameLen]
		}
	case NameUTF8:
		if !utf8.ValidString(name) {
			return rec, fmt.Errorf("%w: name %q is not valid UTF-8", ErrInvalidInput, name)
		}
		b = []byte(name)
		if len(b) > NameLen {
			n := NameLen
			for n > 0 && !utf8.RuneStart(b[n]) {
				n--
			}
			b = b[:n]
		}
	default:
		return rec, fmt.Errorf("%w: unknown name encoding %v", ErrInvalidInput, enc)
	}

	copy(rec[:], b)
	return rec, nil
}

// DecodeName unpacks a name record, trimming the surrounding padding
func DecodeName(rec []byte, enc NameEncoding) (string, error) {
	if len(rec) != NameLen {
		return "", fmt.Errorf("%w: name record is %d bytes, want %d", ErrFormat, len(rec), NameLen)
	}

	var s string
	switch enc {
	case NameLatin1:
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(rec)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrFormat, err)
		}
		s = string(decoded)
	case NameUTF8:
		if !utf8.Valid(rec) {
			return "", fmt.Errorf("%w: name record %q is not valid UTF-8", ErrFormat, rec)
		}
		s = string(rec)
	default:
		return "", fmt.Errorf("%w: unknown name encoding %v", ErrFormat, enc)
	}

	return strings.TrimSpace(s), nil
}

// encodeDirectory packs names into consecutive name records
func encodeDirectory(names []string, enc NameEncoding) ([]byte, error) {
	dir := make([]byte, 0, len(names)*NameLen)
	for i, name := range names {
		rec, err := EncodeName(name, enc)
		if err != nil {
			return nil, fmt.Errorf("name %d: %w", i, err)
		}
		dir = append(dir, rec[:]...)
	}
	return dir, nil
}

// decodeDirectory unpacks len(dir)/NameLen name records
func decodeDirectory(dir []byte, enc NameEncoding) ([]string, error) {
	names := make([]string, 0, len(dir)/NameLen)
	for off := 0; off+NameLen <= len(dir); off += NameLen {
		name, err := DecodeName(dir[off:off+NameLen], enc)
		if err != nil {
			return nil, fmt.Errorf("name %d: %w", off/NameLen, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// EncodeSlot packs a table into a slot: red, green, then blue
func EncodeSlot(t *lut.Table) [SlotSize]byte {
	var slot [SlotSize]byte
	copy(slot[0:lut.Size], t.Red[:])
	copy(slot[lut.Size:2*lut.Size], t.Green[:])
	copy(slot[2*lut.Size:], t.Blue[:])
	return slot
}

// DecodeSlot unpacks a slot into a table
func DecodeSlot(b []byte) (lut.Table, error) {
	var t lut.Table
	if len(b) != SlotSize {
		return t, fmt.Errorf("%w: slot is %d bytes, want %d", ErrFormat, len(b), SlotSize)
	}
	copy(t.Red[:], b[0:lut.Size])
	copy(t.Green[:], b[lut.Size:2*lut.Size])
	copy(t.Blue[:], b[2*lut.Size:])
	return t, nil
}

// blankSlots returns n padding slots
func blankSlots(n int) []byte {
	b := make([]byte, n*SlotSize)
	for i := range b {
		b[i] = padByte
	}
	return b
}
