package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/KevoDB/ctable/pkg/lut"
)

// Codec is the compression applied to a family file
type Codec int

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
	CodecSnappy
)

var codecs = []Codec{CodecNone, CodecGzip, CodecZstd, CodecSnappy}

const jsonExt = ".json"

// Extension returns the file extension for the codec, including ".json"
func (c Codec) Extension() string {
	switch c {
	case CodecGzip:
		return jsonExt + ".gz"
	case CodecZstd:
		return jsonExt + ".zst"
	case CodecSnappy:
		return jsonExt + ".sz"
	default:
		return jsonExt
	}
}

// CodecForPath picks a codec from a file name
func CodecForPath(path string) Codec {
	switch {
	case strings.HasSuffix(path, CodecGzip.Extension()):
		return CodecGzip
	case strings.HasSuffix(path, CodecZstd.Extension()):
		return CodecZstd
	case strings.HasSuffix(path, CodecSnappy.Extension()):
		return CodecSnappy
	default:
		return CodecNone
	}
}

// ParseCodec converts a flag value such as "gzip" into a Codec
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "", "none", "json":
		return CodecNone, nil
	case "gz", "gzip":
		return CodecGzip, nil
	case "zst", "zstd":
		return CodecZstd, nil
	case "sz", "snappy":
		return CodecSnappy, nil
	default:
		return CodecNone, fmt.Errorf("unknown codec %q", s)
	}
}

// IsFamilyFile reports whether name has a family file extension
func IsFamilyFile(name string) bool {
	for _, c := range codecs {
		if strings.HasSuffix(name, c.Extension()) {
			return true
		}
	}
	return false
}

// FamilyFilename turns a family name into a file name: words joined with
// underscores, slashes replaced by dashes.
func FamilyFilename(name string, codec Codec) string {
	file := strings.Join(strings.Fields(name), "_")
	file = strings.ReplaceAll(file, "/", "-")
	return file + codec.Extension()
}

// FamilyName recovers a family name from a family file path
func FamilyName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, CodecForPath(base).Extension())
	return strings.ReplaceAll(base, "_", " ")
}

// LoadFamily reads a family file, decompressing it according to its
// extension
func LoadFamily(path string) (*Family, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open family file: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	switch CodecForPath(path) {
	case CodecGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFamily, path, err)
		}
		defer gz.Close()
		r = gz
	case CodecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFamily, path, err)
		}
		defer zr.Close()
		r = zr
	case CodecSnappy:
		r = snappy.NewReader(r)
	}

	fam, err := DecodeFamily(FamilyName(path), r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fam, nil
}

type entryJSON struct {
	N   int     `json:"n"`
	RGB [][]int `json:"rgb"`
}

// DecodeFamily parses family JSON, keeping the key order of the object
func DecodeFamily(name string, r io.Reader) (*Family, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFamily, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrInvalidFamily, tok)
	}

	fam := &Family{Name: name}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFamily, err)
		}
		key := tok.(string)

		var raw entryJSON
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: table %q: %v", ErrInvalidFamily, key, err)
		}
		if len(raw.RGB) != lut.Channels {
			return nil, fmt.Errorf("%w: table %q has %d channels", ErrInvalidFamily, key, len(raw.RGB))
		}

		e := Entry{Name: key, Count: raw.N}
		copy(e.RGB[:], raw.RGB)
		if err := e.Validate(); err != nil {
			return nil, err
		}
		fam.Tables = append(fam.Tables, e)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFamily, err)
	}
	return fam, nil
}

// EncodeFamily writes family JSON with tables in family order
func EncodeFamily(w io.Writer, fam *Family) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range fam.Tables {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(entryJSON{N: e.Count, RGB: e.RGB[:]})
		if err != nil {
			return err
		}
		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
	}
	buf.WriteString("\n}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFamily writes fam into dir under FamilyFilename and returns the path.
// The directory is created if needed.
func WriteFamily(dir string, fam *Family, codec Codec) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, FamilyFilename(fam.Name, codec))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create family file: %w", err)
	}

	if err := writeCompressed(f, fam, codec); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write family file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close family file: %w", err)
	}
	return path, nil
}

func writeCompressed(w io.Writer, fam *Family, codec Codec) error {
	switch codec {
	case CodecGzip:
		gz := gzip.NewWriter(w)
		if err := EncodeFamily(gz, fam); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	case CodecZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := EncodeFamily(zw, fam); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CodecSnappy:
		sw := snappy.NewBufferedWriter(w)
		if err := EncodeFamily(sw, fam); err != nil {
			sw.Close()
			return err
		}
		return sw.Close()
	default:
		return EncodeFamily(w, fam)
	}
}
