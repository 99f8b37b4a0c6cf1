package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevoDB/ctable/pkg/lut"
)

const familyJSON = `{
  "zebra": {"n": 2, "rgb": [[0, 255], [0, 255], [0, 255]]},
  "apple": {"n": 3, "rgb": [[255, 128, 0], [0, 0, 0], [1, 2, 3]]},
  "mango": {"n": 1, "rgb": [[10], [20], [30]]}
}`

func TestDecodeFamilyKeepsOrder(t *testing.T) {
	fam, err := DecodeFamily("Fruit", strings.NewReader(familyJSON))
	require.NoError(t, err)

	require.Len(t, fam.Tables, 3)
	assert.Equal(t, "Fruit", fam.Name)
	assert.Equal(t, "zebra", fam.Tables[0].Name)
	assert.Equal(t, "apple", fam.Tables[1].Name)
	assert.Equal(t, "mango", fam.Tables[2].Name)

	apple, ok := fam.Table("apple")
	require.True(t, ok)
	assert.Equal(t, 3, apple.Count)
	assert.Equal(t, []int{255, 128, 0}, apple.RGB[0])
	assert.Equal(t, []int{1, 2, 3}, apple.RGB[2])

	_, ok = fam.Table("kiwi")
	assert.False(t, ok)
}

func TestDecodeFamilyInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not an object", `[1, 2]`, ErrInvalidFamily},
		{"two channels", `{"a": {"n": 1, "rgb": [[1], [2]]}}`, ErrInvalidFamily},
		{"count mismatch", `{"a": {"n": 2, "rgb": [[1], [2], [3]]}}`, lut.ErrInvalidInput},
		{"out of range", `{"a": {"n": 1, "rgb": [[1], [256], [3]]}}`, lut.ErrInvalidInput},
		{"truncated", `{"a": {"n": 1, "rgb": [[1], [2], [3]]}`, ErrInvalidFamily},
		{"bad value", `{"a": {"n": 1, "rgb": [["x"], [2], [3]]}}`, ErrInvalidFamily},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFamily("f", strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestWriteAndLoadFamily(t *testing.T) {
	src, err := DecodeFamily("NCAR Command Language/Fruit", strings.NewReader(familyJSON))
	require.NoError(t, err)

	for _, codec := range codecs {
		t.Run(codec.Extension(), func(t *testing.T) {
			dir := t.TempDir()

			path, err := WriteFamily(dir, src, codec)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "NCAR_Command_Language-Fruit"+codec.Extension()), path)
			assert.Equal(t, codec, CodecForPath(path))

			loaded, err := LoadFamily(path)
			require.NoError(t, err)
			assert.Equal(t, "NCAR Command Language-Fruit", loaded.Name)
			assert.Equal(t, src.Tables, loaded.Tables)
		})
	}
}

func TestLoadFamilyCorruptCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0644))

	_, err := LoadFamily(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFamily), "got %v", err)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	fam, err := DecodeFamily("x", strings.NewReader(familyJSON))
	require.NoError(t, err)

	fam.Name = "b family"
	_, err = WriteFamily(dir, fam, CodecZstd)
	require.NoError(t, err)
	fam.Name = "a family"
	_, err = WriteFamily(dir, fam, CodecNone)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	src := DirSource{Dir: dir}
	files, err := src.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)

	families, err := src.Families(context.Background())
	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, "a family", families[0].Name)
	assert.Equal(t, "b family", families[1].Name)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Families(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFamilyFilename(t *testing.T) {
	assert.Equal(t, "MeteoSwiss.json", FamilyFilename("MeteoSwiss", CodecNone))
	assert.Equal(t, "Color_Blind_Safe.json.gz", FamilyFilename("  Color Blind  Safe ", CodecGzip))
	assert.Equal(t, "GMT-NCL.json.zst", FamilyFilename("GMT/NCL", CodecZstd))

	assert.True(t, IsFamilyFile("a.json"))
	assert.True(t, IsFamilyFile("a.json.zst"))
	assert.True(t, IsFamilyFile("a.json.sz"))
	assert.False(t, IsFamilyFile("a.rgb"))

	c, err := ParseCodec("gzip")
	require.NoError(t, err)
	assert.Equal(t, CodecGzip, c)
	c, err = ParseCodec("snappy")
	require.NoError(t, err)
	assert.Equal(t, ".json.sz", c.Extension())
	_, err = ParseCodec("lz4")
	assert.Error(t, err)
}
