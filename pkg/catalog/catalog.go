// Package catalog reads and writes color table families: named, ordered
// collections of variable-length RGB tables, as produced from the NCL
// color table gallery.
//
// A family file is a JSON object mapping table names to
//
//	{"n": <count>, "rgb": [[red...], [green...], [blue...]]}
//
// with every value already in 0..255. Key order is significant: it is the
// slot order used when a family is converted to a table file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KevoDB/ctable/pkg/lut"
)

var (
	// ErrInvalidFamily is returned for family files that do not follow the
	// expected layout
	ErrInvalidFamily = errors.New("invalid family file")
	// ErrNoColors is returned when color text holds no color lines
	ErrNoColors = errors.New("no colors found")
)

// Entry is one source table before resampling
type Entry struct {
	Name  string
	Count int
	RGB   [lut.Channels][]int
}

// Validate checks that every channel holds Count values in range
func (e *Entry) Validate() error {
	if e.Count <= 0 {
		return fmt.Errorf("%w: table %q has count %d", lut.ErrInvalidInput, e.Name, e.Count)
	}
	for i, ch := range e.RGB {
		if len(ch) != e.Count {
			return fmt.Errorf("%w: table %q channel %d has %d values, count is %d",
				lut.ErrInvalidInput, e.Name, i, len(ch), e.Count)
		}
		for j, v := range ch {
			if err := lut.CheckValue(v); err != nil {
				return fmt.Errorf("table %q channel %d entry %d: %w", e.Name, i, j, err)
			}
		}
	}
	return nil
}

// Family is a named, ordered group of tables
type Family struct {
	Name   string
	Tables []Entry
}

// Table returns the entry with the given name
func (f *Family) Table(name string) (*Entry, bool) {
	for i := range f.Tables {
		if f.Tables[i].Name == name {
			return &f.Tables[i], true
		}
	}
	return nil, false
}

// Source supplies table families
type Source interface {
	Families(ctx context.Context) ([]*Family, error)
}

// FileSource loads families from a fixed list of family files
type FileSource []string

// Families loads every file in order
func (s FileSource) Families(ctx context.Context) ([]*Family, error) {
	families := make([]*Family, 0, len(s))
	for _, path := range s {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fam, err := LoadFamily(path)
		if err != nil {
			return nil, err
		}
		families = append(families, fam)
	}
	return families, nil
}

// DirSource loads every family file in a directory
type DirSource struct {
	Dir string
}

// Families loads the directory's family files in name order
func (s DirSource) Families(ctx context.Context) ([]*Family, error) {
	paths, err := s.Files()
	if err != nil {
		return nil, err
	}
	return FileSource(paths).Families(ctx)
}

// Files lists the family files in the directory, sorted by name
func (s DirSource) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read family directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsFamilyFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.Dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
