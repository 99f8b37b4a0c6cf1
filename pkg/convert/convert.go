// Package convert turns table families into packed table files, one file
// per family, resampling every table to lut.Size entries on the way.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KevoDB/ctable/pkg/catalog"
	"github.com/KevoDB/ctable/pkg/common/log"
	"github.com/KevoDB/ctable/pkg/lut"
	"github.com/KevoDB/ctable/pkg/resample"
	"github.com/KevoDB/ctable/pkg/stats"
	"github.com/KevoDB/ctable/pkg/tablefile"
)

// TableExt is the extension of generated table files
const TableExt = ".tbl"

// ErrTooManyTables is returned for families that do not fit in one file
var ErrTooManyTables = errors.New("too many tables for one file")

// Result describes one converted family
type Result struct {
	Family  string
	Path    string
	Written int
	Skipped int
}

// Converter writes families to table files
type Converter struct {
	outDir        string
	skipUnchanged bool
	storeOpts     []tablefile.Option
	logger        log.Logger
	stats         stats.Collector
}

// Option configures a Converter
type Option func(*Converter)

// WithOutputDir places table files in dir instead of next to their input
func WithOutputDir(dir string) Option {
	return func(c *Converter) {
		c.outDir = dir
	}
}

// WithSkipUnchanged leaves slots alone when they already hold the same
// name and colors
func WithSkipUnchanged(skip bool) Option {
	return func(c *Converter) {
		c.skipUnchanged = skip
	}
}

// WithStoreOptions passes options through to every table file store
func WithStoreOptions(opts ...tablefile.Option) Option {
	return func(c *Converter) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// WithLogger sets the converter's logger; stores inherit it
func WithLogger(logger log.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithStats sets the collector for conversion and store statistics
func WithStats(collector stats.Collector) Option {
	return func(c *Converter) {
		c.stats = collector
	}
}

// NewConverter creates a Converter
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger: log.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputPath returns the table file for a family file: the family file's
// base name with TableExt, in outDir or, when outDir is empty, next to it.
func OutputPath(in, outDir string) string {
	dir, file := filepath.Split(in)
	file = strings.TrimSuffix(file, catalog.CodecForPath(file).Extension())
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, file+TableExt)
}

// ConvertFile converts one family file
func (c *Converter) ConvertFile(ctx context.Context, in string) (Result, error) {
	fam, err := catalog.LoadFamily(in)
	if err != nil {
		return Result{}, err
	}
	return c.ConvertFamily(ctx, fam, OutputPath(in, c.outDir))
}

// ConvertSource converts every family a source supplies. Output files are
// named after the families and placed in the output directory.
func (c *Converter) ConvertSource(ctx context.Context, src catalog.Source) ([]Result, error) {
	families, err := src.Families(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(families))
	for _, fam := range families {
		out := OutputPath(catalog.FamilyFilename(fam.Name, catalog.CodecNone), c.outDir)
		res, err := c.ConvertFamily(ctx, fam, out)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ConvertFamily writes fam's tables to the table file at out, table i at
// slot i. Slots past the family's last table are left as they are.
func (c *Converter) ConvertFamily(ctx context.Context, fam *catalog.Family, out string) (Result, error) {
	res := Result{Family: fam.Name, Path: out}
	if len(fam.Tables) > tablefile.MaxTables {
		return res, fmt.Errorf("%w: family %q has %d tables, limit is %d",
			ErrTooManyTables, fam.Name, len(fam.Tables), tablefile.MaxTables)
	}

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return res, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	logger := c.logger.WithFields(map[string]interface{}{
		"family": fam.Name,
		"output": out,
	})

	opts := append([]tablefile.Option{tablefile.WithLogger(logger)}, c.storeOpts...)
	if c.stats != nil {
		opts = append(opts, tablefile.WithStats(c.stats))
	}
	store := tablefile.New(out, opts...)

	existing, err := store.Info()
	if err != nil {
		return res, err
	}

	var start time.Time
	if c.stats != nil {
		start = c.stats.StartConversion()
	}

	for i := range fam.Tables {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		e := &fam.Tables[i]
		t, err := c.resample(e)
		if err != nil {
			return res, fmt.Errorf("family %q table %q: %w", fam.Name, e.Name, err)
		}

		if c.skipUnchanged && i < existing.Count {
			same, err := sameSlot(store, existing, i, e.Name, &t)
			if err != nil {
				return res, err
			}
			if same {
				logger.Debug("table %q unchanged at slot %d", e.Name, i)
				res.Skipped++
				continue
			}
		}

		if err := store.Write(i, e.Name, t); err != nil {
			return res, fmt.Errorf("family %q table %q: %w", fam.Name, e.Name, err)
		}
		res.Written++
	}

	if c.stats != nil {
		c.stats.FinishConversion(start, uint64(res.Written), uint64(res.Skipped))
		c.stats.TrackOperation(stats.OpConvert)
	}
	if existing.Count > len(fam.Tables) {
		logger.Warn("file keeps %d slots beyond the family's %d tables", existing.Count-len(fam.Tables), len(fam.Tables))
	}

	logger.Info("converted %d tables (%d written, %d unchanged)", len(fam.Tables), res.Written, res.Skipped)
	return res, nil
}

func (c *Converter) resample(e *catalog.Entry) (lut.Table, error) {
	start := time.Now()
	t, err := resample.Resample(e.Count, e.RGB)
	if c.stats != nil {
		c.stats.TrackOperationWithLatency(stats.OpResample, uint64(time.Since(start).Nanoseconds()))
		if err != nil {
			c.stats.TrackError("resample")
		}
	}
	return t, err
}

// sameSlot reports whether slot i already holds name and t
func sameSlot(store *tablefile.Store, info tablefile.Info, i int, name string, t *lut.Table) (bool, error) {
	rec, err := tablefile.EncodeName(name, store.Encoding())
	if err != nil {
		return false, nil
	}
	stored, err := tablefile.DecodeName(rec[:], store.Encoding())
	if err != nil || info.Names[i] != stored {
		return false, nil
	}

	cur, err := store.Read(i)
	if err != nil {
		return false, err
	}
	return cur.Digest() == t.Digest(), nil
}
