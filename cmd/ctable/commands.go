package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KevoDB/ctable/pkg/catalog"
	"github.com/KevoDB/ctable/pkg/convert"
	"github.com/KevoDB/ctable/pkg/lut"
	"github.com/KevoDB/ctable/pkg/resample"
	"github.com/KevoDB/ctable/pkg/swatch"
	"github.com/KevoDB/ctable/pkg/tablefile"
)

func (a *app) flagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ctable %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", tablefile.ErrInvalidIndex, s)
	}
	return index, nil
}

func (a *app) cmdInfo(args []string) error {
	fs := a.flagSet("info", "[-digest] FILE")
	digest := fs.Bool("digest", false, "Print a content digest for every table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("info takes exactly one file")
	}

	store, err := a.store(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.printInfo(store, *digest)
}

func (a *app) printInfo(store *tablefile.Store, digest bool) error {
	info, err := store.Info()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s: %d tables\n", store.Path(), info.Count)
	for i, name := range info.Names {
		if name == "" {
			name = "(blank)"
		}
		if !digest {
			fmt.Fprintf(a.out, "%4d  %s\n", i, name)
			continue
		}

		t, err := store.Read(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%4d  %016x  %s\n", i, t.Digest(), name)
	}
	return nil
}

func (a *app) cmdRead(args []string) error {
	fs := a.flagSet("read", "[-json] FILE INDEX")
	asJSON := fs.Bool("json", false, "Print the table as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("read takes a file and an index")
	}

	index, err := parseIndex(fs.Arg(1))
	if err != nil {
		return err
	}
	store, err := a.store(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.printTable(store, index, *asJSON)
}

// tableJSON is the JSON form of one stored table, in the layout of a
// family file entry
type tableJSON struct {
	Name  string              `json:"name"`
	Index int                 `json:"index"`
	N     int                 `json:"n"`
	RGB   [lut.Channels][]int `json:"rgb"`
}

func (a *app) printTable(store *tablefile.Store, index int, asJSON bool) error {
	t, err := store.Read(index)
	if err != nil {
		return err
	}
	names, err := store.Names()
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(a.out)
		return enc.Encode(tableJSON{Name: names[index], Index: index, N: lut.Size, RGB: t.Ints()})
	}

	fmt.Fprintf(a.out, "# %d %s\n", index, names[index])
	for i := 0; i < lut.Size; i++ {
		r, g, b := t.At(i)
		fmt.Fprintf(a.out, "%3d %3d %3d %3d\n", i, r, g, b)
	}
	return nil
}

func (a *app) cmdWrite(args []string) error {
	fs := a.flagSet("write", "FILE INDEX NAME COLORFILE")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		fs.Usage()
		return fmt.Errorf("write takes a file, an index, a name and a color file")
	}

	index, err := parseIndex(fs.Arg(1))
	if err != nil {
		return err
	}
	store, err := a.store(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.writeColors(store, index, fs.Arg(2), fs.Arg(3))
}

// writeColors resamples the colors listed in colorFile and stores them as
// table index
func (a *app) writeColors(store *tablefile.Store, index int, name, colorFile string) error {
	data, err := os.ReadFile(colorFile)
	if err != nil {
		return fmt.Errorf("failed to read color file: %w", err)
	}
	entry, err := catalog.ParseColors(name, data)
	if err != nil {
		return fmt.Errorf("%s: %w", colorFile, err)
	}
	t, err := resample.Resample(entry.Count, entry.RGB)
	if err != nil {
		return err
	}

	if err := store.Write(index, name, t); err != nil {
		return err
	}

	info, err := store.Info()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %q (%d colors) at slot %d, %s holds %d tables\n",
		name, entry.Count, index, store.Path(), info.Count)
	return nil
}

func (a *app) cmdConvert(ctx context.Context, args []string) error {
	fs := a.flagSet("convert", "[-out DIR] [-skip-unchanged] PATH...")
	outDir := fs.String("out", "", "Directory for table files (default: next to each family file)")
	skip := fs.Bool("skip-unchanged", a.cfg.SkipUnchanged, "Leave slots that already hold the same table alone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("convert needs at least one family file or directory")
	}

	storeOpts, err := a.cfg.StoreOptions()
	if err != nil {
		return err
	}
	c := convert.NewConverter(
		convert.WithOutputDir(*outDir),
		convert.WithSkipUnchanged(*skip),
		convert.WithStoreOptions(storeOpts...),
		convert.WithLogger(a.logger),
		convert.WithStats(a.stats),
	)

	for _, path := range fs.Args() {
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}

		var results []convert.Result
		if fi.IsDir() {
			results, err = convertDir(ctx, c, path, *outDir)
		} else {
			var res convert.Result
			res, err = c.ConvertFile(ctx, path)
			results = append(results, res)
		}
		if err != nil {
			return err
		}

		for _, res := range results {
			fmt.Fprintf(a.out, "%s -> %s: %d written, %d unchanged\n",
				res.Family, res.Path, res.Written, res.Skipped)
		}
	}
	return nil
}

// convertDir converts every family file in dir. Without an output
// directory the table files land in dir itself.
func convertDir(ctx context.Context, c *convert.Converter, dir, outDir string) ([]convert.Result, error) {
	if outDir != "" {
		return c.ConvertSource(ctx, catalog.DirSource{Dir: dir})
	}

	files, err := catalog.DirSource{Dir: dir}.Files()
	if err != nil {
		return nil, err
	}
	results := make([]convert.Result, 0, len(files))
	for _, f := range files {
		res, err := c.ConvertFile(ctx, f)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *app) cmdPack(args []string) error {
	fs := a.flagSet("pack", "-family NAME [-out DIR] [-codec none|gzip|zstd|snappy] COLORFILE...")
	family := fs.String("family", "", "Family name")
	outDir := fs.String("out", ".", "Directory for the family file")
	codecName := fs.String("codec", "none", "Compression: none, gzip, zstd or snappy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *family == "" || fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("pack needs a family name and at least one color file")
	}

	codec, err := catalog.ParseCodec(*codecName)
	if err != nil {
		return err
	}

	fam := &catalog.Family{Name: *family}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read color file: %w", err)
		}
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		entry, err := catalog.ParseColors(name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fam.Tables = append(fam.Tables, entry)
	}

	out, err := catalog.WriteFamily(*outDir, fam, codec)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Packed %d tables into %s\n", len(fam.Tables), out)
	return nil
}

func (a *app) cmdSwatch(args []string) error {
	fs := a.flagSet("swatch", "[-width W] [-height H] FILE INDEX OUT")
	width := fs.Int("width", a.cfg.SwatchWidth, "Image width in pixels")
	height := fs.Int("height", a.cfg.SwatchHeight, "Image height in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return fmt.Errorf("swatch takes a file, an index and an output image")
	}

	index, err := parseIndex(fs.Arg(1))
	if err != nil {
		return err
	}
	store, err := a.store(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.renderSwatch(store, index, fs.Arg(2), *width, *height)
}

func (a *app) renderSwatch(store *tablefile.Store, index int, out string, width, height int) error {
	t, err := store.Read(index)
	if err != nil {
		return err
	}
	if err := swatch.WriteFile(out, &t, width, height); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Rendered table %d to %s (%dx%d)\n", index, out, width, height)
	return nil
}
