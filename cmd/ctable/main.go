package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevoDB/ctable/pkg/common/log"
	"github.com/KevoDB/ctable/pkg/config"
	"github.com/KevoDB/ctable/pkg/stats"
	"github.com/KevoDB/ctable/pkg/tablefile"
)

const usageText = `ctable - packed color lookup table files

Usage:
  ctable [options] command [arguments]

Commands:
  info [-digest] FILE                     - List the tables in FILE
  read [-json] FILE INDEX                 - Print table INDEX of FILE
  write FILE INDEX NAME COLORFILE         - Resample COLORFILE and store it at INDEX
  convert [-out DIR] [-skip-unchanged] PATH...
                                          - Convert family files (or directories of them)
  pack -family NAME [-out DIR] [-codec C] COLORFILE...
                                          - Bundle color files into a family file
  swatch [-width W] [-height H] FILE INDEX OUT
                                          - Render table INDEX as a PNG, BMP or TIFF image
  shell [FILE]                            - Start the interactive shell

Options:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one ctable invocation and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ctable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Configuration file (default ./"+config.DefaultConfigFileName+" if present)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn or error")
	encoding := fs.String("encoding", "", "Table name encoding: utf-8 or latin1")
	atomicWrites := fs.Bool("atomic", false, "Write through a temporary file and rename it into place")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}

	// flags given on the command line win over the config file
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	cfg.Update(func(c *config.Config) {
		if set["log-level"] {
			c.LogLevel = *logLevel
		}
		if set["encoding"] {
			c.NameEncoding = *encoding
		}
		if set["atomic"] {
			c.AtomicWrites = *atomicWrites
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	a := newApp(cfg, stdout, stderr)
	if err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the configuration at path. With no path it uses the
// default file in the working directory when there is one.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}

	cfg, err := config.LoadConfig(config.DefaultConfigFileName)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.NewDefaultConfig(""), nil
	}
	return cfg, err
}

// app carries what every command needs
type app struct {
	cfg    *config.Config
	logger log.Logger
	stats  *stats.AtomicCollector
	out    io.Writer
	errOut io.Writer
}

func newApp(cfg *config.Config, stdout, stderr io.Writer) *app {
	return &app{
		cfg:    cfg,
		logger: log.NewStandardLogger(log.WithOutput(stderr), log.WithLevel(cfg.Level())),
		stats:  stats.NewAtomicCollector(),
		out:    stdout,
		errOut: stderr,
	}
}

// store opens the table file at path with the configured options
func (a *app) store(path string) (*tablefile.Store, error) {
	opts, err := a.cfg.StoreOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, tablefile.WithLogger(a.logger), tablefile.WithStats(a.stats))
	return tablefile.New(path, opts...), nil
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "info":
		return a.cmdInfo(args)
	case "read":
		return a.cmdRead(args)
	case "write":
		return a.cmdWrite(args)
	case "convert":
		return a.cmdConvert(ctx, args)
	case "pack":
		return a.cmdPack(args)
	case "swatch":
		return a.cmdSwatch(args)
	case "shell":
		return a.cmdShell(args)
	case "help":
		fmt.Fprint(a.out, usageText)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
