package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/KevoDB/ctable/pkg/lut"
	"github.com/KevoDB/ctable/pkg/tablefile"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".open"),
	readline.PcItem(".close"),
	readline.PcItem(".exit"),
	readline.PcItem(".stats"),
	readline.PcItem("INFO",
		readline.PcItem("DIGEST"),
	),
	readline.PcItem("READ"),
	readline.PcItem("WRITE"),
	readline.PcItem("SWATCH"),
)

const shellHelpText = `
Commands:
  .help                      - Show this help message
  .open PATH                 - Open the table file at PATH
  .close                     - Close the current table file
  .exit                      - Exit the shell
  .stats                     - Show statistics for this session

  INFO [DIGEST]              - List the tables in the open file
  READ INDEX [ENTRY]         - Print table INDEX, or one of its entries
  WRITE INDEX NAME COLORFILE - Resample COLORFILE and store it at INDEX
  SWATCH INDEX OUT           - Render table INDEX to an image file
`

// shell is one interactive session over a table file
type shell struct {
	app   *app
	store *tablefile.Store
}

func (a *app) cmdShell(args []string) error {
	fs := a.flagSet("shell", "[FILE]")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sh := &shell{app: a}
	path := a.cfg.TableFile
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path != "" {
		if err := sh.open(path); err != nil {
			return err
		}
	}

	historyFile := a.cfg.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".ctable_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(a.out, "ctable shell. Enter .help for usage hints.")
	for {
		rl.SetPrompt(sh.prompt())

		line, readErr := rl.Readline()
		if readErr != nil {
			if readErr == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if readErr == io.EOF {
				fmt.Fprintln(a.out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(a.errOut, "Error reading input: %s\n", readErr)
			continue
		}

		if sh.execute(line) {
			return nil
		}
	}
}

func (sh *shell) prompt() string {
	if sh.store != nil {
		return fmt.Sprintf("ctable:%s> ", sh.store.Path())
	}
	return "ctable> "
}

func (sh *shell) open(path string) error {
	store, err := sh.app.store(path)
	if err != nil {
		return err
	}
	// read the header now so a damaged file is reported on open
	if _, err := store.Info(); err != nil {
		return err
	}
	sh.store = store
	return nil
}

// execute runs one input line and reports whether the session should end.
// Errors are printed, never returned.
func (sh *shell) execute(line string) bool {
	out := sh.app.out
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToUpper(parts[0])

	if strings.HasPrefix(cmd, ".") {
		switch strings.ToLower(cmd) {
		case ".help":
			fmt.Fprint(out, shellHelpText)

		case ".open":
			if len(parts) < 2 {
				fmt.Fprintln(out, "Error: Missing path argument")
				return false
			}
			if err := sh.open(parts[1]); err != nil {
				fmt.Fprintf(out, "Error opening table file: %s\n", err)
				return false
			}
			fmt.Fprintf(out, "Table file opened at %s\n", parts[1])

		case ".close":
			if sh.store == nil {
				fmt.Fprintln(out, "No table file open")
				return false
			}
			fmt.Fprintf(out, "Table file %s closed\n", sh.store.Path())
			sh.store = nil

		case ".exit":
			fmt.Fprintln(out, "Goodbye!")
			return true

		case ".stats":
			sh.printStats()

		default:
			fmt.Fprintf(out, "Unknown command: %s\n", parts[0])
		}
		return false
	}

	if sh.store == nil {
		fmt.Fprintln(out, "Error: No table file open")
		return false
	}

	var err error
	switch cmd {
	case "INFO":
		digest := len(parts) > 1 && strings.ToUpper(parts[1]) == "DIGEST"
		err = sh.app.printInfo(sh.store, digest)

	case "READ":
		err = sh.read(parts[1:])

	case "WRITE":
		if len(parts) != 4 {
			fmt.Fprintln(out, "Error: WRITE requires index, name and color file arguments")
			return false
		}
		var index int
		if index, err = parseIndex(parts[1]); err == nil {
			err = sh.app.writeColors(sh.store, index, parts[2], parts[3])
		}

	case "SWATCH":
		if len(parts) != 3 {
			fmt.Fprintln(out, "Error: SWATCH requires index and output file arguments")
			return false
		}
		var index int
		if index, err = parseIndex(parts[1]); err == nil {
			err = sh.app.renderSwatch(sh.store, index, parts[2], sh.app.cfg.SwatchWidth, sh.app.cfg.SwatchHeight)
		}

	default:
		fmt.Fprintf(out, "Unknown command: %s\n", parts[0])
	}

	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
	}
	return false
}

func (sh *shell) read(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("READ requires an index and an optional entry")
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return sh.app.printTable(sh.store, index, false)
	}

	entry, err := strconv.Atoi(args[1])
	if err != nil || entry < 0 || entry >= lut.Size {
		return fmt.Errorf("entry must be between 0 and %d", lut.Size-1)
	}
	t, err := sh.store.Read(index)
	if err != nil {
		return err
	}
	r, g, b := t.At(entry)
	fmt.Fprintf(sh.app.out, "%3d %3d %3d %3d\n", entry, r, g, b)
	return nil
}

func (sh *shell) printStats() {
	out := sh.app.out
	stats := sh.app.stats.GetStats()

	// Helper function to safely get a uint64 value with default
	getUint64 := func(m map[string]interface{}, key string) uint64 {
		if v, ok := m[key].(uint64); ok {
			return v
		}
		return 0
	}

	fmt.Fprintln(out, "📊 Operations:")
	fmt.Fprintf(out, "  • Info: %d\n", getUint64(stats, "info_ops"))
	fmt.Fprintf(out, "  • Reads: %d\n", getUint64(stats, "read_ops"))
	fmt.Fprintf(out, "  • Writes: %d (Appends: %d, Updates: %d)\n",
		getUint64(stats, "write_ops"), getUint64(stats, "append_ops"), getUint64(stats, "update_ops"))

	fmt.Fprintln(out, "\n⏱️ Last Operation Times:")
	for _, op := range []string{"read", "write"} {
		label := strings.ToUpper(op[:1]) + op[1:]
		if ts, ok := stats["last_"+op+"_time"].(int64); ok && ts > 0 {
			fmt.Fprintf(out, "  • Last %s: %s\n", label, time.Unix(0, ts).Format(time.RFC3339))
		} else {
			fmt.Fprintf(out, "  • Last %s: Never\n", label)
		}
	}

	fmt.Fprintln(out, "\n💾 Storage:")
	fmt.Fprintf(out, "  • Bytes Read: %d\n", getUint64(stats, "total_bytes_read"))
	fmt.Fprintf(out, "  • Bytes Written: %d\n", getUint64(stats, "total_bytes_written"))
	fmt.Fprintf(out, "  • Slots Appended: %d (Padding: %d)\n",
		getUint64(stats, "slots_appended"), getUint64(stats, "padding_slots"))

	if errs, ok := stats["errors"].(map[string]uint64); ok && len(errs) > 0 {
		fmt.Fprintln(out, "\n⚠️ Errors:")
		kinds := make([]string, 0, len(errs))
		for k := range errs {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(out, "  • %s: %d\n", k, errs[k])
		}
	}
}
