// localfilter lists the entries of a local directory through a filter:
// an optional regular expression on the name, an optional inclusive range
// of modification dates, a hidden-file policy and an inclusion/exclusion
// mode.
//
// Filters can be saved under a name and loaded again later, so a filter
// defined once can be reapplied to any directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/nethoundsh/localfilter/internal/logging"
	"github.com/nethoundsh/localfilter/internal/runner"
	"github.com/nethoundsh/localfilter/pkg/filter"
	"github.com/nethoundsh/localfilter/pkg/listing"
	outputpkg "github.com/nethoundsh/localfilter/pkg/output"
	"github.com/nethoundsh/localfilter/pkg/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// version can be overridden at build time with:
//
//	go build -ldflags "-X main.version=v1.2.3"
var version = "dev"

var (
	errVersion = errors.New("version requested")
	errHelp    = errors.New("help requested")
	// errDone means a saved-filter command ran and nothing is left to list.
	errDone = errors.New("done")
)

type appConfig struct {
	run      runner.AppConfig
	flushLog func()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stdout, stderr)
	if err != nil {
		switch {
		case errors.Is(err, errVersion):
			fmt.Fprintln(stdout, "localfilter", version)
			return 0
		case errors.Is(err, errDone):
			return 0
		case errors.Is(err, errHelp):
			return 0
		default:
			fmt.Fprintln(stderr, color.RedString("Error:"), err)
			return 1
		}
	}
	defer cfg.run.Stop()
	defer cfg.flushLog()

	return runner.RunList(cfg.run)
}

// parseConfig parses flags, resolves the filter (saved and/or from flags),
// validates everything and initializes the logger, limiter and signal
// handler.
func parseConfig(args []string, stdout, stderr io.Writer) (appConfig, error) {
	fs := flag.NewFlagSet("localfilter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	pattern := fs.String("pattern", "", "regular expression the whole entry name must match")
	caseSensitive := fs.Bool("case", false, "match -pattern case-sensitively")
	syntax := fs.String("syntax", "", "pattern syntax: re2 (default) or extended (lookaround, backreferences)")
	matchTimeout := fs.String("match-timeout", "", "time limit for one extended-syntax match (e.g. \"250ms\"; default 100ms)")
	from := fs.String("from", "", "earliest modification date, inclusive (yyyy-MM-dd)")
	to := fs.String("to", "", "latest modification date, inclusive (yyyy-MM-dd)")
	showHidden := fs.Bool("hidden", false, "show hidden entries (the default unless a loaded filter hides them)")
	noHidden := fs.Bool("no-hidden", false, "hide hidden entries regardless of the other filters")
	exclude := fs.Bool("exclude", false, "exclusion mode: drop entries matching -pattern/-from/-to instead of keeping them")

	recursive := fs.Bool("r", false, "recursively list subdirectories")
	includeDirs := fs.Bool("dirs", false, "also list directories (they pass through the filter too)")
	minSizeStr := fs.String("min-size", "", "minimum file size with units (e.g. \"1KB\", \"10MB\")")
	maxSizeStr := fs.String("max-size", "", "maximum file size with units (e.g. \"100MB\", \"1GB\")")

	output := fs.String("o", "text", "output format: text or json")
	noColor := fs.Bool("no-color", false, "disable colored output")
	noProgress := fs.Bool("no-progress", false, "disable progress bar for recursive listings")
	workers := fs.Int("workers", 4, "directories listed in parallel")
	rateLimit := fs.Int("rate", 0, "max directory reads per second (0 = no limit)")
	failEmpty := fs.Bool("fail-empty", false, "exit with status 2 when no entry is shown")

	filtersFile := fs.String("filters", "", "saved-filter file (.json or .yaml); default from $"+store.EnvPath+" or the user config dir")
	load := fs.String("load", "", "start from the saved filter `name`; other filter flags override its fields")
	save := fs.String("save", "", "save the resulting filter as `name` before listing")
	listSaved := fs.Bool("list-saved", false, "print the saved filters and exit")
	deleteSaved := fs.String("delete", "", "delete the saved filter `name` and exit")

	logLevel := fs.String("log-level", "warn", "diagnostic log level: debug, info, warn or error")
	logFormat := fs.String("log-format", "console", "diagnostic log format: console or json")
	logFile := fs.String("log-file", "", "write diagnostic logs to a rotated file instead of stderr")
	showVersion := fs.Bool("version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: localfilter [flags] [directory]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return appConfig{}, errHelp
		}
		return appConfig{}, err
	}
	if *showVersion {
		return appConfig{}, errVersion
	}
	if fs.NArg() > 1 {
		return appConfig{}, fmt.Errorf("expected at most one directory, got %d arguments", fs.NArg())
	}

	if *output == "json" || *noColor {
		color.NoColor = true
	}

	filtersPath := *filtersFile
	if filtersPath == "" {
		p, err := store.FilePath()
		if err != nil && (*load != "" || *save != "" || *listSaved || *deleteSaved != "") {
			return appConfig{}, err
		}
		filtersPath = p
	}

	if *listSaved {
		return appConfig{}, printSaved(stdout, filtersPath)
	}
	if *deleteSaved != "" {
		if err := store.Delete(filtersPath, *deleteSaved); err != nil {
			return appConfig{}, err
		}
		fmt.Fprintf(stderr, "Deleted filter %q from %s\n", *deleteSaved, filtersPath)
		return appConfig{}, errDone
	}

	in := filter.DefaultInput()
	if *load != "" {
		saved, err := store.Get(filtersPath, *load)
		if err != nil {
			return appConfig{}, fmt.Errorf("loading filter from %s: %w", filtersPath, err)
		}
		in = saved
	}
	if *showHidden && *noHidden {
		return appConfig{}, errors.New("-hidden and -no-hidden are mutually exclusive")
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pattern":
			in.Pattern = *pattern
		case "case":
			in.CaseSensitive = *caseSensitive
		case "syntax":
			in.Syntax = *syntax
		case "match-timeout":
			in.MatchTimeout = *matchTimeout
		case "from":
			in.StartDate = *from
		case "to":
			in.EndDate = *to
		case "hidden":
			in.ShowHidden = *showHidden
		case "no-hidden":
			in.ShowHidden = !*noHidden
		case "exclude":
			in.Exclude = *exclude
		}
	})

	f, err := filter.Build(in, time.Local)
	if err != nil {
		return appConfig{}, err
	}

	var minSize, maxSize int64 // 0 means "no limit"
	if *minSizeStr != "" {
		bytes, err := humanize.ParseBytes(*minSizeStr)
		if err != nil {
			return appConfig{}, fmt.Errorf("invalid -min-size value %q: %w", *minSizeStr, err)
		}
		minSize = int64(bytes)
	}
	if *maxSizeStr != "" {
		bytes, err := humanize.ParseBytes(*maxSizeStr)
		if err != nil {
			return appConfig{}, fmt.Errorf("invalid -max-size value %q: %w", *maxSizeStr, err)
		}
		maxSize = int64(bytes)
	}
	if minSize > 0 && maxSize > 0 && minSize > maxSize {
		return appConfig{}, fmt.Errorf("-min-size (%s) cannot be greater than -max-size (%s)",
			*minSizeStr, *maxSizeStr)
	}

	switch *output {
	case "text", "json":
	default:
		return appConfig{}, fmt.Errorf("invalid -o value; must be 'text' or 'json'")
	}
	if *workers < 1 {
		return appConfig{}, fmt.Errorf("invalid -workers value %d; must be at least 1", *workers)
	}
	if *rateLimit < 0 {
		return appConfig{}, fmt.Errorf("invalid -rate value %d; must not be negative", *rateLimit)
	}

	log, flushLog, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat, File: *logFile}, stderr)
	if err != nil {
		return appConfig{}, err
	}

	if *save != "" {
		if err := store.Put(filtersPath, *save, f.Input()); err != nil {
			flushLog()
			return appConfig{}, fmt.Errorf("saving filter: %w", err)
		}
		fmt.Fprintf(stderr, "Saved filter %q to %s\n", strings.TrimSpace(*save), filtersPath)
		log.Info("saved filter", zap.String("name", *save), zap.String("file", filtersPath))
	}

	// Progress bar: text output only, on a real terminal (not piped).
	showProgress := *output == "text" && !*noProgress && *recursive &&
		isatty.IsTerminal(os.Stderr.Fd())
	sharedTerminal := isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stderr.Fd())

	var limiter *rate.Limiter
	if *rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rateLimit), 1)
		fmt.Fprintf(stderr, "Rate limiting: %d directory reads/s\n", *rateLimit)
	}

	root := "."
	if fs.NArg() == 1 {
		root = fs.Arg(0)
	}

	// Cancelled on Ctrl+C so long recursive listings exit cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	return appConfig{
		run: runner.AppConfig{
			Ctx:    ctx,
			Root:   root,
			Filter: f,
			ListCfg: listing.Config{
				Recursive:   *recursive,
				IncludeDirs: *includeDirs,
				MinSize:     minSize,
				MaxSize:     maxSize,
			},
			Output:         *output,
			Workers:        *workers,
			ShowProgress:   showProgress,
			SharedTerminal: sharedTerminal,
			FailEmpty:      *failEmpty,
			Limiter:        limiter,
			Log:            log,
			Stdout:         stdout,
			Stderr:         stderr,
			Stop:           stop,
		},
		flushLog: flushLog,
	}, nil
}

func printSaved(w io.Writer, path string) error {
	filters, err := store.Load[filter.Input](path)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		fmt.Fprintf(w, "No saved filters in %s\n", path)
		return errDone
	}
	for _, name := range store.Names(filters) {
		if err := outputpkg.PrintFilter(w, name, filters[name]); err != nil {
			return err
		}
	}
	return errDone
}
