package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/nethoundsh/localfilter/pkg/fileinfo"
	"github.com/nethoundsh/localfilter/pkg/filter"
)

// NDJSON output: each line is a self-contained JSON object.
type JSONRecord struct {
	Entry *fileinfo.JSONMeta `json:"entry"`
}

type JSONSummary struct {
	Path     string `json:"path"`
	Dirs     int    `json:"dirs"`
	Shown    int    `json:"shown"`
	Hidden   int    `json:"hidden"`
	Filtered int    `json:"filtered"`
	Filter   string `json:"filter"`
}

type JSONSummaryRecord struct {
	Summary JSONSummary `json:"summary"`
}

// Summary counts what a listing kept and dropped.
type Summary struct {
	Path     string
	Dirs     int
	Shown    int
	Hidden   int
	Filtered int
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, a...)
	}
}

func (ew *errWriter) println(a ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintln(ew.w, a...)
	}
}

// PrintDirHeader separates directories in a recursive text listing.
func PrintDirHeader(w io.Writer, dir string) error {
	_, err := fmt.Fprintln(w, color.HiBlueString("--- %s ---", dir))
	return err
}

// PrintEntry prints one kept entry in the configured format.
func PrintEntry(w io.Writer, format string, meta *fileinfo.Meta, now time.Time) error {
	switch format {
	case "json":
		return PrintJSON(w, meta)
	default:
		return PrintRow(w, meta, now)
	}
}

// PrintJSON emits a single NDJSON line for one entry.
func PrintJSON(w io.Writer, meta *fileinfo.Meta) error {
	b, err := json.Marshal(JSONRecord{Entry: fileinfo.ToJSON(meta)})
	if err != nil {
		return fmt.Errorf("marshaling JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// PrintRow renders permissions, size, modification date and name.
func PrintRow(w io.Writer, meta *fileinfo.Meta, now time.Time) error {
	const tsFormat = "2006-01-02 15:04"
	ew := &errWriter{w: w}

	size := meta.SizeHuman
	name := meta.Name
	switch {
	case meta.IsDir:
		size = "-"
		name = color.BlueString("%s/", meta.Name)
	case meta.Hidden:
		name = color.New(color.Faint).Sprint(meta.Name)
	}
	age := humanize.RelTime(meta.Modified, now, "ago", "from now")
	ew.printf("%-11s %9s  %s  %-16s %s\n",
		meta.Permissions, size, meta.Modified.Local().Format(tsFormat), "("+age+")", name)
	return ew.err
}

func PrintSummary(w io.Writer, format string, s Summary, f *filter.Filter) error {
	if format == "json" {
		return PrintJSONSummary(w, s, f)
	}
	return PrintTextSummary(w, s)
}

func PrintJSONSummary(w io.Writer, s Summary, f *filter.Filter) error {
	rec := JSONSummaryRecord{
		Summary: JSONSummary{
			Path:     s.Path,
			Dirs:     s.Dirs,
			Shown:    s.Shown,
			Hidden:   s.Hidden,
			Filtered: s.Filtered,
			Filter:   f.String(),
		},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling JSON summary: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func PrintTextSummary(w io.Writer, s Summary) error {
	shown := color.GreenString("%d", s.Shown)
	if s.Shown == 0 {
		shown = color.YellowString("%d", s.Shown)
	}
	unit := "directories"
	if s.Dirs == 1 {
		unit = "directory"
	}
	_, err := fmt.Fprintf(w, "Listed %d %s: %s shown, %d hidden, %d filtered out\n",
		s.Dirs, unit, shown, s.Hidden, s.Filtered)
	return err
}

// PrintFilter describes a filter input field by field, the way an editor
// would show it.
func PrintFilter(w io.Writer, name string, in filter.Input) error {
	ew := &errWriter{w: w}
	ew.println(color.CyanString(name))
	mode := "inclusion"
	if in.Exclude {
		mode = "exclusion"
	}
	ew.printf("  %-16s%s\n", "Mode:", mode)
	if in.Pattern != "" {
		cs := "no"
		if in.CaseSensitive {
			cs = "yes"
		}
		ew.printf("  %-16s%s\n", "Pattern:", in.Pattern)
		ew.printf("  %-16s%s\n", "Case sensitive:", cs)
		if in.Syntax != "" {
			ew.printf("  %-16s%s\n", "Syntax:", in.Syntax)
		}
		if in.MatchTimeout != "" {
			ew.printf("  %-16s%s\n", "Match timeout:", in.MatchTimeout)
		}
	}
	if in.StartDate != "" {
		ew.printf("  %-16s%s\n", "From:", in.StartDate)
	}
	if in.EndDate != "" {
		ew.printf("  %-16s%s\n", "To:", in.EndDate)
	}
	hidden := "hide"
	if in.ShowHidden {
		hidden = "show"
	}
	ew.printf("  %-16s%s\n", "Hidden files:", hidden)
	return ew.err
}
