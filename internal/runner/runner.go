package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/nethoundsh/localfilter/pkg/filter"
	"github.com/nethoundsh/localfilter/pkg/listing"
	outputpkg "github.com/nethoundsh/localfilter/pkg/output"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type AppConfig struct {
	Ctx          context.Context
	Root         string
	Filter       *filter.Filter
	ListCfg      listing.Config
	Output       string
	Workers      int
	ShowProgress bool
	// SharedTerminal is set when stdout and stderr are the same terminal,
	// so rows are printed above the progress bar instead of through it.
	SharedTerminal bool
	FailEmpty      bool
	// Limiter throttles directory reads; nil means unthrottled.
	Limiter *rate.Limiter
	Log     *zap.Logger
	Stdout  io.Writer
	Stderr  io.Writer
	Stop    func()
}

type dirResult struct {
	shown    int
	hidden   int
	filtered int
}

type dirJob struct {
	dir    string
	header bool
}

type workerOutput struct {
	label    string
	output   []byte
	result   dirResult
	warnings []error
	err      error
}

func processDir(job dirJob, cfg AppConfig, now time.Time) workerOutput {
	out := workerOutput{label: job.dir}
	res, err := listing.ReadDir(job.dir, cfg.ListCfg, cfg.Filter, cfg.Log)
	if err != nil {
		out.err = err
		return out
	}
	out.warnings = res.Warnings
	out.result = dirResult{shown: len(res.Kept), hidden: res.Hidden, filtered: res.Filtered}

	var buf bytes.Buffer
	if job.header && cfg.Output == "text" && len(res.Kept) > 0 {
		_ = outputpkg.PrintDirHeader(&buf, job.dir)
	}
	for _, meta := range res.Kept {
		if err := outputpkg.PrintEntry(&buf, cfg.Output, meta, now); err != nil {
			out.err = err
			break
		}
	}
	out.output = buf.Bytes()
	return out
}

func handleDirResult(cfg AppConfig, out workerOutput, sum *outputpkg.Summary, bar *mpb.Bar, progress *mpb.Progress) {
	if len(out.output) > 0 {
		// mpb owns stderr while the bar is shown; rows only go through it
		// when stdout is that same terminal.
		if progress != nil && cfg.SharedTerminal {
			_, _ = progress.Write(out.output)
		} else {
			_, _ = cfg.Stdout.Write(out.output)
		}
	}
	for _, w := range out.warnings {
		fmt.Fprintln(cfg.Stderr, color.YellowString("Warning:"), w)
	}
	if out.err != nil {
		fmt.Fprintln(cfg.Stderr, color.RedString("Error:"), out.label, out.err)
	} else {
		sum.Dirs++
		sum.Shown += out.result.shown
		sum.Hidden += out.result.hidden
		sum.Filtered += out.result.filtered
	}
	if bar != nil {
		bar.Increment()
	}
}

func initProgressBar(ctx context.Context, w io.Writer, total int64) (*mpb.Progress, *mpb.Bar) {
	p := mpb.NewWithContext(ctx, mpb.WithOutput(w))
	b := p.New(total,
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
		mpb.PrependDecorators(decor.Name("Listing ")),
		mpb.AppendDecorators(
			decor.CountersNoUnit(" %d / %d "),
			decor.AverageETA(decor.ET_STYLE_MMSS),
		),
		mpb.BarRemoveOnComplete(),
	)
	return p, b
}

// RunList lists cfg.Root through cfg.Filter.
// Exit codes: 0 = ok, 1 = error, 2 = nothing shown with FailEmpty set.
func RunList(cfg AppConfig) int {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	log := cfg.Log.With(zap.String("root", cfg.Root))
	log.Info("listing", zap.Stringer("filter", cfg.Filter), zap.Bool("recursive", cfg.ListCfg.Recursive))

	fi, err := os.Stat(cfg.Root)
	if err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return 1
	}
	if !fi.IsDir() {
		fmt.Fprintln(cfg.Stderr, "Error:", cfg.Root, "is not a directory")
		return 1
	}

	dirs, err := listing.Dirs(cfg.Root, cfg.ListCfg, cfg.Filter, func(path string, err error) {
		fmt.Fprintln(cfg.Stderr, color.YellowString("Warning:"), path, err)
	})
	if err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return 1
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if cfg.ShowProgress && len(dirs) > 1 {
		progress, bar = initProgressBar(cfg.Ctx, cfg.Stderr, int64(len(dirs)))
	}

	jobs := make([]dirJob, 0, len(dirs))
	for _, dir := range dirs {
		jobs = append(jobs, dirJob{dir: dir, header: len(dirs) > 1})
	}

	sum := outputpkg.Summary{Path: cfg.Root}
	now := time.Now()
	pool := Pool{Workers: cfg.Workers, Limiter: cfg.Limiter}
	err = RunOrdered(cfg.Ctx, pool, jobs,
		func(_ context.Context, job dirJob) workerOutput {
			return processDir(job, cfg, now)
		},
		func(out workerOutput) {
			handleDirResult(cfg, out, &sum, bar, progress)
		},
	)

	if progress != nil {
		progress.Wait()
	}

	if err != nil {
		if cfg.Ctx.Err() != nil {
			// On interruption, counters may be partial because in-flight jobs can be dropped.
			fmt.Fprintln(cfg.Stderr, "\nInterrupted")
		} else {
			fmt.Fprintln(cfg.Stderr, "Error:", err)
		}
		return 1
	}

	log.Info("listing complete",
		zap.Int("dirs", sum.Dirs),
		zap.Int("shown", sum.Shown),
		zap.Int("hidden", sum.Hidden),
		zap.Int("filtered", sum.Filtered),
	)
	if err := outputpkg.PrintSummary(cfg.Stdout, cfg.Output, sum, cfg.Filter); err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		return 1
	}
	if cfg.FailEmpty && sum.Shown == 0 {
		return 2
	}
	return 0
}
