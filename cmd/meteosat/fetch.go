package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/klausondrag/meteosat-background-image-linux/internal/archive"
	"github.com/klausondrag/meteosat-background-image-linux/internal/fetcher"
	archivehttp "github.com/klausondrag/meteosat-background-image-linux/internal/http"
	"github.com/klausondrag/meteosat-background-image-linux/internal/imaging"
	"github.com/klausondrag/meteosat-background-image-linux/internal/progress"
	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// runFetch downloads every image in an inclusive time range under a
// bounded concurrency cap. Already-downloaded hours are skipped; hours the
// archive has not published yet are reported but do not fail the run.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	untilStr := fs.String("until", "", "Inclusive end of the range, oldest hour to fetch (2006-01-02T15 or 2006-01-02, required)")
	startStr := fs.String("start", "", "Newest hour to fetch (default: current UTC hour)")
	grid := fs.Bool("grid", false, "Fetch the grid-overlay flavor")
	quality := fs.String("quality", "", "Quality tier: low, medium or high")
	workers := fs.Int("workers", 0, "Maximum concurrent downloads")
	dir := fs.String("dir", "", "Archive directory for downloaded images")
	baseURL := fs.String("base-url", "", "Archive base URL")
	showProgress := fs.Bool("progress", false, "Show live progress output")
	noCaption := fs.Bool("no-caption", false, "Skip burning the timestamp caption into images")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: meteosat fetch [options]

Download every hourly image from -start (default: now) back to -until,
skipping images already present in the archive directory.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *untilStr == "" {
		fmt.Fprintln(os.Stderr, "Error: -until is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return ExitConfigError
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "grid":
			cfg.Grid = *grid
		case "quality":
			cfg.Quality = *quality
		case "workers":
			cfg.Workers = *workers
		case "dir":
			cfg.SaveDir = *dir
		case "base-url":
			cfg.BaseURL = *baseURL
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	until, err := meteosat.Parse(*untilStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	start := meteosat.FromTime(time.Now())
	if *startStr != "" {
		start, err = meteosat.Parse(*startStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if start.Before(until) {
		fmt.Fprintf(os.Stderr, "Error: -start %s is before -until %s\n", start, until)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := archive.Open(cfg.SaveDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer store.Close()

	client := archivehttp.NewClient(archivehttp.Options{
		Timeout:             cfg.Timeout,
		MaxIdleConnsPerHost: cfg.Workers,
		UserAgent:           cfg.UserAgent,
	})
	f := fetcher.New(client, store, cfg.BaseURL)

	tasks := f.Plan(start, until, cfg.Variant())

	var reporter *progress.Reporter
	if *showProgress {
		reporter = progress.NewReporter(progress.Options{
			TotalTasks: len(tasks),
			Workers:    cfg.Workers,
		})
		reporter.Start()
		defer reporter.Stop()
	}

	opts := fetcher.Options{
		Workers:  cfg.Workers,
		Progress: reporter,
	}
	if !*noCaption {
		opts.Annotate = imaging.NewCaption()
	}

	results, batchErr := f.RunBatch(ctx, tasks, opts)

	var downloaded, skipped, missing, failed int
	for _, r := range results {
		switch {
		case r.Outcome == fetcher.OutcomeDownloaded:
			downloaded++
			if !*showProgress {
				fmt.Fprintf(os.Stderr, "[meteosat] downloaded %s\n", r.Task.Key)
			}
		case r.Outcome == fetcher.OutcomeSkipped:
			skipped++
		case r.Expected():
			missing++
		default:
			failed++
			fmt.Fprintf(os.Stderr, "[meteosat] %s: %v\n", r.Task.Key, r.Err)
		}
	}

	fmt.Fprintf(os.Stderr, "[meteosat] Range complete: %d downloaded | %d skipped | %d not published | %d failed\n",
		downloaded, skipped, missing, failed)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "[meteosat] Fetch interrupted, re-run to resume")
		return ExitGeneralError
	}
	if batchErr != nil {
		return ExitPartialFailure
	}
	return ExitSuccess
}
