package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klausondrag/meteosat-background-image-linux/internal/archive"
	"github.com/klausondrag/meteosat-background-image-linux/internal/fetcher"
	archivehttp "github.com/klausondrag/meteosat-background-image-linux/internal/http"
	"github.com/klausondrag/meteosat-background-image-linux/internal/imaging"
	"github.com/klausondrag/meteosat-background-image-linux/internal/wallpaper"
	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// runNewest walks backward from the current hour to the most recent
// available image. The search is bounded: exhausting the attempt budget
// exits non-zero instead of looping forever.
func runNewest(args []string) int {
	fs := flag.NewFlagSet("newest", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	attempts := fs.Int("attempts", 0, "Maximum hours to walk back before giving up")
	grid := fs.Bool("grid", false, "Fetch the grid-overlay flavor")
	quality := fs.String("quality", "", "Quality tier: low, medium or high")
	dir := fs.String("dir", "", "Archive directory for downloaded images")
	baseURL := fs.String("base-url", "", "Archive base URL")
	setBackground := fs.Bool("set-background", false, "Set the found image as the desktop background")
	current := fs.String("current", "", "Also write a stable copy to this path (e.g. current.jpeg)")
	noCaption := fs.Bool("no-caption", false, "Skip burning the timestamp caption into the image")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: meteosat newest [options]

Find the most recently published image, downloading it if necessary.
Prints the local path of the image on success.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return ExitConfigError
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "attempts":
			cfg.MaxAttempts = *attempts
		case "grid":
			cfg.Grid = *grid
		case "quality":
			cfg.Quality = *quality
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

	ctx, cancel := signalContext()
	defer cancel()

	store, err := archive.Open(cfg.SaveDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer store.Close()

	client := archivehttp.NewClient(archivehttp.Options{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	})
	f := fetcher.New(client, store, cfg.BaseURL)

	opts := fetcher.NewestOptions{}
	if !*noCaption {
		opts.Annotate = imaging.NewCaption()
	}

	start := meteosat.FromTime(time.Now())
	ts, key, err := f.FindNewest(ctx, start, cfg.Variant(), cfg.MaxAttempts, opts)
	if err != nil {
		if errors.Is(err, fetcher.ErrNoImage) {
			fmt.Fprintf(os.Stderr, "[meteosat] No image found within %d hours\n", cfg.MaxAttempts)
			return ExitNoImage
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	path := store.LocalPath(key)
	fmt.Fprintf(os.Stderr, "[meteosat] Newest image: %s (%s)\n", path, ts.Label())
	fmt.Println(path)

	if *current != "" {
		data, err := store.Read(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		if err := writeFileAtomic(*current, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *current, err)
			return ExitStorageError
		}
	}

	if *setBackground {
		if err := wallpaper.NewSetter().Set(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting background: %v\n", err)
			return ExitWallpaperError
		}
		fmt.Fprintln(os.Stderr, "[meteosat] Desktop background updated")
	}

	return ExitSuccess
}

// writeFileAtomic writes data via a temp file and rename so a reader of
// the stable path never observes a partial image.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".meteosat-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
