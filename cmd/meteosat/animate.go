package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/klausondrag/meteosat-background-image-linux/internal/archive"
	"github.com/klausondrag/meteosat-background-image-linux/internal/imaging"
	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// runAnimate assembles all downloaded images of one variant into an
// animated GIF, ordered chronologically regardless of the mixed hour
// padding in older file names.
func runAnimate(args []string) int {
	fs := flag.NewFlagSet("animate", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	grid := fs.Bool("grid", false, "Use the grid-overlay flavor")
	quality := fs.String("quality", "", "Quality tier: low, medium or high")
	dir := fs.String("dir", "", "Archive directory holding downloaded images")
	output := fs.String("output", "animation.gif", "Output GIF path")
	delay := fs.Int("delay", 0, "Per-frame delay in 1/100ths of a second")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: meteosat animate [options]

Assemble every downloaded image of the selected variant into one animated
GIF, in chronological order.

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
		case "grid":
			cfg.Grid = *grid
		case "quality":
			cfg.Quality = *quality
		case "dir":
			cfg.SaveDir = *dir
		case "delay":
			cfg.AnimateDelay = *delay
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

	keys, err := store.List(ctx, cfg.Variant().Dir()+"/")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	if len(keys) == 0 {
		fmt.Fprintf(os.Stderr, "[meteosat] No images for variant %s in %s\n", cfg.Variant(), cfg.SaveDir)
		return ExitGeneralError
	}
	if err := meteosat.SortChronological(keys); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	frames := make([][]byte, 0, len(keys))
	for _, key := range keys {
		data, err := store.Read(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		frames = append(frames, data)
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer out.Close()

	if err := imaging.AssembleGIF(frames, out, cfg.AnimateDelay); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Fprintf(os.Stderr, "[meteosat] Wrote %d frames to %s\n", len(frames), *output)
	return ExitSuccess
}
