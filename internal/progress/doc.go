// Package progress provides progress reporting for image batches.
//
// This package outputs human-readable progress information to stderr,
// including per-outcome counts and transfer volume.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    TotalTasks: len(tasks),
//	    Workers:    cfg.Workers,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as tasks finish
//	reporter.ImageDownloaded(size)
//	reporter.ImageSkipped()
//	reporter.ImageFailed()
//
// # Output Format
//
//	[meteosat] Fetching 48 images | Workers: 4
//	[meteosat] Progress: 31/48 | 24 downloaded | 5 skipped | 2 failed | 11.30 MB
//	[meteosat] Done: 40 downloaded | 6 skipped | 2 failed | 18.70 MB in 12s
package progress
