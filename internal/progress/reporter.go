package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalTasks is the number of images in the batch.
	TotalTasks int

	// Workers is the number of parallel fetch workers (for display).
	Workers int

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information for a batch of
// image fetches. All counters are safe for concurrent use by the fetch
// workers.
type Reporter struct {
	opts Options

	downloaded atomic.Int32
	skipped    atomic.Int32
	failed     atomic.Int32
	bytes      atomic.Int64

	mu        sync.Mutex
	startTime time.Time
	stopCh    chan struct{}
	stopped   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.startTime = time.Now()
	fmt.Fprintf(r.opts.Output, "[meteosat] Fetching %d images | Workers: %d\n",
		r.opts.TotalTasks, r.opts.Workers)
	go r.updateLoop()
}

// Stop stops the progress reporter and prints the final summary.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// ImageDownloaded records a completed download of size bytes.
func (r *Reporter) ImageDownloaded(size int64) {
	r.bytes.Add(size)
	r.downloaded.Add(1)
}

// ImageSkipped records an image that was already present locally.
func (r *Reporter) ImageSkipped() {
	r.skipped.Add(1)
}

// ImageFailed records a failed fetch.
func (r *Reporter) ImageFailed() {
	r.failed.Add(1)
}

// Counts returns the current downloaded/skipped/failed tallies.
func (r *Reporter) Counts() (downloaded, skipped, failed int) {
	return int(r.downloaded.Load()), int(r.skipped.Load()), int(r.failed.Load())
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	downloaded, skipped, failed := r.Counts()
	done := downloaded + skipped + failed

	fmt.Fprintf(r.opts.Output, "\r[meteosat] Progress: %d/%d | %d downloaded | %d skipped | %d failed | %s    ",
		done, r.opts.TotalTasks, downloaded, skipped, failed, formatBytes(r.bytes.Load()))
}

// printFinalStatus outputs the final summary.
func (r *Reporter) printFinalStatus() {
	downloaded, skipped, failed := r.Counts()
	fmt.Fprintf(r.opts.Output, "\r[meteosat] Done: %d downloaded | %d skipped | %d failed | %s in %s    \n",
		downloaded, skipped, failed,
		formatBytes(r.bytes.Load()),
		formatDuration(time.Since(r.startTime)),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
