package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/klausondrag/meteosat-background-image-linux/internal/archive"
	archivehttp "github.com/klausondrag/meteosat-background-image-linux/internal/http"
	"github.com/klausondrag/meteosat-background-image-linux/internal/progress"
	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// Getter is the fetch capability: url in, bytes or a classified error out.
// *internal/http.Client implements it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Annotator burns a caption into an image. Implemented by
// internal/imaging; an annotation failure fails the task's save.
type Annotator interface {
	Annotate(img []byte, label string) ([]byte, error)
}

// HourLister resolves the latest published hour segment (e.g. "2200") for
// a given day from the remote archive's directory index. The lookup is
// page-layout-dependent and therefore pluggable; FindNewest uses it as an
// optional fast path and falls back to hourly walking when it fails.
type HourLister interface {
	LatestHourSegment(ctx context.Context, year, month, day int) (string, error)
}

// Options configures a batch run.
type Options struct {
	// Workers is the maximum number of concurrent fetches.
	// Default: 4
	Workers int

	// Annotate, when set, captions every downloaded image before it is
	// stored.
	Annotate Annotator

	// Progress is an optional progress reporter.
	Progress *progress.Reporter
}

// NewestOptions configures a newest-image resolution.
type NewestOptions struct {
	// Annotate, when set, captions the downloaded image before it is
	// stored.
	Annotate Annotator

	// Lister, when set, is consulted first for the latest published hour
	// of the starting day before falling back to the hourly walk.
	Lister HourLister
}

// ErrNoImage is returned by FindNewest when the attempt budget is
// exhausted without finding an image.
var ErrNoImage = errors.New("fetcher: no image found in window")

// Fetcher downloads archive images into local storage.
type Fetcher struct {
	client Getter
	store  *archive.Archive
	base   string
}

// New creates a Fetcher for the archive at base.
func New(client Getter, store *archive.Archive, base string) *Fetcher {
	return &Fetcher{client: client, store: store, base: base}
}

// Plan expands the inclusive range [until, start] into one task per hour,
// newest first. The walk generates each hour exactly once, so the batch
// never contains duplicate keys.
func (f *Fetcher) Plan(start, until meteosat.Timestamp, v meteosat.Variant) []Task {
	var tasks []Task
	for ts := range meteosat.Walk(start, &until) {
		tasks = append(tasks, NewTask(f.base, ts, v))
	}
	return tasks
}

// RunBatch executes tasks under the concurrency cap and returns one
// Result per task. Already-present keys are skipped synchronously without
// a network call. Failures are captured per task and never abort the
// batch; the returned error aggregates the unexpected ones (transport and
// storage faults, not not-published-yet misses) for the caller's exit
// status.
func (f *Fetcher) RunBatch(ctx context.Context, tasks []Task, opts Options) ([]Result, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	results := make([]Result, 0, len(tasks))
	var pending []Task
	for _, t := range tasks {
		ok, err := f.store.Exists(ctx, t.Key)
		if err != nil {
			results = append(results, Result{Task: t, Outcome: OutcomeFailed, Err: fmt.Errorf("check archive: %w", err)})
			if opts.Progress != nil {
				opts.Progress.ImageFailed()
			}
			continue
		}
		if ok {
			results = append(results, Result{Task: t, Outcome: OutcomeSkipped})
			if opts.Progress != nil {
				opts.Progress.ImageSkipped()
			}
			continue
		}
		pending = append(pending, t)
	}

	jobs := make(chan Task)
	resCh := make(chan Result)
	var wg sync.WaitGroup

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				resCh <- f.fetchOne(ctx, t, opts.Annotate)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range pending {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resCh)
	}()

	for r := range resCh {
		results = append(results, r)
		if opts.Progress != nil {
			switch r.Outcome {
			case OutcomeDownloaded:
				opts.Progress.ImageDownloaded(r.Size)
			case OutcomeFailed:
				opts.Progress.ImageFailed()
			}
		}
	}

	// Cancellation mid-batch leaves unqueued tasks without a result;
	// report them so every task appears exactly once.
	if ctx.Err() != nil {
		seen := make(map[string]bool, len(results))
		for _, r := range results {
			seen[r.Task.Key] = true
		}
		for _, t := range pending {
			if !seen[t.Key] {
				results = append(results, Result{Task: t, Outcome: OutcomeFailed, Err: ctx.Err()})
			}
		}
	}

	var merr *multierror.Error
	for _, r := range results {
		if r.Outcome == OutcomeFailed && !r.Expected() {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Task.Key, r.Err))
		}
	}
	return results, merr.ErrorOrNil()
}

// FindNewest walks backward from start one hour at a time, attempting a
// single sequential fetch per candidate, and returns the timestamp and
// archive key of the first image that is already present or downloads
// successfully. At most maxAttempts candidates are tried; exhausting the
// budget returns ErrNoImage.
//
// The walk is deliberately sequential: once a newer hour is confirmed
// missing there is nothing to gain from probing older hours in parallel,
// and the first hit ends the search.
func (f *Fetcher) FindNewest(ctx context.Context, start meteosat.Timestamp, v meteosat.Variant, maxAttempts int, opts NewestOptions) (meteosat.Timestamp, string, error) {
	if maxAttempts <= 0 {
		return meteosat.Timestamp{}, "", fmt.Errorf("fetcher: maxAttempts must be positive, got %d", maxAttempts)
	}

	if opts.Lister != nil {
		if ts, ok := f.listedCandidate(ctx, start, opts.Lister); ok {
			r := f.tryOne(ctx, NewTask(f.base, ts, v), opts.Annotate)
			if r.Outcome != OutcomeFailed {
				return ts, r.Task.Key, nil
			}
		}
	}

	attempts := 0
	for ts := range meteosat.Walk(start, nil) {
		if attempts == maxAttempts {
			break
		}
		attempts++

		if err := ctx.Err(); err != nil {
			return meteosat.Timestamp{}, "", err
		}

		r := f.tryOne(ctx, NewTask(f.base, ts, v), opts.Annotate)
		if r.Outcome != OutcomeFailed {
			return ts, r.Task.Key, nil
		}
	}

	return meteosat.Timestamp{}, "", fmt.Errorf("%w: %d attempts ending %s", ErrNoImage, maxAttempts, start.Add(-(maxAttempts - 1)))
}

// listedCandidate asks the lister for the latest published hour of
// start's day. Listing failures and hours newer than start are ignored;
// the hourly walk covers those cases.
func (f *Fetcher) listedCandidate(ctx context.Context, start meteosat.Timestamp, lister HourLister) (meteosat.Timestamp, bool) {
	seg, err := lister.LatestHourSegment(ctx, start.Year, start.Month, start.Day)
	if err != nil {
		return meteosat.Timestamp{}, false
	}
	hour, err := meteosat.ParseHourSegment(seg)
	if err != nil {
		return meteosat.Timestamp{}, false
	}
	ts, err := meteosat.NewTimestamp(start.Year, start.Month, start.Day, hour)
	if err != nil || start.Before(ts) {
		return meteosat.Timestamp{}, false
	}
	return ts, true
}

// tryOne applies the skip-if-present rule, then fetches. Used by the
// sequential newest path.
func (f *Fetcher) tryOne(ctx context.Context, t Task, annotate Annotator) Result {
	ok, err := f.store.Exists(ctx, t.Key)
	if err != nil {
		return Result{Task: t, Outcome: OutcomeFailed, Err: fmt.Errorf("check archive: %w", err)}
	}
	if ok {
		return Result{Task: t, Outcome: OutcomeSkipped}
	}
	return f.fetchOne(ctx, t, annotate)
}

// fetchOne performs the network fetch, optional annotation and store for
// a single task. No retries: a miss for an unpublished hour is a normal
// outcome and transient faults are reported, not masked.
func (f *Fetcher) fetchOne(ctx context.Context, t Task, annotate Annotator) Result {
	data, err := f.client.Get(ctx, t.RemoteURL)
	if err != nil {
		if errors.Is(err, archivehttp.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrNotPublished, t.RemoteURL)
		} else {
			err = fmt.Errorf("fetch %s: %w", t.RemoteURL, err)
		}
		return Result{Task: t, Outcome: OutcomeFailed, Err: err}
	}

	if annotate != nil {
		data, err = annotate.Annotate(data, t.Label)
		if err != nil {
			return Result{Task: t, Outcome: OutcomeFailed, Err: fmt.Errorf("annotate %s: %w", t.Key, err)}
		}
	}

	if err := f.store.Save(ctx, t.Key, data); err != nil {
		return Result{Task: t, Outcome: OutcomeFailed, Err: fmt.Errorf("save %s: %w", t.Key, err)}
	}

	return Result{Task: t, Outcome: OutcomeDownloaded, Size: int64(len(data))}
}
