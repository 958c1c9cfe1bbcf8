package fetcher

import (
	"errors"

	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// Task is one image to fetch: its remote address, its archive key, and
// the caption burned into the image on download. Tasks are built once per
// (timestamp, variant) pair and never mutated.
type Task struct {
	RemoteURL string
	Key       string
	Label     string
}

// Outcome classifies how a task ended.
type Outcome int

const (
	// OutcomeSkipped means the archive key already existed; the network
	// was not touched.
	OutcomeSkipped Outcome = iota
	// OutcomeDownloaded means the image was fetched and stored.
	OutcomeDownloaded
	// OutcomeFailed means the fetch, annotation or store failed; see
	// Result.Err.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDownloaded:
		return "downloaded"
	default:
		return "failed"
	}
}

// Result is the per-task outcome of a batch run. Size is the downloaded
// byte count, zero unless Outcome is OutcomeDownloaded.
type Result struct {
	Task    Task
	Outcome Outcome
	Size    int64
	Err     error
}

// ErrNotPublished marks a fetch that failed because the archive has no
// image for that hour yet. This is an expected condition, not an alarm.
var ErrNotPublished = errors.New("fetcher: image not published")

// Expected reports whether a failed result is of the expected
// not-published-yet kind rather than a transport or storage fault.
func (r Result) Expected() bool {
	return r.Outcome == OutcomeFailed && errors.Is(r.Err, ErrNotPublished)
}

// NewTask builds the task for one (timestamp, variant) pair against the
// archive at base. The mapping is deterministic: the same pair always
// yields the same key, which is what makes re-runs idempotent.
func NewTask(base string, ts meteosat.Timestamp, v meteosat.Variant) Task {
	return Task{
		RemoteURL: meteosat.RemoteURL(base, ts, v),
		Key:       meteosat.LocalKey(ts, v),
		Label:     ts.Label(),
	}
}
