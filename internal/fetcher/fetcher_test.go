package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/klausondrag/meteosat-background-image-linux/internal/archive"
	archivehttp "github.com/klausondrag/meteosat-background-image-linux/internal/http"
	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

const testBase = "http://archive.test/MSG"

// fakeGetter is an instrumented fetch capability. It serves the byte
// slices in images (keyed by URL), returns ErrNotFound for everything
// else, and tracks total and peak-concurrent call counts.
type fakeGetter struct {
	images map[string][]byte
	fail   error // when set, every call fails with this error
	delay  time.Duration

	mu       sync.Mutex
	calls    int
	inFlight int
	peak     int
}

func (g *fakeGetter) Get(ctx context.Context, url string) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()

	if g.fail != nil {
		return nil, g.fail
	}
	if data, ok := g.images[url]; ok {
		return data, nil
	}
	return nil, archivehttp.ErrNotFound
}

func (g *fakeGetter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGetter) peakConcurrency() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

func memArchive(t *testing.T) *archive.Archive {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })
	return archive.New(bucket)
}

// publishAll returns a getter serving every hour of the given day.
func publishAll(ts meteosat.Timestamp, v meteosat.Variant) *fakeGetter {
	images := make(map[string][]byte)
	for hour := 0; hour < 24; hour++ {
		h := meteosat.Timestamp{Year: ts.Year, Month: ts.Month, Day: ts.Day, Hour: hour}
		images[meteosat.RemoteURL(testBase, h, v)] = []byte(fmt.Sprintf("img-%d", hour))
	}
	return &fakeGetter{images: images}
}

func TestPlanCoversRangeNewestFirst(t *testing.T) {
	f := New(&fakeGetter{}, memArchive(t), testBase)
	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 22}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 19}
	v := meteosat.Variant{Grid: true, Quality: meteosat.Low}

	tasks := f.Plan(start, until, v)
	if len(tasks) != 4 {
		t.Fatalf("Plan returned %d tasks, want 4", len(tasks))
	}
	if tasks[0].RemoteURL != "http://archive.test/MSG/2019/5/5/2200/2019_5_5_2200_MSG4_16_S4_grid.jpeg" {
		t.Errorf("first task URL = %q", tasks[0].RemoteURL)
	}
	if tasks[0].Key != "grid/low/2019_5_5_2200_MSG4_16_S4_grid.jpeg" {
		t.Errorf("first task key = %q", tasks[0].Key)
	}
	if tasks[3].Key != "grid/low/2019_5_5_1900_MSG4_16_S4_grid.jpeg" {
		t.Errorf("last task key = %q", tasks[3].Key)
	}

	seen := make(map[string]bool)
	for _, task := range tasks {
		if seen[task.Key] {
			t.Fatalf("duplicate key in plan: %s", task.Key)
		}
		seen[task.Key] = true
	}
}

func TestRunBatchDownloadsRange(t *testing.T) {
	ctx := context.Background()
	store := memArchive(t)
	day := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5}
	v := meteosat.Variant{Quality: meteosat.Low}
	getter := publishAll(day, v)
	f := New(getter, store, testBase)

	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 23}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 0}

	results, err := f.RunBatch(ctx, f.Plan(start, until, v), Options{Workers: 4})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 24 {
		t.Fatalf("got %d results, want 24", len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomeDownloaded {
			t.Errorf("%s: outcome %s, want downloaded (err: %v)", r.Task.Key, r.Outcome, r.Err)
		}
	}

	ok, err := store.Exists(ctx, meteosat.LocalKey(meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 1}, v))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("hour 1 image missing from archive")
	}
}

func TestRunBatchSkipsExistingWithoutFetching(t *testing.T) {
	ctx := context.Background()
	store := memArchive(t)
	v := meteosat.Variant{Quality: meteosat.Low}
	day := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5}
	getter := publishAll(day, v)
	f := New(getter, store, testBase)

	// Pre-populate hours 10 and 11.
	for _, hour := range []int{10, 11} {
		ts := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: hour}
		if err := store.Save(ctx, meteosat.LocalKey(ts, v), []byte("existing")); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 12}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 9}

	results, err := f.RunBatch(ctx, f.Plan(start, until, v), Options{Workers: 2})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	outcomes := make(map[string]Outcome)
	for _, r := range results {
		outcomes[r.Task.Key] = r.Outcome
	}
	for _, hour := range []int{10, 11} {
		ts := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: hour}
		if got := outcomes[meteosat.LocalKey(ts, v)]; got != OutcomeSkipped {
			t.Errorf("hour %d: outcome %s, want skipped", hour, got)
		}
	}
	for _, hour := range []int{9, 12} {
		ts := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: hour}
		if got := outcomes[meteosat.LocalKey(ts, v)]; got != OutcomeDownloaded {
			t.Errorf("hour %d: outcome %s, want downloaded", hour, got)
		}
	}
	if getter.callCount() != 2 {
		t.Errorf("getter saw %d calls, want 2 (skipped tasks must not hit the network)", getter.callCount())
	}
}

func TestRunBatchRerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memArchive(t)
	v := meteosat.Variant{Grid: true, Quality: meteosat.Medium}
	day := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5}
	getter := publishAll(day, v)
	f := New(getter, store, testBase)

	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 6}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 0}
	tasks := f.Plan(start, until, v)

	if _, err := f.RunBatch(ctx, tasks, Options{Workers: 3}); err != nil {
		t.Fatalf("first RunBatch: %v", err)
	}
	firstCalls := getter.callCount()

	results, err := f.RunBatch(ctx, tasks, Options{Workers: 3})
	if err != nil {
		t.Fatalf("second RunBatch: %v", err)
	}
	for _, r := range results {
		if r.Outcome != OutcomeSkipped {
			t.Errorf("%s: outcome %s on re-run, want skipped", r.Task.Key, r.Outcome)
		}
	}
	if getter.callCount() != firstCalls {
		t.Errorf("re-run issued %d network calls, want 0", getter.callCount()-firstCalls)
	}
}

func TestRunBatchAllFailuresStillCompletes(t *testing.T) {
	ctx := context.Background()
	getter := &fakeGetter{fail: errors.New("connection refused")}
	f := New(getter, memArchive(t), testBase)

	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 23}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 12}
	tasks := f.Plan(start, until, meteosat.Variant{Quality: meteosat.Low})

	done := make(chan struct{})
	var results []Result
	var err error
	go func() {
		results, err = f.RunBatch(ctx, tasks, Options{Workers: 4})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunBatch hung on an all-failure batch")
	}

	if len(results) != len(tasks) {
		t.Fatalf("got %d results, want %d", len(results), len(tasks))
	}
	for _, r := range results {
		if r.Outcome != OutcomeFailed {
			t.Errorf("%s: outcome %s, want failed", r.Task.Key, r.Outcome)
		}
	}
	if err == nil {
		t.Error("expected aggregate error for transport failures")
	}
}

func TestRunBatchNotPublishedIsExpected(t *testing.T) {
	ctx := context.Background()
	// Empty getter: every fetch is a 404.
	f := New(&fakeGetter{}, memArchive(t), testBase)

	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 23}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 22}
	results, err := f.RunBatch(ctx, f.Plan(start, until, meteosat.Variant{Quality: meteosat.Low}), Options{})
	if err != nil {
		t.Fatalf("RunBatch returned aggregate error for expected misses: %v", err)
	}
	for _, r := range results {
		if r.Outcome != OutcomeFailed || !r.Expected() {
			t.Errorf("%s: want expected failure, got outcome %s err %v", r.Task.Key, r.Outcome, r.Err)
		}
	}
}

func TestRunBatchHonorsConcurrencyCap(t *testing.T) {
	ctx := context.Background()
	v := meteosat.Variant{Quality: meteosat.Low}
	day := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5}
	getter := publishAll(day, v)
	getter.delay = 20 * time.Millisecond
	f := New(getter, memArchive(t), testBase)

	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 23}
	until := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 0}

	const maxWorkers = 3
	if _, err := f.RunBatch(ctx, f.Plan(start, until, v), Options{Workers: maxWorkers}); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if peak := getter.peakConcurrency(); peak > maxWorkers {
		t.Errorf("peak concurrency %d exceeded cap %d", peak, maxWorkers)
	}
	if getter.callCount() != 24 {
		t.Errorf("getter saw %d calls, want 24", getter.callCount())
	}
}

type countingAnnotator struct {
	calls atomic.Int32
	fail  bool
}

func (a *countingAnnotator) Annotate(img []byte, label string) ([]byte, error) {
	a.calls.Add(1)
	if a.fail {
		return nil, errors.New("bad jpeg")
	}
	return append(img, []byte("|"+label)...), nil
}

func TestRunBatchAnnotatesBeforeSaving(t *testing.T) {
	ctx := context.Background()
	store := memArchive(t)
	v := meteosat.Variant{Quality: meteosat.Low}
	ts := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 7}
	getter := &fakeGetter{images: map[string][]byte{
		meteosat.RemoteURL(testBase, ts, v): []byte("raw"),
	}}
	f := New(getter, store, testBase)
	ann := &countingAnnotator{}

	results, err := f.RunBatch(ctx, []Task{NewTask(testBase, ts, v)}, Options{Annotate: ann})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if results[0].Outcome != OutcomeDownloaded {
		t.Fatalf("outcome = %s, want downloaded (err: %v)", results[0].Outcome, results[0].Err)
	}

	data, err := store.Read(ctx, results[0].Task.Key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "raw|2019-05-05 07:00 UTC" {
		t.Errorf("stored bytes = %q, caption not applied", data)
	}
}

func TestRunBatchAnnotateFailureFailsTask(t *testing.T) {
	ctx := context.Background()
	store := memArchive(t)
	v := meteosat.Variant{Quality: meteosat.Low}
	ts := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 7}
	getter := &fakeGetter{images: map[string][]byte{
		meteosat.RemoteURL(testBase, ts, v): []byte("raw"),
	}}
	f := New(getter, store, testBase)

	results, err := f.RunBatch(ctx, []Task{NewTask(testBase, ts, v)}, Options{Annotate: &countingAnnotator{fail: true}})
	if err == nil {
		t.Error("expected aggregate error for annotation failure")
	}
	if results[0].Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", results[0].Outcome)
	}

	ok, _ := store.Exists(ctx, results[0].Task.Key)
	if ok {
		t.Error("failed task must not leave a stored image behind")
	}
}

func TestFindNewestWalksBackToPublishedHour(t *testing.T) {
	ctx := context.Background()
	v := meteosat.Variant{Quality: meteosat.Low}
	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 22}
	// Only the 5th candidate (hour 18) is published.
	published := start.Add(-4)
	getter := &fakeGetter{images: map[string][]byte{
		meteosat.RemoteURL(testBase, published, v): []byte("img"),
	}}
	f := New(getter, memArchive(t), testBase)

	ts, key, err := f.FindNewest(ctx, start, v, 10, NewestOptions{})
	if err != nil {
		t.Fatalf("FindNewest: %v", err)
	}
	if ts != published {
		t.Errorf("found %v, want %v", ts, published)
	}
	if key != meteosat.LocalKey(published, v) {
		t.Errorf("key = %q, want %q", key, meteosat.LocalKey(published, v))
	}
	if getter.callCount() != 5 {
		t.Errorf("getter saw %d calls, want 5 (sequential short-circuit)", getter.callCount())
	}
}

func TestFindNewestBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	v := meteosat.Variant{Quality: meteosat.Low}
	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 22}
	published := start.Add(-4)
	getter := &fakeGetter{images: map[string][]byte{
		meteosat.RemoteURL(testBase, published, v): []byte("img"),
	}}
	f := New(getter, memArchive(t), testBase)

	_, _, err := f.FindNewest(ctx, start, v, 3, NewestOptions{})
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("error = %v, want ErrNoImage", err)
	}
	if getter.callCount() != 3 {
		t.Errorf("getter saw %d calls, want exactly the budget of 3", getter.callCount())
	}
}

func TestFindNewestPrefersExistingLocalImage(t *testing.T) {
	ctx := context.Background()
	store := memArchive(t)
	v := meteosat.Variant{Quality: meteosat.Low}
	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 22}
	if err := store.Save(ctx, meteosat.LocalKey(start, v), []byte("cached")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	getter := &fakeGetter{}
	f := New(getter, store, testBase)

	ts, _, err := f.FindNewest(ctx, start, v, 5, NewestOptions{})
	if err != nil {
		t.Fatalf("FindNewest: %v", err)
	}
	if ts != start {
		t.Errorf("found %v, want cached %v", ts, start)
	}
	if getter.callCount() != 0 {
		t.Errorf("getter saw %d calls, want 0 for a cached image", getter.callCount())
	}
}

type fixedLister struct {
	segment string
	err     error
	calls   int
}

func (l *fixedLister) LatestHourSegment(ctx context.Context, year, month, day int) (string, error) {
	l.calls++
	return l.segment, l.err
}

func TestFindNewestUsesListerFastPath(t *testing.T) {
	ctx := context.Background()
	v := meteosat.Variant{Grid: true, Quality: meteosat.Low}
	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 23}
	published := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 14}
	getter := &fakeGetter{images: map[string][]byte{
		meteosat.RemoteURL(testBase, published, v): []byte("img"),
	}}
	f := New(getter, memArchive(t), testBase)

	ts, _, err := f.FindNewest(ctx, start, v, 24, NewestOptions{Lister: &fixedLister{segment: "1400"}})
	if err != nil {
		t.Fatalf("FindNewest: %v", err)
	}
	if ts != published {
		t.Errorf("found %v, want listed %v", ts, published)
	}
	if getter.callCount() != 1 {
		t.Errorf("getter saw %d calls, want 1 via the listing fast path", getter.callCount())
	}
}

func TestFindNewestListerFailureFallsBackToWalk(t *testing.T) {
	ctx := context.Background()
	v := meteosat.Variant{Quality: meteosat.Low}
	start := meteosat.Timestamp{Year: 2019, Month: 5, Day: 5, Hour: 22}
	getter := &fakeGetter{images: map[string][]byte{
		meteosat.RemoteURL(testBase, start, v): []byte("img"),
	}}
	f := New(getter, memArchive(t), testBase)
	lister := &fixedLister{err: errors.New("listing unavailable")}

	ts, _, err := f.FindNewest(ctx, start, v, 5, NewestOptions{Lister: lister})
	if err != nil {
		t.Fatalf("FindNewest: %v", err)
	}
	if ts != start {
		t.Errorf("found %v, want %v", ts, start)
	}
	if lister.calls != 1 {
		t.Errorf("lister called %d times, want 1", lister.calls)
	}
}
