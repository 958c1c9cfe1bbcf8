// Package fetcher is the scheduling and download engine.
//
// It turns a requested time range into fetch tasks, executes them under a
// bounded worker pool, and resolves the most recently published image by
// walking backward through time.
//
// # Bulk mode
//
// [Fetcher.Plan] expands an inclusive time range into one [Task] per hour
// and [Fetcher.RunBatch] executes the batch: tasks whose archive key
// already exists are skipped without touching the network, the rest are
// fetched by at most Options.Workers concurrent workers, and every task
// produces exactly one [Result]. A failed task neither retries nor
// cancels its siblings; the batch always runs to completion.
//
// # Newest mode
//
// [Fetcher.FindNewest] walks backward hour by hour from a starting point,
// attempting one sequential fetch per candidate, and stops at the first
// image that exists locally or downloads successfully. The walk is bounded
// by an attempt budget; exhausting it returns [ErrNoImage].
//
// # Capabilities
//
// The HTTP transport, the caption annotator and the latest-published-hour
// lookup are consumed as narrow interfaces ([Getter], [Annotator],
// [HourLister]) so tests can instrument or mock them.
package fetcher
