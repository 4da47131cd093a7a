package watcher

import (
	"context"
	"sort"
	"time"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// Batch is the set of events seen during one burst of activity.
type Batch []Event

// Paths returns the distinct paths in the batch in sorted order.
func (b Batch) Paths() []string {
	seen := make(map[string]bool, len(b))
	paths := make([]string, 0, len(b))
	for _, e := range b {
		if !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Ops returns the union of all operations in the batch.
func (b Batch) Ops() Op {
	var op Op
	for _, e := range b {
		op |= e.Op
	}
	return op
}

// Batcher coalesces events into batches. A batch is delivered once no event
// has arrived for the delay; every new event restarts the wait.
type Batcher struct {
	delay time.Duration
}

// NewBatcher creates a Batcher. A non-positive delay selects DefaultDelay.
func NewBatcher(delay time.Duration) *Batcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Batcher{delay: delay}
}

// Delay returns the quiet period.
func (b *Batcher) Delay() time.Duration { return b.delay }

// Run consumes w until ctx is cancelled or w's event channel is closed,
// calling onBatch for every batch and onError for every watcher error.
// onBatch runs on the calling goroutine, so events arriving while it runs
// are queued into the next batch. Pending events are delivered when the
// event channel closes. Run returns ctx.Err() on cancellation, else nil.
func (b *Batcher) Run(ctx context.Context, w Watcher, onBatch func(Batch), onError func(error)) error {
	timer := time.NewTimer(b.delay)
	timer.Stop()
	defer timer.Stop()

	var (
		pending Batch
		fire    <-chan time.Time
		events  = w.Events()
		errs    = w.Errors()
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		onBatch(batch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				flush()
				return nil
			}
			pending = append(pending, ev)
			timer.Reset(b.delay)
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if onError != nil {
				onError(err)
			}

		case <-fire:
			fire = nil
			flush()
		}
	}
}
