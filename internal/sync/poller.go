// Package sync keeps locally-held collections approximately fresh against
// the database without a persistent connection: a fixed-interval poller with
// snapshot replacement, and an optimistic message thread for the send path.
package sync

import (
	"context"
	"sync"
	"time"
)

// FetchFunc loads the full authoritative collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Poller re-fetches a collection on a fixed interval and replaces its held
// snapshot wholesale. Ticks do not queue: if a fetch is still outstanding
// when the next tick fires, both proceed and a monotonic sequence guard
// makes sure an older response can never overwrite a newer snapshot. A
// failed fetch records the error and keeps the previous snapshot.
type Poller[T any] struct {
	interval time.Duration
	fetch    FetchFunc[T]

	mu       sync.Mutex
	snapshot []T
	lastErr  error
	seq      uint64 // next sequence to hand out
	applied  uint64 // highest sequence applied
	onUpdate func([]T)

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller[T any](interval time.Duration, fetch FetchFunc[T]) *Poller[T] {
	return &Poller[T]{
		interval: interval,
		fetch:    fetch,
	}
}

// OnUpdate registers a callback invoked (on the fetching goroutine) each
// time a fresher snapshot is applied. Must be set before Start.
func (p *Poller[T]) OnUpdate(fn func([]T)) {
	p.onUpdate = fn
}

// Start issues an immediate fetch and then re-fetches on every interval
// tick until Stop is called or ctx is cancelled.
func (p *Poller[T]) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.poll(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Each tick fetches independently of any in-flight request.
				go p.poll(ctx)
			}
		}
	}()
}

// Stop cancels the timer loop. Responses from fetches still in flight are
// discarded, so a torn-down poller never updates a stale context.
func (p *Poller[T]) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

func (p *Poller[T]) poll(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	items, err := p.fetch(ctx)

	p.mu.Lock()
	if ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	if err != nil {
		// Stale-but-available: keep the previous snapshot on failure.
		p.lastErr = err
		p.mu.Unlock()
		return
	}
	if seq <= p.applied {
		// An out-of-order response resolved after a fresher one; drop it.
		p.mu.Unlock()
		return
	}
	p.applied = seq
	p.snapshot = items
	p.lastErr = nil
	fn := p.onUpdate
	p.mu.Unlock()

	if fn != nil {
		fn(items)
	}
}

// Refresh triggers one fetch outside the timer schedule (e.g. right after a
// mutation) and waits for it to resolve.
func (p *Poller[T]) Refresh(ctx context.Context) {
	p.poll(ctx)
}

// Snapshot returns the current collection. The slice is shared; callers
// must not mutate it.
func (p *Poller[T]) Snapshot() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Err returns the error from the most recent fetch, or nil after a
// successful one.
func (p *Poller[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
