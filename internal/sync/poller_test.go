package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerStartFetchesImmediately(t *testing.T) {
	fetched := make(chan struct{}, 1)
	p := NewPoller(time.Hour, func(ctx context.Context) ([]int, error) {
		fetched <- struct{}{}
		return []int{1, 2, 3}, nil
	})
	p.Start(context.Background())
	defer p.Stop()

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not fetch on Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(p.Snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("snapshot never populated")
		}
		time.Sleep(time.Millisecond)
	}
	if got := p.Snapshot(); len(got) != 3 {
		t.Errorf("snapshot = %v, want 3 items", got)
	}
}

func TestPollerReplacesSnapshotWholesale(t *testing.T) {
	var n int32
	p := NewPoller(time.Hour, func(ctx context.Context) ([]string, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			return []string{"a", "b"}, nil
		}
		return []string{"c"}, nil
	})
	ctx := context.Background()

	p.Refresh(ctx)
	if got := p.Snapshot(); len(got) != 2 {
		t.Fatalf("first snapshot = %v", got)
	}

	p.Refresh(ctx)
	got := p.Snapshot()
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("second snapshot = %v, want [c]; old items must not survive", got)
	}
}

func TestPollerRefetchIsIdempotent(t *testing.T) {
	p := NewPoller(time.Hour, func(ctx context.Context) ([]string, error) {
		return []string{"a", "b", "c"}, nil
	})
	ctx := context.Background()

	p.Refresh(ctx)
	first := p.Snapshot()
	p.Refresh(ctx)
	second := p.Snapshot()

	if len(first) != len(second) {
		t.Fatalf("snapshots differ in length: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("snapshot[%d] changed %q -> %q on identical refetch", i, first[i], second[i])
		}
	}
}

func TestPollerKeepsSnapshotOnError(t *testing.T) {
	fail := errors.New("db down")
	var n int32
	p := NewPoller(time.Hour, func(ctx context.Context) ([]int, error) {
		switch atomic.AddInt32(&n, 1) {
		case 1:
			return []int{42}, nil
		case 2:
			return nil, fail
		}
		return []int{7}, nil
	})
	ctx := context.Background()

	p.Refresh(ctx)
	p.Refresh(ctx)

	if got := p.Snapshot(); len(got) != 1 || got[0] != 42 {
		t.Errorf("snapshot after failed fetch = %v, want [42]", got)
	}
	if p.Err() != fail {
		t.Errorf("Err() = %v, want %v", p.Err(), fail)
	}

	p.Refresh(ctx)
	if got := p.Snapshot(); len(got) != 1 || got[0] != 7 {
		t.Errorf("snapshot after recovery = %v, want [7]", got)
	}
	if p.Err() != nil {
		t.Errorf("Err() after recovery = %v, want nil", p.Err())
	}
}

func TestPollerDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	var n int32
	p := NewPoller(time.Hour, func(ctx context.Context) ([]int, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			// The first fetch resolves only after a later one completed.
			<-release
			return []int{1}, nil
		}
		return []int{2}, nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Refresh(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&n) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	p.Refresh(ctx)
	close(release)
	wg.Wait()

	if got := p.Snapshot(); len(got) != 1 || got[0] != 2 {
		t.Errorf("snapshot = %v, want [2]; stale response overwrote fresher one", got)
	}
}

func TestPollerStopDiscardsInFlightResponse(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	p := NewPoller(time.Hour, func(ctx context.Context) ([]int, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return []int{99}, nil
	})

	p.Start(context.Background())
	<-started
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	if got := p.Snapshot(); got != nil {
		t.Errorf("snapshot after Stop = %v, want nil; late response must be dropped", got)
	}
}

func TestPollerOnUpdateReceivesSnapshot(t *testing.T) {
	var got atomic.Value
	p := NewPoller(time.Hour, func(ctx context.Context) ([]int, error) {
		return []int{5, 6}, nil
	})
	p.OnUpdate(func(items []int) {
		got.Store(items)
	})

	p.Refresh(context.Background())

	items, _ := got.Load().([]int)
	if len(items) != 2 || items[0] != 5 {
		t.Errorf("OnUpdate received %v, want [5 6]", items)
	}
}

func TestPollerStopWithoutStart(t *testing.T) {
	p := NewPoller(time.Hour, func(ctx context.Context) ([]int, error) {
		return nil, nil
	})
	p.Stop() // must not panic
}
