package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

type fakeSource struct {
	mu       sync.Mutex
	elements []Element
	calls    int
	radius   float64
}

func (f *fakeSource) ElementsNear(ctx context.Context, p vecmath.Vec2, radius float64) []Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.radius = radius
	return append([]Element(nil), f.elements...)
}

func (f *fakeSource) set(els ...Element) {
	f.mu.Lock()
	f.elements = els
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func startTracker(t *testing.T, src Source, clock *fakeClock) *Tracker {
	t.Helper()
	tr := New(DefaultConfig(), src, WithClock(clock.Now))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return tr
}

func ask(t *testing.T, tr *Tracker, q Query) Result {
	t.Helper()
	reply := make(chan Result, 1)
	tr.BestTarget(q, reply)
	select {
	case res := <-reply:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no result from tracker")
		return Result{}
	}
}

func TestBestTargetDeliversSeq(t *testing.T) {
	src := &fakeSource{}
	src.set(Element{ID: "ok", Frame: vecmath.R(0, 0, 40, 20), Enabled: true})
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, src, clock)

	res := ask(t, tr, Query{Position: vecmath.V(10, 10), Seq: 42})
	if !res.Found || res.Element.ID != "ok" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Query.Seq != 42 {
		t.Errorf("seq = %d, want 42", res.Query.Seq)
	}
}

func TestBestTargetNoCandidates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, &fakeSource{}, clock)

	if res := ask(t, tr, Query{Position: vecmath.V(10, 10)}); res.Found {
		t.Errorf("expected nothing, got %+v", res)
	}
}

func TestCacheHonoursTTL(t *testing.T) {
	src := &fakeSource{}
	src.set(Element{ID: "a", Frame: vecmath.R(0, 0, 40, 20), Enabled: true})
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, src, clock)

	ask(t, tr, Query{Position: vecmath.V(10, 10)})
	ask(t, tr, Query{Position: vecmath.V(12, 10)})
	if n := src.callCount(); n != 1 {
		t.Errorf("expected cached answer, source called %d times", n)
	}

	clock.Advance(DefaultConfig().CacheTTL + time.Millisecond)
	ask(t, tr, Query{Position: vecmath.V(12, 10)})
	if n := src.callCount(); n != 2 {
		t.Errorf("expected refresh after TTL, source called %d times", n)
	}
}

func TestCacheRefreshesWhenCursorMovesAway(t *testing.T) {
	src := &fakeSource{}
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, src, clock)

	ask(t, tr, Query{Position: vecmath.V(0, 0)})
	ask(t, tr, Query{Position: vecmath.V(500, 0)})
	if n := src.callCount(); n != 2 {
		t.Errorf("expected a refresh for a distant query, got %d calls", n)
	}
}

func TestDuplicatesCollapsed(t *testing.T) {
	src := &fakeSource{}
	src.set(
		Element{ID: "dup", Frame: vecmath.R(0, 0, 40, 20), Priority: 0, Enabled: false},
		Element{ID: "dup", Frame: vecmath.R(0, 0, 40, 20), Priority: 5, Enabled: true},
	)
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, src, clock)

	if res := ask(t, tr, Query{Position: vecmath.V(10, 10)}); res.Found {
		t.Errorf("first sighting (disabled) should win deduplication, got %+v", res)
	}
}

func TestStickinessAcrossQueries(t *testing.T) {
	src := &fakeSource{}
	left := Element{ID: "left", Frame: vecmath.R(0, 0, 50, 20), Enabled: true}
	right := Element{ID: "right", Frame: vecmath.R(50, 0, 50, 20), Enabled: true}
	src.set(left, right)
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, src, clock)

	if res := ask(t, tr, Query{Position: vecmath.V(45, 10)}); res.Element.ID != "left" {
		t.Fatalf("expected left first, got %q", res.Element.ID)
	}
	// Just across the shared border: right contains the cursor but left is
	// only 1px away, so the previous choice is retained.
	if res := ask(t, tr, Query{Position: vecmath.V(51, 10)}); res.Element.ID != "left" {
		t.Errorf("expected left to be retained, got %q", res.Element.ID)
	}
	// Far enough that left is measurably farther.
	if res := ask(t, tr, Query{Position: vecmath.V(60, 10)}); res.Element.ID != "right" {
		t.Errorf("expected switch to right, got %q", res.Element.ID)
	}
}

func TestBestTargetDropsOldestWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1
	tr := New(cfg, &fakeSource{})
	reply := make(chan Result, 4)

	if tr.BestTarget(Query{Seq: 1}, reply) {
		t.Error("first request should not drop")
	}
	if !tr.BestTarget(Query{Seq: 2}, reply) {
		t.Error("second request should displace the first")
	}

	req := <-tr.requests
	if req.query.Seq != 2 {
		t.Errorf("queued seq = %d, want 2", req.query.Seq)
	}
}

func TestReconfigureReachesWorker(t *testing.T) {
	src := &fakeSource{}
	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := startTracker(t, src, clock)

	ask(t, tr, Query{Position: vecmath.V(10, 10)})

	cfg := DefaultConfig()
	cfg.SearchRadius = 10
	if err := tr.Reconfigure(cfg); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	// the cache is still fresh, but reconfiguring drops it
	ask(t, tr, Query{Position: vecmath.V(10, 10)})

	src.mu.Lock()
	calls, radius := src.calls, src.radius
	src.mu.Unlock()
	if calls != 2 {
		t.Errorf("source called %d times, want a refresh after reconfigure", calls)
	}
	if radius != 10 {
		t.Errorf("search radius = %v, want 10", radius)
	}

	bad := DefaultConfig()
	bad.SearchRadius = -1
	if err := tr.Reconfigure(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestReconfigureKeepsLatest(t *testing.T) {
	tr := New(DefaultConfig(), &fakeSource{})
	for _, r := range []float64{10, 20, 30} {
		cfg := DefaultConfig()
		cfg.SearchRadius = r
		if err := tr.Reconfigure(cfg); err != nil {
			t.Fatalf("Reconfigure: %v", err)
		}
	}
	if got := (<-tr.reconfig).SearchRadius; got != 30 {
		t.Errorf("pending search radius = %v, want 30", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetentionRadius = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default invalid: %v", err)
	}
}
