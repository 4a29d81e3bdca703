// Package editing replays recorded sessions through the motion loop and turns
// the result into plots and trail videos.
package editing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/recording"
	"github.com/vedantwpatil/focusglide/internal/tracker"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// DefaultTail is how long a replay keeps running after the last sample so
// the final glide can finish.
const DefaultTail = 600 * time.Millisecond

var defaultBounds = vecmath.R(0, 0, 1920, 1080)

// PathPoint is a cursor position at an offset from the start of a replay.
type PathPoint struct {
	At  time.Duration
	Pos vecmath.Vec2
}

// ReplayResult holds the raw input path and the path the engine produced.
type ReplayResult struct {
	Raw      []PathPoint
	Smoothed []PathPoint
	Bounds   vecmath.Rect
	Stats    motion.Stats
}

// Duration is the offset of the latest point on either path.
func (r *ReplayResult) Duration() time.Duration {
	var d time.Duration
	if n := len(r.Raw); n > 0 {
		d = r.Raw[n-1].At
	}
	if n := len(r.Smoothed); n > 0 && r.Smoothed[n-1].At > d {
		d = r.Smoothed[n-1].At
	}
	return d
}

type ReplayOptions struct {
	Tail   time.Duration
	Logger *slog.Logger
}

// replayPointer stands in for the system pointer: raw deltas move it the way
// the OS would, and warps are recorded.
type replayPointer struct {
	mu     sync.Mutex
	pos    vecmath.Vec2
	bounds vecmath.Rect
	start  time.Time
	warps  []PathPoint
}

func (p *replayPointer) Position() vecmath.Vec2 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

func (p *replayPointer) WarpTo(v vecmath.Vec2) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = v
	p.warps = append(p.warps, PathPoint{At: time.Since(p.start), Pos: v})
}

func (p *replayPointer) nudge(d vecmath.Vec2) {
	p.mu.Lock()
	p.pos = vecmath.ClampToBounds(p.pos.Offset(d), p.bounds)
	p.mu.Unlock()
}

type replayInput struct{ events chan motion.InputEvent }

func (in replayInput) Start() (<-chan motion.InputEvent, error) { return in.events, nil }

func (in replayInput) Stop() {}

type staticBounds vecmath.Rect

func (b staticBounds) Bounds() vecmath.Rect { return vecmath.Rect(b) }

// staticElements answers from the elements captured with the trace.
func staticElements(elements []tracker.Element) tracker.Source {
	return tracker.SourceFunc(func(_ context.Context, p vecmath.Vec2, radius float64) []tracker.Element {
		var out []tracker.Element
		for _, e := range elements {
			if e.Frame.DistanceTo(p) <= radius {
				out = append(out, e)
			}
		}
		return out
	})
}

// Replay feeds trace through a fresh Coordinator in real time.
func Replay(ctx context.Context, trace *recording.Trace, cfg motion.Config, opts ReplayOptions) (*ReplayResult, error) {
	if len(trace.Samples) == 0 {
		return nil, recording.ErrEmptyTrace
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tail := opts.Tail
	if tail <= 0 {
		tail = DefaultTail
	}
	bounds := trace.Bounds
	if bounds.Empty() {
		bounds = defaultBounds
	}

	pointer := &replayPointer{pos: trace.Origin, bounds: bounds}
	input := replayInput{events: make(chan motion.InputEvent, len(trace.Samples))}
	c, err := motion.New(cfg, motion.Deps{
		Input:    input,
		Pointer:  pointer,
		Displays: staticBounds(bounds),
		Elements: staticElements(trace.Elements),
	}, motion.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	start := time.Now()
	pointer.mu.Lock()
	pointer.start = start
	pointer.mu.Unlock()
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer c.Stop()

	raw := trace.Origin
	rawPath := []PathPoint{{At: 0, Pos: raw}}
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, s := range trace.Samples {
		if wait := s.Offset - time.Since(start); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		pointer.nudge(s.Delta)
		raw = vecmath.ClampToBounds(raw.Offset(s.Delta), bounds)
		at := time.Now()
		rawPath = append(rawPath, PathPoint{At: at.Sub(start), Pos: raw})
		input.events <- motion.InputEvent{Kind: s.Kind, Delta: s.Delta, Time: at}
	}

	timer.Reset(tail)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	c.Stop()

	pointer.mu.Lock()
	smoothed := append([]PathPoint(nil), pointer.warps...)
	pointer.mu.Unlock()

	logger.Info("replay finished",
		slog.Int("samples", len(trace.Samples)),
		slog.Int("warps", len(smoothed)))
	return &ReplayResult{
		Raw:      rawPath,
		Smoothed: smoothed,
		Bounds:   bounds,
		Stats:    c.Stats(),
	}, nil
}
