// Package tracking adapts the global input hook, the system pointer and the
// display layout to the motion loop.
package tracking

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

var errHookUnavailable = errors.New("tracking: input hook did not start")

const eventBuffer = 64

// HookSource turns global mouse events into relative motion events. The hook
// reports absolute positions, so deltas are taken against the last position
// seen, which NoteWarp moves whenever the engine repositions the pointer.
type HookSource struct {
	logger *slog.Logger
	start  func() chan hook.Event
	end    func()
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	last     vecmath.Vec2
	haveLast bool
	done     chan struct{}
}

func NewHookSource(logger *slog.Logger) *HookSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HookSource{
		logger: logger,
		start:  hook.Start,
		end:    hook.End,
		now:    time.Now,
	}
}

// Start begins listening. The returned channel is closed when the hook stops.
func (h *HookSource) Start() (<-chan motion.InputEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil, errors.New("tracking: hook already running")
	}

	events := h.start()
	if events == nil {
		return nil, errHookUnavailable
	}
	out := make(chan motion.InputEvent, eventBuffer)
	h.running = true
	h.haveLast = false
	h.done = make(chan struct{})

	go h.pump(events, out, h.done)
	h.logger.Info("input hook started")
	return out, nil
}

// Stop ends the hook and waits for the pump to drain.
func (h *HookSource) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	done := h.done
	h.mu.Unlock()

	h.end()
	<-done
	h.logger.Info("input hook stopped")
}

// NoteWarp records a position the pointer was moved to programmatically.
func (h *HookSource) NoteWarp(p vecmath.Vec2) {
	h.mu.Lock()
	h.last = p
	h.haveLast = true
	h.mu.Unlock()
}

func (h *HookSource) pump(events chan hook.Event, out chan<- motion.InputEvent, done chan struct{}) {
	defer close(done)
	defer close(out)
	for e := range events {
		if e.Kind == hook.HookDisabled {
			return
		}
		ev, from, to, ok := h.translate(e)
		if !ok {
			continue
		}
		select {
		case out <- ev:
			h.advance(from, to)
		default:
			// consumer is behind; the reference stays put so the next event
			// carries the accumulated delta
			h.logger.Debug("input event dropped")
		}
	}
}

// translate converts an absolute-position hook event into a relative one
// measured from the current reference point.
func (h *HookSource) translate(e hook.Event) (ev motion.InputEvent, from, to vecmath.Vec2, ok bool) {
	var kind motion.EventKind
	switch e.Kind {
	case hook.MouseMove:
		kind = motion.EventMove
	case hook.MouseDrag:
		kind = motion.EventDrag
	default:
		return ev, from, to, false
	}

	to = vecmath.V(float64(e.X), float64(e.Y))
	at := e.When
	if at.IsZero() {
		at = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.haveLast {
		h.last, h.haveLast = to, true
		return ev, from, to, false
	}
	from = h.last
	return motion.InputEvent{Kind: kind, Delta: to.Sub(from), Time: at}, from, to, true
}

// advance moves the reference to a delivered position unless a warp has
// replaced it in the meantime.
func (h *HookSource) advance(from, to vecmath.Vec2) {
	h.mu.Lock()
	if h.last == from {
		h.last = to
	}
	h.mu.Unlock()
}
