// Package recording captures raw input sessions so they can be replayed
// through the motion loop later.
package recording

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

var (
	ErrAlreadyRecording = errors.New("recording: already recording")
	ErrNotRecording     = errors.New("recording: not recording")
)

// Recorder collects events from an input source into a Trace.
type Recorder struct {
	source motion.InputSource
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	isRecording bool
	trace       *Trace
	stop        chan struct{}
	done        chan struct{}
}

func NewRecorder(source motion.InputSource, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{source: source, logger: logger, now: time.Now}
}

// Start begins capturing. origin and bounds describe the pointer and screen
// at the moment capture starts.
func (r *Recorder) Start(origin vecmath.Vec2, bounds vecmath.Rect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRecording {
		return ErrAlreadyRecording
	}

	events, err := r.source.Start()
	if err != nil {
		return errors.Join(motion.ErrInputUnavailable, err)
	}
	r.trace = &Trace{
		ID:      uuid.New(),
		Started: r.now(),
		Origin:  origin,
		Bounds:  bounds,
	}
	r.isRecording = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.collect(events, r.trace, r.stop, r.done)
	r.logger.Info("recording started", slog.String("trace", r.trace.ID.String()))
	return nil
}

// Stop ends capture and returns the trace. A trace with no samples is still
// returned, together with ErrEmptyTrace.
func (r *Recorder) Stop() (*Trace, error) {
	r.mu.Lock()
	if !r.isRecording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.isRecording = false
	stop, done, trace := r.stop, r.done, r.trace
	r.trace = nil
	r.mu.Unlock()

	close(stop)
	r.source.Stop()
	<-done

	r.logger.Info("recording stopped",
		slog.String("trace", trace.ID.String()),
		slog.Int("samples", len(trace.Samples)),
		slog.Duration("duration", trace.Duration()))
	if len(trace.Samples) == 0 {
		return trace, ErrEmptyTrace
	}
	return trace, nil
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRecording
}

// collect owns trace.Samples until done is closed.
func (r *Recorder) collect(events <-chan motion.InputEvent, trace *Trace, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			at := ev.Time
			if at.IsZero() {
				at = r.now()
			}
			offset := at.Sub(trace.Started)
			if offset < 0 {
				offset = 0
			}
			trace.Samples = append(trace.Samples, Sample{Offset: offset, Kind: ev.Kind, Delta: ev.Delta})
		}
	}
}
