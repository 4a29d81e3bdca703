package recording

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/tracker"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// ErrEmptyTrace is returned for traces with no samples.
var ErrEmptyTrace = errors.New("recording: trace has no samples")

// Sample is one captured input event, timed from the start of the trace.
type Sample struct {
	Offset time.Duration    `json:"offset"`
	Kind   motion.EventKind `json:"kind"`
	Delta  vecmath.Vec2     `json:"delta"`
}

// Trace is a recorded input session plus the scene it happened over.
type Trace struct {
	ID       uuid.UUID         `json:"id"`
	Started  time.Time         `json:"started"`
	Origin   vecmath.Vec2      `json:"origin"`
	Bounds   vecmath.Rect      `json:"bounds"`
	Samples  []Sample          `json:"samples"`
	Elements []tracker.Element `json:"elements,omitempty"`
}

// Duration is the offset of the last sample.
func (t *Trace) Duration() time.Duration {
	if len(t.Samples) == 0 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].Offset
}

// Path replays the raw deltas from Origin, clamped to Bounds.
func (t *Trace) Path() []vecmath.Vec2 {
	pos := t.Origin
	out := make([]vecmath.Vec2, 0, len(t.Samples)+1)
	out = append(out, pos)
	for _, s := range t.Samples {
		pos = vecmath.ClampToBounds(pos.Offset(s.Delta), t.Bounds)
		out = append(out, pos)
	}
	return out
}

// CaptureElements queries src along the raw path, every half radius of
// travel, and stores the distinct elements it finds on the trace.
func (t *Trace) CaptureElements(ctx context.Context, src tracker.Source, radius float64) {
	seen := make(map[string]struct{}, len(t.Elements))
	for _, e := range t.Elements {
		seen[e.ID] = struct{}{}
	}
	var last vecmath.Vec2
	for i, p := range t.Path() {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && p.Distance(last) < radius/2 {
			continue
		}
		last = p
		for _, e := range src.ElementsNear(ctx, p, radius) {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			t.Elements = append(t.Elements, e)
		}
	}
}

func Save(path string, t *Trace) error {
	if len(t.Samples) == 0 {
		return ErrEmptyTrace
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("recording: decode %s: %w", path, err)
	}
	if len(t.Samples) == 0 {
		return nil, ErrEmptyTrace
	}
	return &t, nil
}
