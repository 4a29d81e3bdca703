package magnet

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func button() *Target {
	return &Target{
		Frame:    vecmath.Rect{Min: vecmath.V(300, 220), Max: vecmath.V(420, 264)},
		Priority: 1,
		Eligible: true,
	}
}

func TestEngagesInsideFrame(t *testing.T) {
	e := New(DefaultConfig())
	e.UpdateTrackedElement(button())

	proposed := vecmath.V(340, 240)
	center := vecmath.V(360, 242)
	got := e.AdjustedPosition(proposed, t0)

	if !e.State(t0).Engaged() {
		t.Fatal("expected engagement inside the activation radius")
	}
	if got != center && got.Distance(center) >= proposed.Distance(center) {
		t.Errorf("adjusted %v is not closer to %v than %v", got, center, proposed)
	}
}

func TestSnapsWithinSettleRadius(t *testing.T) {
	e := New(DefaultConfig())
	e.UpdateTrackedElement(button())

	got := e.AdjustedPosition(vecmath.V(362, 244), t0)
	if got != vecmath.V(360, 242) {
		t.Errorf("expected snap to center, got %v", got)
	}
	if !e.Settled() {
		t.Error("expected settled state")
	}
}

func TestIdentityCases(t *testing.T) {
	proposed := vecmath.V(350, 230)

	t.Run("disabled", func(t *testing.T) {
		e := New(DefaultConfig())
		e.UpdateTrackedElement(button())
		e.SetEnabled(false)
		if got := e.AdjustedPosition(proposed, t0); got != proposed {
			t.Errorf("got %v", got)
		}
	})

	t.Run("no target", func(t *testing.T) {
		e := New(DefaultConfig())
		if got := e.AdjustedPosition(proposed, t0); got != proposed {
			t.Errorf("got %v", got)
		}
		if e.State(t0).Engaged() {
			t.Error("must not engage without a target")
		}
	})

	t.Run("ineligible target", func(t *testing.T) {
		e := New(DefaultConfig())
		tgt := button()
		tgt.Eligible = false
		e.UpdateTrackedElement(tgt)
		if got := e.AdjustedPosition(proposed, t0); got != proposed {
			t.Errorf("got %v", got)
		}
	})

	t.Run("cooldown", func(t *testing.T) {
		e := New(DefaultConfig())
		e.UpdateTrackedElement(button())
		e.DisengageFor(t0, 200*time.Millisecond)
		for _, ms := range []int{0, 50, 199} {
			now := t0.Add(time.Duration(ms) * time.Millisecond)
			if got := e.AdjustedPosition(proposed, now); got != proposed {
				t.Errorf("at %dms got %v", ms, got)
			}
			if e.State(now).Engaged() {
				t.Errorf("engaged during cooldown at %dms", ms)
			}
		}
		after := t0.Add(200 * time.Millisecond)
		if got := e.AdjustedPosition(proposed, after); got == proposed {
			t.Error("expected pull once the cooldown expired")
		}
	})
}

func TestHysteresis(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg)
	tgt := &Target{Frame: vecmath.R(-10, -10, 20, 20), Eligible: true}
	e.UpdateTrackedElement(tgt)

	// Outside activation while idle: no engagement.
	far := vecmath.V(70, 0)
	if got := e.AdjustedPosition(far, t0); got != far || e.State(t0).Engaged() {
		t.Fatalf("engaged at distance 70 from idle")
	}

	// Engage at 40, then drift to 70 (between activation 58 and release 86).
	e.AdjustedPosition(vecmath.V(40, 0), t0)
	if !e.State(t0).Engaged() {
		t.Fatal("expected engagement at 40")
	}
	e.AdjustedPosition(far, t0)
	if !e.State(t0).Engaged() {
		t.Fatal("released before exceeding the release radius")
	}

	// Past the release radius: released into cooldown.
	e.AdjustedPosition(vecmath.V(90, 0), t0)
	st := e.State(t0)
	if st.Engaged() {
		t.Fatal("still engaged beyond the release radius")
	}
	if st.Phase != PhaseDisengaged || !st.Until.Equal(t0.Add(cfg.ReleaseCooldown)) {
		t.Errorf("unexpected state after release: %+v", st)
	}
}

func TestAttractionNeverExceedsMaxOffset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SettleRadius = 0
	cfg.Strength = 1e9
	e := New(cfg)
	e.UpdateTrackedElement(&Target{Frame: vecmath.R(-1, -1, 2, 2), Eligible: true})

	for _, d := range []float64{1e-6, 0.01, 0.5, 3, 20, 57} {
		proposed := vecmath.V(d, 0)
		got := e.AdjustedPosition(proposed, t0)
		if off := got.Distance(proposed); off > cfg.MaxOffset+1e-9 {
			t.Errorf("distance %v: offset %f exceeds max %f", d, off, cfg.MaxOffset)
		}
		if math.IsNaN(got.X) || math.IsNaN(got.Y) {
			t.Fatalf("distance %v: NaN result", d)
		}
	}
}

func TestShouldDisengage(t *testing.T) {
	e := New(DefaultConfig())
	e.UpdateTrackedElement(&Target{Frame: vecmath.R(0, 0, 20, 20), Eligible: true})

	pos := vecmath.V(40, 10)
	if e.ShouldDisengage(pos, vecmath.V(20, 0)) {
		t.Error("must be false while not engaged")
	}

	e.AdjustedPosition(pos, t0)
	if !e.State(t0).Engaged() {
		t.Fatal("setup: expected engagement")
	}

	tests := []struct {
		name  string
		delta vecmath.Vec2
		want  bool
	}{
		{"fast away", vecmath.V(20, 0), true},
		{"fast toward", vecmath.V(-20, 0), false},
		{"slow away", vecmath.V(5, 0), false},
		{"exactly escape velocity", vecmath.V(14, 0), true},
		{"perpendicular", vecmath.V(0, 30), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ShouldDisengage(pos, tt.delta); got != tt.want {
				t.Errorf("ShouldDisengage(%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
	if !e.State(t0).Engaged() {
		t.Error("ShouldDisengage must not mutate state")
	}
}

func TestUpdateTrackedElementNilResets(t *testing.T) {
	e := New(DefaultConfig())
	e.UpdateTrackedElement(button())
	e.AdjustedPosition(vecmath.V(350, 240), t0)

	e.UpdateTrackedElement(nil)
	if e.State(t0).Engaged() {
		t.Error("clearing the target must reset engagement")
	}
	if _, ok := e.Target(); ok {
		t.Error("target should be cleared")
	}
}

func TestUpdateTrackedElementCopiesTarget(t *testing.T) {
	e := New(DefaultConfig())
	tgt := button()
	e.UpdateTrackedElement(tgt)
	tgt.Eligible = false

	got, _ := e.Target()
	if !got.Eligible {
		t.Error("engine must not share the caller's target")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReleaseRadius = cfg.ActivationRadius - 1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected hysteresis violation, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.SettleRadius = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected negative radius rejection, got %v", err)
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default invalid: %v", err)
	}
}
