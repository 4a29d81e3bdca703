package motion

import (
	"log/slog"
	"time"

	"github.com/vedantwpatil/focusglide/internal/tracker"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// HandleInput runs the input path for one captured event and reports whether
// the engine took over the resulting position.
func (c *Coordinator) HandleInput(ev InputEvent) Decision {
	if ev.Kind != EventMove && ev.Kind != EventDrag {
		return PassThrough
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return PassThrough
	}

	at := ev.Time
	if at.IsZero() {
		at = c.now()
	}
	if c.suppressed(at) {
		c.stats.InputsSuppressed++
		return PassThrough
	}

	delta := ev.Delta
	if !delta.IsFinite() {
		c.stats.InputsRejected++
		return PassThrough
	}
	// our own warps come back as tiny deltas right after we issue them
	if delta.Magnitude() < c.cfg.MinInput && !c.lastWarp.IsZero() && at.Sub(c.lastWarp) < c.cfg.WarpEcho {
		c.stats.InputsRejected++
		return PassThrough
	}
	c.stats.InputsAccepted++

	scaled := delta.Scale(c.settings.Sensitivity)
	if scaled != vecmath.Zero {
		c.heading = scaled.Normalize()
	}
	c.physics.RegisterInput(scaled, at)

	moving := scaled.Magnitude() > c.cfg.LiveMoveThreshold
	if c.magnet.ShouldDisengage(c.position, scaled) {
		c.magnet.Disengage(at)
		c.stats.Escapes++
		c.logger.Debug("magnet escaped", slog.Float64("speed", scaled.Magnitude()))
	} else if moving {
		c.magnet.DisengageFor(at, c.cfg.QuietCooldown)
	}

	proposed := vecmath.ClampToBounds(c.position.Offset(scaled), c.deps.Displays.Bounds())
	next := c.position.Mix(proposed, c.cfg.InputBlend)
	if !moving && c.settings.Magnetism {
		adjusted := c.magnet.AdjustedPosition(next, at)
		weight := c.cfg.PartialMagnetWeight
		if c.magnet.Settled() {
			weight = 1
		}
		next = next.Mix(adjusted, weight)
	}

	c.commit(next, at)
	return Consumed
}

// Tick runs the timer path once.
func (c *Coordinator) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.stats.Ticks++
	if c.suppressed(now) {
		return
	}

	glide, ok := c.physics.Advance(now)
	if !ok {
		return
	}
	c.stats.Glides++

	desired := vecmath.ClampToBounds(c.position.Offset(glide), c.deps.Displays.Bounds())
	if c.settings.Magnetism {
		desired = c.magnet.AdjustedPosition(desired, now)
	}

	actual := c.deps.Pointer.Position()
	step := desired.Sub(actual).ClampedMagnitude(c.cfg.MaxFrameTravel)
	if step.Magnitude() < c.cfg.MinStep {
		return
	}
	c.commit(actual.Offset(step), now)
}

// suppressed runs the menu check and reports whether the engine must stay out
// of the way. Entering a menu cancels momentum, drops the target and blocks
// the magnet for the suppression window. While suppressed the position is
// re-seeded from the hardware cursor. Caller holds mu.
func (c *Coordinator) suppressed(now time.Time) bool {
	hw := c.deps.Pointer.Position()
	inMenu := c.deps.Menus != nil && c.deps.Menus.WithinMenu(hw)
	if inMenu {
		if !now.Before(c.suppressedUntil) {
			c.physics.Cancel()
			c.magnet.UpdateTrackedElement(nil)
			c.magnet.DisengageFor(now, c.cfg.SuppressionWindow)
			c.generation++
			c.hasActive = false
			c.active = tracker.Element{}
			c.stats.Suppressions++
			c.logger.Debug("menu suppression", slog.Float64("x", hw.X), slog.Float64("y", hw.Y))
		}
		c.suppressedUntil = now.Add(c.cfg.SuppressionWindow)
	}
	if inMenu || now.Before(c.suppressedUntil) {
		c.position = hw
		return true
	}
	return false
}

// commit records a new position, warps the pointer and asks the tracker to
// rescan around it. Caller holds mu.
func (c *Coordinator) commit(p vecmath.Vec2, now time.Time) {
	c.position = vecmath.ClampToBounds(p.Sanitize(), c.deps.Displays.Bounds())
	c.lastWarp = now
	c.stats.Warps++
	c.deps.Pointer.WarpTo(c.position)

	q := tracker.Query{Position: c.position, Heading: c.heading, Seq: c.generation}
	if c.tracker.BestTarget(q, c.results) {
		c.stats.DroppedQueries++
	}
}
