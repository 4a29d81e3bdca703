// Package magnet pulls a proposed cursor position toward the tracked target,
// with hysteresis between engaging and releasing and a cooldown after every
// release.
package magnet

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// ErrInvalidConfig is wrapped by Config.Validate.
var ErrInvalidConfig = errors.New("magnet: invalid config")

// Config tunes attraction.
type Config struct {
	ActivationRadius float64       `yaml:"activation_radius"`
	ReleaseRadius    float64       `yaml:"release_radius"`
	Strength         float64       `yaml:"strength"`
	MaxOffset        float64       `yaml:"max_offset"`
	SettleRadius     float64       `yaml:"settle_radius"`
	EscapeVelocity   float64       `yaml:"escape_velocity"`
	ReleaseCooldown  time.Duration `yaml:"release_cooldown"`
}

func DefaultConfig() Config {
	return Config{
		ActivationRadius: 58,
		ReleaseRadius:    86,
		Strength:         1800,
		MaxOffset:        9,
		SettleRadius:     3.5,
		EscapeVelocity:   14,
		ReleaseCooldown:  450 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	var errs []error
	check := func(name string, v float64) {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidConfig, name, v))
		}
	}
	check("activation_radius", c.ActivationRadius)
	check("release_radius", c.ReleaseRadius)
	check("strength", c.Strength)
	check("max_offset", c.MaxOffset)
	check("settle_radius", c.SettleRadius)
	check("escape_velocity", c.EscapeVelocity)

	if c.ReleaseRadius < c.ActivationRadius {
		errs = append(errs, fmt.Errorf("%w: release_radius (%v) must not be smaller than activation_radius (%v)",
			ErrInvalidConfig, c.ReleaseRadius, c.ActivationRadius))
	}
	if c.ReleaseCooldown < 0 {
		errs = append(errs, fmt.Errorf("%w: release_cooldown must be non-negative, got %v", ErrInvalidConfig, c.ReleaseCooldown))
	}
	return errors.Join(errs...)
}

// Target is the attraction target, derived from one chosen element.
type Target struct {
	Frame    vecmath.Rect
	Priority int
	Eligible bool
}

// Engine owns the tracked target and the engagement state. Single-owner.
type Engine struct {
	cfg     Config
	enabled bool
	target  *Target
	state   State
}

// New returns an enabled engine with no target.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, enabled: true}
}

func (e *Engine) Config() Config { return e.cfg }

// Reconfigure swaps the tuning without touching target or state.
func (e *Engine) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

// SetEnabled turns magnetism on or off. Disabling drops any engagement.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled = enabled
	if !enabled && e.state.Engaged() {
		e.state = idle()
	}
}

func (e *Engine) Enabled() bool { return e.enabled }

// UpdateTrackedElement replaces the target wholesale. A nil target resets
// engagement immediately; a running cooldown is kept.
func (e *Engine) UpdateTrackedElement(t *Target) {
	if t == nil {
		e.target = nil
		if e.state.Engaged() {
			e.state = idle()
		}
		return
	}
	cp := *t
	e.target = &cp
}

// Target returns the tracked target, if any.
func (e *Engine) Target() (Target, bool) {
	if e.target == nil {
		return Target{}, false
	}
	return *e.target, true
}

// Reset forgets the target and any engagement or cooldown.
func (e *Engine) Reset() {
	e.target = nil
	e.state = idle()
}

// Disengage releases with the configured release cooldown.
func (e *Engine) Disengage(now time.Time) {
	e.DisengageFor(now, e.cfg.ReleaseCooldown)
}

// DisengageFor releases unconditionally and blocks re-engagement until
// now+cooldown.
func (e *Engine) DisengageFor(now time.Time, cooldown time.Duration) {
	e.state = released(now, cooldown)
}

// State returns the engagement state as of now.
func (e *Engine) State(now time.Time) State {
	return e.state.At(now)
}

// Settled reports whether the engine is engaged within the settle radius.
func (e *Engine) Settled() bool {
	return e.state.Engaged() && e.state.Distance <= e.cfg.SettleRadius
}

// ShouldDisengage reports whether delta is a deliberate escape: fast enough
// and pointing away from the target. It does not change state.
func (e *Engine) ShouldDisengage(position, delta vecmath.Vec2) bool {
	if !e.state.Engaged() || e.target == nil {
		return false
	}
	if !delta.IsFinite() || delta.Magnitude() < e.cfg.EscapeVelocity {
		return false
	}
	toTarget := e.target.Frame.Center().Sub(position)
	return toTarget.Dot(delta) < 0
}

// AdjustedPosition returns proposed pulled toward the target center. It is
// the identity while disabled, cooling down, or without an eligible target in
// range.
func (e *Engine) AdjustedPosition(proposed vecmath.Vec2, now time.Time) vecmath.Vec2 {
	if !e.enabled || !proposed.IsFinite() {
		return proposed
	}
	e.state = e.state.At(now)
	if e.state.Phase == PhaseDisengaged {
		return proposed
	}
	if e.target == nil || !e.target.Eligible {
		e.state = idle()
		return proposed
	}

	center := e.target.Frame.Center()
	distance := proposed.Distance(center)
	e.state = e.state.measure(distance, e.cfg, now)
	if !e.state.Engaged() {
		return proposed
	}
	if distance <= e.cfg.SettleRadius {
		return center
	}

	force := math.Min(e.cfg.Strength/(distance*distance), e.cfg.MaxOffset)
	// never step past the center
	force = math.Min(force, distance)
	return proposed.Offset(center.Sub(proposed).Normalize().Scale(force))
}
