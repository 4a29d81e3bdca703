// Package momentum turns a stream of input deltas into a decaying velocity and
// produces glide deltas once direct input has gone quiet.
//
// A Physics value is single-owner: the motion coordinator serializes every
// call, so no locking happens here.
package momentum

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// ErrInvalidConfig is wrapped by Config.Validate.
var ErrInvalidConfig = errors.New("momentum: invalid config")

const (
	DefaultFriction        = 0.985
	DefaultVelocityCap     = 60.0
	DefaultStopThreshold   = 0.08
	DefaultActivationDelay = 32 * time.Millisecond
	DefaultBlendWeight     = 0.35
)

// Config tunes the glide simulation.
type Config struct {
	// Friction is the per-tick multiplicative decay, in (0,1). It is a user
	// setting, so it is not read from the momentum section of a config file.
	Friction float64 `yaml:"-"`
	// VelocityCap bounds the velocity magnitude (px per tick).
	VelocityCap float64 `yaml:"velocity_cap"`
	// StopThreshold is the speed below which glide is finished.
	StopThreshold float64 `yaml:"stop_threshold"`
	// ActivationDelay is the quiet time after the last input before glide may begin.
	ActivationDelay time.Duration `yaml:"activation_delay"`
	// BlendWeight is how much of each new delta is folded into velocity.
	BlendWeight float64 `yaml:"blend_weight"`
}

func DefaultConfig() Config {
	return Config{
		Friction:        DefaultFriction,
		VelocityCap:     DefaultVelocityCap,
		StopThreshold:   DefaultStopThreshold,
		ActivationDelay: DefaultActivationDelay,
		BlendWeight:     DefaultBlendWeight,
	}
}

// Validate rejects values that would make the simulation diverge or stall.
func (c Config) Validate() error {
	var errs []error
	if !(c.Friction > 0 && c.Friction < 1) {
		errs = append(errs, fmt.Errorf("%w: friction must be in (0,1), got %v", ErrInvalidConfig, c.Friction))
	}
	if !(c.VelocityCap > 0) || math.IsInf(c.VelocityCap, 0) {
		errs = append(errs, fmt.Errorf("%w: velocity_cap must be positive, got %v", ErrInvalidConfig, c.VelocityCap))
	}
	if c.StopThreshold < 0 || math.IsNaN(c.StopThreshold) {
		errs = append(errs, fmt.Errorf("%w: stop_threshold must be non-negative, got %v", ErrInvalidConfig, c.StopThreshold))
	}
	if c.ActivationDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: activation_delay must be non-negative, got %v", ErrInvalidConfig, c.ActivationDelay))
	}
	if !(c.BlendWeight > 0 && c.BlendWeight < 1) {
		errs = append(errs, fmt.Errorf("%w: blend_weight must be in (0,1), got %v", ErrInvalidConfig, c.BlendWeight))
	}
	return errors.Join(errs...)
}

// Physics owns the velocity state.
type Physics struct {
	cfg       Config
	velocity  vecmath.Vec2
	lastInput time.Time
	gliding   bool
}

// New creates a Physics at rest. now seeds the last-input timestamp so that
// Advance before any input is well defined.
func New(cfg Config, now time.Time) *Physics {
	return &Physics{cfg: cfg, lastInput: now}
}

// Config returns the active configuration.
func (p *Physics) Config() Config { return p.cfg }

// Reconfigure swaps the tuning in place. Velocity is kept, clamped to the new cap.
func (p *Physics) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.cfg = cfg
	p.velocity = p.velocity.ClampedMagnitude(cfg.VelocityCap)
	if p.velocity == vecmath.Zero {
		p.gliding = false
	}
	return nil
}

// RegisterInput folds a direct-input delta into the velocity. Non-finite
// deltas are ignored.
func (p *Physics) RegisterInput(delta vecmath.Vec2, at time.Time) {
	if !delta.IsFinite() {
		return
	}
	p.lastInput = at
	p.gliding = false

	d := delta.ClampedMagnitude(p.cfg.VelocityCap)
	p.velocity = p.velocity.Mix(d, p.cfg.BlendWeight).ClampedMagnitude(p.cfg.VelocityCap)
}

// Cancel stops any motion immediately.
func (p *Physics) Cancel() {
	p.velocity = vecmath.Zero
	p.gliding = false
}

// Reset returns to the freshly constructed state.
func (p *Physics) Reset(now time.Time) {
	p.Cancel()
	p.lastInput = now
}

// Advance runs one friction step and returns this frame's glide delta. It must
// be called at most once per tick; repeated calls compound the decay.
func (p *Physics) Advance(at time.Time) (vecmath.Vec2, bool) {
	if !p.gliding && at.Sub(p.lastInput) < p.cfg.ActivationDelay {
		return vecmath.Zero, false
	}
	if p.stopped() {
		p.Cancel()
		return vecmath.Zero, false
	}

	p.gliding = true
	p.velocity = p.velocity.Scale(p.cfg.Friction)
	if p.stopped() {
		p.Cancel()
		return vecmath.Zero, false
	}
	return p.velocity, true
}

func (p *Physics) stopped() bool {
	speed := p.velocity.Magnitude()
	return speed == 0 || speed < p.cfg.StopThreshold
}

// Velocity returns the current velocity.
func (p *Physics) Velocity() vecmath.Vec2 { return p.velocity }

// Gliding reports whether a glide is in progress.
func (p *Physics) Gliding() bool { return p.gliding }

// LastInput returns the timestamp of the most recent registered input.
func (p *Physics) LastInput() time.Time { return p.lastInput }
