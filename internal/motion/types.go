package motion

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vedantwpatil/focusglide/internal/magnet"
	"github.com/vedantwpatil/focusglide/internal/momentum"
	"github.com/vedantwpatil/focusglide/internal/tracker"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

var (
	// ErrInvalidConfig is wrapped by validation failures.
	ErrInvalidConfig = errors.New("motion: invalid config")
	// ErrInputUnavailable is returned by Start when input capture cannot begin.
	ErrInputUnavailable = errors.New("motion: input capture unavailable")
)

// EventKind classifies an input event.
type EventKind uint8

const (
	EventOther EventKind = iota
	EventMove
	EventDrag
)

func (k EventKind) String() string {
	switch k {
	case EventMove:
		return "move"
	case EventDrag:
		return "drag"
	default:
		return "other"
	}
}

// InputEvent is one captured pointer event. Delta is the raw displacement
// since the previous event.
type InputEvent struct {
	Kind  EventKind
	Delta vecmath.Vec2
	Time  time.Time
}

// Decision tells the input collaborator what to do with the original event.
type Decision uint8

const (
	// PassThrough leaves the event as delivered.
	PassThrough Decision = iota
	// Consumed means the engine has issued its own position for this event.
	Consumed
)

// InputSource delivers captured pointer events until stopped.
type InputSource interface {
	Start() (<-chan InputEvent, error)
	Stop()
}

// Pointer reads and writes the real pointer location. WarpTo is fire-and-forget.
type Pointer interface {
	Position() vecmath.Vec2
	WarpTo(p vecmath.Vec2)
}

// Displays reports the union of all active display areas.
type Displays interface {
	Bounds() vecmath.Rect
}

// MenuProbe answers whether a point lies over menu-like, third-party UI.
// It is called on the input path and must be fast.
type MenuProbe interface {
	WithinMenu(p vecmath.Vec2) bool
}

// Settings are the user-adjustable knobs that may change while running.
type Settings struct {
	Sensitivity float64 `yaml:"sensitivity"`
	Friction    float64 `yaml:"friction"`
	Magnetism   bool    `yaml:"magnetism"`
}

func DefaultSettings() Settings {
	return Settings{
		Sensitivity: 1.0,
		Friction:    momentum.DefaultFriction,
		Magnetism:   true,
	}
}

func (s Settings) Validate() error {
	var errs []error
	if !(s.Sensitivity > 0) || math.IsInf(s.Sensitivity, 0) {
		errs = append(errs, fmt.Errorf("%w: sensitivity must be positive, got %v", ErrInvalidConfig, s.Sensitivity))
	}
	if !(s.Friction > 0 && s.Friction < 1) {
		errs = append(errs, fmt.Errorf("%w: friction must be in (0,1), got %v", ErrInvalidConfig, s.Friction))
	}
	return errors.Join(errs...)
}

// LoopConfig tunes the coordinator itself.
type LoopConfig struct {
	TickInterval        time.Duration `yaml:"tick_interval"`
	MinInput            float64       `yaml:"min_input"`
	WarpEcho            time.Duration `yaml:"warp_echo"`
	LiveMoveThreshold   float64       `yaml:"live_move_threshold"`
	QuietCooldown       time.Duration `yaml:"quiet_cooldown"`
	SuppressionWindow   time.Duration `yaml:"suppression_window"`
	InputBlend          float64       `yaml:"input_blend"`
	PartialMagnetWeight float64       `yaml:"partial_magnet_weight"`
	MaxFrameTravel      float64       `yaml:"max_frame_travel"`
	MinStep             float64       `yaml:"min_step"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickInterval:        time.Second / 120,
		MinInput:            0.4,
		WarpEcho:            12 * time.Millisecond,
		LiveMoveThreshold:   1.5,
		QuietCooldown:       120 * time.Millisecond,
		SuppressionWindow:   350 * time.Millisecond,
		InputBlend:          0.7,
		PartialMagnetWeight: 0.30,
		MaxFrameTravel:      24,
		MinStep:             0.25,
	}
}

func (c LoopConfig) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick_interval must be positive, got %v", ErrInvalidConfig, c.TickInterval))
	}
	for name, d := range map[string]time.Duration{
		"warp_echo":          c.WarpEcho,
		"quiet_cooldown":     c.QuietCooldown,
		"suppression_window": c.SuppressionWindow,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidConfig, name, d))
		}
	}
	for name, v := range map[string]float64{
		"min_input":           c.MinInput,
		"live_move_threshold": c.LiveMoveThreshold,
		"min_step":            c.MinStep,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidConfig, name, v))
		}
	}
	if !(c.MaxFrameTravel > 0) || math.IsInf(c.MaxFrameTravel, 0) {
		errs = append(errs, fmt.Errorf("%w: max_frame_travel must be positive, got %v", ErrInvalidConfig, c.MaxFrameTravel))
	}
	if !(c.InputBlend > 0 && c.InputBlend <= 1) {
		errs = append(errs, fmt.Errorf("%w: input_blend must be in (0,1], got %v", ErrInvalidConfig, c.InputBlend))
	}
	if !(c.PartialMagnetWeight >= 0 && c.PartialMagnetWeight <= 1) {
		errs = append(errs, fmt.Errorf("%w: partial_magnet_weight must be in [0,1], got %v", ErrInvalidConfig, c.PartialMagnetWeight))
	}
	return errors.Join(errs...)
}

// Config gathers everything a Coordinator needs.
type Config struct {
	Loop     LoopConfig
	Momentum momentum.Config
	Magnet   magnet.Config
	Tracker  tracker.Config
	Settings Settings
}

func DefaultConfig() Config {
	return Config{
		Loop:     DefaultLoopConfig(),
		Momentum: momentum.DefaultConfig(),
		Magnet:   magnet.DefaultConfig(),
		Tracker:  tracker.DefaultConfig(),
		Settings: DefaultSettings(),
	}
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	return errors.Join(
		c.Loop.Validate(),
		c.Momentum.Validate(),
		c.Magnet.Validate(),
		c.Tracker.Validate(),
		c.Settings.Validate(),
	)
}

// Stats counts what the loop has done since construction.
type Stats struct {
	InputsAccepted   uint64
	InputsRejected   uint64
	InputsSuppressed uint64
	Ticks            uint64
	Glides           uint64
	Warps            uint64
	Escapes          uint64
	Suppressions     uint64
	TargetsApplied   uint64
	StaleResults     uint64
	DroppedQueries   uint64
}
