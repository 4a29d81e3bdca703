// Package motion runs the cursor control loop. Captured input and a ~120 Hz
// timer both feed the momentum and magnet engines; the tracker resolves
// targets off the hot path and its answers are applied back here.
//
// Every mutation of loop state happens under one mutex, so the input path,
// the timer path and result application never interleave.
package motion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vedantwpatil/focusglide/internal/magnet"
	"github.com/vedantwpatil/focusglide/internal/momentum"
	"github.com/vedantwpatil/focusglide/internal/tracker"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

const resultBuffer = 16

// Deps are the platform collaborators. Menus and Elements may be nil.
type Deps struct {
	Input    InputSource
	Pointer  Pointer
	Displays Displays
	Menus    MenuProbe
	Elements tracker.Source
}

// Coordinator owns the control loop.
type Coordinator struct {
	mu sync.Mutex

	cfg      LoopConfig
	settings Settings
	physics  *momentum.Physics
	magnet   *magnet.Engine
	tracker  *tracker.Tracker
	deps     Deps
	logger   *slog.Logger
	now      func() time.Time

	running         bool
	position        vecmath.Vec2
	heading         vecmath.Vec2
	lastWarp        time.Time
	suppressedUntil time.Time
	// generation tags tracker queries; bumped on suppression and reset so
	// answers to older queries are dropped.
	generation uint64
	active     tracker.Element
	hasActive  bool
	stats      Stats

	results chan tracker.Result
	cancel  context.CancelFunc
	group   *errgroup.Group

	obsMu     sync.Mutex
	observers map[int]func(running bool)
	nextObs   int
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used by the loop and its tracker.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now for the timer path and tracker cache.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New builds a stopped Coordinator. cfg is validated up front.
func New(cfg Config, deps Deps, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Input == nil || deps.Pointer == nil || deps.Displays == nil {
		return nil, fmt.Errorf("%w: input, pointer and displays are required", ErrInvalidConfig)
	}

	c := &Coordinator{
		cfg:       cfg.Loop,
		settings:  cfg.Settings,
		deps:      deps,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		results:   make(chan tracker.Result, resultBuffer),
		observers: make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(c)
	}

	mcfg := cfg.Momentum
	mcfg.Friction = cfg.Settings.Friction
	c.physics = momentum.New(mcfg, c.now())
	c.magnet = magnet.New(cfg.Magnet)
	c.magnet.SetEnabled(cfg.Settings.Magnetism)

	source := deps.Elements
	if source == nil {
		source = tracker.SourceFunc(func(context.Context, vecmath.Vec2, float64) []tracker.Element { return nil })
	}
	c.tracker = tracker.New(cfg.Tracker, source,
		tracker.WithClock(c.now),
		tracker.WithLogger(c.logger.With(slog.String("component", "tracker"))),
	)
	return c, nil
}

// Start begins input capture and launches the loop workers. Calling Start on
// a running coordinator is a no-op. If capture cannot begin the returned
// error wraps ErrInputUnavailable and nothing is left running.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}

	events, err := c.deps.Input.Start()
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("input capture unavailable", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}

	now := c.now()
	c.reset(now)
	c.position = c.deps.Pointer.Position()
	c.running = true
	start := c.position
	interval := c.cfg.TickInterval

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return c.tracker.Run(gctx) })
	g.Go(func() error { return c.consumeInput(gctx, events) })
	g.Go(func() error { return c.runTicker(gctx, interval) })
	g.Go(func() error { return c.applyResults(gctx) })
	c.cancel = cancel
	c.group = g
	c.mu.Unlock()

	c.logger.Info("motion loop started",
		slog.Float64("x", start.X), slog.Float64("y", start.Y))
	c.notify(true)
	return nil
}

// Stop halts capture, waits for the workers and resets all motion state.
// Calling Stop on a stopped coordinator is a no-op.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel, g := c.cancel, c.group
	c.cancel, c.group = nil, nil
	c.mu.Unlock()

	c.deps.Input.Stop()
	cancel()
	if err := g.Wait(); err != nil {
		c.logger.Warn("motion worker exited with error", slog.Any("error", err))
	}

	c.mu.Lock()
	c.reset(c.now())
	c.mu.Unlock()

	c.logger.Info("motion loop stopped")
	c.notify(false)
}

// reset clears motion state. Caller holds mu.
func (c *Coordinator) reset(now time.Time) {
	c.physics.Reset(now)
	c.magnet.Reset()
	c.generation++
	c.hasActive = false
	c.active = tracker.Element{}
	c.heading = vecmath.Zero
	c.suppressedUntil = time.Time{}
	c.lastWarp = time.Time{}
}

func (c *Coordinator) consumeInput(ctx context.Context, events <-chan InputEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleInput(ev)
		}
	}
}

func (c *Coordinator) runTicker(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(c.now())
		}
	}
}

func (c *Coordinator) applyResults(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-c.results:
			c.apply(res)
		}
	}
}

// apply installs a tracker answer unless it is stale or the loop has stopped.
func (c *Coordinator) apply(res tracker.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || res.Query.Seq != c.generation {
		c.stats.StaleResults++
		return
	}
	if !res.Found {
		if c.hasActive {
			c.logger.Debug("target lost", slog.String("id", c.active.ID))
		}
		c.magnet.UpdateTrackedElement(nil)
		c.hasActive = false
		c.active = tracker.Element{}
		return
	}

	c.magnet.UpdateTrackedElement(&magnet.Target{
		Frame:    res.Element.Frame,
		Priority: res.Element.Priority,
		Eligible: res.Element.Enabled,
	})
	if !c.hasActive || c.active.ID != res.Element.ID {
		c.logger.Debug("target acquired", slog.String("id", res.Element.ID))
	}
	c.active = res.Element
	c.hasActive = true
	c.stats.TargetsApplied++
}

// ApplySettings changes sensitivity, friction and magnetism in place.
func (c *Coordinator) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	mcfg := c.physics.Config()
	mcfg.Friction = s.Friction
	if err := c.physics.Reconfigure(mcfg); err != nil {
		return err
	}
	c.magnet.SetEnabled(s.Magnetism)
	c.settings = s
	c.logger.Info("settings applied",
		slog.Float64("sensitivity", s.Sensitivity),
		slog.Float64("friction", s.Friction),
		slog.Bool("magnetism", s.Magnetism))
	return nil
}

// Reconfigure swaps the engine tuning while running. Settings are kept. A
// new tick interval takes effect on the next Start.
func (c *Coordinator) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	mcfg := cfg.Momentum
	mcfg.Friction = c.settings.Friction
	if err := c.physics.Reconfigure(mcfg); err != nil {
		return err
	}
	if err := c.magnet.Reconfigure(cfg.Magnet); err != nil {
		return err
	}
	if err := c.tracker.Reconfigure(cfg.Tracker); err != nil {
		return err
	}
	if c.running && cfg.Loop.TickInterval != c.cfg.TickInterval {
		c.logger.Warn("tick_interval change applies after restart",
			slog.Duration("previous", c.cfg.TickInterval),
			slog.Duration("requested", cfg.Loop.TickInterval))
	}
	c.cfg = cfg.Loop
	return nil
}

func (c *Coordinator) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Position returns the engine's notion of the cursor position.
func (c *Coordinator) Position() vecmath.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// ActiveElement returns the element the magnet is currently tracking.
func (c *Coordinator) ActiveElement() (tracker.Element, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.hasActive
}

// MagnetState returns the magnet engagement as of now.
func (c *Coordinator) MagnetState() magnet.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.magnet.State(c.now())
}

func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Subscribe registers fn to be told about every start and stop. The returned
// func removes it.
func (c *Coordinator) Subscribe(fn func(running bool)) (unsubscribe func()) {
	c.obsMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

func (c *Coordinator) notify(running bool) {
	c.obsMu.Lock()
	fns := make([]func(bool), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.obsMu.Unlock()

	for _, fn := range fns {
		fn(running)
	}
}
