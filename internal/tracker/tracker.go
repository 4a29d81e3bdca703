// Package tracker keeps a short-lived cache of candidate targets near the
// cursor and resolves the best one off the hot path.
//
// Requests are queued to a single worker goroutine that owns the cache; each
// request carries the channel its Result is delivered on.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// ErrInvalidConfig is wrapped by Config.Validate.
var ErrInvalidConfig = errors.New("tracker: invalid config")

// Element is a screen region that may attract the cursor. ID identifies the
// same on-screen element across queries.
type Element struct {
	ID       string       `json:"id" yaml:"id"`
	Frame    vecmath.Rect `json:"frame" yaml:"frame"`
	Priority int          `json:"priority" yaml:"priority"`
	Enabled  bool         `json:"enabled" yaml:"enabled"`
}

// Source finds elements near a point. Implementations are best-effort and
// may return nothing; they are only ever called from the worker.
type Source interface {
	ElementsNear(ctx context.Context, p vecmath.Vec2, radius float64) []Element
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, p vecmath.Vec2, radius float64) []Element

func (f SourceFunc) ElementsNear(ctx context.Context, p vecmath.Vec2, radius float64) []Element {
	return f(ctx, p, radius)
}

// Config tunes candidate caching and retention.
type Config struct {
	SearchRadius    float64       `yaml:"search_radius"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RetentionRadius float64       `yaml:"retention_radius"`
	SwitchMargin    float64       `yaml:"switch_margin"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	QueueSize       int           `yaml:"queue_size"`
}

func DefaultConfig() Config {
	return Config{
		SearchRadius:    140,
		CacheTTL:        120 * time.Millisecond,
		RetentionRadius: 96,
		SwitchMargin:    4,
		QueryTimeout:    40 * time.Millisecond,
		QueueSize:       8,
	}
}

func (c Config) Validate() error {
	var errs []error
	for name, v := range map[string]float64{
		"search_radius":    c.SearchRadius,
		"retention_radius": c.RetentionRadius,
		"switch_margin":    c.SwitchMargin,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidConfig, name, v))
		}
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_ttl must be non-negative, got %v", ErrInvalidConfig, c.CacheTTL))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: query_timeout must be positive, got %v", ErrInvalidConfig, c.QueryTimeout))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("%w: queue_size must be at least 1, got %d", ErrInvalidConfig, c.QueueSize))
	}
	return errors.Join(errs...)
}

// Query asks for the best target around Position. Seq is opaque to the
// tracker and returned untouched so the caller can discard stale results.
type Query struct {
	Position vecmath.Vec2
	Heading  vecmath.Vec2
	Seq      uint64
}

// Result answers a Query. Found is false when no candidate qualified.
type Result struct {
	Query   Query
	Element Element
	Found   bool
}

type request struct {
	query Query
	reply chan<- Result
}

// Tracker resolves queries on its worker. Everything below requests is owned
// by the worker goroutine.
type Tracker struct {
	cfg      Config
	source   Source
	logger   *slog.Logger
	now      func() time.Time
	requests chan request
	reconfig chan Config

	cache       []Element
	cacheOrigin vecmath.Vec2
	refreshed   time.Time
	last        string
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

func New(cfg Config, source Source, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:    cfg,
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	t.requests = make(chan request, size)
	t.reconfig = make(chan Config, 1)
	return t
}

// Reconfigure hands new tuning to the worker, which applies it before the
// next request and drops its cache. queue_size is fixed at construction.
func (t *Tracker) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.QueueSize != cap(t.requests) {
		t.logger.Warn("tracker queue_size change ignored until restart",
			slog.Int("current", cap(t.requests)), slog.Int("requested", cfg.QueueSize))
	}
	for {
		select {
		case t.reconfig <- cfg:
			return nil
		default:
		}
		// a newer config supersedes one the worker has not picked up yet
		select {
		case <-t.reconfig:
		default:
		}
	}
}

// BestTarget queues q without blocking. When the queue is full the oldest
// pending request is dropped in favour of q. It reports whether an older
// request had to be dropped.
func (t *Tracker) BestTarget(q Query, reply chan<- Result) (dropped bool) {
	req := request{query: q, reply: reply}
	for {
		select {
		case t.requests <- req:
			return dropped
		default:
		}
		select {
		case <-t.requests:
			dropped = true
		default:
		}
	}
}

// Run processes queued requests until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Debug("tracker worker started")
	defer t.logger.Debug("tracker worker stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-t.reconfig:
			t.apply(cfg)
		case req := <-t.requests:
			select {
			case cfg := <-t.reconfig:
				t.apply(cfg)
			default:
			}
			el, ok := t.resolve(ctx, req.query)
			res := Result{Query: req.query, Element: el, Found: ok}
			select {
			case req.reply <- res:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// apply installs new tuning. Worker only.
func (t *Tracker) apply(cfg Config) {
	t.cfg = cfg
	t.refreshed = time.Time{}
	t.logger.Debug("tracker reconfigured", slog.Float64("search_radius", cfg.SearchRadius))
}

// resolve runs on the worker only.
func (t *Tracker) resolve(ctx context.Context, q Query) (Element, bool) {
	if !q.Position.IsFinite() {
		return Element{}, false
	}
	t.refresh(ctx, q.Position)

	el, ok := choose(t.cache, q, t.last, t.cfg)
	if ok {
		t.last = el.ID
	} else {
		t.last = ""
	}
	return el, ok
}

func (t *Tracker) refresh(ctx context.Context, pos vecmath.Vec2) {
	now := t.now()
	fresh := !t.refreshed.IsZero() && now.Sub(t.refreshed) <= t.cfg.CacheTTL
	// a cache gathered far from here no longer covers the search disc
	nearby := pos.Distance(t.cacheOrigin) <= t.cfg.SearchRadius/2
	if fresh && nearby {
		return
	}

	qctx, cancel := context.WithTimeout(ctx, t.cfg.QueryTimeout)
	defer cancel()
	found := t.source.ElementsNear(qctx, pos, t.cfg.SearchRadius)

	t.cache = dedupe(found)
	t.cacheOrigin = pos
	t.refreshed = now
	t.logger.Debug("tracker cache refreshed", slog.Int("candidates", len(t.cache)))
}
