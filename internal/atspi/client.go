// Package atspi finds interactive elements and menus through the Linux
// accessibility bus.
package atspi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/vedantwpatil/focusglide/internal/tracker"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

const (
	a11yBusName  = "org.a11y.Bus"
	a11yBusPath  = "/org/a11y/bus"
	registryName = "org.a11y.atspi.Registry"
	rootPath     = "/org/a11y/atspi/accessible/root"
	nullPath     = "/org/a11y/atspi/null"

	ifaceAccessible = "org.a11y.atspi.Accessible"
	ifaceComponent  = "org.a11y.atspi.Component"

	coordScreen = uint32(0)

	maxDepth     = 32
	maxAncestors = 4
	menuTTL      = 250 * time.Millisecond
	menuSlop     = 8.0
	probeTimeout = 60 * time.Millisecond
)

// ref is an accessible object reference, the (so) pair used throughout AT-SPI.
type ref struct {
	Name string
	Path dbus.ObjectPath
}

func (r ref) null() bool { return r.Name == "" || r.Path == "" || r.Path == nullPath }

func (r ref) id() string { return r.Name + string(r.Path) }

type window struct {
	ref
	frame vecmath.Rect
}

// Client talks to the accessibility bus. It satisfies tracker.Source and
// motion.MenuProbe.
type Client struct {
	conn   *dbus.Conn
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	menus   menuCache
	probing atomic.Bool
}

// menuCache remembers the menus found under the last probed point.
type menuCache struct {
	rects  []vecmath.Rect
	origin vecmath.Vec2
	seen   time.Time
}

// lookup reports whether p is inside a cached menu and whether the cache
// should be refreshed: it has expired, or p has left both the cached menus
// and the neighbourhood of the point they were probed at.
func (m menuCache) lookup(p vecmath.Vec2, now time.Time) (inside, refresh bool) {
	for _, r := range m.rects {
		if r.Contains(p) {
			inside = true
			break
		}
	}
	if m.seen.IsZero() || now.Sub(m.seen) >= menuTTL {
		return inside, true
	}
	return inside, !inside && p.Distance(m.origin) > menuSlop
}

// Dial asks the session bus for the accessibility bus address and connects.
func Dial(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	session, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("atspi: session bus: %w", err)
	}
	var addr string
	if err := session.Object(a11yBusName, a11yBusPath).Call(a11yBusName+".GetAddress", 0).Store(&addr); err != nil {
		return nil, fmt.Errorf("atspi: bus address: %w", err)
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("atspi: connect %s: %w", addr, err)
	}
	logger.Info("accessibility bus connected", slog.String("address", addr))
	return &Client{conn: conn, logger: logger, now: time.Now}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ElementsNear samples the search disc and returns every interactive element
// found under a sample point. Errors are logged and yield fewer elements.
func (c *Client) ElementsNear(ctx context.Context, p vecmath.Vec2, radius float64) []tracker.Element {
	windows, err := c.windows(ctx)
	if err != nil {
		c.logger.Debug("window scan failed", slog.Any("error", err))
		return nil
	}

	seen := make(map[string]struct{})
	var out []tracker.Element
	for _, sp := range samplePoints(p, radius) {
		if ctx.Err() != nil {
			break
		}
		win, ok := windowAt(windows, sp)
		if !ok {
			continue
		}
		el, ok := c.elementAt(ctx, win, sp)
		if !ok {
			continue
		}
		if _, dup := seen[el.ID]; dup {
			continue
		}
		seen[el.ID] = struct{}{}
		out = append(out, el)
	}
	return out
}

// WithinMenu answers from cached menu extents and refreshes them in the
// background, so it never waits on the bus.
func (c *Client) WithinMenu(p vecmath.Vec2) bool {
	c.mu.Lock()
	inside, refresh := c.menus.lookup(p, c.now())
	c.mu.Unlock()

	if refresh && c.probing.CompareAndSwap(false, true) {
		go c.probeMenus(p)
	}
	return inside
}

func (c *Client) probeMenus(p vecmath.Vec2) {
	defer c.probing.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var menus []vecmath.Rect
	windows, err := c.windows(ctx)
	if err == nil {
		if win, ok := windowAt(windows, p); ok {
			if r, ok := c.menuAt(ctx, win, p); ok {
				menus = append(menus, r)
			}
		}
	}

	c.mu.Lock()
	c.menus = menuCache{rects: menus, origin: p, seen: c.now()}
	c.mu.Unlock()
}

// windows lists showing top-level windows of every registered application.
func (c *Client) windows(ctx context.Context) ([]window, error) {
	var apps []ref
	if err := c.call(ctx, ref{registryName, rootPath}, ifaceAccessible+".GetChildren").Store(&apps); err != nil {
		return nil, err
	}
	var out []window
	for _, app := range apps {
		var children []ref
		if err := c.call(ctx, app, ifaceAccessible+".GetChildren").Store(&children); err != nil {
			continue
		}
		for _, w := range children {
			states, err := c.states(ctx, w)
			if err != nil || !states.OnScreen() {
				continue
			}
			frame, err := c.extents(ctx, w)
			if err != nil {
				continue
			}
			out = append(out, window{ref: w, frame: frame})
		}
	}
	return out, nil
}

func windowAt(windows []window, p vecmath.Vec2) (window, bool) {
	for _, w := range windows {
		if w.frame.Contains(p) {
			return w, true
		}
	}
	return window{}, false
}

// path descends from the window to the deepest accessible at p and returns
// the chain, deepest last.
func (c *Client) path(ctx context.Context, win window, p vecmath.Vec2) []ref {
	chain := []ref{win.ref}
	cur := win.ref
	for depth := 0; depth < maxDepth; depth++ {
		var child ref
		err := c.call(ctx, cur, ifaceComponent+".GetAccessibleAtPoint", int32(p.X), int32(p.Y), coordScreen).Store(&child)
		if err != nil || child.null() || child == cur {
			break
		}
		chain = append(chain, child)
		cur = child
	}
	return chain
}

// elementAt finds the nearest candidate at or just above the deepest
// accessible under p.
func (c *Client) elementAt(ctx context.Context, win window, p vecmath.Vec2) (tracker.Element, bool) {
	chain := c.path(ctx, win, p)
	for i, n := len(chain)-1, 0; i > 0 && n < maxAncestors; i, n = i-1, n+1 {
		r := chain[i]
		role, err := c.role(ctx, r)
		if err != nil {
			return tracker.Element{}, false
		}
		if MenuLike(role) {
			return tracker.Element{}, false
		}
		priority, ok := Candidate(role)
		if !ok {
			continue
		}
		frame, err := c.extents(ctx, r)
		if err != nil || frame.Empty() {
			return tracker.Element{}, false
		}
		states, err := c.states(ctx, r)
		if err != nil {
			return tracker.Element{}, false
		}
		return tracker.Element{
			ID:       r.id(),
			Frame:    frame,
			Priority: priority,
			Enabled:  states.Interactive() && states.OnScreen(),
		}, true
	}
	return tracker.Element{}, false
}

// menuAt returns the extents of the outermost menu-like accessible under p.
func (c *Client) menuAt(ctx context.Context, win window, p vecmath.Vec2) (vecmath.Rect, bool) {
	for _, r := range c.path(ctx, win, p) {
		role, err := c.role(ctx, r)
		if err != nil || !MenuLike(role) {
			continue
		}
		frame, err := c.extents(ctx, r)
		if err != nil {
			return vecmath.Rect{}, false
		}
		return frame, true
	}
	return vecmath.Rect{}, false
}

func (c *Client) call(ctx context.Context, r ref, method string, args ...interface{}) *dbus.Call {
	return c.conn.Object(r.Name, r.Path).CallWithContext(ctx, method, 0, args...)
}

func (c *Client) role(ctx context.Context, r ref) (Role, error) {
	var role uint32
	err := c.call(ctx, r, ifaceAccessible+".GetRole").Store(&role)
	return Role(role), err
}

func (c *Client) states(ctx context.Context, r ref) (StateSet, error) {
	var words []uint32
	err := c.call(ctx, r, ifaceAccessible+".GetState").Store(&words)
	return StateSet(words), err
}

func (c *Client) extents(ctx context.Context, r ref) (vecmath.Rect, error) {
	var e extents
	if err := c.call(ctx, r, ifaceComponent+".GetExtents", coordScreen).Store(&e); err != nil {
		return vecmath.Rect{}, err
	}
	return e.rect(), nil
}
