package atspi

import (
	"math"
	"testing"
	"time"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

func TestCandidateRoles(t *testing.T) {
	tests := []struct {
		role     Role
		want     bool
		priority int
	}{
		{RolePushButton, true, 3},
		{RoleLink, true, 2},
		{RoleListItem, true, 1},
		{RoleMenuItem, false, 0},
		{Role(29), false, 0}, // label
	}
	for _, tt := range tests {
		p, ok := Candidate(tt.role)
		if ok != tt.want || p != tt.priority {
			t.Errorf("Candidate(%d) = %d, %v; want %d, %v", tt.role, p, ok, tt.priority, tt.want)
		}
	}
}

func TestMenuLike(t *testing.T) {
	for _, r := range []Role{RoleMenu, RoleMenuBar, RoleMenuItem, RolePopupMenu, RoleCheckMenuItem, RoleRadioMenuItem} {
		if !MenuLike(r) {
			t.Errorf("role %d should be menu-like", r)
		}
	}
	if MenuLike(RolePushButton) {
		t.Error("push button is not menu-like")
	}
}

func TestStateSet(t *testing.T) {
	var s StateSet = []uint32{1<<StateEnabled | 1<<StateSensitive | 1<<StateShowing, 0}
	if !s.Interactive() {
		t.Error("expected interactive")
	}
	if s.OnScreen() {
		t.Error("visible bit is not set")
	}
	s[0] |= 1 << StateVisible
	if !s.OnScreen() {
		t.Error("expected on screen")
	}
	if (StateSet{}).Has(StateEnabled) {
		t.Error("empty set has no states")
	}
	if s.Has(State(40)) {
		t.Error("second word is empty")
	}
}

func TestExtentsRect(t *testing.T) {
	got := extents{X: 10, Y: -5, Width: 30, Height: 20}.rect()
	want := vecmath.Rect{Min: vecmath.V(10, -5), Max: vecmath.V(40, 15)}
	if got != want {
		t.Errorf("rect = %+v, want %+v", got, want)
	}
}

func TestSamplePoints(t *testing.T) {
	p := vecmath.V(100, 100)
	pts := samplePoints(p, 140)
	if len(pts) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(pts))
	}
	if pts[0] != p {
		t.Error("first sample should be the centre")
	}
	for _, s := range pts[1:] {
		if d := s.Distance(p); math.Abs(d-70) > 1e-3 {
			t.Errorf("sample %+v at distance %f, want 70", s, d)
		}
	}
	if n := len(samplePoints(p, 0)); n != 1 {
		t.Errorf("zero radius gives %d samples, want 1", n)
	}
}

func TestWindowAt(t *testing.T) {
	ws := []window{
		{ref: ref{Name: ":1.2", Path: "/a"}, frame: vecmath.R(0, 0, 100, 100)},
		{ref: ref{Name: ":1.3", Path: "/b"}, frame: vecmath.R(200, 0, 100, 100)},
	}
	if w, ok := windowAt(ws, vecmath.V(250, 50)); !ok || w.Name != ":1.3" {
		t.Errorf("got %+v, %v", w, ok)
	}
	if _, ok := windowAt(ws, vecmath.V(150, 50)); ok {
		t.Error("point between windows matched")
	}
}

func TestRefIdentity(t *testing.T) {
	r := ref{Name: ":1.9", Path: "/org/a11y/atspi/accessible/12"}
	if r.id() != ":1.9/org/a11y/atspi/accessible/12" {
		t.Errorf("id = %q", r.id())
	}
	if r.null() {
		t.Error("real ref reported null")
	}
	if !(ref{Name: ":1.9", Path: nullPath}).null() {
		t.Error("null path not detected")
	}
}

func TestMenuCacheLookup(t *testing.T) {
	t0 := time.Unix(100, 0)
	cache := menuCache{
		rects:  []vecmath.Rect{vecmath.R(100, 100, 200, 300)},
		origin: vecmath.V(150, 150),
		seen:   t0,
	}

	tests := []struct {
		name            string
		cache           menuCache
		p               vecmath.Vec2
		at              time.Time
		inside, refresh bool
	}{
		{"empty cache", menuCache{}, vecmath.V(150, 150), t0, false, true},
		{"inside cached menu", cache, vecmath.V(250, 350), t0.Add(100 * time.Millisecond), true, false},
		{"near origin outside menu", menuCache{origin: vecmath.V(10, 10), seen: t0}, vecmath.V(14, 10), t0.Add(10 * time.Millisecond), false, false},
		{"moved to another menu", menuCache{origin: vecmath.V(10, 10), seen: t0}, vecmath.V(600, 40), t0.Add(10 * time.Millisecond), false, true},
		{"expired but inside", cache, vecmath.V(150, 150), t0.Add(menuTTL), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inside, refresh := tt.cache.lookup(tt.p, tt.at)
			if inside != tt.inside {
				t.Errorf("inside = %v, want %v", inside, tt.inside)
			}
			if refresh != tt.refresh {
				t.Errorf("refresh = %v, want %v", refresh, tt.refresh)
			}
		})
	}
}

func TestWithinMenuAnswersFromCache(t *testing.T) {
	t0 := time.Unix(100, 0)
	c := &Client{now: func() time.Time { return t0 }}
	c.menus = menuCache{rects: []vecmath.Rect{vecmath.R(0, 0, 50, 50)}, origin: vecmath.V(10, 10), seen: t0}
	// a probe is already running, so none is started here
	c.probing.Store(true)

	if !c.WithinMenu(vecmath.V(20, 20)) {
		t.Error("point inside cached menu reported outside")
	}
	if c.WithinMenu(vecmath.V(400, 400)) {
		t.Error("point outside cached menu reported inside")
	}
}
