package atspi

import "github.com/vedantwpatil/focusglide/internal/vecmath"

// Role is an AT-SPI accessible role.
type Role uint32

const (
	RoleCheckBox        Role = 7
	RoleCheckMenuItem   Role = 8
	RoleComboBox        Role = 11
	RoleListItem        Role = 32
	RoleMenu            Role = 33
	RoleMenuBar         Role = 34
	RoleMenuItem        Role = 35
	RolePageTab         Role = 37
	RolePopupMenu       Role = 41
	RolePushButton      Role = 43
	RoleRadioButton     Role = 44
	RoleRadioMenuItem   Role = 45
	RoleTearoffMenuItem Role = 59
	RoleToggleButton    Role = 62
	RoleLink            Role = 88
)

// State is an AT-SPI state bit index.
type State uint32

const (
	StateEnabled   State = 8
	StateSensitive State = 24
	StateShowing   State = 25
	StateVisible   State = 30
)

// rolePriority ranks roles that make useful targets. Roles not listed are
// never candidates.
var rolePriority = map[Role]int{
	RolePushButton:   3,
	RoleToggleButton: 3,
	RoleComboBox:     2,
	RoleLink:         2,
	RoleCheckBox:     2,
	RoleRadioButton:  2,
	RolePageTab:      1,
	RoleListItem:     1,
}

// Candidate reports whether r is a target role and its priority.
func Candidate(r Role) (priority int, ok bool) {
	priority, ok = rolePriority[r]
	return priority, ok
}

// MenuLike reports whether r belongs to a menu.
func MenuLike(r Role) bool {
	switch r {
	case RoleMenu, RoleMenuBar, RoleMenuItem, RolePopupMenu,
		RoleCheckMenuItem, RoleRadioMenuItem, RoleTearoffMenuItem:
		return true
	}
	return false
}

// StateSet is the two-word bitset returned by Accessible.GetState.
type StateSet []uint32

func (s StateSet) Has(st State) bool {
	word := int(st / 32)
	if word >= len(s) {
		return false
	}
	return s[word]&(1<<(st%32)) != 0
}

// Interactive reports whether the element can currently be used.
func (s StateSet) Interactive() bool {
	return s.Has(StateEnabled) && s.Has(StateSensitive)
}

// OnScreen reports whether the element is being drawn.
func (s StateSet) OnScreen() bool {
	return s.Has(StateShowing) && s.Has(StateVisible)
}

// extents mirrors the (iiii) reply of Component.GetExtents.
type extents struct {
	X, Y, Width, Height int32
}

func (e extents) rect() vecmath.Rect {
	return vecmath.R(float64(e.X), float64(e.Y), float64(e.Width), float64(e.Height))
}

// samplePoints covers the search disc with its centre and eight points on a
// ring at half the radius.
func samplePoints(p vecmath.Vec2, radius float64) []vecmath.Vec2 {
	pts := []vecmath.Vec2{p}
	if radius <= 0 {
		return pts
	}
	r := radius / 2
	d := r * 0.70710678
	for _, off := range []vecmath.Vec2{
		{X: r}, {X: -r}, {Y: r}, {Y: -r},
		{X: d, Y: d}, {X: d, Y: -d}, {X: -d, Y: d}, {X: -d, Y: -d},
	} {
		pts = append(pts, p.Offset(off))
	}
	return pts
}
