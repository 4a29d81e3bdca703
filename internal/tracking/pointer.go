package tracking

import (
	"math"

	"github.com/go-vgo/robotgo"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// Warper is told about every programmatic pointer move.
type Warper interface {
	NoteWarp(p vecmath.Vec2)
}

// Pointer reads and moves the system pointer through robotgo.
type Pointer struct {
	hook     Warper
	location func() (int, int)
	move     func(x, y int)
}

// NewPointer returns a Pointer that reports its warps to hook, which may be nil.
func NewPointer(hook Warper) *Pointer {
	return &Pointer{
		hook:     hook,
		location: robotgo.Location,
		move:     func(x, y int) { robotgo.Move(x, y) },
	}
}

func (p *Pointer) Position() vecmath.Vec2 {
	x, y := p.location()
	return vecmath.V(float64(x), float64(y))
}

// WarpTo moves the pointer to the nearest pixel.
func (p *Pointer) WarpTo(v vecmath.Vec2) {
	if !v.IsFinite() {
		return
	}
	px := vecmath.V(math.Round(v.X), math.Round(v.Y))
	if p.hook != nil {
		p.hook.NoteWarp(px)
	}
	p.move(int(px.X), int(px.Y))
}
