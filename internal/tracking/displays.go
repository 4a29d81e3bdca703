package tracking

import (
	"image"

	"github.com/kbinani/screenshot"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// Displays reports the union of all active displays. The layout is re-read on
// every call so hot-plugged monitors take effect on the next event.
type Displays struct {
	count  func() int
	bounds func(int) image.Rectangle
}

func NewDisplays() *Displays {
	return &Displays{
		count:  screenshot.NumActiveDisplays,
		bounds: screenshot.GetDisplayBounds,
	}
}

func (d *Displays) Bounds() vecmath.Rect {
	var union vecmath.Rect
	for i := 0; i < d.count(); i++ {
		union = union.Union(fromImage(d.bounds(i)))
	}
	return union
}

func fromImage(r image.Rectangle) vecmath.Rect {
	return vecmath.Rect{
		Min: vecmath.V(float64(r.Min.X), float64(r.Min.Y)),
		Max: vecmath.V(float64(r.Max.X), float64(r.Max.Y)),
	}
}
