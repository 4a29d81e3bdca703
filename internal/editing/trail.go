package editing

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

var (
	background = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	rawColor   = color.RGBA{R: 110, G: 110, B: 120, A: 255}
	cursorDot  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

type TrailOptions struct {
	FPS      float64
	Width    int
	Progress ProgressReporter
}

// RenderTrail writes a video of the raw path in grey and the smoothed path
// coloured by speed, slow blue to fast red.
func RenderTrail(path string, res *ReplayResult, opts TrailOptions) error {
	if len(res.Smoothed) == 0 && len(res.Raw) < 2 {
		return errors.New("editing: nothing to render")
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}
	w, h := frameSize(res.Bounds, opts.Width)
	proj := projector(res.Bounds, w)

	writer, err := vidio.NewVideoWriter(path, w, h, &vidio.Options{FPS: fps})
	if err != nil {
		return fmt.Errorf("editing: open video writer %s: %w", path, err)
	}
	defer writer.Close()

	colors := trailColors(res.Smoothed)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)
	frame := image.NewRGBA(canvas.Bounds())

	frames := int(res.Duration().Seconds()*fps) + 1
	var ri, si int
	for f := 0; f < frames; f++ {
		at := secondsToDuration(float64(f) / fps)

		for ri+1 < len(res.Raw) && res.Raw[ri+1].At <= at {
			drawSegment(canvas, proj(res.Raw[ri].Pos), proj(res.Raw[ri+1].Pos), rawColor)
			ri++
		}
		for si+1 < len(res.Smoothed) && res.Smoothed[si+1].At <= at {
			drawSegment(canvas, proj(res.Smoothed[si].Pos), proj(res.Smoothed[si+1].Pos), colors[si+1])
			si++
		}

		copy(frame.Pix, canvas.Pix)
		if len(res.Raw) > 0 {
			drawDot(frame, proj(res.Raw[ri].Pos), 2, rawColor)
		}
		if len(res.Smoothed) > 0 {
			drawDot(frame, proj(res.Smoothed[si].Pos), 3, cursorDot)
		}
		if err := writer.Write(frame.Pix); err != nil {
			if opts.Progress != nil {
				opts.Progress.ReportError(err)
			}
			return fmt.Errorf("editing: write frame %d: %w", f, err)
		}
		if opts.Progress != nil {
			opts.Progress.Report(float64(f+1) / float64(frames))
		}
	}
	if opts.Progress != nil {
		opts.Progress.ReportComplete()
	}
	return nil
}

// frameSize scales bounds to width, keeping the aspect ratio. Both sides are
// even, which most encoders require.
func frameSize(bounds vecmath.Rect, width int) (int, int) {
	if width <= 0 {
		width = 640
	}
	width &^= 1
	if width < 2 {
		width = 2
	}
	if bounds.Empty() {
		return width, (width * 9 / 16) &^ 1
	}
	h := int(math.Round(float64(width) * bounds.Height() / bounds.Width()))
	h &^= 1
	if h < 2 {
		h = 2
	}
	return width, h
}

func projector(bounds vecmath.Rect, width int) func(vecmath.Vec2) image.Point {
	if bounds.Empty() {
		bounds = defaultBounds
	}
	scale := float64(width) / bounds.Width()
	return func(p vecmath.Vec2) image.Point {
		return image.Point{
			X: int(math.Round((p.X - bounds.Min.X) * scale)),
			Y: int(math.Round((p.Y - bounds.Min.Y) * scale)),
		}
	}
}

// trailColors assigns each smoothed point a colour by its speed relative to
// the fastest segment.
func trailColors(path []PathPoint) []color.RGBA {
	out := make([]color.RGBA, len(path))
	speeds := make([]float64, len(path))
	peak := 0.0
	for i := 1; i < len(path); i++ {
		dt := (path[i].At - path[i-1].At).Seconds()
		if dt > 0 {
			speeds[i] = path[i].Pos.Distance(path[i-1].Pos) / dt
		}
		peak = math.Max(peak, speeds[i])
	}
	for i := range path {
		t := 0.0
		if peak > 0 {
			t = speeds[i] / peak
		}
		out[i] = speedColor(t)
	}
	return out
}

// speedColor maps t in [0,1] from blue to red.
func speedColor(t float64) color.RGBA {
	t = vecmath.Clamp(t, 0, 1)
	r, g, b := colorful.Hsv(240*(1-t), 0.85, 1).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawSegment plots a straight line with one pixel per step along the longer axis.
func drawSegment(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		setPixel(img, a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := a.X + int(math.Round(float64(dx*i)/float64(steps)))
		y := a.Y + int(math.Round(float64(dy*i)/float64(steps)))
		setPixel(img, x, y, c)
	}
}

func drawDot(img *image.RGBA, p image.Point, r int, c color.RGBA) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				setPixel(img, p.X+x, p.Y+y, c)
			}
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Rect) {
		img.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
