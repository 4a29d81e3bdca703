package editing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/recording"
	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

func TestSpeeds(t *testing.T) {
	path := []PathPoint{
		{At: 0, Pos: vecmath.V(0, 0)},
		{At: 100 * time.Millisecond, Pos: vecmath.V(30, 40)},
		{At: 100 * time.Millisecond, Pos: vecmath.V(60, 80)},
		{At: 200 * time.Millisecond, Pos: vecmath.V(60, 80)},
	}
	got := Speeds(path)
	want := []float64{500, 0}
	if len(got) != len(want) {
		t.Fatalf("speeds = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("speeds[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSpeedPlot(t *testing.T) {
	var path []PathPoint
	for i := 0; i < 20; i++ {
		path = append(path, PathPoint{At: time.Duration(i) * 10 * time.Millisecond, Pos: vecmath.V(float64(i*i), 0)})
	}
	out := SpeedPlot(path, 6, "glide speed")
	if out == "" {
		t.Fatal("expected a plot")
	}
	if !strings.Contains(out, "glide speed") {
		t.Error("caption missing")
	}
	if SpeedPlot(path[:2], 6, "") != "" {
		t.Error("a single speed sample should not plot")
	}
}

func TestFrameSize(t *testing.T) {
	tests := []struct {
		bounds vecmath.Rect
		width  int
		w, h   int
	}{
		{vecmath.R(0, 0, 1920, 1080), 640, 640, 360},
		{vecmath.R(0, 0, 1000, 1000), 301, 300, 300},
		{vecmath.R(0, 0, 3840, 1080), 0, 640, 180},
		{vecmath.Rect{}, 640, 640, 360},
	}
	for _, tt := range tests {
		w, h := frameSize(tt.bounds, tt.width)
		if w != tt.w || h != tt.h {
			t.Errorf("frameSize(%+v, %d) = %dx%d, want %dx%d", tt.bounds, tt.width, w, h, tt.w, tt.h)
		}
	}
}

func TestProjector(t *testing.T) {
	proj := projector(vecmath.R(-100, 0, 200, 100), 100)
	if got := proj(vecmath.V(0, 50)); got != (image.Point{X: 50, Y: 25}) {
		t.Errorf("projected %v", got)
	}
}

func TestDrawSegmentHitsEndpoints(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	c := speedColor(1)
	drawSegment(img, image.Point{X: 1, Y: 2}, image.Point{X: 15, Y: 9}, c)
	if img.RGBAAt(1, 2) != c || img.RGBAAt(15, 9) != c {
		t.Error("segment endpoints not drawn")
	}
	// off-canvas points are clipped rather than panicking
	drawSegment(img, image.Point{X: -5, Y: -5}, image.Point{X: 30, Y: 30}, c)
}

func TestSpeedColorEnds(t *testing.T) {
	slow, fast := speedColor(0), speedColor(1)
	if slow.B <= slow.R {
		t.Errorf("slow colour %v should be blue", slow)
	}
	if fast.R <= fast.B {
		t.Errorf("fast colour %v should be red", fast)
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, "rendering")
	bar.Report(0.5)
	bar.ReportComplete()
	out := buf.String()
	if !strings.Contains(out, "rendering") || !strings.Contains(out, "100.0%") {
		t.Errorf("unexpected output %q", out)
	}
	bar.ReportError(errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Error("error not reported")
	}
}

func TestReplayProducesSmoothedPath(t *testing.T) {
	trace := &recording.Trace{
		Origin: vecmath.V(100, 100),
		Bounds: vecmath.R(0, 0, 1000, 800),
	}
	for i := 0; i < 5; i++ {
		trace.Samples = append(trace.Samples, recording.Sample{
			Offset: time.Duration(i) * 8 * time.Millisecond,
			Kind:   motion.EventMove,
			Delta:  vecmath.V(10, 0),
		})
	}

	res, err := Replay(context.Background(), trace, motion.DefaultConfig(), ReplayOptions{Tail: 150 * time.Millisecond})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(res.Raw) != 6 {
		t.Fatalf("raw path has %d points, want 6", len(res.Raw))
	}
	if last := res.Raw[len(res.Raw)-1].Pos; last != vecmath.V(150, 100) {
		t.Errorf("raw end = %+v, want (150,100)", last)
	}
	if len(res.Smoothed) == 0 {
		t.Fatal("engine never warped")
	}
	if end := res.Smoothed[len(res.Smoothed)-1].Pos; end.X <= 100 {
		t.Errorf("smoothed path did not advance: %+v", end)
	}
	if res.Stats.InputsAccepted == 0 {
		t.Error("no inputs accepted")
	}
}

func TestReplayRejectsEmptyTrace(t *testing.T) {
	_, err := Replay(context.Background(), &recording.Trace{}, motion.DefaultConfig(), ReplayOptions{})
	if !errors.Is(err, recording.ErrEmptyTrace) {
		t.Errorf("expected ErrEmptyTrace, got %v", err)
	}
}
