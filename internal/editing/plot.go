package editing

import (
	"github.com/guptarohit/asciigraph"
)

// Speeds returns the speed in px/s between consecutive points. Pairs with no
// elapsed time are skipped.
func Speeds(path []PathPoint) []float64 {
	var out []float64
	for i := 1; i < len(path); i++ {
		dt := (path[i].At - path[i-1].At).Seconds()
		if dt <= 0 {
			continue
		}
		out = append(out, path[i].Pos.Distance(path[i-1].Pos)/dt)
	}
	return out
}

// SpeedPlot draws the speed profile of path as an ASCII chart. It returns an
// empty string when there are fewer than two speed samples.
func SpeedPlot(path []PathPoint, height int, caption string) string {
	data := Speeds(path)
	if len(data) < 2 {
		return ""
	}
	if height < 2 {
		height = 10
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}
