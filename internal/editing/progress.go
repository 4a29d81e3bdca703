package editing

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressReporter receives progress in [0,1] from long renders.
type ProgressReporter interface {
	Report(progress float64)
	ReportError(err error)
	ReportComplete()
}

// ProgressBar draws a single-line bar, redrawn at most every 100ms.
type ProgressBar struct {
	out         io.Writer
	total       int
	current     int
	startTime   time.Time
	lastUpdate  time.Time
	description string
}

func NewProgressBar(out io.Writer, description string) *ProgressBar {
	return &ProgressBar{
		out:         out,
		total:       100,
		startTime:   time.Now(),
		description: description,
	}
}

func (p *ProgressBar) Report(progress float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	p.current = int(progress * float64(p.total))

	if time.Since(p.lastUpdate) < 100*time.Millisecond && p.current < p.total {
		return
	}
	p.lastUpdate = time.Now()

	barWidth := 30
	completed := barWidth * p.current / p.total
	bar := strings.Repeat("=", completed) + strings.Repeat("-", barWidth-completed)
	fmt.Fprintf(p.out, "\r%s [%s] %.1f%% Elapsed: %v",
		p.description,
		bar,
		float64(p.current)/float64(p.total)*100,
		time.Since(p.startTime).Round(time.Second),
	)
}

func (p *ProgressBar) ReportError(err error) {
	fmt.Fprintf(p.out, "\nError: %v\n", err)
}

func (p *ProgressBar) ReportComplete() {
	p.Report(1.0)
	fmt.Fprintln(p.out)
}
