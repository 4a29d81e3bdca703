package tracker

import (
	"math"

	"github.com/vedantwpatil/focusglide/internal/vecmath"
)

// Score weights.
const (
	insideWeight   = 2.2
	edgeWeight     = 1.6
	centerWeight   = 0.5
	headingWeight  = 0.7
	priorityWeight = 0.15
	stickyWeight   = 0.10

	// minDistance floors the reciprocal terms.
	minDistance = 1.0
)

// Score rates how good a target e is for a cursor at pos moving along
// heading. sticky marks the previously chosen element.
func Score(e Element, pos, heading vecmath.Vec2, sticky bool) float64 {
	center := e.Frame.Center()

	inside := 0.0
	if e.Frame.Contains(pos) {
		inside = 1
	}
	edge := math.Max(e.Frame.DistanceTo(pos), minDistance)
	centerDist := math.Max(pos.Distance(center), minDistance)

	toward := center.Sub(pos).Normalize()
	alignment := math.Max(0, heading.Normalize().Dot(toward))

	bonus := 0.0
	if sticky {
		bonus = 1
	}

	return insideWeight*inside +
		edgeWeight/edge +
		centerWeight/centerDist +
		headingWeight*alignment +
		priorityWeight*float64(e.Priority) +
		stickyWeight*bonus
}

// choose picks the best enabled candidate, then applies the retention rule:
// a previously chosen element that is still present and within the retention
// radius is kept unless the challenger has strictly higher priority or is
// closer by more than the switch margin.
func choose(candidates []Element, q Query, last string, cfg Config) (Element, bool) {
	var (
		best      Element
		bestScore = math.Inf(-1)
		found     bool
		prev      Element
		havePrev  bool
	)
	for _, c := range candidates {
		if !c.Enabled {
			continue
		}
		sticky := last != "" && c.ID == last
		if sticky {
			prev, havePrev = c, true
		}
		s := Score(c, q.Position, q.Heading, sticky)
		if s > bestScore {
			best, bestScore, found = c, s, true
		}
	}
	if !found {
		return Element{}, false
	}
	if !havePrev || best.ID == prev.ID {
		return best, true
	}

	prevDist := prev.Frame.DistanceTo(q.Position)
	if prevDist > cfg.RetentionRadius {
		return best, true
	}
	bestDist := best.Frame.DistanceTo(q.Position)
	if best.Priority > prev.Priority || bestDist < prevDist-cfg.SwitchMargin {
		return best, true
	}
	return prev, true
}

// dedupe keeps the first sighting of every ID.
func dedupe(in []Element) []Element {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, e := range in {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
