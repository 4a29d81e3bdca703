package magnet

import "time"

// Phase tags the engagement state machine.
type Phase uint8

const (
	// PhaseIdle: no pull, free to engage.
	PhaseIdle Phase = iota
	// PhaseEngaged: the cursor is being pulled toward the target.
	PhaseEngaged
	// PhaseDisengaged: released, engagement blocked until the cooldown ends.
	PhaseDisengaged
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEngaged:
		return "engaged"
	case PhaseDisengaged:
		return "disengaged"
	default:
		return "unknown"
	}
}

// State is the engagement state. Distance is only meaningful while engaged
// and Until only while disengaged.
type State struct {
	Phase    Phase
	Distance float64
	Until    time.Time
}

func idle() State { return State{Phase: PhaseIdle} }

func engaged(distance float64) State {
	return State{Phase: PhaseEngaged, Distance: distance}
}

// released returns a cooldown state, or idle when there is nothing to wait for.
func released(now time.Time, cooldown time.Duration) State {
	if cooldown <= 0 {
		return idle()
	}
	return State{Phase: PhaseDisengaged, Until: now.Add(cooldown)}
}

// At expires a finished cooldown.
func (s State) At(now time.Time) State {
	if s.Phase == PhaseDisengaged && !now.Before(s.Until) {
		return idle()
	}
	return s
}

// CoolingDown reports whether engagement is currently blocked.
func (s State) CoolingDown(now time.Time) bool {
	return s.At(now).Phase == PhaseDisengaged
}

// Engaged reports whether the state is engaged.
func (s State) Engaged() bool { return s.Phase == PhaseEngaged }

// measure applies one distance measurement. Idle engages inside the
// activation radius; engaged holds until the wider release radius is
// exceeded, then enters the cooldown.
func (s State) measure(distance float64, cfg Config, now time.Time) State {
	switch s.Phase {
	case PhaseEngaged:
		if distance > cfg.ReleaseRadius {
			return released(now, cfg.ReleaseCooldown)
		}
		return engaged(distance)
	case PhaseIdle:
		if distance <= cfg.ActivationRadius {
			return engaged(distance)
		}
		return s
	default:
		return s
	}
}
