package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain console sessions
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: world simulation (scripted drops)
	PhasePostUpdate              // 3: expiry sweep
	PhaseOutput                  // 4: flush session output
	PhasePersist                 // 5: reserved
	PhaseCleanup                 // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "output", "persist", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
