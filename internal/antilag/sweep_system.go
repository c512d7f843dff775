package antilag

import (
	"time"

	coresys "github.com/l1jgo/antilag/internal/core/system"
)

// SweepSystem runs Plugin.Sweep once per SweepInterval of accumulated tick
// time. Phase 3 (PostUpdate), so despawns land in this tick's cleanup.
type SweepSystem struct {
	plugin  *Plugin
	elapsed time.Duration
}

func NewSweepSystem(p *Plugin) *SweepSystem {
	return &SweepSystem{plugin: p}
}

func (s *SweepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SweepSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < SweepInterval {
		return
	}
	// a stalled loop catches up with one sweep, not a burst
	s.elapsed %= SweepInterval
	s.plugin.Sweep()
}
