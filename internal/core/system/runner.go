package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick.
// Systems within the same phase keep their registration order.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Unregister removes s. It reports whether s was registered.
func (r *Runner) Unregister(s System) bool {
	for i, cur := range r.systems {
		if cur == s {
			r.systems = append(r.systems[:i], r.systems[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered systems.
func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	// Update may unregister systems (plugin disable), so walk a snapshot.
	snapshot := append([]System(nil), r.systems...)
	for _, s := range snapshot {
		s.Update(dt)
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
