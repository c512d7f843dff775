package ecs

// Registry tracks every component store by name, strips destroyed entities
// from all of them and reports per-store sizes.
type Registry struct {
	names  []string
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		names:  make([]string, 0, 4),
		stores: make([]Removable, 0, 4),
	}
}

// Register adds a component store under name (used in Sizes).
func (r *Registry) Register(name string, store Removable) {
	r.names = append(r.names, name)
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store
// and returns how many stores held a component for it.
func (r *Registry) RemoveAll(id EntityID) int {
	n := 0
	for _, s := range r.stores {
		if s.Remove(id) {
			n++
		}
	}
	return n
}

// Sizes returns the component count of each store keyed by its name.
func (r *Registry) Sizes() map[string]int {
	out := make(map[string]int, len(r.stores))
	for i, s := range r.stores {
		out[r.names[i]] = s.Len()
	}
	return out
}
