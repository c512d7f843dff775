package antilag

import "github.com/l1jgo/antilag/internal/core/ecs"

// TrackedItem is one observed ground item awaiting expiry.
type TrackedItem struct {
	Entity    ecs.EntityID // non-owning; re-validated against the host on every sweep
	SpawnTime int64        // unix seconds at registration
	Lifetime  int64        // seconds, captured from config at registration
}

// Expired reports whether the item has reached its lifetime at now.
func (t TrackedItem) Expired(now int64) bool {
	return now-t.SpawnTime >= t.Lifetime
}

// Registry maps entity handles to tracked items.
// Single-goroutine access only (game loop).
type Registry struct {
	items map[ecs.EntityID]TrackedItem
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[ecs.EntityID]TrackedItem, 256)}
}

// Put inserts or overwrites the entry for item.Entity.
func (r *Registry) Put(item TrackedItem) {
	r.items[item.Entity] = item
}

func (r *Registry) Get(id ecs.EntityID) (TrackedItem, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Delete removes ids; unknown ids are ignored.
func (r *Registry) Delete(ids ...ecs.EntityID) {
	for _, id := range ids {
		delete(r.items, id)
	}
}

// Each visits every entry. fn must not mutate the registry.
func (r *Registry) Each(fn func(TrackedItem)) {
	for _, it := range r.items {
		fn(it)
	}
}

func (r *Registry) Len() int { return len(r.items) }

// Reset drops every entry.
func (r *Registry) Reset() { clear(r.items) }
