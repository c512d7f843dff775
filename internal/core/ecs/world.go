package ecs

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred destruction queue flushed by CleanupSystem each tick.
//
// An entity marked for destruction stays allocated until the flush but is
// reported as closing, so callers iterating component stores can flag entities
// without invalidating the iteration.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
	closing      map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
		closing:      make(map[EntityID]struct{}, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

// Alive reports whether id is allocated and not queued for destruction.
func (w *World) Alive(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	_, queued := w.closing[id]
	return !queued
}

// Closing reports whether id is queued for destruction at the end of this tick.
func (w *World) Closing(id EntityID) bool {
	_, ok := w.closing[id]
	return ok
}

// MarkForDestruction queues an entity for end-of-tick cleanup. It returns
// false for stale handles and for entities that are already queued.
func (w *World) MarkForDestruction(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	if _, ok := w.closing[id]; ok {
		return false
	}
	w.closing[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
	return true
}

// Pending returns the number of entities waiting for the next flush.
func (w *World) Pending() int { return len(w.destroyQueue) }

// FlushDestroyQueue destroys all queued entities and clears their components.
// Called by CleanupSystem at the end of each tick. Returns how many were destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		w.registry.RemoveAll(id)
		if w.pool.Destroy(id) {
			n++
		}
		delete(w.closing, id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
