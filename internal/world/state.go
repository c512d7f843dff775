package world

import (
	"sort"

	"github.com/l1jgo/antilag/internal/core/ecs"
	"github.com/l1jgo/antilag/internal/core/event"
)

// State tracks every entity on every map.
// Single-goroutine access only (game loop).
type State struct {
	ecs *ecs.World
	bus *event.Bus

	transforms *ecs.PtrComponentStore[Transform]
	items      *ecs.PtrComponentStore[GroundItem]
	creatures  *ecs.PtrComponentStore[Creature]
}

func NewState(w *ecs.World, bus *event.Bus) *State {
	s := &State{
		ecs:        w,
		bus:        bus,
		transforms: ecs.NewPtrComponentStore[Transform](),
		items:      ecs.NewPtrComponentStore[GroundItem](),
		creatures:  ecs.NewPtrComponentStore[Creature](),
	}
	reg := w.Registry()
	reg.Register("transform", s.transforms)
	reg.Register("ground_item", s.items)
	reg.Register("creature", s.creatures)
	return s
}

// SpawnGroundItem places an item on the ground and announces it on the bus.
func (s *State) SpawnGroundItem(pos Transform, item GroundItem) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.transforms.Set(id, &pos)
	s.items.Set(id, &item)
	event.Emit(s.bus, event.ItemSpawned{Entity: id, MapID: pos.MapID, ItemID: item.ItemID})
	return id
}

// SpawnCreature places a non-item entity on a map.
func (s *State) SpawnCreature(pos Transform, c Creature) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.transforms.Set(id, &pos)
	s.creatures.Set(id, &c)
	return id
}

// Alive reports whether id still refers to an entity that is not closing.
func (s *State) Alive(id ecs.EntityID) bool {
	return s.ecs.Alive(id)
}

// FlagForDespawn queues id for removal at the end of the tick. Safe to call
// while iterating EachEntity. Returns false if id is stale or already flagged.
func (s *State) FlagForDespawn(id ecs.EntityID) bool {
	return s.ecs.MarkForDestruction(id)
}

// KindOf classifies an entity; stale handles are KindUnknown.
func (s *State) KindOf(id ecs.EntityID) Kind {
	switch {
	case s.items.Has(id):
		return KindGroundItem
	case s.creatures.Has(id):
		return KindCreature
	}
	return KindUnknown
}

// MapIDs returns every map that currently holds at least one entity, ascending.
func (s *State) MapIDs() []int16 {
	seen := make(map[int16]struct{})
	s.transforms.Each(func(_ ecs.EntityID, t *Transform) {
		seen[t.MapID] = struct{}{}
	})
	ids := make([]int16, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EachEntity visits every entity on mapID, closing ones included, until the
// host flushes them.
func (s *State) EachEntity(mapID int16, fn func(ecs.EntityID, Kind)) {
	s.transforms.Each(func(id ecs.EntityID, t *Transform) {
		if t.MapID != mapID {
			return
		}
		fn(id, s.KindOf(id))
	})
}

// GetGroundItem returns the item component of id, or nil.
func (s *State) GetGroundItem(id ecs.EntityID) *GroundItem {
	g, _ := s.items.Get(id)
	return g
}

// GroundItemCount counts ground items on mapID that are not closing.
func (s *State) GroundItemCount(mapID int16) int {
	n := 0
	ecs.Each2(s.transforms, s.items, func(id ecs.EntityID, t *Transform, _ *GroundItem) {
		if t.MapID == mapID && s.ecs.Alive(id) {
			n++
		}
	})
	return n
}

// TotalGroundItems counts live ground items on all maps.
func (s *State) TotalGroundItems() int {
	n := 0
	s.items.Each(func(id ecs.EntityID, _ *GroundItem) {
		if s.ecs.Alive(id) {
			n++
		}
	})
	return n
}

// PickupGroundItem removes an item the way a player pickup does: the entity is
// gone at the end of the tick without going through expiry.
func (s *State) PickupGroundItem(id ecs.EntityID) *GroundItem {
	g, ok := s.items.Get(id)
	if !ok || !s.ecs.Alive(id) {
		return nil
	}
	s.ecs.MarkForDestruction(id)
	return g
}

// GroundItemIDs returns up to limit live ground item handles in no particular order.
func (s *State) GroundItemIDs(limit int) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, limit)
	s.items.Each(func(id ecs.EntityID, _ *GroundItem) {
		if len(ids) < limit && s.ecs.Alive(id) {
			ids = append(ids, id)
		}
	})
	return ids
}
