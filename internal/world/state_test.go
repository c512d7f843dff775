package world

import (
	"testing"

	"github.com/l1jgo/antilag/internal/core/ecs"
	"github.com/l1jgo/antilag/internal/core/event"
)

func newTestState() (*State, *ecs.World, *event.Bus) {
	w := ecs.NewWorld()
	bus := event.NewBus()
	return NewState(w, bus), w, bus
}

func TestState_SpawnGroundItemEmitsEvent(t *testing.T) {
	s, _, bus := newTestState()
	var got []event.ItemSpawned
	event.Subscribe(bus, func(ev event.ItemSpawned) { got = append(got, ev) })

	id := s.SpawnGroundItem(Transform{MapID: 4, X: 32800, Y: 32800}, GroundItem{ItemID: 40308, Count: 100, Name: "金幣"})
	bus.SwapBuffers()
	bus.DispatchAll()

	if len(got) != 1 || got[0].Entity != id || got[0].MapID != 4 || got[0].ItemID != 40308 {
		t.Fatalf("got %+v", got)
	}
	if s.KindOf(id) != KindGroundItem {
		t.Errorf("KindOf = %v", s.KindOf(id))
	}
	if g := s.GetGroundItem(id); g == nil || g.Count != 100 {
		t.Errorf("GetGroundItem = %+v", g)
	}
}

func TestState_FlagForDespawnIsDeferred(t *testing.T) {
	s, w, _ := newTestState()
	item := s.SpawnGroundItem(Transform{MapID: 0}, GroundItem{ItemID: 1})
	mob := s.SpawnCreature(Transform{MapID: 0}, Creature{NpcID: 45000, Name: "哥布林"})

	visited := 0
	s.EachEntity(0, func(id ecs.EntityID, k Kind) {
		visited++
		if k == KindGroundItem {
			if !s.FlagForDespawn(id) {
				t.Errorf("flag %d failed", id)
			}
		}
	})
	if visited != 2 {
		t.Fatalf("visited %d, want 2", visited)
	}
	if s.Alive(item) {
		t.Error("flagged item should not be alive")
	}
	if s.FlagForDespawn(item) {
		t.Error("second flag should be rejected")
	}
	if s.GroundItemCount(0) != 0 {
		t.Errorf("GroundItemCount = %d, want 0", s.GroundItemCount(0))
	}

	w.FlushDestroyQueue()
	if s.KindOf(item) != KindUnknown {
		t.Error("flushed item still has components")
	}
	if !s.Alive(mob) {
		t.Error("creature should survive")
	}
}

func TestState_MapIDsSorted(t *testing.T) {
	s, _, _ := newTestState()
	s.SpawnGroundItem(Transform{MapID: 304}, GroundItem{ItemID: 1})
	s.SpawnCreature(Transform{MapID: 4}, Creature{})
	s.SpawnGroundItem(Transform{MapID: 4}, GroundItem{ItemID: 2})
	s.SpawnGroundItem(Transform{MapID: 0}, GroundItem{ItemID: 3})

	ids := s.MapIDs()
	want := []int16{0, 4, 304}
	if len(ids) != len(want) {
		t.Fatalf("MapIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("MapIDs = %v, want %v", ids, want)
		}
	}
	if s.TotalGroundItems() != 3 {
		t.Errorf("TotalGroundItems = %d, want 3", s.TotalGroundItems())
	}
}

func TestState_PickupGroundItem(t *testing.T) {
	s, _, _ := newTestState()
	id := s.SpawnGroundItem(Transform{}, GroundItem{ItemID: 7, Count: 2})
	if g := s.PickupGroundItem(id); g == nil || g.ItemID != 7 {
		t.Fatalf("PickupGroundItem = %+v", g)
	}
	if s.PickupGroundItem(id) != nil {
		t.Error("second pickup should fail")
	}
}
