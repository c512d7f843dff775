package system

// spawner.go — 由 Lua 腳本規劃的地面物品掉落與玩家撿取模擬。

import (
	"time"

	coresys "github.com/l1jgo/antilag/internal/core/system"
	"github.com/l1jgo/antilag/internal/data"
	"github.com/l1jgo/antilag/internal/scripting"
	"github.com/l1jgo/antilag/internal/world"
	"go.uber.org/zap"
)

// DropPlanner 決定每 tick 地面上出現與消失的物品。
type DropPlanner interface {
	PlanDrops(ctx scripting.WorldContext) []scripting.DropSpec
	PlanPickups(ctx scripting.WorldContext) int
}

// SpawnerSystem 依腳本生成地面物品並模擬玩家撿取。
// Phase 2 (Update).
type SpawnerSystem struct {
	planner DropPlanner
	world   *world.State
	items   *data.ItemTable // nil = 不檢查物品模板
	log     *zap.Logger
	tick    uint64
}

func NewSpawnerSystem(planner DropPlanner, ws *world.State, items *data.ItemTable, log *zap.Logger) *SpawnerSystem {
	return &SpawnerSystem{planner: planner, world: ws, items: items, log: log}
}

func (s *SpawnerSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpawnerSystem) Update(_ time.Duration) {
	s.tick++
	ctx := scripting.WorldContext{
		Tick:        s.tick,
		GroundItems: s.world.TotalGroundItems(),
		MapIDs:      s.world.MapIDs(),
	}

	// 撿取先於掉落，同一 tick 生成的物品不會立刻被撿走
	if n := s.planner.PlanPickups(ctx); n > 0 {
		picked := 0
		for _, id := range s.world.GroundItemIDs(n) {
			if s.world.PickupGroundItem(id) != nil {
				picked++
			}
		}
		if picked > 0 {
			s.log.Debug("模擬撿取", zap.Int("count", picked))
		}
	}

	for _, d := range s.planner.PlanDrops(ctx) {
		if s.items != nil {
			var ok bool
			d.Name, d.Count, ok = s.items.Normalize(d.ItemID, d.Name, d.Count)
			if !ok {
				s.log.Warn("腳本掉落未知物品", zap.Int32("item_id", d.ItemID))
				continue
			}
		}
		s.world.SpawnGroundItem(
			world.Transform{MapID: d.MapID, X: d.X, Y: d.Y},
			world.GroundItem{ItemID: d.ItemID, Count: d.Count, Name: d.Name},
		)
	}
}
