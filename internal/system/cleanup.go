package system

import (
	"time"

	"github.com/l1jgo/antilag/internal/core/ecs"
	coresys "github.com/l1jgo/antilag/internal/core/system"
	"go.uber.org/zap"
)

// CleanupSystem 於 tick 結尾執行延遲銷毀：過期清除、clearlag 與撿取標記的實體
// 都在此真正移除。
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world     *ecs.World
	log       *zap.Logger
	destroyed uint64
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	n := s.world.FlushDestroyQueue()
	if n == 0 {
		return
	}
	s.destroyed += uint64(n)
	s.log.Debug("銷毀實體",
		zap.Int("count", n),
		zap.Any("stores", s.world.Registry().Sizes()),
	)
}

// Destroyed 回傳啟動以來累計銷毀的實體數。
func (s *CleanupSystem) Destroyed() uint64 { return s.destroyed }
