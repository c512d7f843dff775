package event

import "github.com/l1jgo/antilag/internal/core/ecs"

// ItemSpawned fires when a ground item entity enters any map.
type ItemSpawned struct {
	Entity ecs.EntityID
	MapID  int16
	ItemID int32
}

// GroundCleared fires after an operator force-clear.
type GroundCleared struct {
	Operator  string
	Removed   int
	Broadcast bool
}
