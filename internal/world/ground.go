package world

// Kind classifies host entities. Only KindGroundItem is subject to expiry.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindGroundItem
	KindCreature
)

func (k Kind) String() string {
	switch k {
	case KindGroundItem:
		return "ground_item"
	case KindCreature:
		return "creature"
	}
	return "unknown"
}

// Transform places an entity on a map.
type Transform struct {
	MapID int16
	X     int32
	Y     int32
}

// GroundItem represents an item lying on the ground that players can see and pick up.
// Not persisted — exists only in memory.
type GroundItem struct {
	ItemID     int32  // template ID
	Count      int32  // stack count
	EnchantLvl byte   // enchant level
	Name       string // display name
	OwnerID    int32  // CharID of dropper (0 = anyone can pick up)
}

// Creature is any non-item entity (monsters, NPCs). Force-clear never touches them.
type Creature struct {
	NpcID int32
	Name  string
}
