package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemInfo is the part of an item template the ground cleanup host needs.
type ItemInfo struct {
	ItemID    int32  `yaml:"item_id"`
	Name      string `yaml:"name"`
	Stackable bool   `yaml:"stackable"`
	MaxCount  int32  `yaml:"max_count"` // 0 = no cap
}

type itemListFile struct {
	Items []ItemInfo `yaml:"items"`
}

// ItemTable holds item templates indexed by item ID.
type ItemTable struct {
	items map[int32]*ItemInfo
}

// Get returns the template for itemID, or nil if unknown.
func (t *ItemTable) Get(itemID int32) *ItemInfo {
	return t.items[itemID]
}

// Count returns the number of templates loaded.
func (t *ItemTable) Count() int {
	return len(t.items)
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item list: %w", err)
	}
	t := &ItemTable{items: make(map[int32]*ItemInfo, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		if it.ItemID <= 0 {
			return nil, fmt.Errorf("parse item list: entry %d has no item_id", i)
		}
		t.items[it.ItemID] = it
	}
	return t, nil
}

// Normalize fills the display name and clamps count for an item about to be
// dropped. ok is false when the template is unknown.
func (t *ItemTable) Normalize(itemID int32, name string, count int32) (string, int32, bool) {
	it := t.items[itemID]
	if it == nil {
		return name, count, false
	}
	if name == "" {
		name = it.Name
	}
	if !it.Stackable {
		count = 1
	} else if it.MaxCount > 0 && count > it.MaxCount {
		count = it.MaxCount
	}
	return name, count, true
}
