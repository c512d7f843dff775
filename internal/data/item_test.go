package data

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleItems = `items:
  - item_id: 40308
    name: 金幣
    stackable: true
    max_count: 2000000000
  - item_id: 40010
    name: 治癒藥水
    stackable: true
    max_count: 100
  - item_id: 20011
    name: 抗魔法頭盔
`

func writeItems(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadItemTable(t *testing.T) {
	tbl, err := LoadItemTable(writeItems(t, sampleItems))
	if err != nil {
		t.Fatalf("LoadItemTable: %v", err)
	}
	if tbl.Count() != 3 {
		t.Fatalf("Count = %d, want 3", tbl.Count())
	}
	if it := tbl.Get(40308); it == nil || it.Name != "金幣" || !it.Stackable {
		t.Fatalf("Get(40308) = %+v", it)
	}
	if tbl.Get(1) != nil {
		t.Fatal("unknown item should be nil")
	}
}

func TestLoadItemTable_Errors(t *testing.T) {
	if _, err := LoadItemTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := LoadItemTable(writeItems(t, "items: [")); err == nil {
		t.Error("malformed yaml should fail")
	}
	if _, err := LoadItemTable(writeItems(t, "items:\n  - name: nothing\n")); err == nil {
		t.Error("entry without item_id should fail")
	}
}

func TestItemTable_Normalize(t *testing.T) {
	tbl, err := LoadItemTable(writeItems(t, sampleItems))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		itemID    int32
		inName    string
		inCount   int32
		wantName  string
		wantCount int32
		wantOK    bool
	}{
		{"fills name", 40010, "", 5, "治癒藥水", 5, true},
		{"keeps script name", 40010, "紅水", 5, "紅水", 5, true},
		{"clamps stack", 40010, "", 500, "治癒藥水", 100, true},
		{"non-stackable forced to one", 20011, "", 3, "抗魔法頭盔", 1, true},
		{"unknown", 99999, "x", 2, "x", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, count, ok := tbl.Normalize(tt.itemID, tt.inName, tt.inCount)
			if name != tt.wantName || count != tt.wantCount || ok != tt.wantOK {
				t.Errorf("Normalize = (%q, %d, %v), want (%q, %d, %v)",
					name, count, ok, tt.wantName, tt.wantCount, tt.wantOK)
			}
		})
	}
}
