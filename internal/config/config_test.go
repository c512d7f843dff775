package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoad_OverridesDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "server.toml", `
[server]
name = "測試伺服器"

[network]
tick_rate = "100ms"

[console]
charset = "Big5"

[plugin]
auto_reload = false
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "測試伺服器" {
		t.Errorf("Server.Name = %q", cfg.Server.Name)
	}
	if cfg.Network.TickRate != 100*time.Millisecond {
		t.Errorf("TickRate = %v", cfg.Network.TickRate)
	}
	if cfg.Console.Charset != "Big5" {
		t.Errorf("Charset = %q", cfg.Console.Charset)
	}
	if cfg.Plugin.AutoReload {
		t.Error("AutoReload should be overridden to false")
	}
	// untouched sections keep defaults
	if cfg.Console.BindAddress != "127.0.0.1:7002" {
		t.Errorf("BindAddress = %q", cfg.Console.BindAddress)
	}
	if cfg.Plugin.ConfigPath != "plugins/UltimateAntiLag/config.yml" {
		t.Errorf("ConfigPath = %q", cfg.Plugin.ConfigPath)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("StartTime not stamped")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
	bad := writeFile(t, dir, "bad.toml", "[server\nname=")
	if _, err := Load(bad); err == nil {
		t.Error("malformed toml should fail")
	}
	zero := writeFile(t, dir, "zero.toml", "[network]\ntick_rate = \"0s\"\n")
	if _, err := Load(zero); err == nil {
		t.Error("zero tick rate should fail")
	}
}

func TestLoadAntiLag(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		body     string // empty = no file
		wantLife int
		wantBC   bool
		wantErr  bool
	}{
		{name: "missing file", wantLife: 60, wantBC: true},
		{name: "both keys", body: "item-lifetime: 120\nbroadcast-clearlag: false\n", wantLife: 120, wantBC: false},
		{name: "lifetime only", body: "item-lifetime: 30\n", wantLife: 30, wantBC: true},
		{name: "zero lifetime kept", body: "item-lifetime: 0\n", wantLife: 0, wantBC: true},
		{name: "negative lifetime clamps to zero", body: "item-lifetime: -5\n", wantLife: 0, wantBC: true},
		{name: "malformed", body: "item-lifetime: [\n", wantLife: 60, wantBC: true, wantErr: true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, "cfg", tt.name+".yml")
			if tt.body != "" {
				if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
					t.Fatal(err)
				}
				writeFile(t, filepath.Dir(p), filepath.Base(p), tt.body)
			}
			cfg, err := LoadAntiLag(p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("case %d: err = %v, wantErr %v", i, err, tt.wantErr)
			}
			if cfg.ItemLifetime != tt.wantLife || cfg.BroadcastClearLag != tt.wantBC {
				t.Errorf("got %+v", cfg)
			}
		})
	}
}

func TestSaveDefaultAntiLag(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plugins", "UltimateAntiLag", "config.yml")

	wrote, err := SaveDefaultAntiLag(p)
	if err != nil || !wrote {
		t.Fatalf("first save: wrote=%v err=%v", wrote, err)
	}
	cfg, err := LoadAntiLag(p)
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if cfg.ItemLifetime != DefaultItemLifetime || cfg.BroadcastClearLag != DefaultBroadcastClearLag {
		t.Errorf("bundled default = %+v", cfg)
	}

	if err := os.WriteFile(p, []byte("item-lifetime: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wrote, err = SaveDefaultAntiLag(p)
	if err != nil || wrote {
		t.Fatalf("second save should keep the operator's file: wrote=%v err=%v", wrote, err)
	}
	cfg, _ = LoadAntiLag(p)
	if cfg.ItemLifetime != 5 {
		t.Errorf("operator file overwritten, lifetime = %d", cfg.ItemLifetime)
	}
}
