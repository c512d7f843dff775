package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed antilag_default.yml
var defaultAntiLagYAML []byte

const (
	DefaultItemLifetime      = 60
	DefaultBroadcastClearLag = true
)

// AntiLag is the UltimateAntiLag plugin configuration (config.yml).
type AntiLag struct {
	ItemLifetime      int  `yaml:"item-lifetime"`      // seconds
	BroadcastClearLag bool `yaml:"broadcast-clearlag"` // announce clearlag to every session
}

func antiLagDefaults() AntiLag {
	return AntiLag{
		ItemLifetime:      DefaultItemLifetime,
		BroadcastClearLag: DefaultBroadcastClearLag,
	}
}

// LoadAntiLag reads the plugin config. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadAntiLag(path string) (AntiLag, error) {
	cfg := antiLagDefaults()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read plugin config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return antiLagDefaults(), fmt.Errorf("parse plugin config %s: %w", path, err)
	}
	// 0 表示下一次清掃即清除；負值同 0
	if cfg.ItemLifetime < 0 {
		cfg.ItemLifetime = 0
	}
	return cfg, nil
}

// SaveDefaultAntiLag writes the bundled config.yml to path unless a file
// already exists there. Reports whether a file was written.
func SaveDefaultAntiLag(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat plugin config %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create plugin config dir: %w", err)
	}
	if err := os.WriteFile(path, defaultAntiLagYAML, 0o644); err != nil {
		return false, fmt.Errorf("write plugin config %s: %w", path, err)
	}
	return true, nil
}
