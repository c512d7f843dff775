package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Network   NetworkConfig   `toml:"network"`
	Console   ConsoleConfig   `toml:"console"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Plugin    PluginConfig    `toml:"plugin"`
	Scripting ScriptingConfig `toml:"scripting"`
	Audit     AuditConfig     `toml:"audit"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

// ConsoleConfig configures the operator console listener.
type ConsoleConfig struct {
	Enabled         bool   `toml:"enabled"`
	BindAddress     string `toml:"bind_address"`
	MaxSessions     int    `toml:"max_sessions"`
	Charset         string `toml:"charset"` // IANA name, e.g. "UTF-8", "Big5", "ISO-8859-1"
	InQueueSize     int    `toml:"in_queue_size"`
	OutQueueSize    int    `toml:"out_queue_size"`
	MaxLinesPerTick int    `toml:"max_lines_per_tick"`
	OperatorsFile   string `toml:"operators_file"`
}

// DatabaseConfig — empty DSN disables the audit table.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// PluginConfig locates the UltimateAntiLag config file.
type PluginConfig struct {
	ConfigPath string `toml:"config_path"`
	AutoReload bool   `toml:"auto_reload"`
}

type ScriptingConfig struct {
	Enabled   bool   `toml:"enabled"`
	Dir       string `toml:"dir"`
	ItemsFile string `toml:"items_file"` // empty = accept any item id
}

// AuditConfig — empty Dir disables the compressed audit files.
type AuditConfig struct {
	Dir        string `toml:"dir"`
	BufferSize int    `toml:"buffer_size"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Network.TickRate <= 0 {
		return nil, fmt.Errorf("parse config %s: network.tick_rate must be positive", path)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "L1JGO-AntiLag",
			ID:   1,
		},
		Network: NetworkConfig{
			TickRate: 200 * time.Millisecond,
		},
		Console: ConsoleConfig{
			Enabled:         true,
			BindAddress:     "127.0.0.1:7002",
			MaxSessions:     4,
			Charset:         "UTF-8",
			InQueueSize:     32,
			OutQueueSize:    128,
			MaxLinesPerTick: 8,
			OperatorsFile:   "config/operators.yaml",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Plugin: PluginConfig{
			ConfigPath: "plugins/UltimateAntiLag/config.yml",
			AutoReload: true,
		},
		Scripting: ScriptingConfig{
			Enabled:   true,
			Dir:       "scripts",
			ItemsFile: "data/items.yaml",
		},
		Audit: AuditConfig{
			Dir:        "logs/audit",
			BufferSize: 64,
		},
	}
}
