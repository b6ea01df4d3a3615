package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the full set of knobs for a running sync engine: which columns
// identify rows and drive conflict resolution, how the two peers are
// reached, and where observable output goes.
type Config struct {
	Sync    SyncConfig    `json:"sync"`
	Log     LogConfig     `json:"log"`
	Database DatabaseConfig `json:"database"`
	Sheet   SheetConfig   `json:"sheet"`
	Control ControlConfig `json:"control"`
}

// SyncConfig controls the orchestrator's own behavior, independent of
// which concrete adapters back the two peers.
type SyncConfig struct {
	PrimaryKeyColumn    string        `json:"primary_key_column"`
	TimestampColumn     string        `json:"timestamp_column"`
	SyncIntervalSeconds int           `json:"sync_interval_seconds"`
	InitialSyncSource   string        `json:"initial_sync_source"` // "db" or "sheet"
}

// Interval returns SyncIntervalSeconds as a time.Duration.
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.SyncIntervalSeconds) * time.Second
}

// LogConfig controls the structured logger's verbosity and output target.
type LogConfig struct {
	Level string `json:"level"` // info/warn/error
	File  string `json:"file"`  // rotated log file path; empty means stderr
}

// DatabaseConfig describes how to reach the database-side peer.
type DatabaseConfig struct {
	Driver string `json:"driver"` // mysql/postgres/sqlite/gorm-mysql
	DSN    string `json:"dsn"`
	Table  string `json:"table"`
}

// SheetConfig describes how to reach the spreadsheet-side peer.
type SheetConfig struct {
	Path string `json:"path"`
	Name string `json:"name"` // worksheet name; empty means first sheet
}

// ControlConfig describes the optional MCP control surface.
type ControlConfig struct {
	ListenAddr string `json:"listen_addr"` // empty disables the control surface
}

// DefaultConfig returns the built-in defaults for every option.
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			PrimaryKeyColumn:    "id",
			TimestampColumn:     "last_modified",
			SyncIntervalSeconds: 5,
			InitialSyncSource:   "db",
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "sheetsql.db",
			Table:  "synced_table",
		},
		Sheet: SheetConfig{
			Path: "sheetsql.xlsx",
			Name: "",
		},
		Control: ControlConfig{
			ListenAddr: "",
		},
	}
}

// LoadConfig reads and validates a JSON config file. An empty path returns
// the defaults untouched.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigOrDefault tries SHEETSQL_CONFIG, then a handful of common
// locations, falling back to DefaultConfig() if none load cleanly.
func LoadConfigOrDefault() *Config {
	possiblePaths := []string{
		"config.json",
		"./config/config.json",
		"/etc/sheetsql-sync/config.json",
	}

	if envPath := os.Getenv("SHEETSQL_CONFIG"); envPath != "" {
		if cfg, err := LoadConfig(envPath); err == nil {
			return cfg
		}
	}

	for _, path := range possiblePaths {
		if absPath, err := filepath.Abs(path); err == nil {
			if cfg, err := LoadConfig(absPath); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// validateConfig rejects configurations the engine could not run with.
func validateConfig(cfg *Config) error {
	if cfg.Sync.PrimaryKeyColumn == "" {
		return fmt.Errorf("primary_key_column must not be empty")
	}
	if cfg.Sync.TimestampColumn == "" {
		return fmt.Errorf("timestamp_column must not be empty")
	}
	if cfg.Sync.SyncIntervalSeconds < 1 {
		return fmt.Errorf("sync_interval_seconds must be at least 1")
	}
	switch cfg.Sync.InitialSyncSource {
	case "db", "sheet":
	default:
		return fmt.Errorf("initial_sync_source must be %q or %q, got %q", "db", "sheet", cfg.Sync.InitialSyncSource)
	}

	switch cfg.Log.Level {
	case "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of info/warn/error, got %q", cfg.Log.Level)
	}

	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite", "gorm-mysql":
	default:
		return fmt.Errorf("database.driver must be one of mysql/postgres/sqlite/gorm-mysql, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Table == "" {
		return fmt.Errorf("database.table must not be empty")
	}

	if cfg.Sheet.Path == "" {
		return fmt.Errorf("sheet.path must not be empty")
	}

	return nil
}
