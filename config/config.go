// Package config loads YAML configuration for the cache binaries.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	cache "github.com/krisalay/durable-lru-cache"
	"github.com/krisalay/durable-lru-cache/wal"
	"gopkg.in/yaml.v3"
)

// Config is the file form of cache.Config.
type Config struct {
	Capacity        int           `yaml:"capacity"`
	LogPath         string        `yaml:"log_path"`
	Sync            string        `yaml:"sync"`    // "always" | "none"
	Recency         string        `yaml:"recency"` // "logged" | "on_compact"
	StrictRecovery  bool          `yaml:"strict_recovery"`
	CompactAfter    int           `yaml:"compact_after"`
	CompactInterval time.Duration `yaml:"compact_interval"`
	LogLevel        string        `yaml:"log_level"` // "debug" | "info" | "warn" | "error"
}

// Defaults are applied when fields are zero.
var defaults = Config{
	Capacity: 3,
	LogPath:  "data/persistent_cache.jsonl",
	Sync:     "always",
	Recency:  "logged",
	LogLevel: "info",
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaults
	return &cfg
}

// Load reads a YAML config file and applies defaults for missing fields.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks enumerated fields and ranges.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.LogPath == "" {
		return fmt.Errorf("log_path is required")
	}
	if _, err := c.syncMode(); err != nil {
		return err
	}
	if _, err := c.recency(); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.CompactAfter < 0 || c.CompactInterval < 0 {
		return fmt.Errorf("compaction settings must not be negative")
	}
	return nil
}

// Logger builds the text logger the binaries write to stderr.
func (c *Config) Logger() *slog.Logger {
	level, _ := c.level()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// CacheConfig converts the file form into a cache.Config.
func (c *Config) CacheConfig(logger *slog.Logger) (cache.Config, error) {
	if err := c.Validate(); err != nil {
		return cache.Config{}, err
	}
	syncMode, _ := c.syncMode()
	recency, _ := c.recency()

	cfg := cache.DefaultConfig(c.Capacity, c.LogPath)
	cfg.SyncMode = syncMode
	cfg.Recency = recency
	cfg.StrictRecovery = c.StrictRecovery
	cfg.CompactAfter = c.CompactAfter
	cfg.CompactInterval = c.CompactInterval
	cfg.Logger = logger
	return cfg, nil
}

func (c *Config) syncMode() (wal.SyncMode, error) {
	switch strings.ToLower(c.Sync) {
	case "", "always":
		return wal.SyncAlways, nil
	case "none":
		return wal.SyncNone, nil
	}
	return 0, fmt.Errorf("unknown sync mode %q", c.Sync)
}

func (c *Config) recency() (cache.Recency, error) {
	switch strings.ToLower(c.Recency) {
	case "", "logged":
		return cache.RecencyLogged, nil
	case "on_compact":
		return cache.RecencyOnCompact, nil
	}
	return 0, fmt.Errorf("unknown recency mode %q", c.Recency)
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}
