// Package config holds the tunable knobs for a table's storage file and
// buffer pool, and loads/saves them from a human-edited config file.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// EvictionPolicy names a buffer pool replacement strategy.
type EvictionPolicy string

const (
	LRU EvictionPolicy = "LRU"
	MRU EvictionPolicy = "MRU"
)

// OpenMode selects how a table's page file talks to the OS.
type OpenMode int

const (
	// ModeBuffered opens the file through the regular page cache.
	ModeBuffered OpenMode = iota
	// ModeDirect opens the file with O_DIRECT, bypassing the OS cache.
	// Requires the host filesystem to support sector-aligned I/O at
	// PageSize granularity.
	ModeDirect
)

// Config is the knob set a table's buffer pool and storage layer are
// constructed with.
type Config struct {
	PageSize      int            `json:"pagesize"`
	BufferPoolCap int            `json:"bufferpoolcap"`
	Policy        EvictionPolicy `json:"policy"`
	DirectIO      bool           `json:"directio"`
}

// Default returns the engine's default configuration.
func Default() Config {
	return Config{
		PageSize:      4096,
		BufferPoolCap: 10000,
		Policy:        LRU,
		DirectIO:      false,
	}
}

// Load reads a config file tolerant of comments and trailing commas
// (HuJSON) and unmarshals it on top of Default(), so a config file only
// needs to mention the fields it overrides.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg := Default()
	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decode config %s", path)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 4096
	}
	if cfg.BufferPoolCap <= 0 {
		cfg.BufferPoolCap = 10000
	}
	if cfg.Policy == "" {
		cfg.Policy = LRU
	}
	return cfg, nil
}

// Save persists cfg to path atomically: a crash mid-write leaves either
// the old file or the new one, never a half-written one.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}
