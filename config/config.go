package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
)

// Scan contains the knobs of the duplicate search itself.
type Scan struct {
	Workers     int      `toml:"workers"`
	ChunkSize   string   `toml:"chunk_size"`
	ReadTimeout string   `toml:"read_timeout"`
	Algorithm   string   `toml:"algorithm"`
	Exclude     []string `toml:"exclude"`
}

// Cache contains configuration for the persistent hash cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// TUI contains configuration for the interactive browser.
type TUI struct {
	Theme                string `toml:"theme"`
	ReplaceHomeWithTilde bool   `toml:"replace_home_with_tilde"`
}

type Config struct {
	Scan    Scan    `toml:"scan"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
	TUI     TUI     `toml:"tui"`
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "neatfs", "config.toml"), nil
}

// Load reads the TOML file at path on top of the defaults. An empty path
// selects DefaultPath; a file that does not exist is not an error.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, "", fmt.Errorf("read config %s: %w", expanded, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", expanded, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, expanded, nil
}

// ChunkSizeBytes parses Scan.ChunkSize ("64 KiB", "1M", "65536").
func (c *Config) ChunkSizeBytes() (int, error) {
	n, err := humanize.ParseBytes(c.Scan.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("scan.chunk_size: %w", err)
	}
	return int(n), nil
}

// ReadTimeoutDuration parses Scan.ReadTimeout; empty or "0" disables it.
func (c *Config) ReadTimeoutDuration() (time.Duration, error) {
	v := strings.TrimSpace(c.Scan.ReadTimeout)
	if v == "" || v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("scan.read_timeout: %w", err)
	}
	return d, nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
