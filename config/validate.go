package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validAlgorithms = []string{"md5", "sha1", "sha256", "sha512"}
	validLevels     = []string{"debug", "info", "warn", "error"}
	validFormats    = []string{"text", "json"}
)

func (c *Config) normalize() error {
	c.Scan.Algorithm = strings.ToLower(strings.TrimSpace(c.Scan.Algorithm))
	if c.Scan.Algorithm == "" {
		c.Scan.Algorithm = defaultAlgorithm
	}
	if strings.TrimSpace(c.Scan.ChunkSize) == "" {
		c.Scan.ChunkSize = defaultChunkSize
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaultTheme
	}

	var err error
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Cache.Dir, err = ExpandPath(c.Cache.Dir); err != nil {
		return err
	}
	if c.Logging.File != "" {
		if c.Logging.File, err = ExpandPath(c.Logging.File); err != nil {
			return err
		}
	}
	for i, ex := range c.Scan.Exclude {
		if c.Scan.Exclude[i], err = ExpandPath(ex); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers must not be negative, got %d", c.Scan.Workers))
	}
	if !contains(validAlgorithms, c.Scan.Algorithm) {
		errs = append(errs, fmt.Errorf("scan.algorithm must be one of %s, got %q", strings.Join(validAlgorithms, ", "), c.Scan.Algorithm))
	}
	if n, err := c.ChunkSizeBytes(); err != nil {
		errs = append(errs, err)
	} else if n <= 0 {
		errs = append(errs, fmt.Errorf("scan.chunk_size must be positive, got %q", c.Scan.ChunkSize))
	}
	if d, err := c.ReadTimeoutDuration(); err != nil {
		errs = append(errs, err)
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("scan.read_timeout must not be negative, got %s", d))
	}
	if !contains(validLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of %s, got %q", strings.Join(validLevels, ", "), c.Logging.Level))
	}
	if !contains(validFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of %s, got %q", strings.Join(validFormats, ", "), c.Logging.Format))
	}
	return errors.Join(errs...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
