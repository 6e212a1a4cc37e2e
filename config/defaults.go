package config

const (
	defaultChunkSize   = "64 KiB"
	defaultAlgorithm   = "md5"
	defaultCacheDir    = "~/.cache/neatfs"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultTheme       = "nord"
	defaultReadTimeout = "0"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			Workers:     0,
			ChunkSize:   defaultChunkSize,
			ReadTimeout: defaultReadTimeout,
			Algorithm:   defaultAlgorithm,
		},
		Cache: Cache{
			Enabled: false,
			Dir:     defaultCacheDir,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		TUI: TUI{
			Theme:                defaultTheme,
			ReplaceHomeWithTilde: true,
		},
	}
}
