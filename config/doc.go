// Package config loads, normalizes, and validates neatfs configuration.
//
// Settings come from a TOML file (by default ~/.config/neatfs/config.toml);
// a missing file yields Default(). Command-line flags are applied on top by
// the CLI after Load returns.
package config
