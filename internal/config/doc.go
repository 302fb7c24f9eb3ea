// Package config loads, normalizes, and validates subgen's TOML
// configuration. Defaults are usable without a config file; a file only
// overrides what it sets.
package config
