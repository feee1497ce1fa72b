// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package config loads the optional .educpu.toml defaults file shared by
// the assembler and simulator CLIs. CLI flags always take precedence
// over values loaded here.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file name looked up in the current
// directory when no --config flag is given.
const DefaultPath = ".educpu.toml"

// Config holds the CLI defaults that may be set from a TOML file.
type Config struct {
	Format    string `toml:"format"`     // "bin", "hex", or "srec"
	MaxCycles int    `toml:"max_cycles"` // simulator cycle cap
	Trace     bool   `toml:"trace"`      // simulator per-instruction trace
}

// Load reads and decodes path. A missing file at DefaultPath is not an
// error: Load returns a zero Config so callers fall back to their own
// flag defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, err
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
