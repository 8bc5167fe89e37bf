// Package config loads cmd/coordctl's JSON-with-comments configuration
// file: listen address, counters file path, counter capacity, and term
// buffer sizing.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// Config is cmd/coordctl's configuration, loaded from a JSONC file.
type Config struct {
	// ListenAddr is the address the demo REST server binds to.
	ListenAddr string `json:"listen_addr,omitempty"`

	// CountersFile is the path to the mmap'd counters region. It is
	// loaded but not read by cmd/coordctl, whose serve and dump
	// subcommands take the path from their required --file flag.
	CountersFile string `json:"counters_file,omitempty"`

	// CounterCapacity is the number of counter slots the region holds.
	CounterCapacity int `json:"counter_capacity,omitempty"`

	// TermLength is the size in bytes of each term-buffer partition.
	// Must be a power of two and a multiple of logbuffer.FrameAlignment.
	TermLength int `json:"term_length,omitempty"`

	// TermPartitions is the number of term buffers rotated through.
	TermPartitions int `json:"term_partitions,omitempty"`
}

// Default returns the configuration used for every field the loaded
// file does not set. A field the file sets explicitly, even to its zero
// value, overrides the default.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		CountersFile:    "coordcore.counters",
		CounterCapacity: 1024,
		TermLength:      1 << 20,
		TermPartitions:  3,
	}
}

// Load reads path, strips JSONC comments/trailing commas via hujson,
// unmarshals onto Default(), and returns the merged result. A missing
// file is not an error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errors.Wrapf(err, "config: reading %s", path)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: %s is not valid JSONC", path)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: %s does not match the expected schema", path)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config: %s", path)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.CounterCapacity <= 0 {
		return errors.New("counter_capacity must be positive")
	}
	if c.TermLength <= 0 || c.TermLength&(c.TermLength-1) != 0 {
		return errors.New("term_length must be a positive power of two")
	}
	if c.TermPartitions <= 0 {
		return errors.New("term_partitions must be positive")
	}
	return nil
}
