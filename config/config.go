// Package config handles irgraph.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/irgraph/canon"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "irgraph.toml"

// Config represents an irgraph.toml configuration.
type Config struct {
	Pipeline      Pipeline      `toml:"pipeline"`
	Canonicalizer Canonicalizer `toml:"canonicalizer"`
	Diagnostics   Diagnostics   `toml:"diagnostics"`
	Log           Log           `toml:"log"`

	// Dir is the directory containing the irgraph.toml file (set at load time).
	Dir string `toml:"-"`
}

// Pipeline configures the per-unit compile pipeline.
type Pipeline struct {
	Workers      int  `toml:"workers"`
	VerifyInput  bool `toml:"verify-input"`
	VerifyOutput bool `toml:"verify-output"`
}

// Canonicalizer configures the phi canonicalizer.
type Canonicalizer struct {
	MaxSteps        int   `toml:"max-steps"`
	SimplifyProxies *bool `toml:"simplify-proxies"`
}

// Diagnostics configures where ICE reports go. Empty means disabled.
type Diagnostics struct {
	DumpDir  string `toml:"dump-dir"`
	Database string `toml:"database"`
}

// Log configures the logging backend.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no irgraph.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Canonicalizer.SimplifyProxies == nil {
		on := true
		c.Canonicalizer.SimplifyProxies = &on
	}
}

// Load parses an irgraph.toml file from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path. Relative paths in it
// resolve against the file's directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	if c.Canonicalizer.MaxSteps < 0 {
		return nil, fmt.Errorf("config: %s: max-steps must not be negative", path)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: cannot resolve path %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find an irgraph.toml file and
// loads it. Returns nil if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// CanonOptions returns the canonicalizer options this configuration selects.
func (c *Config) CanonOptions() canon.Options {
	return canon.Options{
		MaxSteps:        c.Canonicalizer.MaxSteps,
		SimplifyProxies: c.Canonicalizer.SimplifyProxies == nil || *c.Canonicalizer.SimplifyProxies,
		Verify:          c.Pipeline.VerifyOutput,
	}
}

// Resolve makes a configured path absolute relative to the config
// directory. Empty paths stay empty.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}
