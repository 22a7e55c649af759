// Package config handles the intcode.toml configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"intcode/pkg/amplifier"
	"intcode/pkg/memory"

	"github.com/BurntSushi/toml"
)

// DefaultStages is the conventional amplifier count.
const DefaultStages = 5

// Config represents an intcode.toml file.
type Config struct {
	Program ProgramConfig `toml:"program"`
	Search  SearchConfig  `toml:"search"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// ProgramConfig locates the program image.
type ProgramConfig struct {
	Path       string `toml:"path"`
	MemorySize int    `toml:"memory-size"`
}

// SearchConfig configures the amplifier phase search.
type SearchConfig struct {
	Stages      int           `toml:"stages"`
	Phases      []memory.Word `toml:"phases"`
	Workers     int           `toml:"workers"`
	FaultPolicy string        `toml:"fault-policy"`
}

// StoreConfig configures the search result cache.
type StoreConfig struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Stages:      DefaultStages,
			FaultPolicy: amplifier.AbortOnFault.String(),
		},
		Store: StoreConfig{
			Path: "./data",
		},
	}
}

// Load parses a config file on top of the defaults. Relative paths in the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.Program.Path = c.resolve(c.Program.Path)
	c.Store.Path = c.resolve(c.Store.Path)
	c.Log.File = c.resolve(c.Log.File)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Validate checks values that toml decoding cannot.
func (c *Config) Validate() error {
	if c.Program.MemorySize < 0 {
		return fmt.Errorf("program.memory-size must not be negative, got %d", c.Program.MemorySize)
	}
	if c.Search.Stages < 0 {
		return fmt.Errorf("search.stages must not be negative, got %d", c.Search.Stages)
	}
	if _, err := amplifier.ParseFaultPolicy(c.Search.FaultPolicy); err != nil {
		return fmt.Errorf("search.fault-policy: %w", err)
	}
	sorted := slices.Clone(c.Search.Phases)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(c.Search.Phases) {
		return fmt.Errorf("search.phases must be distinct, got %v", c.Search.Phases)
	}
	return nil
}

// FaultPolicy returns the parsed search.fault-policy.
func (c *Config) FaultPolicy() amplifier.FaultPolicy {
	p, _ := amplifier.ParseFaultPolicy(c.Search.FaultPolicy)
	return p
}

// PhaseSet returns the explicit phases, or 0..stages-1 when none are set.
func (c *Config) PhaseSet() []memory.Word {
	if len(c.Search.Phases) > 0 {
		return slices.Clone(c.Search.Phases)
	}
	phases := make([]memory.Word, c.Search.Stages)
	for i := range phases {
		phases[i] = memory.Word(i)
	}
	return phases
}
