// Package config holds the JSON machine configuration used by the
// command-line tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/timing/latency"
)

// Config describes how to build and boot a machine.
type Config struct {
	// BIOSPath is the 512KB BIOS image. Empty boots a blank ROM.
	BIOSPath string `json:"bios_path"`

	// EXEPath is a PS-X EXE or MIPS ELF injected into RAM before the run.
	// Empty runs the BIOS alone.
	EXEPath string `json:"exe_path"`

	// LogLevel is a logrus level name. Default: "warning".
	LogLevel string `json:"log_level"`

	// MaxInstructions stops the run after this many instructions.
	// Zero means no limit.
	MaxInstructions uint64 `json:"max_instructions"`

	// ICacheEnabled attaches the instruction cache model. Default: true.
	ICacheEnabled bool `json:"icache_enabled"`

	// Timing overrides the default cycle costs. Nil uses the defaults.
	Timing *latency.TimingConfig `json:"timing,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LogLevel:      logrus.WarnLevel.String(),
		ICacheEnabled: true,
	}
}

// Load reads a Config from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the log level and the timing overrides.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Timing != nil {
		if err := c.Timing.Validate(); err != nil {
			return fmt.Errorf("timing: %w", err)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.WarnLevel, nil
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// TimingConfig returns the timing overrides, or the defaults.
func (c *Config) TimingConfig() *latency.TimingConfig {
	if c.Timing == nil {
		return latency.DefaultTimingConfig()
	}
	return c.Timing
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Timing != nil {
		clone.Timing = c.Timing.Clone()
	}
	return &clone
}
