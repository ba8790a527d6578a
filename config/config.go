// Package config loads spectang's defaults file.
//
// Every setting can also be given as a command-line flag. A flag set
// explicitly on the command line wins over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is read from the working directory when no path is given.
const DefaultFilename = ".spectang.yaml"

// Config holds the file-backed settings. Unset pointer fields fall back to
// the defaults returned by the getters.
type Config struct {
	Failures *bool    `yaml:"failures,omitempty"` // list failures after the summary
	Message  *bool    `yaml:"message,omitempty"`  // show failure messages instead of stacks
	NoColor  *bool    `yaml:"noColor,omitempty"`
	NoTTY    *bool    `yaml:"notty,omitempty"`
	Rate     *float64 `yaml:"rate,omitempty"` // replay rate
	OutFile  string   `yaml:"outfile,omitempty"`
	JSONFile string   `yaml:"jsonfile,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFailures returns the failure listing setting, defaulting to true
func (c *Config) GetFailures() bool {
	return getBool(c.Failures, true)
}

// GetMessage returns the failure message setting, defaulting to false
func (c *Config) GetMessage() bool {
	return getBool(c.Message, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetNoTTY returns the no TTY setting, defaulting to false
func (c *Config) GetNoTTY() bool {
	return getBool(c.NoTTY, false)
}

// GetRate returns the replay rate, defaulting to 1
func (c *Config) GetRate() float64 {
	if c.Rate == nil {
		return 1
	}
	return *c.Rate
}

// Validate reports settings no run could use.
func (c *Config) Validate() error {
	if c.GetRate() < 0 {
		return fmt.Errorf("rate must be >= 0, got %v", c.GetRate())
	}
	return nil
}

// Load reads the file at path. An empty path reads DefaultFilename, and a
// missing default file yields an empty Config; a missing explicit path is an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
