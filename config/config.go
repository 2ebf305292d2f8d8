// Package config loads the bridge configuration from config.yaml.
//
// Everything is optional: a missing file yields the defaults, and the
// defaults are what almost every installation runs with. The file exists
// for three knobs — pinning the rendezvous directory instead of discovering
// it, bounding the wait on the approver, and pre-allowing tools that never
// need a round-trip.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clod-tools/clod-bridge/paths"
)

// Config holds the bridge configuration.
type Config struct {
	// RuntimeDir pins the rendezvous directory. Empty means discover it by
	// walking upward from the working directory.
	RuntimeDir string `yaml:"runtime_dir,omitempty"`

	// ResponseTimeout bounds the wait for the approver, e.g. "5m" or "90s".
	// Empty or "0" preserves the original behavior of blocking until the
	// approver answers.
	ResponseTimeout string `yaml:"response_timeout,omitempty"`

	// AllowedTools are allowed without consulting the approver. Entries are
	// exact tool names, "Tool(pattern)" prefixes, or "*" for everything.
	AllowedTools []string `yaml:"allowed_tools,omitempty"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug,omitempty"`

	responseTimeout time.Duration
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{}
}

// Load reads config.yaml from the standard location. A missing file is not
// an error; a malformed one is.
func Load() (*Config, error) {
	path, err := paths.ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ResponseTimeout != "" && c.ResponseTimeout != "0" {
		d, err := time.ParseDuration(c.ResponseTimeout)
		if err != nil {
			return fmt.Errorf("invalid response_timeout %q: %w", c.ResponseTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid response_timeout %q: must not be negative", c.ResponseTimeout)
		}
		c.responseTimeout = d
	}
	return nil
}

// Timeout returns the parsed response timeout. Zero means wait forever.
func (c *Config) Timeout() time.Duration {
	return c.responseTimeout
}

// IsToolAllowed reports whether the tool is pre-allowed and may skip the
// approver round-trip entirely.
func (c *Config) IsToolAllowed(tool string) bool {
	if tool == "" {
		return false
	}
	for _, allowed := range c.AllowedTools {
		// Wildcard matches any tool
		if allowed == "*" {
			return true
		}
		if allowed == tool {
			return true
		}
		// Handle pattern entries (e.g., "Bash(git:*)")
		if strings.HasPrefix(allowed, tool+"(") {
			return true
		}
	}
	return false
}
