// Package config loads the project configuration file (reqbench.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the project-level configuration.
type Config struct {
	StorageDir         string                       `yaml:"storageDir,omitempty"`
	Timeout            int                          `yaml:"timeout,omitempty"` // milliseconds
	DefaultEnvironment string                       `yaml:"defaultEnvironment,omitempty"`
	FollowRedirects    *bool                        `yaml:"followRedirects,omitempty"`
	MaxRedirects       int                          `yaml:"maxRedirects,omitempty"`
	Headers            map[string]string            `yaml:"headers,omitempty"`
	NoColor            *bool                        `yaml:"noColor,omitempty"`
	Environments       map[string]map[string]string `yaml:"environments,omitempty"`
}

// Filenames contains the config file names searched for, in order.
var Filenames = []string{
	".reqbench.yaml",
	"reqbench.yaml",
	"reqbench.yml",
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:      30000,
		MaxRedirects: 10,
	}
}

// Load reads configuration from path, or searches the current directory
// when path is empty.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFromFile(path)
	}
	return FindAndLoad(".")
}

// FindAndLoad searches dir for a config file, returning defaults when none
// exists.
func FindAndLoad(dir string) (*Config, error) {
	for _, filename := range Filenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects defaults to true.
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetNoColor defaults to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout returns the request timeout as a duration, defaulting to 30s.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetStorageDir returns the storage directory, defaulting to ~/.reqbench.
func (c *Config) GetStorageDir() string {
	if c.StorageDir != "" {
		return c.StorageDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reqbench"
	}
	return filepath.Join(home, ".reqbench")
}

// EnvironmentVariables returns the inline variables of a named environment.
func (c *Config) EnvironmentVariables(name string) (map[string]string, bool) {
	variables, ok := c.Environments[name]
	return variables, ok
}
