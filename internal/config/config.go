// Package config handles reading and writing .swarmdock/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .swarmdock/config.yaml.
type Config struct {
	Version     int               `yaml:"version"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Swarm       SwarmConfig       `yaml:"swarm"`
	Credentials map[string]string `yaml:"credentials"` // owner id -> API key
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SwarmConfig controls how the external swarm CLI is invoked.
type SwarmConfig struct {
	Command       string `yaml:"command"`        // e.g. "claude-flow"
	CredentialEnv string `yaml:"credential_env"` // env var the CLI reads its key from
}

const configDir = ".swarmdock"
const configFile = "config.yaml"

// ReadConfig reads .swarmdock/config.yaml from the given directory.
// dir is the server's data root (not .swarmdock/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to .swarmdock/config.yaml in the given directory.
// Creates the .swarmdock/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Listen: "127.0.0.1:8787",
		},
		Database: DatabaseConfig{
			Path: filepath.Join(configDir, "swarmdock.db"),
		},
		Swarm: SwarmConfig{
			Command:       "claude-flow",
			CredentialEnv: "ANTHROPIC_API_KEY",
		},
		Credentials: map[string]string{},
	}
}

// Credential returns the configured API key for the given owner, if any.
// Lookups are always live; nothing is cached.
func (c *Config) Credential(owner string) (string, bool) {
	key, ok := c.Credentials[owner]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
