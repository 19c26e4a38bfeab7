// Package config loads and saves ~/.config/apiform/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvURL       = "APIFORM_URL"
	EnvExportURL = "APIFORM_EXPORT_URL"
	EnvOutput    = "APIFORM_OUTPUT"
)

// Config represents the CLI configuration
type Config struct {
	// Default output format (text, json, ndjson, table, yaml)
	Output string `yaml:"output,omitempty"`

	// Default color mode (auto, always, never)
	Color string `yaml:"color,omitempty"`

	// Source endpoint used when no URL argument is given
	DefaultURL string `yaml:"default_url,omitempty"`

	// Base URL of the export service
	ExportURL string `yaml:"export_url,omitempty"`

	// Header profiles; values live in the keyring
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile records which header names a profile stores.
type Profile struct {
	Headers []string `yaml:"headers,omitempty"`
}

// Settable keys for `config set`.
var settableKeys = []string{"output", "color", "default_url", "export_url"}

// configPathFunc is the function used to get the default config path
// It can be overridden for testing
var configPathFunc = defaultConfigPath

// SetConfigPathFunc sets the config path function for testing.
// Returns the original function so it can be restored.
func SetConfigPathFunc(fn func() (string, error)) func() (string, error) {
	orig := configPathFunc
	configPathFunc = fn
	return orig
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "apiform", "config.yaml"), nil
}

// DefaultConfigPath returns ~/.config/apiform/config.yaml
func DefaultConfigPath() (string, error) {
	return configPathFunc()
}

// Load loads config from the default path, returns empty config if not found
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// Save saves config to the default path
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveToPath(path)
}

// SaveToPath saves config to a specific path
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GetOutput returns the output format: APIFORM_OUTPUT, then the file.
func (c *Config) GetOutput() string {
	if v := strings.TrimSpace(os.Getenv(EnvOutput)); v != "" {
		return v
	}
	return c.Output
}

// GetColor returns the configured color mode (may be empty)
func (c *Config) GetColor() string {
	return c.Color
}

// GetURL returns the source URL: APIFORM_URL, then default_url. Empty means
// the built-in default.
func (c *Config) GetURL() string {
	if v := strings.TrimSpace(os.Getenv(EnvURL)); v != "" {
		return v
	}
	return c.DefaultURL
}

// GetExportURL returns the export service base URL: APIFORM_EXPORT_URL, then
// export_url.
func (c *Config) GetExportURL() string {
	if v := strings.TrimSpace(os.Getenv(EnvExportURL)); v != "" {
		return v
	}
	return c.ExportURL
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	return slices.Clone(settableKeys)
}

// Get returns the stored value of key (ignoring env overrides).
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "output":
		return c.Output, nil
	case "color":
		return c.Color, nil
	case "default_url":
		return c.DefaultURL, nil
	case "export_url":
		return c.ExportURL, nil
	default:
		return "", unknownKey(key)
	}
}

// Set validates and stores value under key. An empty value clears it.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "output":
		if value != "" && !slices.Contains([]string{"text", "json", "ndjson", "jsonl", "table", "yaml"}, strings.ToLower(value)) {
			return fmt.Errorf("invalid output %q (expected text|json|ndjson|jsonl|table|yaml)", value)
		}
		c.Output = strings.ToLower(value)
	case "color":
		if value != "" && !slices.Contains([]string{"auto", "always", "never"}, strings.ToLower(value)) {
			return fmt.Errorf("invalid color %q (expected auto|always|never)", value)
		}
		c.Color = strings.ToLower(value)
	case "default_url":
		c.DefaultURL = value
	case "export_url":
		c.ExportURL = value
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (expected one of: %s)", key, strings.Join(settableKeys, ", "))
}

// ProfileHeaders returns the header names stored for a profile.
func (c *Config) ProfileHeaders(name string) ([]string, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return slices.Clone(p.Headers), nil
}

// AddProfileHeader records header under profile, creating the profile if needed.
func (c *Config) AddProfileHeader(profile, header string) error {
	if strings.TrimSpace(profile) == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("header name cannot be empty")
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	p := c.Profiles[profile]
	if !slices.Contains(p.Headers, header) {
		p.Headers = append(p.Headers, header)
		sort.Strings(p.Headers)
	}
	c.Profiles[profile] = p
	return nil
}

// RemoveProfileHeader forgets header; the profile is dropped once empty.
func (c *Config) RemoveProfileHeader(profile, header string) error {
	p, ok := c.Profiles[profile]
	if !ok {
		return fmt.Errorf("profile %q not found", profile)
	}
	idx := slices.Index(p.Headers, header)
	if idx < 0 {
		return fmt.Errorf("header %q not found in profile %q", header, profile)
	}
	p.Headers = slices.Delete(p.Headers, idx, idx+1)
	if len(p.Headers) == 0 {
		delete(c.Profiles, profile)
		return nil
	}
	c.Profiles[profile] = p
	return nil
}

// ListProfiles returns a list of all profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
