package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mchmarny/varsig/pkg/lookup"
	"github.com/mchmarny/varsig/pkg/registry"
	vnet "github.com/mchmarny/varsig/pkg/net"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"
	dirMode  = 0700
	fileMode = 0600
)

// Config represents app config object.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Lookup   LookupConfig   `yaml:"lookup"`
}

// RegistryConfig points at the E-utilities service.
type RegistryConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
	Tool     string        `yaml:"tool,omitempty"`
	Email    string        `yaml:"email,omitempty"`
}

// LookupConfig tunes the lookup strategy and the batch pacing.
type LookupConfig struct {
	RequestDelay     time.Duration `yaml:"request_delay"`
	MutationDelay    time.Duration `yaml:"mutation_delay"`
	MaxCandidates    int           `yaml:"max_candidates"`
	CoordinateRetMax int           `yaml:"coordinate_retmax"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			BaseURL:  registry.BaseURLDefault,
			Database: registry.DatabaseDefault,
			Timeout:  vnet.TimeoutDefault,
			Tool:     "varsig",
		},
		Lookup: LookupConfig{
			RequestDelay:     lookup.RequestDelayDefault,
			MutationDelay:    lookup.MutationDelayDefault,
			MaxCandidates:    lookup.MaxCandidatesDefault,
			CoordinateRetMax: lookup.CoordinateRetMaxDefault,
		},
	}
}

// Validate rejects values the lookup cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if c.Registry.BaseURL == "" {
		return errors.New("registry.base_url is required")
	}
	if c.Registry.Timeout <= 0 {
		return fmt.Errorf("registry.timeout must be positive: %s", c.Registry.Timeout)
	}
	if c.Lookup.RequestDelay < 0 || c.Lookup.MutationDelay < 0 {
		return errors.New("lookup delays must not be negative")
	}
	if c.Lookup.MaxCandidates < 1 {
		return fmt.Errorf("lookup.max_candidates must be at least 1: %d", c.Lookup.MaxCandidates)
	}
	if c.Lookup.CoordinateRetMax < 1 {
		return fmt.Errorf("lookup.coordinate_retmax must be at least 1: %d", c.Lookup.CoordinateRetMax)
	}
	return nil
}

// Save writes the config into dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file: %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir: %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return Read(path)
}

// Read loads a config file. Keys missing from the file keep their defaults.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory under the current user's home.
// The created flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir: %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
