package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads a configuration from somewhere.
type Loader interface {
	Load() (*Config, error)
}

// FileLoader loads configuration from a YAML or JSON file, detected by
// extension.
type FileLoader struct {
	path string
}

// NewFileLoader creates a FileLoader for the given path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads, parses, defaults, and validates the configuration file.
func (l *FileLoader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, l.path)
		}
		return nil, fmt.Errorf("config: read failed: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: JSON parse failed: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: YAML parse failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported format %q (supported: .yaml, .yml, .json)", ext)
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in defaults for optional fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Namespace == "" {
		cfg.Store.Namespace = "botlogic"
	}
	if cfg.Auth.Timeout == 0 {
		cfg.Auth.Timeout = 8 * time.Second
	}
	if cfg.Core.Timeout == 0 {
		cfg.Core.Timeout = 8 * time.Second
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 10 * time.Minute
	}
	if cfg.Sweep.Interval == 0 {
		cfg.Sweep.Interval = 5 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
