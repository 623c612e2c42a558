package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is tried when no config file is named. A missing default file
// is not an error.
const DefaultPath = "./config.yaml"

// Load reads configuration from the file named by CONFIG_PATH (or
// DefaultPath) layered under environment variables.
// Priority: ENV > YAML > env-default tags.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_PATH"))
}

// LoadFile is Load with an explicit file path. An empty path falls back to
// DefaultPath; a named path must exist.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// normalize folds enum-like settings to lower case so "Redis" and "JSON"
// are accepted.
func (c *Config) normalize() {
	c.Lookup.CacheBackend = strings.ToLower(strings.TrimSpace(c.Lookup.CacheBackend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}
