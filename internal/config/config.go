// Package config holds engram configuration: YAML file loading with
// environment variable expansion, defaults, and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config holds all engram configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Archive ArchiveConfig `yaml:"archive"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	// Root is the directory holding memory/tier1 and memory/tier2.
	Root           string `yaml:"root"`
	Tier1MaxFileMB int64  `yaml:"tier1_max_file_mb"`
	Tier2MaxFileMB int64  `yaml:"tier2_max_file_mb"`
	IndexFile      string `yaml:"index_file"`
}

type ArchiveConfig struct {
	// MaxAgeDays is the default retention window for archive runs.
	MaxAgeDays int `yaml:"max_age_days"`
}

// Default returns a Config with sensible defaults. The storage root is
// resolved at runtime via DefaultRoot when left empty.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37710,
		},
		Storage: StorageConfig{
			Tier1MaxFileMB: 100,
			Tier2MaxFileMB: 50,
			IndexFile:      "digests.db",
		},
		Archive: ArchiveConfig{
			MaxAgeDays: 30,
		},
	}
}

// DefaultRoot returns the default storage root: ~/.engram
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".engram"), nil
}

// Load reads a YAML config file over the defaults, expanding environment
// variables in the file body. A missing file is not an error: defaults
// apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Storage,
		validation.Field(&c.Storage.Tier1MaxFileMB, validation.Min(int64(1))),
		validation.Field(&c.Storage.Tier2MaxFileMB, validation.Min(int64(1))),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Archive,
		validation.Field(&c.Archive.MaxAgeDays, validation.Min(0)),
	)
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
