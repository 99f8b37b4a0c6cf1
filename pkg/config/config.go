// Package config holds the settings shared by the ctable command and the
// packages it drives.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KevoDB/ctable/pkg/common/log"
	"github.com/KevoDB/ctable/pkg/tablefile"
)

const (
	DefaultConfigFileName = "ctable.json"
	CurrentConfigVersion  = 1

	DefaultSwatchWidth  = 512
	DefaultSwatchHeight = 64
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("config file not found")
)

type Config struct {
	Version int `json:"version"`

	// Table file access
	TableFile    string `json:"table_file"`
	NameEncoding string `json:"name_encoding"`
	AtomicWrites bool   `json:"atomic_writes"`

	// Logging
	LogLevel string `json:"log_level"`

	// Conversion
	SkipUnchanged bool `json:"skip_unchanged"`

	// Interactive shell
	HistoryFile string `json:"history_file"`

	// Swatch rendering
	SwatchWidth  int `json:"swatch_width"`
	SwatchHeight int `json:"swatch_height"`

	mu sync.RWMutex
}

// NewDefaultConfig creates a Config for tableFile with default values.
// tableFile may be empty.
func NewDefaultConfig(tableFile string) *Config {
	return &Config{
		Version: CurrentConfigVersion,

		TableFile:    tableFile,
		NameEncoding: tablefile.NameUTF8.String(),
		AtomicWrites: false,

		LogLevel: "info",

		SkipUnchanged: false,

		SwatchWidth:  DefaultSwatchWidth,
		SwatchHeight: DefaultSwatchHeight,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validate()
}

func (c *Config) validate() error {
	if c.Version <= 0 {
		return fmt.Errorf("%w: invalid version %d", ErrInvalidConfig, c.Version)
	}

	if _, err := tablefile.ParseNameEncoding(c.NameEncoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.SwatchWidth <= 0 || c.SwatchHeight <= 0 {
		return fmt.Errorf("%w: swatch size must be positive, got %dx%d",
			ErrInvalidConfig, c.SwatchWidth, c.SwatchHeight)
	}

	return nil
}

// LoadConfig reads the configuration file at path. Settings the file leaves
// out keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewDefaultConfig("")
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to path, replacing any existing file
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename config: %w", err)
	}

	return nil
}

// Update applies the given function to modify the configuration
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// Level returns the configured log level
func (c *Config) Level() log.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// StoreOptions returns the table file options the configuration selects
func (c *Config) StoreOptions() ([]tablefile.Option, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enc, err := tablefile.ParseNameEncoding(c.NameEncoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return []tablefile.Option{
		tablefile.WithNameEncoding(enc),
		tablefile.WithAtomicWrites(c.AtomicWrites),
	}, nil
}
