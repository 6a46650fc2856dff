// Package config provides configuration loading and structs for the collectsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CatalogConfig holds catalog storage settings.
type CatalogConfig struct {
	DatabasePath string `yaml:"database_path"`
	// WatchDatabase flushes the suggestion cache when the database file
	// changes on disk (e.g. an external reseed).
	WatchDatabase bool `yaml:"watch_database"`
}

// SearchConfig holds suggestion engine settings.
type SearchConfig struct {
	// MinQueryLength is the minimum query length that triggers a fetch.
	// Shorter queries clear suggestions. An empty query with a selected
	// parent still fetches (wildcard browse).
	MinQueryLength int `yaml:"min_query_length"`
	// DebounceMs delays fetches until typing pauses.
	DebounceMs int `yaml:"debounce_ms"`
	// MaxResults caps the published suggestion list.
	MaxResults int `yaml:"max_results"`
	// FetchLimit is how many candidates are requested from the catalog
	// before client-side ranking and truncation.
	FetchLimit int `yaml:"fetch_limit"`
}

// CacheConfig holds TTL cache settings. TTLs are per entity kind: stable
// reference data (sets, categories, set products) keeps long TTLs, volatile
// data (cards, products) short ones.
type CacheConfig struct {
	MaxEntries      int       `yaml:"max_entries"`
	SweepIntervalMs int       `yaml:"sweep_interval_ms"`
	TTLSecs         TTLConfig `yaml:"ttl_secs"`
}

// TTLConfig holds per-entity TTLs in seconds.
type TTLConfig struct {
	Set        int `yaml:"set"`
	Card       int `yaml:"card"`
	Product    int `yaml:"product"`
	Category   int `yaml:"category"`
	SetProduct int `yaml:"set_product"`
}

// TTLFor returns the cache TTL for an entity kind (by field-type mapping
// in the engine). Unknown kinds fall back to the shortest configured TTL.
func (c *CacheConfig) TTLFor(kind string) time.Duration {
	secs := c.TTLSecs.Product
	switch kind {
	case "set":
		secs = c.TTLSecs.Set
	case "card":
		secs = c.TTLSecs.Card
	case "product":
		secs = c.TTLSecs.Product
	case "category":
		secs = c.TTLSecs.Category
	case "set_product":
		secs = c.TTLSecs.SetProduct
	}
	return time.Duration(secs) * time.Second
}

// Debounce returns the debounce duration.
func (s *SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// SweepInterval returns the sweep interval duration.
func (c *CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Catalog.DatabasePath = expandPath(cfg.Catalog.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
