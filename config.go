package bookgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bookgraph engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.bookgraph/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "bookgraph".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is not
	// explicitly set. Options: "home" (default) uses ~/.bookgraph/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Persist controls whether analyses are written to the store.
	// Disabled runs keep everything in memory.
	Persist bool `json:"persist" yaml:"persist"`

	// Workers is the fan-out width for the extractor's per-entity scans.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns a Config with sensible defaults. The database is
// stored in ~/.bookgraph/bookgraph.db and persistence is on.
func DefaultConfig() Config {
	return Config{
		DBName:     "bookgraph",
		StorageDir: "home",
		Persist:    true,
		Workers:    8,
	}
}

// LoadConfig reads a config file, YAML or JSON by extension, over defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w: %v", ErrInvalidConfig, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w: %v", ErrInvalidConfig, err)
		}
	default:
		return cfg, fmt.Errorf("%w: unknown config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	return cfg, nil
}

// resolveDBPath picks the database location: explicit DBPath wins, then
// StorageDir + DBName, then the home-directory default.
func (c Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	name := c.DBName
	if name == "" {
		name = "bookgraph"
	}
	if c.StorageDir == "local" {
		return name + ".db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name + ".db"
	}
	return filepath.Join(home, ".bookgraph", name+".db")
}
