// Package config provides configuration management for rideboard.
// Values are layered: built-in defaults, then rideboard.yaml, then
// RIDEBOARD_* environment variables, then CLI flags.
package config

import (
	"fmt"
	"os"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "rideboard.yaml"
	ConfigFileNameAlt = "rideboard.yml"
)

// Default configuration values.
const (
	DefaultTableName   = "rides"
	DefaultCatalogPath = "queries.sql"
	DefaultRowLimit    = 50
	DefaultOutput      = "table"
)

// UIConfig holds configuration for the HTTP API server.
type UIConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// Config holds all rideboard configuration options.
type Config struct {
	// DatasetPath is the ride dataset file (.csv or .parquet).
	DatasetPath string `koanf:"dataset"`

	// CatalogPath is the plain-text query catalog file.
	CatalogPath string `koanf:"catalog"`

	// TableName is the fixed name the dataset is registered under.
	TableName string `koanf:"table"`

	// EnginePath is the DuckDB database path (empty for in-memory).
	EnginePath string `koanf:"engine_path"`

	// HistoryPath is the SQLite run-history database (empty disables history).
	HistoryPath string `koanf:"history"`

	// RowLimit bounds materialized rows per query execution.
	RowLimit int `koanf:"row_limit"`

	Verbose      bool      `koanf:"verbose"`
	OutputFormat string    `koanf:"output"`
	UI           *UIConfig `koanf:"ui"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:  8765,
		Watch: true,
	}
}

// GetUIConfig returns the UI config with defaults applied for unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = 8765
	}
	return ui
}

// Validate checks that the configuration names an existing dataset file.
func (c *Config) Validate() error {
	if c.DatasetPath == "" {
		return fmt.Errorf("no dataset configured (set dataset in %s or pass --dataset)", ConfigFileName)
	}
	if _, err := os.Stat(c.DatasetPath); os.IsNotExist(err) {
		return fmt.Errorf("dataset file not found: %s", c.DatasetPath)
	}
	return nil
}
