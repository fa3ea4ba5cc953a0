package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. RIDEBOARD_DATASET, RIDEBOARD_UI_PORT.
const envPrefix = "RIDEBOARD_"

var configFileUsed string

// Load builds the configuration by layering defaults, an optional YAML
// file, environment variables, and CLI flags (flags win).
func Load(explicitFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	defaults := map[string]any{
		"catalog":   DefaultCatalogPath,
		"table":     DefaultTableName,
		"row_limit": DefaultRowLimit,
		"output":    DefaultOutput,
		"ui.port":   8765,
		"ui.watch":  true,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: YAML config file
	configFileUsed = ""
	if path := findConfigFile(explicitFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		configFileUsed = path
	} else if explicitFile != "" {
		return nil, fmt.Errorf("config file not found: %s", explicitFile)
	}

	// Layer 3: environment variables (RIDEBOARD_UI_PORT -> ui.port)
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if rest, ok := strings.CutPrefix(key, "ui_"); ok {
			return "ui." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Layer 4: CLI flags (only flags the user actually set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// flagKey maps a CLI flag name to its koanf key.
func flagKey(name string) string {
	switch name {
	case "port":
		return "ui.port"
	case "watch":
		return "ui.watch"
	default:
		return strings.ReplaceAll(name, "-", "_")
	}
}

// findConfigFile finds the config file to use.
// Priority: explicit path > rideboard.yaml > rideboard.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// GetConfigFileUsed returns the path of the config file used by the last
// Load call, or empty if none was found.
func GetConfigFileUsed() string {
	return configFileUsed
}
