// SPDX-License-Identifier: MPL-2.0

// Package config loads rospect configuration. Configuration lives in a CUE
// file validated against an embedded schema and merged through Viper so that
// defaults apply when no file exists.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "rospect"
	// ConfigFileName is the config file name within the config directory.
	ConfigFileName = "config.cue"
)

// Output format names accepted by output_format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTOML  = "toml"
)

//go:embed config_schema.cue
var configSchema string

// Config holds the resolved rospect settings.
type Config struct {
	// SkipDirectories lists directory names the workspace scan never
	// descends into, in addition to dot-directories.
	SkipDirectories []string `mapstructure:"skip_directories"`
	// OutputFormat selects the default rendering of scan results.
	OutputFormat string `mapstructure:"output_format"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		// Conventional colcon workspace output directories.
		SkipDirectories: []string{"build", "install", "log"},
		OutputFormat:    FormatTable,
	}
}

// ConfigDir returns the rospect configuration directory:
// $XDG_CONFIG_HOME/rospect, defaulting to ~/.config/rospect.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// Load resolves the configuration. An explicit path is used exclusively and
// must exist; otherwise the platform config directory is consulted, and
// defaults apply when no file is found there.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("skip_directories", defaults.SkipDirectories)
	v.SetDefault("output_format", defaults.OutputFormat)

	switch {
	case path != "":
		if !fileExists(path) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, err
		}
	default:
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, err
			}
		}
		// No config file found: defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper. The config decodes to a map
// rather than a struct so Viper keeps defaults for unset fields, and
// validation uses Concrete(false) because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("invalid config file %s: %w", path, userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config file %s does not match schema: %w", path, err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
