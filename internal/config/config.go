/*
 * config.go, part of gotrr.
 *
 * Copyright 2024 The goTRR Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package config loads the trrtool configuration from a YAML file,
// TRRTOOL_* environment variables and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Units are the length units used to print positions and boxes.
type Units string

const (
	Nanometers Units = "nm"
	Angstroms  Units = "angstrom"
)

// LogLevel is the minimum level of the log messages shown.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ParseLevel normalizes a level name: case is ignored and "warning" means warn.
// Unknown names are returned lowercased, and rejected by Validate.
func ParseLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	return LogLevel(s)
}

// Config is the trrtool configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	// Output is the format of command results: table, json or yaml.
	Output string      `mapstructure:"output" validate:"required,oneof=table json yaml" yaml:"output"`
	Units  Units       `mapstructure:"units" validate:"required,oneof=nm angstrom" yaml:"units"`
	Index  IndexConfig `mapstructure:"index" yaml:"index"`
	Write  WriteConfig `mapstructure:"write" yaml:"write"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  LogLevel `mapstructure:"level" validate:"required,oneof=debug info warn error" yaml:"level"`
	Format string   `mapstructure:"format" validate:"required,oneof=logfmt json" yaml:"format"`
}

// IndexConfig controls the offsets cache written next to trajectories.
type IndexConfig struct {
	Cache bool `mapstructure:"cache" yaml:"cache"`
}

// WriteConfig holds the defaults for the trajectories trrtool writes.
type WriteConfig struct {
	Double bool `mapstructure:"double" yaml:"double"`
	// Level is the gzip/zstd compression level, 0 for the default.
	Level int `mapstructure:"level" validate:"gte=0,lte=22" yaml:"level"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: LevelInfo, Format: "logfmt"},
		Output:  "table",
		Units:   Nanometers,
		Index:   IndexConfig{Cache: true},
	}
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (TRRTOOL_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath means the default location. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks cfg against the struct tags.
func Validate(cfg *Config) error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}

// setupViper configures viper with defaults, environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	d := Default()
	v.SetDefault("logging.level", string(d.Logging.Level))
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("output", d.Output)
	v.SetDefault("units", string(d.Units))
	v.SetDefault("index.cache", d.Index.Cache)
	v.SetDefault("write.double", d.Write.Double)
	v.SetDefault("write.level", d.Write.Level)

	// Example: TRRTOOL_LOGGING_LEVEL=debug
	v.SetEnvPrefix("TRRTOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	// $XDG_CONFIG_HOME/trrtool/config.yaml
	v.AddConfigPath(ConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDecodeHooks combines the decode hooks of the custom config types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		unitsDecodeHook(),
		levelDecodeHook(),
	)
}

// levelDecodeHook normalizes the log level names.
func levelDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(LogLevel("")) {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		return ParseLevel(s), nil
	}
}

// unitsDecodeHook accepts a few spellings for the length units.
func unitsDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(Units("")) {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "nm", "nanometer", "nanometers":
			return Nanometers, nil
		case "a", "å", "angstrom", "angstroms":
			return Angstroms, nil
		default:
			return s, nil
		}
	}
}

// ConfigDir returns the directory of the default configuration file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or the current directory.
func ConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "trrtool")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "trrtool")
}
