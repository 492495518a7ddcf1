/*
 * config_test.go, part of gotrr.
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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nothere.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
output: yaml
units: Angstroms
index:
  cache: false
write:
  double: true
  level: 19
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "yaml", cfg.Output)
	assert.Equal(t, Angstroms, cfg.Units)
	assert.False(t, cfg.Index.Cache)
	assert.True(t, cfg.Write.Double)
	assert.Equal(t, 19, cfg.Write.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output: json\n")
	t.Setenv("TRRTOOL_OUTPUT", "yaml")
	t.Setenv("TRRTOOL_LOGGING_LEVEL", "ERROR")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)
	assert.Equal(t, LevelError, cfg.Logging.Level)
}

func TestLoadNormalizesNames(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: Warning\nunits: nanometers\n"))
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, cfg.Logging.Level)
	assert.Equal(t, Nanometers, cfg.Units)

	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LogLevel("loud"), ParseLevel("Loud"))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad output", content: "output: xml\n"},
		{name: "bad units", content: "units: furlongs\n"},
		{name: "bad level", content: "logging:\n  level: loud\n"},
		{name: "bad compression", content: "write:\n  level: 40\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
