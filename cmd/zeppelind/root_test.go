/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["console"])
	assert.True(t, names["compact"])
}

func TestLoadConfig_DefaultsWithoutConfigFile(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{}))

	configPath = ""
	logLevel = ""
	jsonLogs = false

	cfg, err := loadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_FlagOverridesWinOverDefaults(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{}))

	configPath = ""
	logLevel = "debug"
	jsonLogs = true

	cfg, err := loadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSONOutput)

	logLevel = ""
	jsonLogs = false
}
