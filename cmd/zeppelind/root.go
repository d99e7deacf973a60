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
	"github.com/spf13/cobra"

	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/zlog"
)

var (
	configPath string
	logLevel   string
	jsonLogs   bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zeppelind",
		Short:         "Zeppelin object-store-native vector search engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "force JSON log output regardless of config")

	root.AddCommand(newServeCmd(), newConsoleCmd(), newCompactCmd())
	return root
}

// loadConfig layers a config file (if --config was given) under
// --log-level/--json-logs overrides, then initializes the global logger
// before returning.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if jsonLogs {
		cfg.Logging.JSONOutput = true
	}

	zlog.Init(zlog.Config{
		Level:      zlog.Level(cfg.Logging.Level),
		JSONOutput: cfg.Logging.JSONOutput,
	})
	return cfg, nil
}
