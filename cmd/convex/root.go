// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/convex/internal/config"
	"github.com/holomush/convex/internal/xdg"
)

// configFile is the path given with --config.
var configFile string

// NewRootCmd creates the convex command. Without --config the file in the
// XDG config directory is used when present. Other flags override the
// matching keys of the configuration file.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convex",
		Short: "Convex - a plugin-driven IRC bot",
		Long: `Convex connects to an IRC server, loads its plugins and answers
commands addressed to it by nickname until told to quit.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configFile
			if path == "" {
				found, err := xdg.DefaultConfigFile()
				if err != nil {
					return err //nolint:wrapcheck // already coded
				}
				path = found
			}
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			return runBotWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	flags := cmd.Flags()
	flags.String("log-format", config.DefaultLogFormat, "log format (json or text)")
	flags.String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("nickname", config.DefaultNickname, "bot nickname")
	flags.String("server", config.DefaultServerAddress, "IRC server address")
	flags.Int("port", config.DefaultServerPort, "IRC server port")

	return cmd
}
