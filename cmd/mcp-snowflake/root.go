// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"
)

func rootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp-snowflake",
		Short: "Async Snowflake query registry server and CLI",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to the TOML config file")

	cmd.AddCommand(runServeCommand(&configPath))
	cmd.AddCommand(runQueryCommand(&configPath))

	return cmd
}
