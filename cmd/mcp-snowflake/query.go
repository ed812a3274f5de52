// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuly3/mcp-snowflake-go/internal/config"
	"github.com/yuly3/mcp-snowflake-go/internal/registry"
	"github.com/yuly3/mcp-snowflake-go/internal/snowflake"
)

func runQueryCommand(configPath *string) *cobra.Command {
	var (
		timeoutSeconds int
		maxInlineRows  int
	)

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Submit one query, poll until terminal, and print the result page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, *configPath, args[0], timeoutSeconds, maxInlineRows)
		},
	}

	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Query timeout in seconds (0 means no timeout)")
	cmd.Flags().IntVar(&maxInlineRows, "max-rows", 1000, "Maximum inline rows to retain for paging")

	return cmd
}

func runQuery(cmd *cobra.Command, configPath, sql string, timeoutSeconds, maxInlineRows int) error {
	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Config.LogLevel)

	ctx := cmd.Context()

	exec := snowflake.NewBlockingExecutor(cfg.Config.Registry.MaxConcurrentBlockingCalls)
	defer exec.Close()

	connCfg := snowflake.ConnectionConfig{
		Account:             cfg.Config.Snowflake.Account,
		User:                cfg.Config.Snowflake.User,
		Password:            cfg.Config.Snowflake.Password,
		Role:                cfg.Config.Snowflake.Role,
		Warehouse:           cfg.Config.Snowflake.Warehouse,
		Database:            cfg.Config.Snowflake.Database,
		Schema:              cfg.Config.Snowflake.Schema,
		Authenticator:       cfg.Config.Snowflake.Authenticator,
		PrivateKeyPath:      cfg.Config.Snowflake.PrivateKeyPath,
		StoreTempCredential: cfg.Config.Snowflake.StoreTempCredential,
	}

	provider, err := snowflake.NewProvider(ctx, connCfg, exec, cfg.Config.Snowflake.MaxOpenConns)
	if err != nil {
		return err
	}
	defer provider.Close()

	reg := registry.New(provider)
	defer reg.Close()

	opts := registry.DefaultQueryOptions()
	opts.MaxInlineRows = maxInlineRows
	if timeoutSeconds > 0 {
		timeout := time.Duration(timeoutSeconds) * time.Second
		opts.QueryTimeout = &timeout
	}

	queryID := reg.ExecuteQuery(ctx, sql, &opts)

	snap, err := pollUntilTerminal(ctx, reg, queryID)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(encoded))

	if snap.Status == registry.StatusSucceeded {
		page := reg.FetchResult(queryID, 0, maxInlineRows)
		if page != nil {
			rows, err := json.MarshalIndent(page, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(rows))
		}
	}

	return nil
}

func pollUntilTerminal(ctx context.Context, reg *registry.Registry, queryID string) (*registry.QuerySnapshot, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		snap := reg.GetSnapshot(queryID)
		if snap == nil {
			return nil, errors.New("mcp-snowflake: query vanished from registry")
		}
		if snap.Status.Terminal() {
			return snap, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
