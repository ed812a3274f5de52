// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yuly3/mcp-snowflake-go/internal/api"
	"github.com/yuly3/mcp-snowflake-go/internal/api/sse"
	"github.com/yuly3/mcp-snowflake-go/internal/config"
	"github.com/yuly3/mcp-snowflake-go/internal/metrics"
	"github.com/yuly3/mcp-snowflake-go/internal/registry"
	"github.com/yuly3/mcp-snowflake-go/internal/snowflake"
)

func runServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server exposing the async query registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Config.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	var metricsManager *metrics.Manager

	reg := registry.New(provider,
		registry.WithTTL(time.Duration(cfg.Config.Registry.TTLMinutes)*time.Minute),
		registry.WithInternalErrorHook(func(queryID, serverQueryID, op string) {
			if metricsManager != nil {
				metricsManager.InternalErrorHook()(queryID, serverQueryID, op)
			}
		}),
	)
	defer reg.Close()

	if cfg.Config.MetricsEnabled {
		metricsManager = metrics.NewManager(reg)
	}

	streams := sse.NewManager(reg)

	router := api.NewRouter(&api.Dependencies{
		Registry:       reg,
		MetricsManager: metricsManager,
		Streams:        streams,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Config.Host, cfg.Config.Port),
		Handler: router,
	}

	if interval := time.Duration(cfg.Config.Registry.PruneIntervalSeconds) * time.Second; interval > 0 {
		go runPruner(ctx, reg, interval)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("mcp-snowflake: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runPruner(ctx context.Context, reg *registry.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := reg.PruneExpired(ctx); removed > 0 {
				log.Debug().Int("removed", removed).Msg("mcp-snowflake: pruned expired queries")
			}
		}
	}
}

func applyLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
