// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api assembles the HTTP surface used for local operation and
// inspection of the async query registry. It is not the MCP JSON-RPC
// surface; it has no authentication layer and is meant for local or
// otherwise trusted use.
package api

import (
	"net/http"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/yuly3/mcp-snowflake-go/internal/api/handlers"
	apimiddleware "github.com/yuly3/mcp-snowflake-go/internal/api/middleware"
	"github.com/yuly3/mcp-snowflake-go/internal/api/sse"
	"github.com/yuly3/mcp-snowflake-go/internal/metrics"
	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// Dependencies holds everything NewRouter needs to wire handlers.
type Dependencies struct {
	Registry       *registry.Registry
	MetricsManager *metrics.Manager
	Streams        *sse.Manager
	AllowedOrigins []string
}

// NewRouter creates and configures the application router.
func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID) // must be before the logger to capture the request id
	r.Use(apimiddleware.HTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	compressor, err := httpcompression.DefaultAdapter()
	if err != nil {
		log.Error().Err(err).Msg("failed to create HTTP compression adapter")
	} else {
		r.Use(compressor)
	}

	r.Use(apimiddleware.CORSWithCredentials(deps.AllowedOrigins))

	queryHandler := handlers.NewQueryHandler(deps.Registry, deps.Streams)

	r.Route("/api", func(r chi.Router) {
		queryHandler.RegisterRoutes(r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsManager != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsManager.Registry(), promhttp.HandlerOpts{}))
	}

	return r
}
