// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes the async query registry's state as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// Manager owns the process's Prometheus registry.
type Manager struct {
	registry          *prometheus.Registry
	registryCollector *RegistryCollector
}

// NewManager wires a RegistryCollector over reg into a fresh Prometheus
// registry, alongside the standard Go runtime and process collectors.
func NewManager(reg *registry.Registry) *Manager {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(collectors.NewGoCollector())
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registryCollector := NewRegistryCollector(reg)
	promRegistry.MustRegister(registryCollector)

	log.Info().Msg("metrics manager initialized with registry collector")

	return &Manager{
		registry:          promRegistry,
		registryCollector: registryCollector,
	}
}

// Registry returns the underlying Prometheus registry, for mounting at
// /metrics.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// InternalErrorHook returns a registry.InternalErrorHook that feeds the
// internal-error counter exposed by this manager's collector.
func (m *Manager) InternalErrorHook() registry.InternalErrorHook {
	return m.registryCollector.ObserveInternalError
}
