// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// RegistryCollector is a prometheus.Collector that reports a live snapshot
// of the async query registry on every scrape, plus a running count of
// kind=internal poller failures observed since process start.
type RegistryCollector struct {
	reg *registry.Registry

	queriesByStatusDesc *prometheus.Desc
	internalErrorsDesc  *prometheus.Desc

	internalErrors atomic.Uint64
}

// NewRegistryCollector returns a collector reading live state from reg.
func NewRegistryCollector(reg *registry.Registry) *RegistryCollector {
	return &RegistryCollector{
		reg: reg,
		queriesByStatusDesc: prometheus.NewDesc(
			"snowflake_mcp_queries",
			"Number of tracked queries by lifecycle status",
			[]string{"status"},
			nil,
		),
		internalErrorsDesc: prometheus.NewDesc(
			"snowflake_mcp_registry_internal_errors_total",
			"Total number of kind=internal failures observed by the registry poller",
			nil,
			nil,
		),
	}
}

// ObserveInternalError is a registry.InternalErrorHook; wire it in via
// registry.WithInternalErrorHook.
func (c *RegistryCollector) ObserveInternalError(queryID, serverQueryID, op string) {
	c.internalErrors.Add(1)
}

func (c *RegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queriesByStatusDesc
	ch <- c.internalErrorsDesc
}

func (c *RegistryCollector) Collect(ch chan<- prometheus.Metric) {
	counts := map[registry.QueryStatus]int{
		registry.StatusPending:   0,
		registry.StatusRunning:   0,
		registry.StatusSucceeded: 0,
		registry.StatusFailed:    0,
		registry.StatusCanceled:  0,
		registry.StatusTimeout:   0,
	}
	for _, snap := range c.reg.ListQueries(nil) {
		counts[snap.Status]++
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.queriesByStatusDesc,
			prometheus.GaugeValue,
			float64(n),
			string(status),
		)
	}

	ch <- prometheus.MustNewConstMetric(
		c.internalErrorsDesc,
		prometheus.CounterValue,
		float64(c.internalErrors.Load()),
	)
}
