// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// fakeProviderStub is a minimal registry.ConnectionProvider that never
// hands out connections; enough to exercise the metrics collector without
// pulling in internal/snowflake.
type fakeProviderStub struct{}

func (fakeProviderStub) NewConnection(ctx context.Context) (registry.Conn, error) {
	return nil, context.Canceled
}

func (fakeProviderStub) CloseSafely(conn registry.Conn) {}

func TestNewManager(t *testing.T) {
	reg := registry.New(fakeProviderStub{})
	defer reg.Close()

	manager := NewManager(reg)

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.registry)
	assert.NotNil(t, manager.registryCollector)
}

func TestManager_Registry_HasStandardCollectors(t *testing.T) {
	reg := registry.New(fakeProviderStub{})
	defer reg.Close()

	manager := NewManager(reg)
	metricFamilies, err := manager.Registry().Gather()
	require.NoError(t, err)

	foundGoMetrics := false
	for _, mf := range metricFamilies {
		if strings.HasPrefix(mf.GetName(), "go_") {
			foundGoMetrics = true
		}
	}
	assert.True(t, foundGoMetrics, "Go runtime metrics should be registered")
}

func TestManager_MetricsCanBeScraped(t *testing.T) {
	reg := registry.New(fakeProviderStub{})
	defer reg.Close()

	manager := NewManager(reg)
	metricCount := testutil.CollectAndCount(manager.Registry())
	assert.Greater(t, metricCount, 0)
}

func TestManager_InternalErrorHookIncrementsCounter(t *testing.T) {
	reg := registry.New(fakeProviderStub{})
	defer reg.Close()

	manager := NewManager(reg)
	hook := manager.InternalErrorHook()
	hook("q1", "sf1", "check_status")
	hook("q2", "sf2", "check_status")

	families, err := manager.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "snowflake_mcp_registry_internal_errors_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "internal errors counter metric should be present")
}
