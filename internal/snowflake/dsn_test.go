// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfig_DSN(t *testing.T) {
	t.Parallel()

	cfg := ConnectionConfig{
		Account:   "xy12345",
		User:      "svc_mcp",
		Password:  "hunter2",
		Warehouse: "COMPUTE_WH",
		Database:  "ANALYTICS",
		Schema:    "PUBLIC",
	}

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "xy12345")
	assert.Contains(t, dsn, "svc_mcp")
	assert.Contains(t, dsn, "COMPUTE_WH")
}

func TestConnectionConfig_DSN_MissingAccount(t *testing.T) {
	t.Parallel()

	_, err := ConnectionConfig{User: "svc_mcp"}.DSN()
	assert.Error(t, err)
}

func TestConnectionConfig_DSN_UnknownAuthenticator(t *testing.T) {
	t.Parallel()

	cfg := ConnectionConfig{Account: "xy12345", User: "svc_mcp", Authenticator: "carrier-pigeon"}
	_, err := cfg.DSN()
	assert.Error(t, err)
}

func TestConnectionConfig_DSN_JWTRequiresKey(t *testing.T) {
	t.Parallel()

	cfg := ConnectionConfig{Account: "xy12345", User: "svc_mcp", Authenticator: "snowflake_jwt"}
	_, err := cfg.DSN()
	assert.Error(t, err)
}
