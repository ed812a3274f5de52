// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

type fakeConn struct{}

func (c *fakeConn) SubmitAsync(ctx context.Context, sql string) (string, error) { return "sf-1", nil }
func (c *fakeConn) CheckStatus(ctx context.Context, serverQueryID string) (registry.StatusResult, error) {
	return registry.StatusResult{State: registry.StatusStillRunning}, nil
}
func (c *fakeConn) FetchResult(ctx context.Context, serverQueryID string, maxRows int) (*registry.ResultSet, error) {
	return &registry.ResultSet{}, nil
}
func (c *fakeConn) Cancel(ctx context.Context, serverQueryID string) error { return nil }
func (c *fakeConn) Close() error                                          { return nil }

type fakeProvider struct{}

func (p *fakeProvider) NewConnection(ctx context.Context) (registry.Conn, error) {
	return &fakeConn{}, nil
}
func (p *fakeProvider) CloseSafely(conn registry.Conn) { _ = conn.Close() }

func TestServeQuery_NotFound(t *testing.T) {
	t.Parallel()

	reg := registry.New(&fakeProvider{})
	t.Cleanup(reg.Close)
	m := NewManager(reg)

	req := httptest.NewRequest(http.MethodGet, "/queries/does-not-exist/stream", nil)
	w := httptest.NewRecorder()
	m.ServeQuery(w, req, "does-not-exist")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOnSession_MissingQueryID(t *testing.T) {
	t.Parallel()

	reg := registry.New(&fakeProvider{})
	t.Cleanup(reg.Close)
	m := NewManager(reg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	topics, ok := m.onSession(w, req)
	require.False(t, ok)
	assert.Nil(t, topics)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnSession_ReturnsQueryIDTopic(t *testing.T) {
	t.Parallel()

	reg := registry.New(&fakeProvider{})
	t.Cleanup(reg.Close)
	m := NewManager(reg)

	queryID := reg.ExecuteQuery(context.Background(), "select 1", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), queryTopicContextKey, queryID))
	w := httptest.NewRecorder()

	topics, ok := m.onSession(w, req)
	require.True(t, ok)
	assert.Equal(t, []string{queryID}, topics)
}
