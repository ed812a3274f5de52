// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuly3/mcp-snowflake-go/internal/api/sse"
	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// fakeConn is a minimal registry.Conn that finishes a query synchronously
// with a scripted status, so handler tests never depend on a real driver
// or on timing.
type fakeConn struct {
	status registry.StatusResult
	result *registry.ResultSet
}

func (c *fakeConn) SubmitAsync(ctx context.Context, sql string) (string, error) {
	return "sf-1", nil
}

func (c *fakeConn) CheckStatus(ctx context.Context, serverQueryID string) (registry.StatusResult, error) {
	return c.status, nil
}

func (c *fakeConn) FetchResult(ctx context.Context, serverQueryID string, maxRows int) (*registry.ResultSet, error) {
	if c.result == nil {
		return &registry.ResultSet{}, nil
	}
	return c.result, nil
}

func (c *fakeConn) Cancel(ctx context.Context, serverQueryID string) error { return nil }
func (c *fakeConn) Close() error                                          { return nil }

type fakeProvider struct {
	conn *fakeConn
}

func (p *fakeProvider) NewConnection(ctx context.Context) (registry.Conn, error) {
	return p.conn, nil
}

func (p *fakeProvider) CloseSafely(conn registry.Conn) { _ = conn.Close() }

func newTestHandler(t *testing.T) (*QueryHandler, *registry.Registry) {
	t.Helper()
	provider := &fakeProvider{
		conn: &fakeConn{
			status: registry.StatusResult{State: registry.StatusTerminalSuccess},
			result: &registry.ResultSet{
				Columns:   []registry.ColumnMeta{{Name: "n", Type: "NUMBER"}},
				Rows:      []registry.Row{{"n": 1}, {"n": 2}},
				TotalRows: 2,
			},
		},
	}
	reg := registry.New(provider, registry.WithTTL(0))
	t.Cleanup(reg.Close)
	return NewQueryHandler(reg, sse.NewManager(reg)), reg
}

func newRouter(h *QueryHandler) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestSubmitQuery_RequiresSQL(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	r := newRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/queries/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitQuery_ReturnsQueryID(t *testing.T) {
	t.Parallel()

	h, reg := newTestHandler(t)
	r := newRouter(h)

	body := `{"sql": "select 1"}`
	req := httptest.NewRequest(http.MethodPost, "/queries/", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp submitQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.QueryID)

	snap := reg.GetSnapshot(resp.QueryID)
	require.NotNil(t, snap)
}

func TestGetQuery_NotFound(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	r := newRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/queries/does-not-exist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetResult_ConflictWhenNotSucceeded(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{conn: &fakeConn{status: registry.StatusResult{State: registry.StatusStillRunning}}}
	reg := registry.New(provider, registry.WithTTL(0))
	t.Cleanup(reg.Close)
	h := NewQueryHandler(reg, sse.NewManager(reg))
	r := newRouter(h)

	queryID := reg.ExecuteQuery(context.Background(), "select 1", nil)

	req := httptest.NewRequest(http.MethodGet, "/queries/"+queryID+"/result", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPruneExpired_RespondsWithRemovedCount(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	r := newRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/queries/prune", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Removed, 0)
}
