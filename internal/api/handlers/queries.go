// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yuly3/mcp-snowflake-go/internal/api/sse"
	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// QueryHandler exposes the async query registry over plain JSON endpoints,
// for local operation and inspection.
type QueryHandler struct {
	reg *registry.Registry
	sse *sse.Manager
}

// NewQueryHandler creates a QueryHandler instance.
func NewQueryHandler(reg *registry.Registry, streams *sse.Manager) *QueryHandler {
	return &QueryHandler{reg: reg, sse: streams}
}

// RegisterRoutes wires handler routes under /queries.
func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/queries", func(r chi.Router) {
		r.Post("/", h.submitQuery)
		r.Get("/", h.listQueries)
		r.Post("/prune", h.pruneExpired)
		r.Get("/{queryID}", h.getQuery)
		r.Delete("/{queryID}", h.cancelQuery)
		r.Get("/{queryID}/result", h.getResult)
		r.Get("/{queryID}/stream", h.streamQuery)
	})
}

// submitQueryRequest is the body of POST /queries.
type submitQueryRequest struct {
	SQL              string `json:"sql"`
	QueryTimeoutSecs *int   `json:"query_timeout_seconds"`
	MaxInlineRows    *int   `json:"max_inline_rows"`
	PollIntervalMS   *int   `json:"poll_interval_ms"`
}

// submitQueryResponse is the body of the POST /queries response.
type submitQueryResponse struct {
	QueryID string `json:"query_id"`
}

func (h *QueryHandler) submitQuery(w http.ResponseWriter, r *http.Request) {
	var req submitQueryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.SQL == "" {
		RespondError(w, http.StatusBadRequest, "sql is required")
		return
	}

	opts := registry.DefaultQueryOptions()
	if req.QueryTimeoutSecs != nil {
		timeout := time.Duration(*req.QueryTimeoutSecs) * time.Second
		opts.QueryTimeout = &timeout
	}
	if req.MaxInlineRows != nil {
		opts.MaxInlineRows = *req.MaxInlineRows
	}
	if req.PollIntervalMS != nil {
		opts.PollInterval = time.Duration(*req.PollIntervalMS) * time.Millisecond
	}

	queryID := h.reg.ExecuteQuery(r.Context(), req.SQL, &opts)

	RespondJSON(w, http.StatusAccepted, submitQueryResponse{QueryID: queryID})
}

func (h *QueryHandler) getQuery(w http.ResponseWriter, r *http.Request) {
	queryID, ok := ParseStringParam(w, r, "queryID", "query id")
	if !ok {
		return
	}

	snap := h.reg.GetSnapshot(queryID)
	if snap == nil {
		RespondError(w, http.StatusNotFound, "query not found")
		return
	}

	RespondJSON(w, http.StatusOK, snap)
}

func (h *QueryHandler) cancelQuery(w http.ResponseWriter, r *http.Request) {
	queryID, ok := ParseStringParam(w, r, "queryID", "query id")
	if !ok {
		return
	}

	if !h.reg.Cancel(r.Context(), queryID) {
		RespondError(w, http.StatusConflict, "query is absent or already terminal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *QueryHandler) getResult(w http.ResponseWriter, r *http.Request) {
	queryID, ok := ParseStringParam(w, r, "queryID", "query id")
	if !ok {
		return
	}

	page := ParsePagination(r, 100, 1000)

	result := h.reg.FetchResult(queryID, page.Offset, page.Limit)
	if result == nil {
		RespondError(w, http.StatusConflict, "query is absent or not yet succeeded")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

func (h *QueryHandler) listQueries(w http.ResponseWriter, r *http.Request) {
	var filter *registry.QueryStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := registry.QueryStatus(raw)
		filter = &status
	}

	RespondJSON(w, http.StatusOK, h.reg.ListQueries(filter))
}

func (h *QueryHandler) pruneExpired(w http.ResponseWriter, r *http.Request) {
	removed := h.reg.PruneExpired(r.Context())
	RespondJSON(w, http.StatusOK, struct {
		Removed int `json:"removed"`
	}{Removed: removed})
}

func (h *QueryHandler) streamQuery(w http.ResponseWriter, r *http.Request) {
	queryID, ok := ParseStringParam(w, r, "queryID", "query id")
	if !ok {
		return
	}
	h.sse.ServeQuery(w, r, queryID)
}
