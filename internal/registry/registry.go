// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTTL = 24 * time.Hour

// InternalErrorHook is notified whenever the poller or finalizer hits an
// unexpected (kind=internal) failure, so callers can count it (e.g. via
// internal/metrics) without the registry depending on a metrics package.
type InternalErrorHook func(queryID, serverQueryID, op string)

// Registry is the process-wide, long-lived query registry. It owns every
// QueryRecord and the Conn inside each record's runtime. Construct once
// per process and pass it as a dependency into whatever exposes it
// (HTTP handlers, MCP tools, CLI commands) -- never as a hidden singleton.
type Registry struct {
	mu      sync.Mutex
	records map[string]*queryRecord
	order   []string
	closed  bool

	provider ConnectionProvider
	ttl      time.Duration
	now      func() time.Time

	onInternalError InternalErrorHook
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithTTL overrides the default 24h post-terminal grace period.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithInternalErrorHook registers a callback invoked for every kind=internal
// failure observed by the poller or finalizer.
func WithInternalErrorHook(hook InternalErrorHook) Option {
	return func(r *Registry) {
		r.onInternalError = hook
	}
}

// New constructs a Registry backed by provider.
func New(provider ConnectionProvider, opts ...Option) *Registry {
	r := &Registry{
		records:  make(map[string]*queryRecord),
		provider: provider,
		ttl:      defaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExecuteQuery submits sql for asynchronous execution and returns a
// locally-generated query id. It never blocks on query completion.
//
// Per spec: if ExecuteQuery returns a query id, the record is either
// RUNNING with a live poller, or already terminal with all resources
// released. It never raises for query-lifecycle failures. After Close it
// still returns a fresh id, but no record is created for it.
func (r *Registry) ExecuteQuery(ctx context.Context, sql string, opts *QueryOptions) string {
	options := DefaultQueryOptions()
	if opts != nil {
		options = *opts
	}
	if options.PollInterval <= 0 {
		options.PollInterval = time.Second
	}

	id := newQueryID()
	now := r.now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return id
	}
	rec := newQueryRecord(id, sql, options, now, time.Time{})
	r.records[id] = rec
	r.order = append(r.order, id)
	r.mu.Unlock()

	conn, err := r.provider.NewConnection(ctx)
	if err != nil {
		r.finalizeFailure(id, StatusFailed, ErrorInfo{Kind: ErrorKindConnect, Message: err.Error()})
		return id
	}

	serverQueryID, err := conn.SubmitAsync(ctx, sql)
	if err != nil {
		r.provider.CloseSafely(conn)
		r.finalizeFailure(id, StatusFailed, ErrorInfo{Kind: ErrorKindSubmit, Message: err.Error()})
		return id
	}

	pollCtx, cancelPoller := context.WithCancel(context.Background())
	rt := &queryRuntime{
		serverQueryID: serverQueryID,
		conn:          conn,
		pollerDone:    make(chan struct{}),
		cancelPoller:  cancelPoller,
		pollInterval:  options.PollInterval,
	}

	r.mu.Lock()
	rec.startedAt = r.now()
	rec.status = StatusRunning
	rec.runtime = rt
	rec.serverQueryID = serverQueryID
	r.mu.Unlock()

	go r.runPoller(pollCtx, id, rt)

	return id
}

func (r *Registry) finalizeFailure(id string, status QueryStatus, errInfo ErrorInfo) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return
	}
	rec.startedAt = now
	rec.setTerminalError(now, status, errInfo, now.Add(r.ttl))
}

// Cancel requests cancellation of a running query. It returns true if a
// cancel signal was dispatched, false if the record is absent or already
// terminal. It is synchronous: when it returns, the record is CANCELED
// and its connection is closed.
func (r *Registry) Cancel(ctx context.Context, queryID string) bool {
	r.mu.Lock()
	rec, ok := r.records[queryID]
	if !ok || rec.status.Terminal() || rec.runtime == nil {
		r.mu.Unlock()
		return false
	}
	rt := rec.runtime
	r.mu.Unlock()

	// Cooperative signal; the poller checks after each blocking call and
	// on wake from sleep.
	rt.cancelPoller()

	// Never proceed to close the connection until the poller has joined --
	// it may hold the connection for an outstanding blocking status-check.
	<-rt.pollerDone

	r.issueServerCancel(ctx, queryID, rt.serverQueryID)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok = r.records[queryID]
	if !ok {
		return true
	}
	if rec.runtime != nil {
		r.provider.CloseSafely(rec.runtime.conn)
		rec.runtime.conn = nil
	}
	now := r.now()
	rec.setTerminalError(now, StatusCanceled, ErrorInfo{Kind: "cancel", Message: "canceled by caller"}, now.Add(r.ttl))
	rec.runtime = nil
	return true
}

// issueServerCancel opens a second, throwaway connection to cancel the
// server-side query, since the owning connection may still be in use by
// a just-joined but not-yet-torn-down poller call.
func (r *Registry) issueServerCancel(ctx context.Context, queryID, serverQueryID string) {
	cancelConn, err := r.provider.NewConnection(ctx)
	if err != nil {
		log.Error().Err(err).Str("query_id", queryID).Str("server_query_id", serverQueryID).
			Str("op", "cancel").Msg("registry: failed to open cancel connection")
		return
	}
	defer r.provider.CloseSafely(cancelConn)

	if err := cancelConn.Cancel(ctx, serverQueryID); err != nil {
		log.Error().Err(err).Str("query_id", queryID).Str("server_query_id", serverQueryID).
			Str("op", "cancel").Msg("registry: server-side cancel failed")
	}
}

// GetSnapshot returns an immutable projection of the record, or nil if
// queryID is unknown.
func (r *Registry) GetSnapshot(queryID string) *QuerySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[queryID]
	if !ok {
		return nil
	}
	snap := snapshotOf(rec, r.now())
	return &snap
}

// FetchResult returns a page of a succeeded query's inline result, or nil
// if the record is missing or not yet SUCCEEDED.
func (r *Registry) FetchResult(queryID string, offset, limit int) *QueryPage {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[queryID]
	if !ok || rec.status != StatusSucceeded {
		return nil
	}
	page := pageOf(rec, offset, limit)
	return &page
}

// ListQueries returns snapshots of all records in insertion order,
// optionally filtered by status.
func (r *Registry) ListQueries(statusFilter *QueryStatus) []QuerySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	out := make([]QuerySnapshot, 0, len(r.order))
	for _, id := range r.order {
		rec, ok := r.records[id]
		if !ok {
			continue
		}
		if statusFilter != nil && rec.status != *statusFilter {
			continue
		}
		out = append(out, snapshotOf(rec, now))
	}
	return out
}

// PruneExpired removes every record whose TTL has elapsed, returning the
// count removed. Records unexpectedly still alive are torn down with the
// same poller-join -> connection-close ordering Cancel uses.
func (r *Registry) PruneExpired(ctx context.Context) int {
	now := r.now()

	r.mu.Lock()
	var expired []string
	for _, id := range r.order {
		rec, ok := r.records[id]
		if ok && !rec.ttlExpiresAt.IsZero() && rec.ttlExpiresAt.Before(now) {
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	removed := 0
	for _, id := range expired {
		r.mu.Lock()
		rec, ok := r.records[id]
		if !ok {
			r.mu.Unlock()
			continue
		}
		rt := rec.runtime
		r.mu.Unlock()

		if rt != nil {
			rt.cancelPoller()
			<-rt.pollerDone
			r.provider.CloseSafely(rt.conn)
		}

		r.mu.Lock()
		if _, ok := r.records[id]; ok {
			delete(r.records, id)
			removed++
		}
		r.mu.Unlock()
	}

	r.compactOrder()
	return removed
}

// compactOrder drops ids of records no longer present, keeping the slice
// from growing without bound across many prune cycles.
func (r *Registry) compactOrder() {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0:0]
	for _, id := range r.order {
		if _, ok := r.records[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
}

// Close drains the registry: every poller is signaled and jointly
// awaited, then every remaining connection is closed. After Close, all
// further operations behave as if every record were absent, and no new
// queries may be submitted.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	var runtimes []*queryRuntime
	for _, rec := range r.records {
		if rec.runtime != nil {
			runtimes = append(runtimes, rec.runtime)
		}
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, rt := range runtimes {
		rt.cancelPoller()
		wg.Add(1)
		go func(rt *queryRuntime) {
			defer wg.Done()
			<-rt.pollerDone
		}(rt)
	}
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.runtime != nil && rec.runtime.conn != nil {
			r.provider.CloseSafely(rec.runtime.conn)
		}
	}
	r.records = make(map[string]*queryRecord)
	r.order = nil
}
