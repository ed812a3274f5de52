// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// runPoller is the per-query background task. It repeatedly checks
// server-side status until a terminal state is reached, a cancel signal
// arrives, or query_timeout elapses. Finalization happens here for every
// path except an externally-driven Cancel/Close, which own their own
// teardown order.
func (r *Registry) runPoller(ctx context.Context, queryID string, rt *queryRuntime) {
	defer close(rt.pollerDone)

	for {
		select {
		case <-ctx.Done():
			// Cancel/Close already signaled; the caller finalizes the record.
			return
		default:
		}

		if timedOut, started, limit := r.checkTimeout(queryID); timedOut {
			r.finalizeTerminal(queryID, StatusTimeout, nil, nil, 0,
				&ErrorInfo{Kind: ErrorKindTimeout, Message: timeoutMessage(limit)}, rt)
			return
		} else if started.IsZero() {
			// Record vanished (pruned/closed) out from under us.
			return
		}

		result, err := rt.conn.CheckStatus(ctx, rt.serverQueryID)
		if err != nil {
			if ctx.Err() != nil {
				// Cancel/Close canceled pollCtx while CheckStatus was in
				// flight; the executor returned before the call actually
				// finished. Teardown belongs to whoever canceled us, not
				// to a finalize here that would race their connection close.
				return
			}
			r.logInternal(queryID, rt.serverQueryID, "check_status", err)
			r.finalizeTerminal(queryID, StatusFailed, nil, nil, 0,
				&ErrorInfo{Kind: ErrorKindInternal, Message: err.Error()}, rt)
			return
		}

		switch result.State {
		case StatusStillRunning:
			if !r.sleepCancelable(ctx, rt.pollInterval) {
				return
			}
			continue

		case StatusTerminalSuccess:
			maxRows := r.maxInlineRows(queryID)
			rs, err := rt.conn.FetchResult(ctx, rt.serverQueryID, maxRows)
			if err != nil {
				if ctx.Err() != nil {
					// Same race as CheckStatus above: the cancellation that
					// interrupted Run owns teardown, not us.
					return
				}
				log.Error().Err(err).Str("query_id", queryID).Str("server_query_id", rt.serverQueryID).
					Str("op", "fetch_result").Msg("registry: failed to decode result rows")
				r.finalizeTerminal(queryID, StatusFailed, nil, nil, 0,
					&ErrorInfo{Kind: ErrorKindParseResult, Message: err.Error()}, rt)
				return
			}
			r.finalizeTerminal(queryID, StatusSucceeded, rs.Columns, rs.Rows, rs.TotalRows, nil, rt)
			return

		case StatusTerminalError:
			code := result.ErrCode
			r.finalizeTerminal(queryID, StatusFailed, nil, nil, 0,
				&ErrorInfo{Kind: ErrorKindExecution, Message: result.ErrMessage, Code: code}, rt)
			return
		}
	}
}

// checkTimeout reports whether the record's query_timeout has elapsed.
// It also returns the record's startedAt (zero if the record is gone) so
// callers can distinguish "no timeout configured" from "record vanished".
func (r *Registry) checkTimeout(queryID string) (timedOut bool, started time.Time, limit time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[queryID]
	if !ok {
		return false, time.Time{}, 0
	}
	started = rec.startedAt
	if started.IsZero() {
		started = r.now()
	}
	if rec.options.QueryTimeout == nil {
		return false, started, 0
	}
	limit = *rec.options.QueryTimeout
	return r.now().Sub(started) >= limit, started, limit
}

func (r *Registry) maxInlineRows(queryID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[queryID]
	if !ok {
		return 0
	}
	return rec.options.MaxInlineRows
}

// sleepCancelable sleeps for d or returns false early if ctx is canceled.
func (r *Registry) sleepCancelable(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// finalizeTerminal writes terminal fields, then releases the connection
// outside the mutex, then clears the runtime -- per spec.md 4.5.
func (r *Registry) finalizeTerminal(queryID string, status QueryStatus, columns []ColumnMeta, rows []Row, totalRows int, errInfo *ErrorInfo, rt *queryRuntime) {
	now := r.now()

	r.mu.Lock()
	rec, ok := r.records[queryID]
	if !ok {
		r.mu.Unlock()
		return
	}
	ttl := now.Add(r.ttl)
	if status == StatusSucceeded {
		rec.setTerminalSuccess(now, columns, rows, totalRows, ttl)
	} else {
		rec.setTerminalError(now, status, *errInfo, ttl)
	}
	r.mu.Unlock()

	r.provider.CloseSafely(rt.conn)

	r.mu.Lock()
	if rec.runtime == rt {
		rec.runtime.conn = nil
		rec.runtime = nil
	}
	r.mu.Unlock()
}

func (r *Registry) logInternal(queryID, serverQueryID, op string, err error) {
	log.Error().Err(err).Str("query_id", queryID).Str("server_query_id", serverQueryID).
		Str("op", op).Msg("registry: internal poller error")
	if r.onInternalError != nil {
		r.onInternalError(queryID, serverQueryID, op)
	}
}

func timeoutMessage(limit time.Duration) string {
	return "query exceeded configured timeout of " + limit.String()
}
