// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import "context"

// StatusState classifies a server-side status check.
type StatusState int

const (
	// StatusStillRunning means the query has not reached a terminal state.
	StatusStillRunning StatusState = iota
	// StatusTerminalSuccess means the query completed successfully.
	StatusTerminalSuccess
	// StatusTerminalError means the query failed server-side.
	StatusTerminalError
)

// StatusResult is the outcome of a single status check against the driver.
type StatusResult struct {
	State      StatusState
	ErrMessage string
	ErrCode    *int
}

// ResultSet is the inline result of a terminal-success query, bounded by
// the MaxInlineRows the caller requested of FetchResult.
type ResultSet struct {
	Columns   []ColumnMeta
	Rows      []Row
	TotalRows int
}

// Conn is the small connection-provider contract the registry depends on.
// It is satisfied by package internal/snowflake's adapter over the real
// Snowflake driver; tests satisfy it with an in-memory fake. The registry
// is otherwise agnostic to the wire protocol.
type Conn interface {
	// SubmitAsync issues the driver's async-submit for sql and returns the
	// server-assigned query id.
	SubmitAsync(ctx context.Context, sql string) (serverQueryID string, err error)
	// CheckStatus polls server-side state for a previously submitted query.
	CheckStatus(ctx context.Context, serverQueryID string) (StatusResult, error)
	// FetchResult retrieves up to maxRows rows plus total row count and
	// column metadata for a query that CheckStatus reported as succeeded.
	// maxRows <= 0 means retain no rows inline.
	FetchResult(ctx context.Context, serverQueryID string, maxRows int) (*ResultSet, error)
	// Cancel issues the driver's server-side cancel for serverQueryID.
	Cancel(ctx context.Context, serverQueryID string) error
	// Close releases the underlying connection. Implementations should be
	// safe to call from ConnectionProvider.CloseSafely, which suppresses
	// any error it returns.
	Close() error
}

// ConnectionProvider opens fresh connections on demand and closes them
// safely. The registry always opens a *new* connection per query, and a
// second, throwaway connection for an out-of-band cancel, so that a
// cancel never races the poller's in-flight call on the owning connection.
type ConnectionProvider interface {
	NewConnection(ctx context.Context) (Conn, error)
	CloseSafely(conn Conn)
}
