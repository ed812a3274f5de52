// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import "time"

// queryRuntime holds resources for a record that is still alive (PENDING
// or RUNNING, or mid-teardown). It is never exposed outside the registry.
type queryRuntime struct {
	serverQueryID string
	conn          Conn
	pollerDone    chan struct{}
	cancelPoller  func()
	pollInterval  time.Duration
}

// queryRecord is the registry's mutable, owned state for one query.
// All fields are only ever mutated under the registry's mutex.
type queryRecord struct {
	queryID string
	sql     string
	status  QueryStatus

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time

	// serverQueryID is copied out of runtime at submission time and kept
	// past teardown, so a terminal snapshot still reports the sfqid the
	// query ran under.
	serverQueryID string

	options QueryOptions

	rowCount     int
	haveRowCount bool
	columns      []ColumnMeta
	resultInline []Row
	haveResult   bool

	err *ErrorInfo

	ttlExpiresAt time.Time

	runtime *queryRuntime
}

func newQueryRecord(id, sql string, opts QueryOptions, now, ttl time.Time) *queryRecord {
	return &queryRecord{
		queryID:      id,
		sql:          sql,
		status:       StatusPending,
		createdAt:    now,
		options:      opts,
		ttlExpiresAt: ttl,
	}
}

func (r *queryRecord) setTerminalSuccess(now time.Time, columns []ColumnMeta, rows []Row, totalRows int, ttl time.Time) {
	r.status = StatusSucceeded
	r.finishedAt = now
	r.columns = columns
	r.resultInline = rows
	r.haveResult = true
	r.rowCount = totalRows
	r.haveRowCount = true
	r.ttlExpiresAt = ttl
}

func (r *queryRecord) setTerminalError(now time.Time, status QueryStatus, errInfo ErrorInfo, ttl time.Time) {
	r.status = status
	r.finishedAt = now
	r.err = &errInfo
	r.ttlExpiresAt = ttl
}
