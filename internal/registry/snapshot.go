// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import "time"

// SnowflakeInfo is the nested block exposing only the server-side id.
type SnowflakeInfo struct {
	ServerQueryID *string `json:"sfqid"`
}

// QuerySnapshot is an immutable, caller-safe projection of a queryRecord.
// It never shares mutable state with the record it was built from.
type QuerySnapshot struct {
	QueryID              string        `json:"query_id"`
	SQL                  string        `json:"sql"`
	Status               QueryStatus   `json:"status"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	StartedAt            *time.Time    `json:"started_at"`
	FinishedAt           *time.Time    `json:"finished_at"`
	ExecutionTimeSeconds *float64      `json:"execution_time_seconds"`
	RowCount             *int          `json:"row_count"`
	Columns              []ColumnMeta  `json:"columns"`
	Error                *ErrorInfo    `json:"error"`
	Snowflake            SnowflakeInfo `json:"snowflake"`
}

// QueryPage is a slice of a succeeded query's inline result.
type QueryPage struct {
	Rows      []Row        `json:"rows"`
	TotalRows int          `json:"total_rows"`
	Offset    int          `json:"offset"`
	Limit     int          `json:"limit"`
	HasMore   bool         `json:"has_more"`
	Columns   []ColumnMeta `json:"columns"`
}

// snapshotOf builds a QuerySnapshot from a record. Caller must hold the
// registry mutex (for read) while calling this.
func snapshotOf(r *queryRecord, now time.Time) QuerySnapshot {
	snap := QuerySnapshot{
		QueryID:   r.queryID,
		SQL:       r.sql,
		Status:    r.status,
		CreatedAt: r.createdAt,
		Columns:   append([]ColumnMeta(nil), r.columns...),
	}

	if !r.startedAt.IsZero() {
		startedAt := r.startedAt
		snap.StartedAt = &startedAt
	}
	if !r.finishedAt.IsZero() {
		finishedAt := r.finishedAt
		snap.FinishedAt = &finishedAt
		snap.UpdatedAt = finishedAt
	} else {
		snap.UpdatedAt = now
	}

	if !r.startedAt.IsZero() {
		end := now
		if !r.finishedAt.IsZero() {
			end = r.finishedAt
		}
		secs := end.Sub(r.startedAt).Seconds()
		snap.ExecutionTimeSeconds = &secs
	}

	if r.haveRowCount {
		rc := r.rowCount
		snap.RowCount = &rc
	}

	if r.err != nil {
		errCopy := *r.err
		snap.Error = &errCopy
	}

	if r.serverQueryID != "" {
		id := r.serverQueryID
		snap.Snowflake.ServerQueryID = &id
	}

	return snap
}

// pageOf slices a succeeded record's inline result. Caller must hold the
// registry mutex (for read) while calling this.
func pageOf(r *queryRecord, offset, limit int) QueryPage {
	total := len(r.resultInline)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	rows := append([]Row(nil), r.resultInline[offset:end]...)

	effectiveLimit := limit
	if effectiveLimit <= 0 {
		effectiveLimit = total - offset
	}

	return QueryPage{
		Rows:      rows,
		TotalRows: r.rowCount,
		Offset:    offset,
		Limit:     effectiveLimit,
		HasMore:   end < total,
		Columns:   append([]ColumnMeta(nil), r.columns...),
	}
}
