// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"

	"github.com/pkg/errors"
)

// ErrWriteStatement is returned by ExecuteReadOnlyQuery when sql's leading
// keyword identifies it as a write/DDL statement.
var ErrWriteStatement = errors.New("effects: statement is not read-only")

// QueryResult is the decoded result of a synchronous read-only query.
type QueryResult struct {
	Rows     []Record `json:"rows"`
	RowCount int      `json:"row_count"`
}

// ExecuteReadOnlyQuery runs sql synchronously and returns every row,
// rejecting it up front if IsWriteStatement flags it. Unlike the async
// registry this blocks for the full duration of the query; it exists for
// small, fast lookups, not long-running analytical queries.
func (r *Runner) ExecuteReadOnlyQuery(ctx context.Context, sql string) (*QueryResult, error) {
	if IsWriteStatement(sql) {
		return nil, ErrWriteStatement
	}

	rows, err := r.queryRows(ctx, sql)
	if err != nil {
		return nil, err
	}

	return &QueryResult{Rows: rows, RowCount: len(rows)}, nil
}
