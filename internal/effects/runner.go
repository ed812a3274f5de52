// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package effects implements the simple, synchronous Snowflake operations
// that sit alongside the async query registry: list/describe metadata,
// sample rows, analyze statistics, profile semi-structured columns. None
// of them is the registry; each is a single open-connection -> execute ->
// decode -> close-connection round trip, sharing the registry's
// connection pool and BlockingExecutor.
package effects

import (
	"context"
	gosql "database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/yuly3/mcp-snowflake-go/internal/snowflake"
)

// Runner executes one-shot SQL operations against Snowflake.
type Runner struct {
	db   *gosql.DB
	exec *snowflake.BlockingExecutor
}

// NewRunner builds a Runner sharing provider's pool and executor.
func NewRunner(provider *snowflake.Provider) *Runner {
	return &Runner{db: provider.DB(), exec: provider.Executor()}
}

// Record is one result row, keyed by lower-cased column name. Metadata
// statements like SHOW SCHEMAS return a column set that varies across
// Snowflake driver versions, so callers read fields defensively.
type Record map[string]any

// queryRows runs sqlText and decodes every row into a Record.
func (r *Runner) queryRows(ctx context.Context, sqlText string, args ...any) ([]Record, error) {
	var out []Record
	err := r.exec.Run(ctx, func() error {
		conn, err := r.db.Conn(ctx)
		if err != nil {
			return errors.Wrap(err, "effects: acquire connection")
		}
		defer conn.Close()

		rows, err := conn.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return errors.Wrap(err, "effects: execute query")
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return errors.Wrap(err, "effects: read columns")
		}

		for rows.Next() {
			dest := make([]any, len(cols))
			for i := range dest {
				dest[i] = new(any)
			}
			if err := rows.Scan(dest...); err != nil {
				return errors.Wrap(err, "effects: scan row")
			}
			rec := make(Record, len(cols))
			for i, c := range cols {
				rec[strings.ToLower(c)] = *(dest[i].(*any))
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

// execStatement runs sqlText with no result rows expected.
func (r *Runner) execStatement(ctx context.Context, sqlText string, args ...any) error {
	return r.exec.Run(ctx, func() error {
		conn, err := r.db.Conn(ctx)
		if err != nil {
			return errors.Wrap(err, "effects: acquire connection")
		}
		defer conn.Close()

		if _, err := conn.ExecContext(ctx, sqlText, args...); err != nil {
			return errors.Wrap(err, "effects: execute statement")
		}
		return nil
	})
}

// asString reads a Record field as a string, tolerating nil/non-string
// values by returning "".
func (rec Record) asString(key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// asInt64 reads a Record field as an int64, tolerating the handful of
// numeric types the Snowflake driver hands back for untyped columns.
func (rec Record) asInt64(key string) int64 {
	switch v := rec[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// quoteIdent double-quotes a Snowflake identifier, escaping embedded
// quotes, so values interpolated into DDL-shaped statements (SHOW ... IN
// DATABASE x, DESCRIBE TABLE x) can't break out of the identifier.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
