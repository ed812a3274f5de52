// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package snowflake

import (
	"context"
	gosql "database/sql"
	"database/sql/driver"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/snowflakedb/gosnowflake"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// sqlConn is the concrete registry.Conn. It holds one dedicated *sql.Conn
// for the lifetime of a single async query: submit, every status poll, the
// final fetch, and (for a throwaway cancel connection) the cancel call all
// go through the same underlying driver connection.
type sqlConn struct {
	conn *gosql.Conn
	exec *BlockingExecutor
}

// SubmitAsync starts sql without waiting for completion and returns the
// server-assigned query id.
func (c *sqlConn) SubmitAsync(ctx context.Context, sql string) (string, error) {
	var queryID string
	err := c.exec.Run(ctx, func() error {
		asyncCtx := gosnowflake.WithAsyncModeNoFetch(gosnowflake.WithAsyncMode(ctx))
		return c.conn.Raw(func(driverConn any) error {
			queryer, ok := driverConn.(driver.QueryerContext)
			if !ok {
				return errors.New("snowflake: driver connection does not support QueryerContext")
			}
			rows, err := queryer.QueryContext(asyncCtx, sql, nil)
			if err != nil {
				return errors.Wrap(err, "snowflake: submit async query")
			}
			sfRows, ok := rows.(gosnowflake.SnowflakeRows)
			if !ok {
				_ = rows.Close()
				return errors.New("snowflake: driver rows do not expose a query id")
			}
			queryID = sfRows.GetQueryID()
			return rows.Close()
		})
	})
	if err != nil {
		return "", err
	}
	if queryID == "" {
		return "", errors.New("snowflake: server returned an empty query id")
	}
	return queryID, nil
}

// CheckStatus asks Snowflake for the current status of serverQueryID.
func (c *sqlConn) CheckStatus(ctx context.Context, serverQueryID string) (registry.StatusResult, error) {
	var result registry.StatusResult
	err := c.exec.Run(ctx, func() error {
		return c.conn.Raw(func(driverConn any) error {
			sfConn, ok := driverConn.(gosnowflake.SnowflakeConnection)
			if !ok {
				return errors.New("snowflake: driver connection does not expose query status")
			}
			status, err := sfConn.GetQueryStatus(ctx, serverQueryID)
			if err != nil {
				return classifyStatusErr(err, &result)
			}
			result = registry.StatusResult{State: registry.StatusTerminalSuccess}
			if status.ErrorCode != "" {
				result.State = registry.StatusTerminalError
				result.ErrMessage = status.ErrorMessage
				if code, convErr := strconv.Atoi(status.ErrorCode); convErr == nil {
					result.ErrCode = &code
				}
			}
			return nil
		})
	})
	return result, err
}

// classifyStatusErr maps the driver's "query is still running" sentinel
// into StatusStillRunning instead of propagating it as an error.
func classifyStatusErr(err error, out *registry.StatusResult) error {
	var sfErr *gosnowflake.SnowflakeError
	if errors.As(err, &sfErr) && sfErr.Number == gosnowflake.ErrQueryIsRunning {
		*out = registry.StatusResult{State: registry.StatusStillRunning}
		return nil
	}
	if errors.As(err, &sfErr) && sfErr.Number == gosnowflake.ErrQueryReportedError {
		code := sfErr.Number
		*out = registry.StatusResult{
			State:      registry.StatusTerminalError,
			ErrMessage: sfErr.Message,
			ErrCode:    &code,
		}
		return nil
	}
	return errors.Wrap(err, "snowflake: check query status")
}

// FetchResult fetches the full result of a terminal-success query on the
// same connection it was submitted on, decoding at most maxRows rows
// inline. maxRows <= 0 keeps nothing in memory but still reports the total.
func (c *sqlConn) FetchResult(ctx context.Context, serverQueryID string, maxRows int) (*registry.ResultSet, error) {
	var out *registry.ResultSet
	err := c.exec.Run(ctx, func() error {
		fetchCtx := gosnowflake.WithFetchResultByID(ctx, serverQueryID)
		rows, queryErr := c.conn.QueryContext(fetchCtx, "")
		if queryErr != nil {
			return errors.Wrap(queryErr, "snowflake: fetch async result")
		}
		defer rows.Close()

		colNames, err := rows.Columns()
		if err != nil {
			return errors.Wrap(err, "snowflake: read result columns")
		}
		colTypes, err := rows.ColumnTypes()
		if err != nil {
			return errors.Wrap(err, "snowflake: read result column types")
		}
		columns := make([]registry.ColumnMeta, len(colNames))
		for i, name := range colNames {
			columns[i] = registry.ColumnMeta{Name: name, Type: colTypes[i].DatabaseTypeName()}
		}

		rs := &registry.ResultSet{Columns: columns}
		dest := make([]any, len(colNames))
		for i := range dest {
			dest[i] = new(any)
		}
		for rows.Next() {
			if err := rows.Scan(dest...); err != nil {
				return errors.Wrap(err, "snowflake: scan result row")
			}
			rs.TotalRows++
			if maxRows <= 0 || len(rs.Rows) >= maxRows {
				continue
			}
			row := make(registry.Row, len(colNames))
			for i, name := range colNames {
				row[name] = *(dest[i].(*any))
			}
			rs.Rows = append(rs.Rows, row)
		}
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, "snowflake: iterate result rows")
		}
		out = rs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel issues a server-side cancel for serverQueryID using the Snowflake
// SYSTEM$CANCEL_QUERY system function, which works from any connection in
// the account, not only the one that submitted the query.
func (c *sqlConn) Cancel(ctx context.Context, serverQueryID string) error {
	return c.exec.Run(ctx, func() error {
		_, err := c.conn.ExecContext(ctx, "SELECT SYSTEM$CANCEL_QUERY(?)", serverQueryID)
		if err != nil {
			return errors.Wrap(err, "snowflake: cancel query")
		}
		return nil
	})
}

// Close releases the underlying driver connection back to the pool.
func (c *sqlConn) Close() error {
	if err := c.conn.Close(); err != nil {
		log.Debug().Err(err).Msg("snowflake: error closing connection")
		return err
	}
	return nil
}
