// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package snowflake

import (
	"context"
	gosql "database/sql"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	_ "github.com/snowflakedb/gosnowflake"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

// Provider implements registry.ConnectionProvider over a pooled *sql.DB.
// Each call to NewConnection checks out one dedicated *sql.Conn; the
// registry holds onto it for the whole lifetime of a query.
type Provider struct {
	db        *gosql.DB
	exec      *BlockingExecutor
	dialTries uint
}

// NewProvider opens the underlying connection pool for cfg. It dials
// eagerly (PingContext) so configuration errors surface at startup instead
// of on the first query submission.
func NewProvider(ctx context.Context, cfg ConnectionConfig, exec *BlockingExecutor, maxOpenConns int) (*Provider, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := gosql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake: open connection pool")
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	p := &Provider{db: db, exec: exec, dialTries: 3}

	if err := p.pingWithRetry(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return p, nil
}

func (p *Provider) pingWithRetry(ctx context.Context) error {
	return retry.Do(
		func() error {
			return p.exec.Run(ctx, func() error { return p.db.PingContext(ctx) })
		},
		retry.Context(ctx),
		retry.Attempts(p.dialTries),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("snowflake: connection pool ping failed, retrying")
		}),
	)
}

// NewConnection checks out a dedicated *sql.Conn for one query's lifetime.
func (p *Provider) NewConnection(ctx context.Context) (registry.Conn, error) {
	var conn *gosql.Conn
	err := retry.Do(
		func() error {
			var err error
			err = p.exec.Run(ctx, func() error {
				c, err := p.db.Conn(ctx)
				if err != nil {
					return err
				}
				conn = c
				return nil
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.dialTries),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake: acquire connection")
	}
	return &sqlConn{conn: conn, exec: p.exec}, nil
}

// CloseSafely closes conn, logging but swallowing any error: a failure to
// close a connection is never a reason to fail the caller's operation.
func (p *Provider) CloseSafely(conn registry.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("snowflake: failed to close connection cleanly")
	}
}

// Close shuts down the underlying connection pool. Call after every
// registry.Conn it ever handed out has been closed.
func (p *Provider) Close() error {
	return p.db.Close()
}

// DB returns the underlying connection pool, for collaborators outside
// the registry (internal/effects) that run plain synchronous queries
// instead of the async submit/poll protocol.
func (p *Provider) DB() *gosql.DB {
	return p.db
}

// Executor returns the shared BlockingExecutor, so those collaborators
// bound their blocking calls through the same pool the registry uses.
func (p *Provider) Executor() *BlockingExecutor {
	return p.exec
}
