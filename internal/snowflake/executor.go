// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package snowflake

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// BlockingExecutor bounds how many blocking Snowflake driver calls (dial,
// query submit, status poll, fetch) may be in flight at once. Every
// outstanding async query holds a background poller that makes one such
// call per interval; without a cap, a registry tracking many queries could
// pile up an unbounded number of concurrent network round trips.
type BlockingExecutor struct {
	pool *pool.Pool
}

// NewBlockingExecutor returns an executor that runs at most maxConcurrent
// blocking calls at a time. maxConcurrent <= 0 means unbounded.
func NewBlockingExecutor(maxConcurrent int) *BlockingExecutor {
	p := pool.New()
	if maxConcurrent > 0 {
		p = p.WithMaxGoroutines(maxConcurrent)
	}
	return &BlockingExecutor{pool: p}
}

// Run submits fn to the bounded pool and blocks until it completes or ctx
// is canceled first. A canceled ctx does not stop fn once it has started;
// it only stops Run from waiting on it.
func (e *BlockingExecutor) Run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	// Submitting can itself block until a pool slot frees up, so it runs on
	// its own goroutine; otherwise a canceled ctx couldn't be observed until
	// a slot became available.
	go e.pool.Go(func() {
		done <- fn()
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for every call already accepted by the pool to finish. It
// does not stop new calls from being submitted; callers must stop calling
// Run first.
func (e *BlockingExecutor) Close() {
	e.pool.Wait()
}
