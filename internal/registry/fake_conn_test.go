// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// fakeConn is an in-memory stand-in for a Snowflake connection, driven by
// a scripted sequence of status results so tests can force PENDING/
// RUNNING/terminal transitions deterministically.
type fakeConn struct {
	mu         sync.Mutex
	id         string
	submitErr  error
	statusSeq  []StatusResult
	statusErr  error
	result     *ResultSet
	fetchErr   error
	canceled   atomic.Bool
	cancelErr  error
	closed     atomic.Bool
	statusCall int

	// blockCheckStatus, when set, makes CheckStatus mimic the real
	// executor: it never returns on its own, only when ctx is canceled,
	// at which point it reports ctx.Err() as if the in-flight driver call
	// was abandoned rather than completed.
	blockCheckStatus bool
	// blockFetchResult does the same for FetchResult.
	blockFetchResult bool
}

func (c *fakeConn) SubmitAsync(ctx context.Context, sql string) (string, error) {
	if c.submitErr != nil {
		return "", c.submitErr
	}
	return c.id, nil
}

func (c *fakeConn) CheckStatus(ctx context.Context, serverQueryID string) (StatusResult, error) {
	if c.blockCheckStatus {
		<-ctx.Done()
		return StatusResult{}, ctx.Err()
	}
	if c.statusErr != nil {
		return StatusResult{}, c.statusErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.statusSeq) == 0 {
		return StatusResult{State: StatusStillRunning}, nil
	}
	idx := c.statusCall
	if idx >= len(c.statusSeq) {
		idx = len(c.statusSeq) - 1
	}
	c.statusCall++
	return c.statusSeq[idx], nil
}

func (c *fakeConn) FetchResult(ctx context.Context, serverQueryID string, maxRows int) (*ResultSet, error) {
	if c.blockFetchResult {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if c.result == nil {
		return &ResultSet{}, nil
	}
	rs := *c.result
	if maxRows >= 0 && len(rs.Rows) > maxRows {
		rs.Rows = rs.Rows[:maxRows]
	}
	return &rs, nil
}

func (c *fakeConn) Cancel(ctx context.Context, serverQueryID string) error {
	c.canceled.Store(true)
	return c.cancelErr
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// fakeProvider hands out fakeConns from a queue, tracking every connection
// it ever opened so tests can assert closure.
type fakeProvider struct {
	mu       sync.Mutex
	queue    []*fakeConn
	opened   []*fakeConn
	openErr  error
	openHook func()
}

func (p *fakeProvider) NewConnection(ctx context.Context) (Conn, error) {
	if p.openHook != nil {
		p.openHook()
	}
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var c *fakeConn
	if len(p.queue) > 0 {
		c = p.queue[0]
		p.queue = p.queue[1:]
	} else {
		c = &fakeConn{id: "sf-default"}
	}
	p.opened = append(p.opened, c)
	return c, nil
}

func (p *fakeProvider) CloseSafely(conn Conn) {
	_ = conn.Close()
}

func (p *fakeProvider) openedConns() []*fakeConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeConn(nil), p.opened...)
}

var errFakeConnect = errors.New("fake: connect failed")
