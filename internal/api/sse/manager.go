// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sse pushes live query-snapshot updates to subscribed HTTP
// clients while a query is still non-terminal.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmaxmax/go-sse"

	"github.com/yuly3/mcp-snowflake-go/internal/registry"
)

const (
	eventSnapshot = "snapshot"
	eventClosed   = "closed"
	pushInterval  = time.Second
)

type topicKey string

const queryTopicContextKey topicKey = "snowflake-mcp.sse.queryID"

// Manager owns the SSE server and streams QuerySnapshot updates, one
// topic per query id, until that query reaches a terminal status.
type Manager struct {
	server *sse.Server
	reg    *registry.Registry
}

// NewManager constructs a Manager backed by reg.
func NewManager(reg *registry.Registry) *Manager {
	m := &Manager{
		server: &sse.Server{Provider: &sse.Joe{}},
		reg:    reg,
	}
	m.server.OnSession = m.onSession
	return m
}

// ServeQuery streams snapshot updates for queryID until the query goes
// terminal or the client disconnects. Responds 404 if queryID is unknown.
func (m *Manager) ServeQuery(w http.ResponseWriter, r *http.Request, queryID string) {
	if snap := m.reg.GetSnapshot(queryID); snap == nil {
		http.Error(w, "query not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	go m.pushLoop(ctx, cancel, queryID)

	req := r.WithContext(context.WithValue(ctx, queryTopicContextKey, queryID))
	m.server.ServeHTTP(w, req)
}

func (m *Manager) onSession(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	queryID, _ := r.Context().Value(queryTopicContextKey).(string)
	if queryID == "" {
		http.Error(w, "missing query id", http.StatusBadRequest)
		return nil, false
	}
	return []string{queryID}, true
}

// pushLoop polls the registry on a fixed interval and publishes a
// snapshot event to queryID's topic. It publishes one final "closed"
// event and cancels ctx once the query reaches a terminal status.
func (m *Manager) pushLoop(ctx context.Context, cancel context.CancelFunc, queryID string) {
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.reg.GetSnapshot(queryID)
			if snap == nil {
				m.publish(queryID, eventClosed, nil)
				cancel()
				return
			}

			m.publish(queryID, eventSnapshot, snap)

			if snap.Status.Terminal() {
				m.publish(queryID, eventClosed, nil)
				cancel()
				return
			}
		}
	}
}

func (m *Manager) publish(topic, eventType string, payload any) {
	msg := &sse.Message{Type: sse.Type(eventType)}

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("query_id", topic).Msg("sse: failed to marshal snapshot")
			return
		}
		msg.AppendData(string(encoded))
	}

	if err := m.server.Publish(msg, topic); err != nil && !errors.Is(err, sse.ErrProviderClosed) {
		log.Error().Err(err).Str("query_id", topic).Msg("sse: failed to publish event")
	}
}
