// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/freshvault/inventory-sync/internal/logging"
	"github.com/freshvault/inventory-sync/internal/metrics"
	"github.com/freshvault/inventory-sync/pkg/core"
)

// SnapshotSource yields the current shelf contents for a new observer.
type SnapshotSource interface {
	Snapshot() []core.Product
}

// Manager tracks connected observers and fans registry snapshots out to them.
// An observer whose outbound buffer is full when a snapshot is published is
// evicted rather than allowed to stall the others.
type Manager struct {
	sessions sync.Map

	// publishMu orders a new session's initial snapshot against concurrent
	// publishes so it never receives an update older than its initial state.
	publishMu sync.Mutex

	source   SnapshotSource
	buffer   int
	logger   *slog.Logger
	frameLog *logging.FrameLogger
}

func NewManager(source SnapshotSource, buffer int, logger *slog.Logger, frameLog *logging.FrameLogger) *Manager {
	if buffer <= 0 {
		buffer = 16
	}
	return &Manager{
		source:   source,
		buffer:   buffer,
		logger:   logger,
		frameLog: frameLog,
	}
}

func (m *Manager) CreateSession(
	ctx context.Context,
	entrypointName string,
	clientID string,
) (*core.Session, error) {
	sess, _ := core.NewSession(ctx, uuid.New().String(), clientID, entrypointName, m.buffer)

	m.publishMu.Lock()
	initial := core.SnapshotMessage(core.MessageInitial, m.snapshot())
	if !sess.Offer(initial) {
		m.publishMu.Unlock()
		sess.Close()
		return nil, fmt.Errorf("queue initial snapshot: session=%s", sess.ID)
	}
	m.sessions.Store(sess.ID, sess)
	m.publishMu.Unlock()

	metrics.ActiveSessions.Inc()
	m.logOutbound(sess, initial)
	m.logger.Info("session created",
		"session_id", sess.ID,
		"client_id", clientID,
		"entrypoint", entrypointName,
		"buffer", m.buffer,
	)
	return sess, nil
}

func (m *Manager) DestroySession(sessionID string) error {
	val, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return fmt.Errorf("%w: id=%s", core.ErrSessionNotFound, sessionID)
	}
	sess := val.(*core.Session)
	sess.Close()
	metrics.ActiveSessions.Dec()

	m.logger.Info("session destroyed",
		"session_id", sessionID,
		"client_id", sess.ClientID,
	)
	return nil
}

func (m *Manager) DestroyAll() {
	m.sessions.Range(func(key, _ any) bool {
		_ = m.DestroySession(key.(string))
		return true
	})
}

func (m *Manager) ActiveCount() int {
	count := 0
	m.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Publish delivers an update snapshot to every connected observer and returns
// how many accepted it.
func (m *Manager) Publish(products []core.Product) int {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	msg := core.SnapshotMessage(core.MessageUpdate, products)
	delivered := 0
	m.sessions.Range(func(key, val any) bool {
		sess := val.(*core.Session)
		if sess.Closed() {
			m.forget(key.(string))
			return true
		}
		if !sess.Offer(msg) {
			m.evict(sess)
			return true
		}
		delivered++
		m.logOutbound(sess, msg)
		return true
	})
	metrics.Broadcasts.Inc()
	m.logger.Debug("snapshot published", "products", len(products), "observers", delivered)
	return delivered
}

func (m *Manager) evict(sess *core.Session) {
	if _, ok := m.sessions.LoadAndDelete(sess.ID); !ok {
		return
	}
	sess.Close()
	metrics.ActiveSessions.Dec()
	metrics.Evictions.Inc()
	m.logger.Warn("slow observer evicted",
		"session_id", sess.ID,
		"client_id", sess.ClientID,
		"buffer", cap(sess.Outbound),
	)
}

func (m *Manager) forget(sessionID string) {
	if _, ok := m.sessions.LoadAndDelete(sessionID); ok {
		metrics.ActiveSessions.Dec()
	}
}

func (m *Manager) snapshot() []core.Product {
	if m.source == nil {
		return nil
	}
	return m.source.Snapshot()
}

func (m *Manager) logOutbound(sess *core.Session, msg core.Message) {
	if m.frameLog != nil {
		m.frameLog.Outbound(sess, msg)
	}
}
