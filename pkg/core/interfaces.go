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

package core

import (
	"context"
	"sync"
)

// Entrypoint accepts client connections and feeds their frames to a MessageHandler.
type Entrypoint interface {
	Name() string
	Type() string
	Start(ctx context.Context, manager SessionManager, handler MessageHandler) error
	Stop(ctx context.Context) error
}

// Sink delivers near-expiry alerts to an external system.
type Sink interface {
	Name() string
	Type() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Send(ctx context.Context, alert Alert) error
}

type SessionManager interface {
	CreateSession(ctx context.Context, entrypointName string, clientID string) (*Session, error)
	DestroySession(sessionID string) error
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, sess *Session, payload []byte)
}

// ProductStore is the persistent key-value product database keyed by scan code.
// Get returns ErrNotFound when no record exists; any other error is transient.
type ProductStore interface {
	Get(ctx context.Context, code string) (Product, error)
	Set(ctx context.Context, code string, product Product) error
	Delete(ctx context.Context, code string) error
	Close() error
}

// Catalog resolves a scan code to product metadata. It returns ErrNotFound
// when the catalog has no entry for the code.
type Catalog interface {
	Lookup(ctx context.Context, code string) (CatalogItem, error)
}

// Session is one connected observer. Outbound is never closed; writers stop
// when Done is closed.
type Session struct {
	ID             string
	ClientID       string
	EntrypointName string
	Outbound       chan Message
	Cancel         context.CancelFunc

	done      <-chan struct{}
	closeOnce sync.Once
}

func NewSession(ctx context.Context, id, clientID, entrypointName string, buffer int) (*Session, context.Context) {
	if buffer <= 0 {
		buffer = 1
	}
	sessCtx, cancel := context.WithCancel(ctx)
	return &Session{
		ID:             id,
		ClientID:       clientID,
		EntrypointName: entrypointName,
		Outbound:       make(chan Message, buffer),
		Cancel:         cancel,
		done:           sessCtx.Done(),
	}, sessCtx
}

// Done is closed once the session is destroyed or evicted.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close cancels the session; it is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.Cancel != nil {
			s.Cancel()
		}
	})
}

// Offer queues msg without blocking. It reports false when the session is
// closed or its outbound buffer is full.
func (s *Session) Offer(msg Message) bool {
	if s.Closed() {
		return false
	}
	select {
	case s.Outbound <- msg:
		return true
	default:
		return false
	}
}
