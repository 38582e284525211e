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

// Package httpget serves observers that cannot hold a socket open: a client
// subscribes once and then long-polls for the next snapshot.
package httpget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/freshvault/inventory-sync/pkg/core"
)

// SessionParam names the query parameter carrying the subscription id.
const SessionParam = "session"

const defaultPollTimeout = 30 * time.Second

// An evicted subscription answers 410 for this long, then is forgotten.
const defaultGoneRetention = 2 * defaultPollTimeout

type Entrypoint struct {
	name        string
	port        int
	pollTimeout time.Duration
	retention   time.Duration
	manager     core.SessionManager
	server      *http.Server
	baseCtx     context.Context
	logger      *slog.Logger
	sessions    sync.Map
}

func New(name string, port int, logger *slog.Logger) *Entrypoint {
	return &Entrypoint{
		name:        name,
		port:        port,
		pollTimeout: defaultPollTimeout,
		retention:   defaultGoneRetention,
		baseCtx:     context.Background(),
		logger:      logger,
	}
}

func (e *Entrypoint) Name() string { return e.name }
func (e *Entrypoint) Type() string { return "http_get" }

// Start serves subscribers. Polling is read-only, so handler is not used.
func (e *Entrypoint) Start(ctx context.Context, manager core.SessionManager, _ core.MessageHandler) error {
	e.manager = manager
	e.baseCtx = ctx
	e.server = &http.Server{Addr: fmt.Sprintf(":%d", e.port), Handler: e.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	e.logger.Info("http_get entrypoint starting", "name", e.name, "port", e.port)
	if err := e.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (e *Entrypoint) Stop(ctx context.Context) error {
	e.sessions.Range(func(key, val any) bool {
		e.sessions.Delete(key)
		_ = e.manager.DestroySession(val.(*core.Session).ID)
		return true
	})
	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

func (e *Entrypoint) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/subscribe", e.handleSubscribe)
	mux.HandleFunc("/poll", e.handlePoll)
	mux.HandleFunc("/unsubscribe", e.handleUnsubscribe)
	return mux
}

type subscription struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

// handleSubscribe registers an observer. The session outlives the request;
// its initial snapshot is waiting for the first poll.
func (e *Entrypoint) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	clientID := core.GenerateClientID(r)
	sess, err := e.manager.CreateSession(e.baseCtx, e.name, clientID)
	if err != nil {
		e.logger.Error("http_get subscribe failed", "error", err)
		http.Error(w, "subscription failed", http.StatusInternalServerError)
		return
	}

	e.sessions.Store(sess.ID, sess)
	go e.forgetWhenClosed(sess)
	e.logger.Info("http_get client subscribed", "client_id", clientID, "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, subscription{SessionID: sess.ID, ClientID: clientID})
}

// forgetWhenClosed drops a closed subscription that never polls again.
func (e *Entrypoint) forgetWhenClosed(sess *core.Session) {
	<-sess.Done()
	t := time.NewTimer(e.retention)
	defer t.Stop()
	select {
	case <-t.C:
	case <-e.baseCtx.Done():
	}
	if e.sessions.CompareAndDelete(sess.ID, sess) {
		e.logger.Debug("http_get subscription forgotten", "session_id", sess.ID)
	}
}

// handlePoll waits up to pollTimeout for the next message. A subscription
// that stopped polling fills its buffer and is evicted on a later broadcast;
// its next poll gets 410 and must subscribe again.
func (e *Entrypoint) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := e.lookup(r)
	if !ok {
		http.Error(w, "not subscribed, call /subscribe first", http.StatusNotFound)
		return
	}

	if sess.Closed() {
		e.gone(w, sess)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), e.pollTimeout)
	defer cancel()

	select {
	case msg := <-sess.Outbound:
		writeJSON(w, http.StatusOK, msg)
	case <-sess.Done():
		e.gone(w, sess)
	case <-ctx.Done():
		w.WriteHeader(http.StatusNoContent)
	}
}

func (e *Entrypoint) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "DELETE required", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := e.lookup(r)
	if !ok {
		http.Error(w, "not subscribed", http.StatusNotFound)
		return
	}
	e.sessions.Delete(sess.ID)
	_ = e.manager.DestroySession(sess.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (e *Entrypoint) gone(w http.ResponseWriter, sess *core.Session) {
	e.sessions.Delete(sess.ID)
	http.Error(w, "session closed, subscribe again", http.StatusGone)
}

func (e *Entrypoint) lookup(r *http.Request) (*core.Session, bool) {
	val, ok := e.sessions.Load(r.URL.Query().Get(SessionParam))
	if !ok {
		return nil, false
	}
	return val.(*core.Session), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
