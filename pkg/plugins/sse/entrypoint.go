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

package sse

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

// Entrypoint streams snapshots to read-only observers as server-sent events.
type Entrypoint struct {
	name     string
	port     int
	manager  core.SessionManager
	server   *http.Server
	logger   *slog.Logger
	sessions sync.Map
}

func New(name string, port int, logger *slog.Logger) *Entrypoint {
	return &Entrypoint{name: name, port: port, logger: logger}
}

func (e *Entrypoint) Name() string { return e.name }
func (e *Entrypoint) Type() string { return "sse" }

// Start serves observers. SSE is one-way, so handler is not used.
func (e *Entrypoint) Start(ctx context.Context, manager core.SessionManager, _ core.MessageHandler) error {
	e.manager = manager

	e.server = &http.Server{Addr: fmt.Sprintf(":%d", e.port), Handler: e.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	e.logger.Info("sse entrypoint starting", "name", e.name, "port", e.port)
	if err := e.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (e *Entrypoint) Stop(ctx context.Context) error {
	e.sessions.Range(func(_, val any) bool {
		sess := val.(*core.Session)
		_ = e.manager.DestroySession(sess.ID)
		return true
	})
	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

func (e *Entrypoint) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", e.handleSSE)
	return mux
}

func (e *Entrypoint) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := core.GenerateClientID(r)
	sess, err := e.manager.CreateSession(r.Context(), e.name, clientID)
	if err != nil {
		e.logger.Error("sse session creation failed", "error", err)
		http.Error(w, "session creation failed", http.StatusInternalServerError)
		return
	}

	e.sessions.Store(sess.ID, sess)
	defer func() {
		e.sessions.Delete(sess.ID)
		_ = e.manager.DestroySession(sess.ID)
		e.logger.Info("sse client disconnected", "client_id", clientID, "session_id", sess.ID)
	}()

	e.logger.Info("sse client connected", "client_id", clientID, "session_id", sess.ID)

	var seq int
	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.Done():
			return
		case msg := <-sess.Outbound:
			data, err := json.Marshal(msg)
			if err != nil {
				e.logger.Error("marshal sse message failed", "error", err)
				continue
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, msg.Type, data)
			flusher.Flush()
		}
	}
}
