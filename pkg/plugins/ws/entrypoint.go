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

package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freshvault/inventory-sync/pkg/core"
)

const writeWait = 10 * time.Second

// Entrypoint serves the bidirectional observer protocol over websocket.
type Entrypoint struct {
	name     string
	port     int
	upgrader websocket.Upgrader
	manager  core.SessionManager
	handler  core.MessageHandler
	server   *http.Server
	logger   *slog.Logger
	sessions sync.Map
}

func New(name string, port int, logger *slog.Logger) *Entrypoint {
	return &Entrypoint{
		name: name,
		port: port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (e *Entrypoint) Name() string { return e.name }
func (e *Entrypoint) Type() string { return "websocket" }

func (e *Entrypoint) Start(ctx context.Context, manager core.SessionManager, handler core.MessageHandler) error {
	e.manager = manager
	e.handler = handler

	e.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", e.port),
		Handler: e.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	e.logger.Info("websocket entrypoint starting", "name", e.name, "port", e.port)
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
	mux.HandleFunc("/", e.handleConnection)
	return mux
}

func (e *Entrypoint) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Error("ws upgrade failed", "error", err)
		return
	}

	clientID := core.GenerateClientID(r)

	sess, err := e.manager.CreateSession(r.Context(), e.name, clientID)
	if err != nil {
		e.logger.Error("session creation failed", "client_id", clientID, "error", err)
		conn.Close()
		return
	}

	e.sessions.Store(sess.ID, sess)

	defer func() {
		conn.Close()
		e.sessions.Delete(sess.ID)
		// An evicted session is already gone from the manager.
		_ = e.manager.DestroySession(sess.ID)
		e.logger.Info("ws client disconnected", "client_id", clientID, "session_id", sess.ID)
	}()

	e.logger.Info("ws client connected", "client_id", clientID, "session_id", sess.ID)

	go e.downstreamLoop(conn, sess)
	e.upstreamLoop(r.Context(), conn, sess)
}

// downstreamLoop is the only writer on conn apart from control frames.
func (e *Entrypoint) downstreamLoop(conn *websocket.Conn, sess *core.Session) {
	for {
		select {
		case <-sess.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "session closed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			conn.Close()
			return
		case msg := <-sess.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				e.logger.Error("ws write failed", "client_id", sess.ClientID, "error", err)
				sess.Close()
				conn.Close()
				return
			}
		}
	}
}

// upstreamLoop hands frames to the message handler one at a time, so a
// session's events are processed in the order it sent them.
func (e *Entrypoint) upstreamLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !sess.Closed() {
				e.logger.Error("ws read error", "client_id", sess.ClientID, "error", err)
			}
			return
		}
		e.handler.HandleMessage(ctx, sess, payload)
	}
}
