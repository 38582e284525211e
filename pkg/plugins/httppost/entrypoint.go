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

package httppost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/freshvault/inventory-sync/pkg/core"
)

// Entrypoint accepts one inbound frame per POST, for scanners that cannot hold
// a websocket open. The request is handled on a private session that is never
// registered for broadcasts; its replies are returned in the response.
type Entrypoint struct {
	name    string
	port    int
	handler core.MessageHandler
	server  *http.Server
	logger  *slog.Logger
	maxBody int64
}

func New(name string, port int, logger *slog.Logger) *Entrypoint {
	return &Entrypoint{
		name:    name,
		port:    port,
		logger:  logger,
		maxBody: 1 << 20,
	}
}

func (e *Entrypoint) Name() string { return e.name }
func (e *Entrypoint) Type() string { return "http_post" }

func (e *Entrypoint) Start(ctx context.Context, _ core.SessionManager, handler core.MessageHandler) error {
	e.handler = handler

	e.server = &http.Server{Addr: fmt.Sprintf(":%d", e.port), Handler: e.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	e.logger.Info("http_post entrypoint starting", "name", e.name, "port", e.port)
	if err := e.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (e *Entrypoint) Stop(ctx context.Context) error {
	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

func (e *Entrypoint) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", e.handlePost)
	return mux
}

func (e *Entrypoint) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, e.maxBody))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	clientID := core.GenerateClientID(r)
	sess, _ := core.NewSession(r.Context(), uuid.New().String(), clientID, e.name, 4)
	defer sess.Close()

	e.handler.HandleMessage(r.Context(), sess, body)

	w.Header().Set("Content-Type", "application/json")
	select {
	case msg := <-sess.Outbound:
		e.logger.Debug("http_post reply", "client_id", clientID, "type", string(msg.Type))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(msg)
	default:
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"accepted"}`))
	}
}
