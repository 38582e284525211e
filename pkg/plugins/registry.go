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

package plugins

import (
	"context"
	"log/slog"
	"sync"

	"github.com/freshvault/inventory-sync/pkg/core"
)

// Registry holds the configured client entrypoints and notification sinks.
type Registry struct {
	entrypoints map[string]core.Entrypoint
	sinks       map[string]core.Sink
	healthy     map[string]bool
	logger      *slog.Logger
	mu          sync.RWMutex
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		entrypoints: make(map[string]core.Entrypoint),
		sinks:       make(map[string]core.Sink),
		healthy:     make(map[string]bool),
		logger:      logger,
	}
}

func (r *Registry) RegisterEntrypoint(e core.Entrypoint) {
	r.mu.Lock()
	r.entrypoints[e.Name()] = e
	r.mu.Unlock()
	r.logger.Info("registered entrypoint", "name", e.Name(), "type", e.Type())
}

func (r *Registry) RegisterSink(s core.Sink) {
	r.mu.Lock()
	r.sinks[s.Name()] = s
	r.mu.Unlock()
	r.logger.Info("registered sink", "name", s.Name(), "type", s.Type())
}

func (r *Registry) Entrypoints() map[string]core.Entrypoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]core.Entrypoint, len(r.entrypoints))
	for k, v := range r.entrypoints {
		cp[k] = v
	}
	return cp
}

// ConnectSinks connects every registered sink and returns the ones that
// succeeded. A sink that fails to connect is logged and left out.
func (r *Registry) ConnectSinks(ctx context.Context) []core.Sink {
	r.mu.Lock()
	defer r.mu.Unlock()
	var connected []core.Sink
	for name, s := range r.sinks {
		if err := s.Connect(ctx); err != nil {
			r.logger.Error("sink connect failed", "name", name, "type", s.Type(), "error", err)
			r.healthy[name] = false
			continue
		}
		r.healthy[name] = true
		connected = append(connected, s)
	}
	return connected
}

func (r *Registry) StartEntrypoints(ctx context.Context, manager core.SessionManager, handler core.MessageHandler) {
	for name, ep := range r.Entrypoints() {
		go func(n string, e core.Entrypoint) {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("entrypoint panic recovered", "name", n, "error", rec)
				}
			}()
			if err := e.Start(ctx, manager, handler); err != nil {
				r.logger.Error("entrypoint failed", "name", n, "error", err)
			}
		}(name, ep)
	}
}

func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, ep := range r.entrypoints {
		r.logger.Info("stopping entrypoint", "name", name)
		if err := ep.Stop(ctx); err != nil {
			r.logger.Warn("entrypoint stop failed", "name", name, "error", err)
		}
	}
	for name, s := range r.sinks {
		if !r.healthy[name] {
			continue
		}
		r.logger.Info("disconnecting sink", "name", name)
		if err := s.Disconnect(ctx); err != nil {
			r.logger.Warn("sink disconnect failed", "name", name, "error", err)
		}
	}
}
