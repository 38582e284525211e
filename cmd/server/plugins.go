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

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/freshvault/inventory-sync/internal/notify"
	"github.com/freshvault/inventory-sync/pkg/core"
	"github.com/freshvault/inventory-sync/pkg/config"
	"github.com/freshvault/inventory-sync/pkg/plugins"
	"github.com/freshvault/inventory-sync/pkg/plugins/amqp1"
	"github.com/freshvault/inventory-sync/pkg/plugins/httpget"
	"github.com/freshvault/inventory-sync/pkg/plugins/httppost"
	"github.com/freshvault/inventory-sync/pkg/plugins/kafka"
	"github.com/freshvault/inventory-sync/pkg/plugins/mqtt5"
	"github.com/freshvault/inventory-sync/pkg/plugins/rabbitmq"
	"github.com/freshvault/inventory-sync/pkg/plugins/smtp"
	"github.com/freshvault/inventory-sync/pkg/plugins/solace"
	"github.com/freshvault/inventory-sync/pkg/plugins/sse"
	"github.com/freshvault/inventory-sync/pkg/plugins/ws"
)

func registerEntrypoints(cfg *config.Config, reg *plugins.Registry, logger *slog.Logger) {
	for _, e := range cfg.Entrypoints {
		epLogger := logger.With("entrypoint", e.Name)
		switch e.Type {
		case "websocket":
			reg.RegisterEntrypoint(ws.New(e.Name, e.Port, epLogger))
		case "sse":
			reg.RegisterEntrypoint(sse.New(e.Name, e.Port, epLogger))
		case "http_post":
			reg.RegisterEntrypoint(httppost.New(e.Name, e.Port, epLogger))
		case "http_get":
			reg.RegisterEntrypoint(httpget.New(e.Name, e.Port, epLogger))
		default:
			logger.Warn("unknown entrypoint type", "name", e.Name, "type", e.Type)
		}
	}
}

// registerSinks falls back to a single log sink when none are configured.
func registerSinks(cfg *config.Config, reg *plugins.Registry, logger *slog.Logger) error {
	if len(cfg.Notifications.Sinks) == 0 {
		reg.RegisterSink(notify.NewLogSink("log", logger.With("component", "alerts")))
		return nil
	}
	for _, s := range cfg.Notifications.Sinks {
		sinkLogger := logger.With("sink", s.Name)
		switch s.Type {
		case "log":
			reg.RegisterSink(notify.NewLogSink(s.Name, sinkLogger))
		case "kafka":
			reg.RegisterSink(kafka.New(s.Name, splitList(s.Config["brokers"]), s.Config["topic"], sinkLogger))
		case "rabbitmq":
			reg.RegisterSink(rabbitmq.New(s.Name, s.Config["url"], s.Config["queue"], sinkLogger))
		case "amqp1":
			reg.RegisterSink(amqp1.New(s.Name, s.Config["url"], s.Config["address"], sinkLogger))
		case "mqtt5":
			reg.RegisterSink(mqtt5.New(s.Name, s.Config["broker"], s.Config["topic"], sinkLogger))
		case "smtp":
			reg.RegisterSink(smtp.New(s.Name, smtp.Config{
				Addr:     s.Config["addr"],
				From:     s.Config["from"],
				To:       splitList(s.Config["to"]),
				Username: s.Config["username"],
				Password: s.Config["password"],
				TLS:      s.Config["tls"],
			}, sinkLogger))
		case "solace":
			reg.RegisterSink(solace.New(s.Name, solace.Config{
				Host:     s.Config["host"],
				VPN:      s.Config["vpn"],
				Username: s.Config["username"],
				Password: s.Config["password"],
				Topic:    s.Config["topic"],
			}, sinkLogger))
		default:
			return fmt.Errorf("sink %q: %w: %s", s.Name, core.ErrUnknownSinkType, s.Type)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
