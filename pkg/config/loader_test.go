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

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
entrypoints:
  - name: ws
    type: websocket
    port: 8066
  - name: scanners
    type: http_post
    port: 8067
store:
  type: redis
  timeout: 2s
  redis:
    addr: "localhost:6379"
catalog:
  defaults:
    expiry_date: "2026-12-31"
expiry:
  horizon_days: 3
  sweep_interval: 1h
notifications:
  sinks:
    - name: alerts
      type: kafka
      config:
        brokers: "localhost:9092"
        topic: "freshvault.alerts"
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Entrypoints) != 2 {
		t.Fatalf("expected 2 entrypoints, got %d", len(cfg.Entrypoints))
	}
	if cfg.Entrypoints[1].Type != "http_post" {
		t.Fatalf("expected http_post, got %s", cfg.Entrypoints[1].Type)
	}
	if cfg.Store.Type != "redis" || cfg.Store.Timeout != 2*time.Second {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.Redis.KeyPrefix != "freshvault:products:" {
		t.Fatalf("expected default key prefix, got %q", cfg.Store.Redis.KeyPrefix)
	}
	if cfg.Catalog.Defaults.ExpiryDate != "2026-12-31" {
		t.Fatalf("expected catalog default expiry override, got %s", cfg.Catalog.Defaults.ExpiryDate)
	}
	if cfg.Catalog.Defaults.Price != 1.0 {
		t.Fatalf("expected default price 1.0, got %v", cfg.Catalog.Defaults.Price)
	}
	if cfg.Expiry.HorizonDays != 3 || cfg.Expiry.SweepInterval != time.Hour {
		t.Fatalf("unexpected expiry config: %+v", cfg.Expiry)
	}
	if got := cfg.Notifications.Sinks[0].Config["topic"]; got != "freshvault.alerts" {
		t.Fatalf("expected sink topic, got %q", got)
	}
}

func TestLoadMissingOptionalFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Type != "memory" {
		t.Fatalf("expected memory store, got %s", cfg.Store.Type)
	}
	if len(cfg.Entrypoints) != 1 || cfg.Entrypoints[0].Type != "websocket" {
		t.Fatalf("expected default websocket entrypoint, got %+v", cfg.Entrypoints)
	}
	if cfg.Expiry.HorizonDays != 5 {
		t.Fatalf("expected 5 day horizon, got %d", cfg.Expiry.HorizonDays)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path", true)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
store:
  type: sqlite
expiry:
  horizon_days: 3
`)
	t.Setenv("FRESHVAULT_STORE_TYPE", "memory")
	t.Setenv("FRESHVAULT_EXPIRY_HORIZON_DAYS", "7")
	t.Setenv("FRESHVAULT_CATALOG_TIMEOUT", "750ms")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Type != "memory" {
		t.Fatalf("expected env store type, got %s", cfg.Store.Type)
	}
	if cfg.Expiry.HorizonDays != 7 {
		t.Fatalf("expected env horizon 7, got %d", cfg.Expiry.HorizonDays)
	}
	if cfg.Catalog.Timeout != 750*time.Millisecond {
		t.Fatalf("expected env catalog timeout, got %v", cfg.Catalog.Timeout)
	}
}

func TestValidateRejectsUnknownTypes(t *testing.T) {
	tests := map[string]string{
		"entrypoint": "entrypoints:\n  - name: x\n    type: grpc\n    port: 1\n",
		"store":      "store:\n  type: postgres\n",
		"sink":       "notifications:\n  sinks:\n    - name: x\n      type: pager\n",
		"level":      "log_level: chatty\n",
		"duration":   "store:\n  timeout: -1s\n",
		"port":       "entrypoints:\n  - name: x\n    type: sse\n    port: 70000\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content), true); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

type recordingHorizon struct{ days int }

func (r *recordingHorizon) SetHorizon(days int) { r.days = days }

func TestWatcherAppliesReloadableSettings(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	level := new(slog.LevelVar)
	horizon := &recordingHorizon{}
	w := NewWatcher(path, level, horizon, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	if err := os.WriteFile(path, []byte("log_level: debug\nexpiry:\n  horizon_days: 2\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	w.poll()
	if level.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", level.Level())
	}
	if horizon.days != 2 {
		t.Fatalf("expected horizon 2, got %d", horizon.days)
	}
}

func TestWatcherIgnoresInvalidReload(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	w := NewWatcher(path, level, nil, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	if err := os.WriteFile(path, []byte("log_level: [\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	future := time.Now().Add(time.Minute)
	_ = os.Chtimes(path, future, future)

	w.poll()
	if level.Level() != slog.LevelWarn {
		t.Fatalf("expected level unchanged, got %s", level.Level())
	}
}
