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
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
)

// HorizonSetter receives a reloaded expiry horizon.
type HorizonSetter interface {
	SetHorizon(days int)
}

// Watcher polls the config file and applies the settings that can change
// without a restart: log_level and expiry.horizon_days.
type Watcher struct {
	path     string
	level    *slog.LevelVar
	horizon  HorizonSetter
	interval time.Duration
	logger   *slog.Logger
	lastMod  time.Time
}

func NewWatcher(path string, level *slog.LevelVar, horizon HorizonSetter, logger *slog.Logger) *Watcher {
	w := &Watcher{
		path:     path,
		level:    level,
		horizon:  horizon,
		interval: 5 * time.Second,
		logger:   logger,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w
}

func (w *Watcher) Watch(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		w.logger.Warn("config stat failed", "path", w.path, "error", err)
		return
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}
	w.lastMod = info.ModTime()

	cfg, err := Load(w.path, true)
	if err != nil {
		w.logger.Error("config reload failed", "path", w.path, "error", err)
		return
	}
	w.apply(cfg)
}

func (w *Watcher) apply(cfg *Config) {
	if w.level != nil {
		level, err := ParseLevel(cfg.LogLevel)
		if err == nil && level != w.level.Level() {
			w.level.Set(level)
			w.logger.Info("log level reloaded", "level", level.String())
		}
	}
	if w.horizon != nil {
		w.horizon.SetHorizon(cfg.Expiry.HorizonDays)
		w.logger.Info("expiry horizon reloaded", "horizon_days", cfg.Expiry.HorizonDays)
	}
}
