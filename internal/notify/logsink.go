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

package notify

import (
	"context"
	"log/slog"

	"github.com/freshvault/inventory-sync/pkg/core"
)

// LogSink writes alerts to the service log. It is the default when no
// broker or mail sink is configured.
type LogSink struct {
	name   string
	logger *slog.Logger
}

func NewLogSink(name string, logger *slog.Logger) *LogSink {
	return &LogSink{name: name, logger: logger}
}

func (s *LogSink) Name() string { return s.name }
func (s *LogSink) Type() string { return "log" }

func (s *LogSink) Connect(ctx context.Context) error    { return nil }
func (s *LogSink) Disconnect(ctx context.Context) error { return nil }

func (s *LogSink) Send(ctx context.Context, alert core.Alert) error {
	s.logger.Warn(alert.Subject, "alert_id", alert.ID, "horizon_days", alert.HorizonDays, "body", alert.Body)
	return nil
}
