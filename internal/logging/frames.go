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

package logging

import (
	"log/slog"

	"github.com/freshvault/inventory-sync/pkg/core"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// FrameLogger records one line per frame crossing a session boundary.
type FrameLogger struct {
	logger *slog.Logger
}

func NewFrameLogger(logger *slog.Logger) *FrameLogger {
	return &FrameLogger{logger: logger}
}

func (f *FrameLogger) Inbound(sess *core.Session, kind string, payloadSize int) {
	f.logger.Debug("frame",
		"session_id", sess.ID,
		"client_id", sess.ClientID,
		"entrypoint", sess.EntrypointName,
		"direction", DirectionInbound,
		"kind", kind,
		"payload_size", payloadSize,
	)
}

func (f *FrameLogger) Outbound(sess *core.Session, msg core.Message) {
	f.logger.Debug("frame",
		"session_id", sess.ID,
		"client_id", sess.ClientID,
		"entrypoint", sess.EntrypointName,
		"direction", DirectionOutbound,
		"kind", string(msg.Type),
		"products", len(msg.Products),
	)
}
