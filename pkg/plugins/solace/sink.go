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

package solace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"solace.dev/go/messaging"
	"solace.dev/go/messaging/pkg/solace"
	"solace.dev/go/messaging/pkg/solace/config"
	"solace.dev/go/messaging/pkg/solace/resource"

	"github.com/freshvault/inventory-sync/pkg/core"
)

const terminateGrace = 5 * time.Second

type Config struct {
	Host     string
	VPN      string
	Username string
	Password string
	Topic    string
}

// Sink direct-publishes alerts to a PubSub+ topic.
type Sink struct {
	name      string
	cfg       Config
	service   solace.MessagingService
	publisher solace.DirectMessagePublisher
	logger    *slog.Logger
}

func New(name string, cfg Config, logger *slog.Logger) *Sink {
	return &Sink{name: name, cfg: cfg, logger: logger}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "solace" }

func (s *Sink) Connect(ctx context.Context) error {
	if s.cfg.Host == "" || s.cfg.Topic == "" {
		return fmt.Errorf("solace sink %s: host and topic are required", s.name)
	}

	var err error
	s.service, err = messaging.NewMessagingServiceBuilder().
		FromConfigurationProvider(config.ServicePropertyMap{
			config.TransportLayerPropertyHost:                s.cfg.Host,
			config.ServicePropertyVPNName:                    s.cfg.VPN,
			config.AuthenticationPropertySchemeBasicUserName: s.cfg.Username,
			config.AuthenticationPropertySchemeBasicPassword: s.cfg.Password,
		}).Build()
	if err != nil {
		return fmt.Errorf("solace build: %w", err)
	}
	if err := s.service.Connect(); err != nil {
		return fmt.Errorf("solace connect: %w", err)
	}

	s.publisher, err = s.service.CreateDirectMessagePublisherBuilder().Build()
	if err != nil {
		s.service.Disconnect()
		return fmt.Errorf("solace publisher build: %w", err)
	}
	if err := s.publisher.Start(); err != nil {
		s.service.Disconnect()
		return fmt.Errorf("solace publisher start: %w", err)
	}

	s.logger.Info("solace sink connected", "name", s.name, "host", s.cfg.Host, "topic", s.cfg.Topic)
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error {
	if s.publisher != nil {
		s.publisher.Terminate(terminateGrace)
	}
	if s.service != nil {
		return s.service.Disconnect()
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, alert core.Alert) error {
	if s.publisher == nil {
		return fmt.Errorf("solace sink %s: not connected", s.name)
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("solace encode alert: %w", err)
	}
	msg, err := s.service.MessageBuilder().BuildWithByteArrayPayload(body)
	if err != nil {
		return fmt.Errorf("solace build message: %w", err)
	}
	return s.publisher.Publish(msg, resource.TopicOf(s.cfg.Topic))
}
