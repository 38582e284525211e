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

package mqtt5

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type publisher interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

// Sink publishes alerts at QoS 1 to an MQTT v5 topic.
type Sink struct {
	name      string
	brokerURL string
	topic     string
	cm        *autopaho.ConnectionManager
	pub       publisher
	logger    *slog.Logger
}

func New(name, brokerURL, topic string, logger *slog.Logger) *Sink {
	return &Sink{
		name:      name,
		brokerURL: brokerURL,
		topic:     topic,
		logger:    logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "mqtt5" }

func (s *Sink) Connect(ctx context.Context) error {
	if s.topic == "" {
		return fmt.Errorf("mqtt5 sink %s: topic is required", s.name)
	}
	serverURL, err := url.Parse(s.brokerURL)
	if err != nil {
		return fmt.Errorf("mqtt5 invalid URL: %w", err)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{serverURL},
		KeepAlive:                     30,
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			s.logger.Info("mqtt5 connection up", "name", s.name)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "freshvault-" + s.name + "-" + uuid.New().String()[:8],
		},
	}

	s.cm, err = autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("mqtt5 connection: %w", err)
	}
	if err := s.cm.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("mqtt5 await connection: %w", err)
	}
	s.pub = s.cm

	s.logger.Info("mqtt5 sink connected", "name", s.name, "broker", s.brokerURL, "topic", s.topic)
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error {
	if s.cm != nil {
		return s.cm.Disconnect(ctx)
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, alert core.Alert) error {
	if s.pub == nil {
		return fmt.Errorf("mqtt5 sink %s: not connected", s.name)
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("mqtt5 encode alert: %w", err)
	}
	_, err = s.pub.Publish(ctx, &paho.Publish{
		Topic:   s.topic,
		QoS:     1,
		Payload: body,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	})
	return err
}
