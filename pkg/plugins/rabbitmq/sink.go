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

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Sink publishes near-expiry alerts to a durable queue on the default exchange.
type Sink struct {
	name   string
	url    string
	queue  string
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	pub    publisher
	logger *slog.Logger
}

func New(name, url, queue string, logger *slog.Logger) *Sink {
	return &Sink{
		name:   name,
		url:    url,
		queue:  queue,
		logger: logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "rabbitmq" }

func (s *Sink) Connect(ctx context.Context) error {
	if s.queue == "" {
		return fmt.Errorf("rabbitmq sink %s: queue is required", s.name)
	}

	var err error
	s.conn, err = amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	s.pubCh, err = s.conn.Channel()
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("rabbitmq publish channel: %w", err)
	}

	if _, err := s.pubCh.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		s.conn.Close()
		return fmt.Errorf("rabbitmq queue declare %s: %w", s.queue, err)
	}
	s.pub = s.pubCh

	s.logger.Info("rabbitmq sink connected", "name", s.name, "queue", s.queue)
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error {
	if s.pubCh != nil {
		s.pubCh.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, alert core.Alert) error {
	if s.pub == nil {
		return fmt.Errorf("rabbitmq sink %s: not connected", s.name)
	}
	msg, err := publishing(alert)
	if err != nil {
		return err
	}
	return s.pub.PublishWithContext(ctx, "", s.queue, false, false, msg)
}

func publishing(alert core.Alert) (amqp.Publishing, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq encode alert: %w", err)
	}
	ts := alert.GeneratedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		MessageId:    alert.ID,
		Timestamp:    ts,
		Type:         "expiry_alert",
	}, nil
}
