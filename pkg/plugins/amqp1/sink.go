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

// Package amqp1 delivers alerts over AMQP 1.0, the wire protocol spoken by
// JMS-style brokers such as ActiveMQ Artemis and Azure Service Bus.
package amqp1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Azure/go-amqp"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type sender interface {
	Send(ctx context.Context, msg *amqp.Message, opts *amqp.SendOptions) error
	Close(ctx context.Context) error
}

// Sink sends each alert as a single data section to a broker address.
type Sink struct {
	name    string
	url     string
	address string
	conn    *amqp.Conn
	sess    *amqp.Session
	sender  sender
	logger  *slog.Logger
}

func New(name, url, address string, logger *slog.Logger) *Sink {
	return &Sink{
		name:    name,
		url:     url,
		address: address,
		logger:  logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "amqp1" }

func (s *Sink) Connect(ctx context.Context) error {
	if s.address == "" {
		return fmt.Errorf("amqp1 sink %s: address is required", s.name)
	}

	var err error
	s.conn, err = amqp.Dial(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("amqp1 dial: %w", err)
	}

	s.sess, err = s.conn.NewSession(ctx, nil)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("amqp1 session: %w", err)
	}

	snd, err := s.sess.NewSender(ctx, s.address, nil)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("amqp1 sender: %w", err)
	}
	s.sender = snd

	s.logger.Info("amqp1 sink connected", "name", s.name, "address", s.address)
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error {
	if s.sender != nil {
		s.sender.Close(ctx)
	}
	if s.sess != nil {
		s.sess.Close(ctx)
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, alert core.Alert) error {
	if s.sender == nil {
		return fmt.Errorf("amqp1 sink %s: not connected", s.name)
	}
	msg, err := message(alert)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg, nil)
}

func message(alert core.Alert) (*amqp.Message, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("amqp1 encode alert: %w", err)
	}
	subject := alert.Subject
	return &amqp.Message{
		Data: [][]byte{body},
		Properties: &amqp.MessageProperties{
			MessageID: alert.ID,
			Subject:   &subject,
		},
	}, nil
}
