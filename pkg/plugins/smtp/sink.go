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

// Package smtp mails near-expiry alerts as plain-text messages.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/freshvault/inventory-sync/pkg/core"
)

const dialTimeout = 15 * time.Second

// sender is the part of *mail.Client the sink drives.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Config struct {
	Addr     string
	From     string
	To       []string
	Username string
	Password string
	// TLS is "mandatory", "opportunistic" (default) or "none".
	TLS string
}

type Sink struct {
	name   string
	cfg    Config
	client sender
	logger *slog.Logger
}

func New(name string, cfg Config, logger *slog.Logger) *Sink {
	return &Sink{name: name, cfg: cfg, logger: logger}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "smtp" }

// Connect validates the configuration and builds the client; a connection is
// opened per alert.
func (s *Sink) Connect(ctx context.Context) error {
	if s.cfg.Addr == "" || s.cfg.From == "" || len(s.cfg.To) == 0 {
		return fmt.Errorf("smtp sink %s: addr, from and to are required", s.name)
	}
	host, portStr, err := net.SplitHostPort(s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("smtp sink %s: %w", s.name, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("smtp sink %s: invalid port %q", s.name, portStr)
	}
	policy, err := tlsPolicy(s.cfg.TLS)
	if err != nil {
		return fmt.Errorf("smtp sink %s: %w", s.name, err)
	}
	if _, err := s.compose(core.Alert{}); err != nil {
		return fmt.Errorf("smtp sink %s: %w", s.name, err)
	}
	if s.client != nil {
		return nil
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(dialTimeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return fmt.Errorf("smtp sink %s: %w", s.name, err)
	}
	s.client = client
	s.logger.Info("smtp sink ready", "name", s.name, "addr", s.cfg.Addr, "recipients", len(s.cfg.To), "tls", policy.String())
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error { return nil }

func (s *Sink) Send(ctx context.Context, alert core.Alert) error {
	if s.client == nil {
		return fmt.Errorf("smtp sink %s: not connected", s.name)
	}
	msg, err := s.compose(alert)
	if err != nil {
		return fmt.Errorf("smtp compose: %w", err)
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// compose builds a quoted-printable UTF-8 message; non-ASCII subjects are
// header-encoded by the library.
func (s *Sink) compose(alert core.Alert) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithCharset(mail.CharsetUTF8), mail.WithEncoding(mail.EncodingQP))
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(alert.Subject)
	date := alert.GeneratedAt
	if date.IsZero() {
		date = time.Now().UTC()
	}
	msg.SetDateWithValue(date)
	if alert.ID != "" {
		msg.SetMessageIDWithValue(alert.ID + "@freshvault")
	}
	msg.SetBodyString(mail.TypeTextPlain, alert.Body)
	return msg, nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch name {
	case "", "opportunistic":
		return mail.TLSOpportunistic, nil
	case "mandatory":
		return mail.TLSMandatory, nil
	case "none":
		return mail.NoTLS, nil
	default:
		return mail.NoTLS, fmt.Errorf("unknown tls policy %q", name)
	}
}
