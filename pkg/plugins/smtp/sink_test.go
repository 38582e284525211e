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

package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
	wait bool
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if f.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	f.sent = append(f.sent, messages...)
	return f.err
}

func testSink(cfg Config) *Sink {
	return New("mail", cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func connected(t *testing.T, f *fakeSender) *Sink {
	t.Helper()
	s := testSink(testConfig)
	s.client = f
	require.NoError(t, s.Connect(context.Background()))
	return s
}

var testConfig = Config{
	Addr:     "mail.example.com:587",
	From:     "alerts@freshvault.example",
	To:       []string{"manager@freshvault.example", "kitchen@freshvault.example"},
	Username: "alerts",
	Password: "secret",
}

func TestComposeHeadersAndBody(t *testing.T) {
	alert := core.Alert{
		ID:          "a-1",
		Subject:     "FreshVault: Products Expiring Soon",
		Body:        "The following products are expiring within 5 days:\n\nMilk (Expires: 2026-03-13)",
		GeneratedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	msg, err := testSink(testConfig).compose(alert)
	require.NoError(t, err)

	assert.Equal(t, []string{"FreshVault: Products Expiring Soon"}, msg.GetGenHeader(mail.HeaderSubject))
	require.Len(t, msg.GetGenHeader(mail.HeaderMessageID), 1)
	assert.Contains(t, msg.GetGenHeader(mail.HeaderMessageID)[0], "a-1@freshvault")
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, testConfig.To, rcpts)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Milk (Expires: 2026-03-13)")
	assert.Contains(t, buf.String(), "text/plain")
}

func TestComposeEncodesNonASCIISubject(t *testing.T) {
	msg, err := testSink(testConfig).compose(core.Alert{Subject: "Frischmilch läuft ab", Body: "b"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	headers, _, ok := strings.Cut(buf.String(), "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "=?UTF-8?")
	assert.NotContains(t, headers, "läuft")
}

func TestSendUsesConfiguredRecipients(t *testing.T) {
	f := &fakeSender{}
	s := connected(t, f)

	require.NoError(t, s.Send(context.Background(), core.Alert{ID: "a-2", Subject: "s", Body: "b"}))
	require.Len(t, f.sent, 1)
	rcpts, err := f.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, testConfig.To, rcpts)
}

func TestSendWrapsTransportError(t *testing.T) {
	s := connected(t, &fakeSender{err: errors.New("550 mailbox unavailable")})
	err := s.Send(context.Background(), core.Alert{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
}

func TestSendHonorsContext(t *testing.T) {
	s := connected(t, &fakeSender{wait: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Send(ctx, core.Alert{}), context.DeadlineExceeded)
}

func TestSendBeforeConnect(t *testing.T) {
	assert.Error(t, testSink(testConfig).Send(context.Background(), core.Alert{}))
}

func TestConnectValidatesConfig(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, testSink(Config{From: "a@b.example", To: []string{"c@d.example"}}).Connect(ctx))
	assert.Error(t, testSink(Config{Addr: "no-port", From: "a@b.example", To: []string{"c@d.example"}}).Connect(ctx))
	assert.Error(t, testSink(Config{Addr: "mail.example.com:smtp", From: "a@b.example", To: []string{"c@d.example"}}).Connect(ctx))
	assert.Error(t, testSink(Config{Addr: "mail.example.com:25", From: "not an address", To: []string{"c@d.example"}}).Connect(ctx))

	cfg := testConfig
	cfg.TLS = "sometimes"
	assert.Error(t, testSink(cfg).Connect(ctx))
}

func TestConnectBuildsClient(t *testing.T) {
	cfg := testConfig
	cfg.TLS = "mandatory"
	s := testSink(cfg)
	require.NoError(t, s.Connect(context.Background()))
	assert.NotNil(t, s.client)
}
