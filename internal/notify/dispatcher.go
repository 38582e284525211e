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

// Package notify delivers near-expiry alerts to the configured sinks off the
// mutation path. Delivery is best effort: failures are logged and counted.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/freshvault/inventory-sync/internal/metrics"
	"github.com/freshvault/inventory-sync/pkg/core"
)

type Dispatcher struct {
	sinks   []core.Sink
	queue   chan core.Alert
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewDispatcher(sinks []core.Sink, queueSize int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 16
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan core.Alert, queueSize),
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Notify renders an alert and queues it without blocking. When the queue is
// full the alert is dropped.
func (d *Dispatcher) Notify(products []core.Product, horizonDays int) {
	if len(products) == 0 {
		return
	}
	alert := NewAlert(append([]core.Product(nil), products...), horizonDays, d.now())
	select {
	case d.queue <- alert:
	default:
		metrics.Notifications.WithLabelValues("queue", "dropped").Inc()
		d.logger.Warn("notification queue full, alert dropped", "alert_id", alert.ID, "products", len(products))
	}
}

// Run delivers queued alerts until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("notification dispatcher started", "sinks", len(d.sinks))
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-d.queue:
			d.deliver(ctx, alert)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, alert core.Alert) {
	if len(d.sinks) == 0 {
		d.logger.Info("products expiring soon", "alert_id", alert.ID, "products", len(alert.Products))
		return
	}
	for _, sink := range d.sinks {
		d.send(ctx, sink, alert)
	}
}

func (d *Dispatcher) send(ctx context.Context, sink core.Sink, alert core.Alert) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Notifications.WithLabelValues(sink.Name(), "failed").Inc()
			d.logger.Error("sink panic recovered", "sink", sink.Name(), "alert_id", alert.ID, "error", r)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := sink.Send(sendCtx, alert); err != nil {
		metrics.Notifications.WithLabelValues(sink.Name(), "failed").Inc()
		d.logger.Error("notification failed", "sink", sink.Name(), "type", sink.Type(), "alert_id", alert.ID, "error", err)
		return
	}
	metrics.Notifications.WithLabelValues(sink.Name(), "sent").Inc()
	d.logger.Info("notification sent", "sink", sink.Name(), "alert_id", alert.ID, "products", len(alert.Products))
}
