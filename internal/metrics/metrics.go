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

// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "freshvault"

var (
	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Inbound resolutions by the stage they ended at and their outcome.",
	}, []string{"stage", "outcome"})

	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registry_mutations_total",
		Help:      "Registry mutations by kind.",
	}, []string{"kind"})

	RegistrySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registry_products",
		Help:      "Products currently on the shelf.",
	})

	Broadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcasts_total",
		Help:      "Snapshots published to observers.",
	})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Connected observers.",
	})

	Evictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_evictions_total",
		Help:      "Observers evicted because their outbound buffer was full.",
	})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Near-expiry alerts delivered per sink and status.",
	}, []string{"sink", "status"})

	ExternalCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "external_call_duration_seconds",
		Help:      "Latency of store and catalog calls.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"target", "op"})
)

func init() {
	prometheus.MustRegister(
		Resolutions,
		Mutations,
		RegistrySize,
		Broadcasts,
		ActiveSessions,
		Evictions,
		Notifications,
		ExternalCallDuration,
	)
}
