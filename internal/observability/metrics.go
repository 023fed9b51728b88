// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// actionsTotal counts actions applied by the host bridge, by kind. It is
// package-level so the bridge can record without a Server.
var actionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "convex_actions_total",
		Help: "Total number of plugin actions applied by kind",
	},
	[]string{"kind"},
)

// RecordAction increments the action counter for kind.
func RecordAction(kind string) {
	actionsTotal.WithLabelValues(kind).Inc()
}

// ActionCount returns the current counter for kind. Intended for tests.
func ActionCount(kind string) prometheus.Counter {
	return actionsTotal.WithLabelValues(kind)
}

// Connection attempt results.
const (
	ConnectSuccess = "success"
	ConnectFailure = "failure"
)

// Metrics contains connection-level Prometheus metrics.
type Metrics struct {
	ConnectAttempts *prometheus.CounterVec
	LinesTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers the connection metrics and the action
// counter.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convex_connect_attempts_total",
				Help: "Total number of IRC connection attempts by result",
			},
			[]string{"result"},
		),
		LinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convex_lines_total",
				Help: "Total number of protocol lines by direction",
			},
			[]string{"direction"},
		),
	}

	reg.MustRegister(m.ConnectAttempts)
	reg.MustRegister(m.LinesTotal)
	reg.MustRegister(actionsTotal)

	return m
}
