// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for handler invocation metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusPanic    = "panic"
	StatusRejected = "rejected"
)

// DispatchEvents counts events handed to the dispatcher by protocol command.
var DispatchEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "convex_dispatch_events_total",
		Help: "Total number of events dispatched by protocol command",
	},
	[]string{"command"},
)

// HandlerInvocations counts handler runs by outcome.
var HandlerInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "convex_handler_invocations_total",
		Help: "Total number of handler invocations by plugin, command and status",
	},
	[]string{"plugin", "command", "status"},
)

// HandlerDuration observes handler run time.
var HandlerDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "convex_handler_duration_seconds",
		Help:    "Handler execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"plugin", "command"},
)

// RegisterMetrics registers the command package metrics with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(DispatchEvents)
	reg.MustRegister(HandlerInvocations)
	reg.MustRegister(HandlerDuration)
}

// RecordDispatch increments the dispatch counter for command.
func RecordDispatch(command string) {
	DispatchEvents.WithLabelValues(command).Inc()
}

// RecordHandlerInvocation increments the invocation counter.
func RecordHandlerInvocation(pluginName, command, status string) {
	HandlerInvocations.WithLabelValues(pluginName, command, status).Inc()
}

// RecordHandlerDuration observes how long a handler ran.
func RecordHandlerDuration(pluginName, command string, duration time.Duration) {
	HandlerDuration.WithLabelValues(pluginName, command).Observe(duration.Seconds())
}
