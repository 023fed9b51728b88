// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/convex/internal/host"
	ircconn "github.com/holomush/convex/internal/irc"
	"github.com/holomush/convex/internal/observability"
	"github.com/holomush/convex/plugins/core"
)

// BotDeps contains injectable dependencies for the bot.
// All fields with nil values will use their default implementations.
type BotDeps struct {
	// Dialer connects and registers with the IRC server.
	// Default: ircconn.Dial
	Dialer func(ctx context.Context, cfg ircconn.Config) (host.Connection, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// Lookups serves the web lookup commands.
	// Default: webapi.New with the configured endpoints and keys
	Lookups core.Lookups

	// Console receives log output alongside the log file.
	// Default: os.Stderr
	Console io.Writer
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Registry() prometheus.Registerer
	Metrics() *observability.Metrics
}
