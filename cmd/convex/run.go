// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/convex/internal/command"
	"github.com/holomush/convex/internal/config"
	"github.com/holomush/convex/internal/host"
	ircconn "github.com/holomush/convex/internal/irc"
	"github.com/holomush/convex/internal/logging"
	"github.com/holomush/convex/internal/observability"
	"github.com/holomush/convex/internal/roster"
	"github.com/holomush/convex/internal/webapi"
	"github.com/holomush/convex/plugins/core"
)

// stopTimeout bounds how long auxiliary servers get to stop.
const stopTimeout = 5 * time.Second

// runBotWithDeps runs the bot until it is told to quit, the connection is
// lost or the process is signalled. If deps is nil, default
// implementations are used.
func runBotWithDeps(ctx context.Context, cfg config.Config, cmd *cobra.Command, deps *BotDeps) error {
	if deps == nil {
		deps = &BotDeps{}
	}
	if deps.Dialer == nil {
		deps.Dialer = func(ctx context.Context, cfg ircconn.Config) (host.Connection, error) {
			return ircconn.Dial(ctx, cfg)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.Lookups == nil {
		deps.Lookups = webapi.New(webapi.Config{
			Endpoints: webapi.Endpoints{
				YouTube:    cfg.Endpoints.YouTube,
				Dictionary: cfg.Endpoints.Dictionary,
				Wikipedia:  cfg.Endpoints.Wikipedia,
			},
			YouTubeKey: cfg.APIKeys.YouTube,
		})
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return oops.With("field", "log.level").Wrapf(err, "invalid configuration")
	}
	sink := logging.NewSink(deps.Console, cfg.Log.Path)
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			slog.Debug("error closing log file", "error", closeErr)
		}
	}()
	logger := logging.SetDefault(logging.Options{
		Service: "convex",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  sink,
	})

	slog.Info("starting convex",
		"server", cfg.Server.Addr(),
		"nickname", cfg.Nickname,
		"log_format", cfg.Log.Format,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var conn atomic.Pointer[connHolder]
	ready := func() bool {
		h := conn.Load()
		return h != nil && h.Connected()
	}

	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer := deps.ObservabilityServerFactory(cfg.MetricsAddr, ready)
		command.RegisterMetrics(obsServer.Registry())
		metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("addr", cfg.MetricsAddr).Wrapf(err, "failed to start observability server")
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
			defer stopCancel()
			if err := obsServer.Stop(stopCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	r, err := roster.FromSeed(roster.Seed{
		Channels: cfg.Channels,
		Users:    cfg.Users,
		Ignore:   cfg.Ignore,
	})
	if err != nil {
		return oops.With("field", "ignore").Wrapf(err, "invalid configuration")
	}

	c, err := deps.Dialer(ctx, ircconn.Config{
		Addr:           cfg.Server.Addr(),
		TLS:            cfg.Server.TLS,
		ServerPassword: cfg.Server.Password,
		Nickname:       cfg.Nickname,
		Realname:       cfg.Realname,
		MaxAttempts:    cfg.Reconnect.MaxAttempts,
		BaseDelay:      cfg.Reconnect.BaseDelay,
		Metrics:        metrics,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	conn.Store(&connHolder{c})

	hostCfg := host.Config{
		Nickname:     cfg.Nickname,
		Password:     cfg.Password,
		Version:      version,
		Workers:      cfg.Workers,
		DrainTimeout: cfg.DrainTimeout,
		Logger:       logger,
	}
	if cfg.RateLimit.Burst > 0 {
		hostCfg.RateLimit = &command.RateLimiterConfig{
			BurstCapacity: cfg.RateLimit.Burst,
			SustainedRate: cfg.RateLimit.Rate,
		}
	}
	h, err := host.New(hostCfg, c, r)
	if err != nil {
		_ = c.Close()
		return err //nolint:wrapcheck // already coded
	}
	h.Load(ctx, core.New(deps.Lookups))

	cmd.Println("Convex started")
	if err := h.Run(ctx); err != nil {
		return err //nolint:wrapcheck // already coded
	}
	return nil
}

// connHolder lets the readiness probe see a connection dialled after the
// observability server started.
type connHolder struct {
	host.Connection
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
